package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/codeforge/internal/app"
	"github.com/tildaslashalef/codeforge/internal/project"
	"github.com/tildaslashalef/codeforge/internal/utils"
)

// ProjectsCommand returns the projects command
func ProjectsCommand() *cli.Command {
	return &cli.Command{
		Name:    "projects",
		Aliases: []string{"ls"},
		Usage:   "List generated projects",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "page",
				Usage: "Page number",
				Value: 1,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Projects per page",
				Value: 20,
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:      "delete",
				Usage:     "Delete a project and its generation history",
				ArgsUsage: "<name>",
				Action:    projectDeleteAction,
			},
		},
		Action: projectsListAction,
	}
}

func projectsListAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return fmt.Errorf("failed to get application from context: %w", err)
	}

	ctx := context.Background()
	params := project.NewPaginationParams(c.Int("page"), c.Int("limit"))

	projects, err := application.Projects.ListProjects(ctx, params)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}

	if len(projects) == 0 {
		utils.PrintInfo("No projects yet. Generate one with 'codeforge generate'.")
		return nil
	}

	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			p.ID,
			p.Name,
			utils.TruncateString(p.Description, 40),
			p.OutputPath,
			p.UpdatedAt.Format(time.DateTime),
		})
	}

	utils.PrintTable("Projects", []string{"ID", "Name", "Description", "Output", "Updated"}, rows)
	return nil
}

func projectDeleteAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return fmt.Errorf("failed to get application from context: %w", err)
	}

	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("a project name is required")
	}

	ctx := context.Background()
	proj, err := application.Projects.GetProjectByName(ctx, name)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return fmt.Errorf("project %q not found", name)
		}
		return fmt.Errorf("looking up project: %w", err)
	}

	if err := application.Projects.DeleteProject(ctx, proj.ID); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	utils.PrintSuccess(fmt.Sprintf("Deleted project %s (generated files on disk are kept)", name))
	return nil
}
