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

// ShowCommand returns the show command
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Browse the files of a generation run",
		ArgsUsage: "[project name]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "generation",
				Aliases: []string{"g"},
				Usage:   "Generation ID to browse (defaults to the project's latest run)",
			},
			&cli.BoolFlag{
				Name:  "list",
				Usage: "List the project's generation runs instead of opening the browser",
			},
		},
		Action: showAction,
	}
}

func showAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return fmt.Errorf("failed to get application from context: %w", err)
	}

	ctx := context.Background()

	generationID := c.String("generation")
	if generationID == "" {
		name := c.Args().First()
		if name == "" {
			return fmt.Errorf("a project name or --generation ID is required")
		}

		proj, err := application.Projects.GetProjectByName(ctx, name)
		if err != nil {
			if errors.Is(err, project.ErrProjectNotFound) {
				return fmt.Errorf("project %q not found", name)
			}
			return fmt.Errorf("looking up project: %w", err)
		}

		gens, err := application.Generations.ListGenerations(ctx, proj.ID)
		if err != nil {
			return fmt.Errorf("listing generations: %w", err)
		}
		if len(gens) == 0 {
			utils.PrintInfo("No generation runs for this project yet.")
			return nil
		}

		if c.Bool("list") {
			rows := make([][]string, 0, len(gens))
			for _, g := range gens {
				completed := ""
				if g.CompletedAt != nil {
					completed = g.CompletedAt.Format(time.DateTime)
				}
				rows = append(rows, []string{g.ID, g.Provider, g.Model, g.Status, completed})
			}
			utils.PrintTable("Generations · "+proj.Name, []string{"ID", "Provider", "Model", "Status", "Completed"}, rows)
			return nil
		}

		generationID = gens[0].ID
	}

	return application.Browser.Browse(ctx, generationID)
}
