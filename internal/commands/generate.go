package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/codeforge/internal/app"
	"github.com/tildaslashalef/codeforge/internal/generation"
	"github.com/tildaslashalef/codeforge/internal/git"
	"github.com/tildaslashalef/codeforge/internal/github"
	"github.com/tildaslashalef/codeforge/internal/llm"
	"github.com/tildaslashalef/codeforge/internal/loggy"
	"github.com/tildaslashalef/codeforge/internal/project"
	"github.com/tildaslashalef/codeforge/internal/utils"
)

// GenerateCommand returns the generate command
func GenerateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen"},
		Usage:     "Generate a project codebase from a description",
		ArgsUsage: "<description>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "Project name (a memorable name is generated when omitted)",
			},
			&cli.StringFlag{
				Name:  "provider",
				Usage: "LLM provider to use (ollama or claude, default from config)",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Model to use (default from provider config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default: <output root>/<project name>)",
			},
			&cli.StringSliceFlag{
				Name:  "component",
				Usage: "Restrict generation to specific components (backend, frontend, database, devops, docs)",
			},
			&cli.BoolFlag{
				Name:  "publish",
				Usage: "Publish the generated project to GitHub after generation",
			},
			&cli.BoolFlag{
				Name:  "private",
				Usage: "Create the GitHub repository as private (with --publish)",
				Value: true,
			},
			&cli.BoolFlag{
				Name:    "browse",
				Aliases: []string{"b"},
				Usage:   "Open the results browser after generation",
			},
		},
		Action: generateAction,
	}
}

func generateAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return fmt.Errorf("failed to get application from context: %w", err)
	}

	requirements := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if requirements == "" {
		return fmt.Errorf("a project description is required")
	}

	ctx := context.Background()
	cfg := application.Config

	name := c.String("name")
	if name == "" {
		if !cfg.Output.AutoName {
			return fmt.Errorf("a project name is required (set --name or enable auto naming)")
		}
		name = utils.GenerateProjectName()
	}
	name = utils.SanitizeProjectName(name)

	outputDir := c.String("output")
	if outputDir == "" {
		outputDir = filepath.Join(cfg.Output.Root, name)
	}

	provider := c.String("provider")
	if provider == "" {
		provider = cfg.DefaultLLMProvider
	}
	model := c.String("model")
	if model == "" {
		model = defaultModelFor(application, provider)
	}

	status, err := application.LLM.Preflight(ctx, llm.ClientType(provider), model)
	if err != nil {
		return fmt.Errorf("provider check failed: %w", err)
	}
	if !status.ModelFound {
		utils.PrintWarning(fmt.Sprintf("Model %q not found on the %s server, run may fail (ollama pull %s)", model, provider, model))
	}

	proj := project.New(name, utils.TruncateString(requirements, 200), outputDir)
	if err := application.Projects.CreateProject(ctx, proj); err != nil {
		if errors.Is(err, project.ErrProjectAlreadyExists) {
			return fmt.Errorf("project %q already exists, pick another name", name)
		}
		return fmt.Errorf("creating project: %w", err)
	}

	utils.PrintHeading("Generating " + color.CyanString(name))
	utils.PrintKeyValue("Provider", provider)
	utils.PrintKeyValue("Model", model)
	utils.PrintKeyValue("Output", outputDir)
	utils.PrintDivider()

	result, err := application.Pipeline.Run(ctx, generation.Request{
		ProjectID:    proj.ID,
		ProjectName:  name,
		Requirements: requirements,
		Provider:     provider,
		Model:        model,
		OutputDir:    outputDir,
		Components:   parseComponents(c.StringSlice("component")),
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	printRunResult(result)

	if cfg.Git.AutoInit && len(result.Written) > 0 {
		if _, err := application.Git.InitProject(outputDir, "Initial project generation"); err != nil && !errors.Is(err, git.ErrNothingToCommit) {
			utils.PrintWarning(fmt.Sprintf("Git initialization failed: %s", err))
		} else {
			utils.PrintSuccess("Initialized git repository")
		}
	}

	summary := fmt.Sprintf("%s: %s", name, utils.TruncateString(requirements, 160))
	if _, err := application.Memory.StoreGeneration(ctx, proj.ID, result.Generation.ID, summary, requirements); err != nil {
		utils.PrintWarning(fmt.Sprintf("Could not store generation memory: %s", err))
	}

	if c.Bool("publish") {
		if err := publishProject(ctx, application, proj, c.Bool("private")); err != nil {
			utils.PrintError(fmt.Sprintf("Publishing failed: %s", err))
		}
	}

	if c.Bool("browse") {
		return application.Browser.Browse(ctx, result.Generation.ID)
	}

	utils.PrintInfo("Browse the results with " + color.CyanString("codeforge show --generation "+result.Generation.ID))
	return nil
}

func defaultModelFor(application *app.App, provider string) string {
	switch provider {
	case "claude":
		return application.Config.Claude.Model
	default:
		return application.Config.Ollama.Model
	}
}

func parseComponents(names []string) []generation.Component {
	var components []generation.Component
	for _, n := range names {
		components = append(components, generation.Component(strings.ToLower(strings.TrimSpace(n))))
	}
	return components
}

func printRunResult(result *generation.Result) {
	rows := make([][]string, 0, len(result.Components))
	for _, cr := range result.Components {
		status := "ok"
		switch {
		case cr.Fallback:
			status = "fallback"
		case cr.Recovered:
			status = "recovered"
		case cr.Err != nil:
			status = "failed"
		}
		rows = append(rows, []string{string(cr.Component), status, fmt.Sprintf("%d", len(cr.Files))})
	}
	utils.PrintTable("Generation "+result.Generation.ID, []string{"Component", "Status", "Files"}, rows)

	switch result.Generation.Status {
	case generation.StatusCompleted:
		utils.PrintSuccess(fmt.Sprintf("Generated %d files", len(result.Written)))
	case generation.StatusPartial:
		utils.PrintWarning(fmt.Sprintf("Generated %d files with degraded components: %s", len(result.Written), result.Generation.Error))
	default:
		utils.PrintError("Generation failed: " + result.Generation.Error)
	}
}

func publishProject(ctx context.Context, application *app.App, proj *project.Project, private bool) error {
	client, err := github.NewClient(application.Config.GitHub, loggy.GetGlobalLogger())
	if err != nil {
		return err
	}

	result, err := client.Publish(ctx, github.PublishRequest{
		LocalPath:   proj.OutputPath,
		Name:        proj.Name,
		Description: proj.Description,
		Private:     private,
	})
	if err != nil {
		return err
	}

	utils.PrintSuccess("Published to " + color.CyanString(result.RepoURL))
	return nil
}
