package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/codeforge/internal/app"
	"github.com/tildaslashalef/codeforge/internal/commands"
)

// Version information - populated at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	cliApp := &cli.App{
		Name:  "codeforge",
		Usage: "LLM-powered codebase generation",
		Description: "CodeForge generates complete project codebases from a plain-text\n" +
			"description. A pipeline of component agents produces the files, a\n" +
			"multi-strategy parser extracts them from the model output, and a\n" +
			"recovery layer salvages what it can when parsing fails.",
		Version: Version,
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Before: func(c *cli.Context) error {
			application, err := app.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			c.App.Metadata = map[string]interface{}{
				"app": application,
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if application, ok := c.App.Metadata["app"].(*app.App); ok {
				return application.Shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.InitCommand(),
			commands.GenerateCommand(),
			commands.ProjectsCommand(),
			commands.ShowCommand(),
			commands.MigrateCommand(),
		},
		Action: func(c *cli.Context) error {
			// Default action generates when a description is given
			if c.Args().Len() > 0 {
				return commands.GenerateCommand().Action(c)
			}
			return cli.ShowAppHelp(c)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
