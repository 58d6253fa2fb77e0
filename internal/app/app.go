// Package app provides application initialization and lifecycle management
package app

import (
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/database"
	"github.com/tildaslashalef/codeforge/internal/extractor"
	"github.com/tildaslashalef/codeforge/internal/generation"
	"github.com/tildaslashalef/codeforge/internal/git"
	"github.com/tildaslashalef/codeforge/internal/llm"
	"github.com/tildaslashalef/codeforge/internal/loggy"
	"github.com/tildaslashalef/codeforge/internal/memory"
	"github.com/tildaslashalef/codeforge/internal/project"
	"github.com/tildaslashalef/codeforge/internal/recovery"
	"github.com/tildaslashalef/codeforge/internal/tui"
)

// App holds the application instance with its dependencies
type App struct {
	Config      *config.Config
	LLM         *llm.Factory
	Extractor   *extractor.FileExtractor
	Recovery    *recovery.Handler
	Projects    project.Repository
	Generations generation.Repository
	Memory      *memory.Hub
	Pipeline    *generation.Service
	Git         *git.Service
	Browser     *tui.Service
}

// New initializes a new application instance with all its dependencies
func New() (*App, error) {
	cfg, err := initConfig()
	if err != nil {
		return nil, err
	}

	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	loggy.Info("Application initializing", "log_level", cfg.Logging.Level)

	if err := database.InitDB(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.RunMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	app := initServices(cfg, db)
	loggy.Info("Application initialized successfully")
	return app, nil
}

func initConfig() (*config.Config, error) {
	cfg, err := config.LoadFromEnv("", "")
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	config.Set(cfg)
	return cfg, nil
}

func initLogger(cfg *config.Config) error {
	err := loggy.Init(loggy.Config{
		Level:      config.ParseLogLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func initServices(cfg *config.Config, db *sql.DB) *App {
	logger := loggy.GetGlobalLogger()

	llmFactory := llm.NewFactory(cfg, logger)
	ext := extractor.New(cfg.Extractor, logger)
	handler := recovery.NewHandler(ext, cfg.Recovery, logger)

	projectRepo := project.NewSQLRepository(db, logger)
	generationRepo := generation.NewSQLRepository(db, logger)
	memoryRepo := memory.NewSQLRepository(db, logger)
	memoryHub := memory.NewHub(memoryRepo, llmFactory, cfg.Memory, logger)

	pipeline := generation.NewService(llmFactory, ext, handler, generationRepo, memoryHub, cfg.Memory, logger)

	return &App{
		Config:      cfg,
		LLM:         llmFactory,
		Extractor:   ext,
		Recovery:    handler,
		Projects:    projectRepo,
		Generations: generationRepo,
		Memory:      memoryHub,
		Pipeline:    pipeline,
		Git:         git.NewService(cfg.Git, logger),
		Browser:     tui.NewService(generationRepo),
	}
}

// Shutdown gracefully shuts down the application
func (app *App) Shutdown() error {
	loggy.Info("Shutting down application")

	if err := database.CloseDB(); err != nil {
		loggy.Error("Error closing database connection", "error", err)
	}
	return nil
}

// FromContext retrieves the App instance from the CLI context
func FromContext(c *cli.Context) (*App, error) {
	if c.App.Metadata == nil {
		return nil, fmt.Errorf("app metadata not found in context")
	}

	app, ok := c.App.Metadata["app"].(*App)
	if !ok {
		return nil, fmt.Errorf("app instance not found in context")
	}

	return app, nil
}
