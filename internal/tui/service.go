package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tildaslashalef/codeforge/internal/generation"
)

// Service runs the generated files browser
type Service struct {
	repo generation.Repository
}

// NewService creates a TUI service over the generation repository
func NewService(repo generation.Repository) *Service {
	return &Service{repo: repo}
}

// Browse opens the browser for one generation's files
func (s *Service) Browse(ctx context.Context, generationID string) error {
	gen, err := s.repo.GetGeneration(ctx, generationID)
	if err != nil {
		return fmt.Errorf("loading generation: %w", err)
	}

	files, err := s.repo.ListFiles(ctx, generationID)
	if err != nil {
		return fmt.Errorf("loading generated files: %w", err)
	}

	title := fmt.Sprintf("codeforge · %s · %s", gen.ID, gen.Status)
	model := NewModel(title, files)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
