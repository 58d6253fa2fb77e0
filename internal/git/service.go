// Package git provides version control handling for generated projects
package git

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/loggy"
)

// ErrNothingToCommit is returned when a commit is requested with a
// clean worktree
var ErrNothingToCommit = errors.New("nothing to commit")

// Service provides Git operations on generated project directories
type Service struct {
	cfg    config.GitConfig
	logger *loggy.Logger
}

// NewService creates a new Git service
func NewService(cfg config.GitConfig, logger *loggy.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// HasRepo checks if the provided path contains a valid Git repository
func (s *Service) HasRepo(path string) bool {
	_, err := git.PlainOpen(path)
	if err != nil {
		s.logger.Debug("Not a valid Git repository", "path", path, "error", err)
		return false
	}
	return true
}

// InitProject initializes a repository in a generated project directory
// and commits everything in it. Opens the existing repository when the
// directory is already under version control.
func (s *Service) InitProject(path, message string) (string, error) {
	repo, err := git.PlainInit(path, false)
	if errors.Is(err, git.ErrRepositoryAlreadyExists) {
		repo, err = git.PlainOpen(path)
	}
	if err != nil {
		return "", fmt.Errorf("initializing git repo: %w", err)
	}

	hash, err := s.commitAll(repo, message)
	if err != nil {
		return "", err
	}

	s.logger.Info("Initialized git repository", "path", path, "commit", hash)
	return hash, nil
}

// CommitAll stages every change under the repository at path and
// commits it
func (s *Service) CommitAll(path, message string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("opening git repo: %w", err)
	}
	return s.commitAll(repo, message)
}

func (s *Service) commitAll(repo *git.Repository, message string) (string, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	if err := worktree.AddGlob("."); err != nil {
		return "", fmt.Errorf("staging files: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("getting worktree status: %w", err)
	}
	if status.IsClean() {
		return "", ErrNothingToCommit
	}

	if message == "" {
		message = "Initial project generation"
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.authorName(),
			Email: s.authorEmail(),
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("committing files: %w", err)
	}

	return hash.String(), nil
}

func (s *Service) authorName() string {
	if s.cfg.AuthorName != "" {
		return s.cfg.AuthorName
	}
	return "codeforge"
}

func (s *Service) authorEmail() string {
	if s.cfg.AuthorEmail != "" {
		return s.cfg.AuthorEmail
	}
	return "codeforge@localhost"
}
