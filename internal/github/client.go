// Package github provides optional publishing of generated projects to
// GitHub: creating the remote repository and pushing the initial commit.
package github

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/loggy"
)

// ErrNoToken is returned when publishing is attempted without a
// configured access token
var ErrNoToken = errors.New("github token not configured")

// Client wraps the GitHub API for publishing generated projects
type Client struct {
	client *github.Client
	cfg    config.GitHubConfig
	logger *loggy.Logger
}

// NewClient creates a GitHub client authenticated with the configured
// personal access token
func NewClient(cfg config.GitHubConfig, logger *loggy.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	tc := oauth2.NewClient(context.Background(), ts)
	tc.Timeout = timeout

	var client *github.Client
	if cfg.APIURL != "" && cfg.APIURL != "https://api.github.com" {
		var err error
		client, err = github.NewClient(tc).WithEnterpriseURLs(cfg.APIURL, cfg.APIURL)
		if err != nil {
			return nil, fmt.Errorf("creating enterprise client: %w", err)
		}
	} else {
		client = github.NewClient(tc)
	}

	return &Client{
		client: client,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// PublishRequest describes one publish operation
type PublishRequest struct {
	LocalPath   string // Path to the generated project directory
	Name        string // Remote repository name
	Description string
	Private     bool
}

// PublishResult reports where the project was published
type PublishResult struct {
	RepoURL  string
	CloneURL string
}

// Publish creates a remote repository for a generated project and
// pushes its local history. The local directory must already be a git
// repository with at least one commit.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("repository name must be provided")
	}

	remote, err := c.CreateRepository(ctx, req.Name, req.Description, req.Private)
	if err != nil {
		return nil, err
	}

	if err := c.push(ctx, req.LocalPath, remote.GetCloneURL()); err != nil {
		return nil, err
	}

	c.logger.Info("Published project to GitHub", "repo", remote.GetFullName(), "url", remote.GetHTMLURL())
	return &PublishResult{
		RepoURL:  remote.GetHTMLURL(),
		CloneURL: remote.GetCloneURL(),
	}, nil
}

// CreateRepository creates a repository under the authenticated user
func (c *Client) CreateRepository(ctx context.Context, name, description string, private bool) (*github.Repository, error) {
	repo := &github.Repository{
		Name:        github.String(name),
		Description: github.String(description),
		Private:     github.Bool(private),
	}

	created, _, err := c.client.Repositories.Create(ctx, "", repo)
	if err != nil {
		return nil, fmt.Errorf("creating repository %s: %w", name, err)
	}
	return created, nil
}

// push adds the remote to the local repository and pushes all refs
func (c *Client) push(ctx context.Context, localPath, remoteURL string) error {
	repo, err := gogit.PlainOpen(localPath)
	if err != nil {
		return fmt.Errorf("opening local repo: %w", err)
	}

	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{remoteURL},
	})
	if err != nil && !errors.Is(err, gogit.ErrRemoteExists) {
		return fmt.Errorf("adding remote: %w", err)
	}

	err = repo.PushContext(ctx, &gogit.PushOptions{
		RemoteName: "origin",
		Auth: &githttp.BasicAuth{
			Username: "codeforge",
			Password: c.cfg.Token,
		},
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pushing to remote: %w", err)
	}

	return nil
}
