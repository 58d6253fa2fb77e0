package git

import (
	"os"
	"path/filepath"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/codeforge/internal/config"
	"github.com/tildaslashalef/codeforge/internal/loggy"
)

func testService() *Service {
	cfg := config.GitConfig{
		AutoInit:    true,
		AuthorName:  "Test User",
		AuthorEmail: "test@example.com",
	}
	return NewService(cfg, loggy.NewNoopLogger())
}

func writeProjectFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestInitProject(t *testing.T) {
	svc := testService()
	dir := t.TempDir()
	writeProjectFile(t, dir, "README.md", "# generated\n")
	writeProjectFile(t, dir, "app/main.py", "print('ok')\n")

	hash, err := svc.InitProject(dir, "Initial project generation")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.True(t, svc.HasRepo(dir))

	// Commit carries the configured author
	repo, err := gogit.PlainOpen(dir)
	require.NoError(t, err)
	head, err := repo.Head()
	require.NoError(t, err)
	commit, err := repo.CommitObject(head.Hash())
	require.NoError(t, err)
	assert.Equal(t, "Test User", commit.Author.Name)
	assert.Equal(t, "Initial project generation", commit.Message)
}

func TestInitProjectExistingRepo(t *testing.T) {
	svc := testService()
	dir := t.TempDir()
	writeProjectFile(t, dir, "README.md", "# generated\n")

	_, err := svc.InitProject(dir, "first")
	require.NoError(t, err)

	// A second init on the same directory reuses the repository
	writeProjectFile(t, dir, "CHANGELOG.md", "v2\n")
	hash, err := svc.InitProject(dir, "second")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestCommitAllCleanWorktree(t *testing.T) {
	svc := testService()
	dir := t.TempDir()
	writeProjectFile(t, dir, "README.md", "# generated\n")

	_, err := svc.InitProject(dir, "initial")
	require.NoError(t, err)

	_, err = svc.CommitAll(dir, "no changes")
	assert.ErrorIs(t, err, ErrNothingToCommit)
}

func TestHasRepo(t *testing.T) {
	svc := testService()
	assert.False(t, svc.HasRepo(t.TempDir()))
}

func TestAuthorDefaults(t *testing.T) {
	svc := NewService(config.GitConfig{}, loggy.NewNoopLogger())
	assert.Equal(t, "codeforge", svc.authorName())
	assert.Equal(t, "codeforge@localhost", svc.authorEmail())
}
