package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tildaslashalef/codeforge/internal/generation"
)

func testFiles() []*generation.GeneratedFile {
	return []*generation.GeneratedFile{
		{FilePath: "README.md", Content: "# taskboard\n\nA kanban board.\n", Status: "generated"},
		{FilePath: "app.py", Content: "from flask import Flask\n", Status: "generated"},
		{FilePath: "emergency_file_1.txt", Content: "recovered chunk", Status: "emergency_recovery"},
	}
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	model, ok := updated.(Model)
	require.True(t, ok)
	return model
}

func TestModelNavigation(t *testing.T) {
	m := sized(t, NewModel("codeforge", testFiles()))
	assert.Equal(t, 0, m.selected)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = updated.(Model)
	assert.Equal(t, 1, m.selected)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	assert.Equal(t, 0, m.selected)

	// Up at the top stays put
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	assert.Equal(t, 0, m.selected)
}

func TestModelViewListsFiles(t *testing.T) {
	m := sized(t, NewModel("codeforge · gen-01htest", testFiles()))

	view := m.View()
	assert.Contains(t, view, "README.md")
	assert.Contains(t, view, "app.py")
	assert.Contains(t, view, "3 files")
	// Non-generated statuses show as badges
	assert.Contains(t, view, "emergency_recovery")
}

func TestModelViewEmpty(t *testing.T) {
	m := sized(t, NewModel("codeforge", nil))
	assert.Contains(t, m.View(), "no files")
}

func TestModelQuit(t *testing.T) {
	m := sized(t, NewModel("codeforge", testFiles()))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, isMarkdown("README.md"))
	assert.True(t, isMarkdown("docs/guide.MARKDOWN"))
	assert.False(t, isMarkdown("app.py"))
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "short.go", truncatePath("short.go", 20))
	long := "src/very/deep/tree/of/directories/file.go"
	got := truncatePath(long, 20)
	assert.Len(t, got, 20)
	assert.True(t, strings.HasPrefix(got, "..."))
}
