// Package tui provides a terminal browser for the files produced by a
// generation run: a file list on the left, a preview pane on the right,
// markdown rendered through glamour.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/tildaslashalef/codeforge/internal/generation"
)

// KeyMap defines the key bindings for the browser
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default key map
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous file"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next file"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdn", "scroll down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c", "esc"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the compact help line bindings
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Help, k.Quit}
}

// FullHelp returns the expanded help bindings
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.PageUp, k.PageDown},
		{k.Help, k.Quit},
	}
}

// Styles holds the lipgloss styles for the browser
type Styles struct {
	Title        lipgloss.Style
	Subtle       lipgloss.Style
	ListItem     lipgloss.Style
	SelectedItem lipgloss.Style
	StatusBadge  lipgloss.Style
	Pane         lipgloss.Style
}

// DefaultStyles returns the default style set
func DefaultStyles() Styles {
	return Styles{
		Title:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Subtle:       lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		ListItem:     lipgloss.NewStyle().PaddingLeft(2),
		SelectedItem: lipgloss.NewStyle().PaddingLeft(0).Foreground(lipgloss.Color("13")).Bold(true),
		StatusBadge:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Pane:         lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

const listWidth = 36

// Model is the bubbletea model for the generated files browser
type Model struct {
	title    string
	files    []*generation.GeneratedFile
	selected int

	width    int
	height   int
	ready    bool
	showHelp bool

	viewport viewport.Model
	help     help.Model
	keys     KeyMap
	styles   Styles
	renderer *glamour.TermRenderer
}

// NewModel creates a browser model over a generation's files
func NewModel(title string, files []*generation.GeneratedFile) Model {
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	return Model{
		title:    title,
		files:    files,
		help:     help.New(),
		keys:     DefaultKeyMap(),
		styles:   DefaultStyles(),
		renderer: renderer,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		previewWidth := m.width - listWidth - 6
		if previewWidth < 20 {
			previewWidth = 20
		}
		previewHeight := m.height - 6
		if previewHeight < 5 {
			previewHeight = 5
		}
		if !m.ready {
			m.viewport = viewport.New(previewWidth, previewHeight)
			m.ready = true
		} else {
			m.viewport.Width = previewWidth
			m.viewport.Height = previewHeight
		}
		m.refreshPreview()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
				m.refreshPreview()
			}
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.files)-1 {
				m.selected++
				m.refreshPreview()
			}
		case key.Matches(msg, m.keys.PageUp):
			m.viewport.HalfViewUp()
		case key.Matches(msg, m.keys.PageDown):
			m.viewport.HalfViewDown()
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// refreshPreview re-renders the selected file into the viewport
func (m *Model) refreshPreview() {
	if !m.ready || len(m.files) == 0 {
		return
	}

	file := m.files[m.selected]
	content := file.Content

	if isMarkdown(file.FilePath) && m.renderer != nil {
		if rendered, err := m.renderer.Render(content); err == nil {
			content = rendered
		}
	} else {
		content = wordwrap.String(content, m.viewport.Width)
	}

	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// View implements tea.Model
func (m Model) View() string {
	if !m.ready {
		return "Loading...\n"
	}

	list := m.renderList()
	preview := m.styles.Pane.Render(m.viewport.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, preview)

	var footer string
	if m.showHelp {
		footer = m.help.View(m.keys)
	} else {
		footer = m.help.ShortHelpView(m.keys.ShortHelp())
	}

	header := m.styles.Title.Render(m.title)
	counter := m.styles.Subtle.Render(fmt.Sprintf(" %d files", len(m.files)))

	return lipgloss.JoinVertical(lipgloss.Left,
		header+counter,
		body,
		footer,
	)
}

func (m Model) renderList() string {
	var b strings.Builder
	for i, f := range m.files {
		name := truncatePath(f.FilePath, listWidth-4)
		if i == m.selected {
			b.WriteString(m.styles.SelectedItem.Render("> " + name))
		} else {
			b.WriteString(m.styles.ListItem.Render(name))
		}
		if f.Status != "" && f.Status != "generated" {
			b.WriteString(" " + m.styles.StatusBadge.Render("["+f.Status+"]"))
		}
		b.WriteString("\n")
	}
	if len(m.files) == 0 {
		b.WriteString(m.styles.Subtle.Render("  no files"))
	}
	return lipgloss.NewStyle().Width(listWidth).Render(b.String())
}

func truncatePath(p string, max int) string {
	if len(p) <= max || max < 4 {
		return p
	}
	return "..." + p[len(p)-max+3:]
}
