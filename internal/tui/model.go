// Package tui implements the interactive log browser: one tab per log
// channel, scrollable through a viewport.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dazzle-tools/sesslog/internal/channel"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("57")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

var tabs = [...]channel.Channel{channel.ToolCall, channel.Shell, channel.Task}

// Model is the bubbletea model for the log browser.
type Model struct {
	sessionName string
	logDir      string

	active   int
	viewport viewport.Model
	ready    bool
	content  [len(tabs)]string
}

// New builds a browser over one session's log directory.
func New(sessionName, logDir string) Model {
	m := Model{sessionName: sessionName, logDir: logDir}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "l", "right":
			m.active = (m.active + 1) % len(tabs)
			m.viewport.SetContent(m.content[m.active])
			m.viewport.GotoBottom()
		case "shift+tab", "h", "left":
			m.active = (m.active + len(tabs) - 1) % len(tabs)
			m.viewport.SetContent(m.content[m.active])
			m.viewport.GotoBottom()
		case "r":
			m.reload()
			m.viewport.SetContent(m.content[m.active])
			m.viewport.GotoBottom()
		case "g":
			m.viewport.GotoTop()
		case "G":
			m.viewport.GotoBottom()
		}

	case tea.WindowSizeMsg:
		headerHeight := 2
		footerHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.SetContent(m.content[m.active])
			m.viewport.GotoBottom()
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	title := titleStyle.Render("sesslog " + m.sessionName)
	var tabViews []string
	for i, tab := range tabs {
		style := tabStyle
		if i == m.active {
			style = activeTabStyle
		}
		tabViews = append(tabViews, style.Render(string(tab)))
	}
	header := title + "  " + strings.Join(tabViews, " ")

	footer := statusStyle.Render(fmt.Sprintf(
		" %3.0f%%  tab: switch channel  r: reload  q: quit", m.viewport.ScrollPercent()*100))

	return header + "\n\n" + m.viewport.View() + "\n" + footer
}

// reload reads the active file plus overflow segments for every channel,
// oldest segment first.
func (m *Model) reload() {
	for i, tab := range tabs {
		m.content[i] = readChannel(m.logDir, tab)
	}
}

func readChannel(logDir string, c channel.Channel) string {
	var parts []string

	w := channel.NewWriter(logDir, 0)
	for _, f := range w.OverflowFiles(c) {
		if raw, err := os.ReadFile(f); err == nil {
			parts = append(parts, string(raw))
		}
	}
	if raw, err := os.ReadFile(filepath.Join(logDir, c.Filename())); err == nil {
		parts = append(parts, string(raw))
	}

	if len(parts) == 0 {
		return "(no records yet)"
	}
	return strings.Join(parts, "")
}
