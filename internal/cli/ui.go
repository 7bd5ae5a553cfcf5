package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dazzle-tools/sesslog/internal/dispatch"
	"github.com/dazzle-tools/sesslog/internal/tui"
)

// UICmd launches an interactive browser over a session's log channels.
type UICmd struct {
	SessionID string `short:"s" help:"Session to browse (defaults to the most recently updated)"`
}

// Run executes the ui command.
func (c *UICmd) Run(globals *Globals) error {
	d, err := dispatch.New(globals.Config)
	if err != nil {
		return outputErrorCommon(globals, "ENGINE_INIT", err.Error())
	}

	st, err := resolveSession(d.Store(), c.SessionID)
	if err != nil {
		return outputErrorCommon(globals, "NO_SESSION", err.Error(), "run a hook event first or pass --session-id")
	}
	if st.LogDir == "" {
		return outputErrorCommon(globals, "NO_LOGS",
			fmt.Sprintf("session %q has no log directory yet", st.SessionID))
	}

	name := st.Name
	if name == "" {
		name = st.SessionID
	}
	globals.Debug("browsing %s", st.LogDir)

	model := tui.New(name, st.LogDir)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
