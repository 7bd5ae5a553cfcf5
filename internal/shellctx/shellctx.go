// Package shellctx captures the shell environment a hook invocation runs in.
// The host agent spawns hooks from whatever shell the user launched it from,
// so the invoking shell and any enclosing tmux session are useful context for
// status output and debug logs.
package shellctx

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// Context describes the invoking shell environment.
type Context struct {
	Shell       string `json:"shell"`
	TmuxSession string `json:"tmux_session,omitempty"`
	TmuxPane    string `json:"tmux_pane,omitempty"`
}

// Detect inspects the process environment. It never fails; fields that
// cannot be determined stay empty and Shell falls back to "unknown".
func Detect() Context {
	ctx := Context{Shell: detectShell()}

	if pane := os.Getenv("TMUX_PANE"); pane != "" {
		ctx.TmuxPane = pane
	}
	if env := os.Getenv("TMUX"); env != "" {
		ctx.TmuxSession = sessionName(env)
	}
	return ctx
}

// detectShell resolves the shell binary name, preferring SHELL and falling
// back to the Windows markers COMSPEC and PSModulePath.
func detectShell() string {
	if sh := os.Getenv("SHELL"); sh != "" {
		return strings.ToLower(filepath.Base(sh))
	}
	if os.Getenv("PSModulePath") != "" {
		return "powershell"
	}
	if comspec := os.Getenv("COMSPEC"); comspec != "" {
		return strings.ToLower(strings.TrimSuffix(filepath.Base(comspec), ".exe"))
	}
	return "unknown"
}

// sessionName maps the TMUX env var ("socket,pid,sessionIndex") to the
// session's human name via the tmux server. Empty when the server cannot be
// reached.
func sessionName(tmuxEnv string) string {
	parts := strings.Split(tmuxEnv, ",")
	if len(parts) != 3 {
		return ""
	}
	wantID := "$" + parts[2]

	srv, err := gotmux.DefaultTmux()
	if err != nil {
		return ""
	}
	sessions, err := srv.ListSessions()
	if err != nil {
		return ""
	}
	for _, s := range sessions {
		if s.Id == wantID {
			return s.Name
		}
	}
	return ""
}
