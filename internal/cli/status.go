package cli

import (
	"fmt"
	"os"

	"github.com/dazzle-tools/sesslog/internal/channel"
	"github.com/dazzle-tools/sesslog/internal/dispatch"
	"github.com/dazzle-tools/sesslog/internal/output"
	"github.com/dazzle-tools/sesslog/internal/shellctx"
	"github.com/dazzle-tools/sesslog/internal/state"
)

// StatusCmd renders the engine's view of one session.
type StatusCmd struct {
	SessionID string `short:"s" help:"Session to inspect (defaults to the most recently updated)"`
	All       bool   `help:"Show every known session instead of one"`
}

// Run executes the status command.
func (c *StatusCmd) Run(globals *Globals) error {
	if c.All {
		return (&SessionsCmd{}).Run(globals)
	}

	d, err := dispatch.New(globals.Config)
	if err != nil {
		return outputErrorCommon(globals, "ENGINE_INIT", err.Error())
	}

	st, err := resolveSession(d.Store(), c.SessionID)
	if err != nil {
		return outputErrorCommon(globals, "NO_SESSION", err.Error(), "run a hook event first or pass --session-id")
	}

	channels, overflow := channelInventory(st, globals.Config.Rotation.ThresholdBytes)
	env := shellctx.Detect()

	if globals.Format == "ndjson" {
		return output.NewNDJSONWriter(globals.Stdout).WriteStatus(&output.StatusRecord{
			SessionID:     st.SessionID,
			Name:          st.Name,
			LogDir:        st.LogDir,
			RunNumber:     st.RunNumber,
			Transcript:    st.TranscriptPath,
			Channels:      channels,
			OverflowCount: overflow,
			Shell:         env.Shell,
			TmuxSession:   env.TmuxSession,
		})
	}

	fmt.Fprintf(globals.Stdout, "Session:    %s\n", st.SessionID)
	name := st.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(globals.Stdout, "Name:       %s\n", name)
	fmt.Fprintf(globals.Stdout, "Run:        %d\n", st.RunNumber)
	fmt.Fprintf(globals.Stdout, "CWD:        %s\n", st.CWD)
	if st.OriginalCWD != st.CWD {
		fmt.Fprintf(globals.Stdout, "Origin CWD: %s\n", st.OriginalCWD)
	}
	fmt.Fprintf(globals.Stdout, "Log dir:    %s\n", st.LogDir)
	if st.TranscriptPath != "" {
		fmt.Fprintf(globals.Stdout, "Transcript: %s\n", st.TranscriptPath)
	}
	fmt.Fprintf(globals.Stdout, "Channels:   %v (%d overflow files)\n", channels, overflow)
	fmt.Fprintf(globals.Stdout, "Updated:    %s\n", st.UpdatedAt)
	if env.Shell != "unknown" {
		fmt.Fprintf(globals.Stdout, "Shell:      %s", env.Shell)
		if env.TmuxSession != "" {
			fmt.Fprintf(globals.Stdout, " (tmux: %s)", env.TmuxSession)
		}
		fmt.Fprintln(globals.Stdout)
	}
	return nil
}

// resolveSession loads the requested session, or the most recently updated
// one when no id was given.
func resolveSession(store *state.Store, sessionID string) (*state.SessionState, error) {
	if sessionID != "" {
		st, err := store.Load(sessionID)
		if err != nil {
			return nil, err
		}
		if st == nil {
			return nil, fmt.Errorf("no state for session %q", sessionID)
		}
		return st, nil
	}

	all, err := store.List()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no sessions recorded yet")
	}
	latest := all[0]
	for _, st := range all[1:] {
		if st.UpdatedAt > latest.UpdatedAt {
			latest = st
		}
	}
	return latest, nil
}

// channelInventory reports which channel files exist in the session's log
// directory and how many overflow segments they hold in total.
func channelInventory(st *state.SessionState, threshold int64) (channels []string, overflow int) {
	channels = []string{}
	if st.LogDir == "" {
		return channels, 0
	}
	w := channel.NewWriter(st.LogDir, threshold)
	for _, ch := range []channel.Channel{channel.ToolCall, channel.Shell, channel.Task} {
		if _, err := os.Stat(w.ActivePath(ch)); err == nil {
			channels = append(channels, string(ch))
		}
		overflow += len(w.OverflowFiles(ch))
	}
	return channels, overflow
}
