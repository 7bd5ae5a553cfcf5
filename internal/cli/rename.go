package cli

import (
	"fmt"
	"os"

	"github.com/dazzle-tools/sesslog/internal/dispatch"
	"github.com/dazzle-tools/sesslog/internal/logdir"
	"github.com/dazzle-tools/sesslog/internal/naming"
	"github.com/dazzle-tools/sesslog/internal/translink"
)

// RenameCmd assigns a session a proposed name, moving its log directory to
// the new derived path.
type RenameCmd struct {
	SessionID string `arg:"" help:"Session to rename"`
	Name      string `arg:"" help:"Proposed name (sanitized before use)"`
}

// Run executes the rename command.
func (c *RenameCmd) Run(globals *Globals) error {
	clean := naming.SanitizeProposed(c.Name)
	if clean == "" {
		return outputErrorCommon(globals, "INVALID_NAME",
			fmt.Sprintf("nothing usable left after sanitizing %q", c.Name))
	}

	d, err := dispatch.New(globals.Config)
	if err != nil {
		return outputErrorCommon(globals, "ENGINE_INIT", err.Error())
	}
	store := d.Store()

	st, err := store.Load(c.SessionID)
	if err != nil {
		return outputErrorCommon(globals, "STATE_READ", err.Error())
	}
	if st == nil {
		return outputErrorCommon(globals, "NO_SESSION",
			fmt.Sprintf("no state for session %q", c.SessionID), "check 'sesslog sessions' for known ids")
	}
	if st.Name == clean {
		if !globals.Quiet {
			fmt.Fprintf(globals.Stdout, "Session %s is already named %q\n", st.SessionID, clean)
		}
		return nil
	}

	release, err := store.AcquireLock(st.SessionID)
	if err == nil {
		defer release()
	}

	user := renameUser()
	newDir, err := logdir.Ensure(d.LogRoot(), logdir.DirName(clean, st.SessionID, user))
	if err != nil {
		return outputErrorCommon(globals, "DIR_CREATE", err.Error())
	}

	if st.LogDir != "" && st.LogDir != newDir {
		// Ensure created an empty target; Move refuses to clobber it
		if err := os.Remove(newDir); err != nil {
			return outputErrorCommon(globals, "DIR_MOVE", err.Error())
		}
		if err := logdir.Move(st.LogDir, newDir); err != nil {
			return outputErrorCommon(globals, "DIR_MOVE", err.Error(), "old directory left untouched")
		}
	}

	st.Name = clean
	st.LogDir = newDir
	if st.TranscriptPath != "" {
		if _, err := translink.Ensure(st.LogDir, st.TranscriptPath); err != nil {
			globals.Debug("transcript link not refreshed: %v", err)
		}
	}
	if err := store.Persist(st); err != nil {
		return outputErrorCommon(globals, "STATE_WRITE", err.Error())
	}

	if !globals.Quiet {
		fmt.Fprintf(globals.Stdout, "Renamed session %s to %q\nLogs: %s\n", st.SessionID, clean, st.LogDir)
	}
	return nil
}

func renameUser() string {
	for _, key := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "user"
}
