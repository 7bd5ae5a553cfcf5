package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dazzle-tools/sesslog/internal/config"
)

// testGlobals creates a Globals struct with captured stdout/stderr and
// temp-dir state/log roots.
func testGlobals(t *testing.T, format string) (*Globals, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.StateRoot = filepath.Join(t.TempDir(), "state")
	cfg.Paths.LogRoot = filepath.Join(t.TempDir(), "logs")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	g := &Globals{
		Format: format,
		Stdout: stdout,
		Stderr: stderr,
		Config: cfg,
	}
	g.logger = newAgentLogger(g)
	return g, stdout, stderr
}

func runHook(t *testing.T, globals *Globals, event string) {
	t.Helper()
	globals.Stdin = strings.NewReader(event)
	cmd := &HookCmd{}
	require.NoError(t, cmd.Run(globals))
}

const startEventJSON = `{"hook_event_name":"SessionStart","session_id":"sess-9","cwd":"/home/dev/gadget","transcript_path":""}`

// --- Hook Command Tests ---

func TestHookCmd_Run(t *testing.T) {
	t.Run("replies continue for a session start", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")

		runHook(t, globals, startEventJSON)

		var reply map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &reply))
		assert.Equal(t, true, reply["continue"])
		assert.NotContains(t, reply, "reason")

		_, err := os.Stat(filepath.Join(globals.Config.Paths.StateRoot, "sess-9.json"))
		assert.NoError(t, err)
	})

	t.Run("replies continue even for garbage input", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")

		runHook(t, globals, "not json at all")

		var reply map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &reply))
		assert.Equal(t, true, reply["continue"])
		assert.Contains(t, reply["reason"], "not parseable")
	})

	t.Run("logs a tool event into the session directory", func(t *testing.T) {
		globals, _, _ := testGlobals(t, "ndjson")
		runHook(t, globals, startEventJSON)

		globals.Stdout = &bytes.Buffer{}
		runHook(t, globals, `{"hook_event_name":"PostToolUse","session_id":"sess-9","cwd":"/home/dev/gadget","tool_name":"Bash","tool_input":{"command":"make"},"tool_response":{"stdout":"done","exit_code":0}}`)

		logPath := filepath.Join(globals.Config.Paths.LogRoot, "gadget__sess-9_"+renameUser(), "toolcalls.log")
		raw, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "{Bash: make }")
	})
}

// --- Status Command Tests ---

func TestStatusCmd_Run(t *testing.T) {
	t.Run("errors when nothing is recorded", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")
		cmd := &StatusCmd{}

		err := cmd.Run(globals)
		require.Error(t, err)

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "error", result["type"])
		assert.Equal(t, "NO_SESSION", result["code"])
	})

	t.Run("outputs status in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")
		runHook(t, globals, startEventJSON)
		stdout.Reset()

		cmd := &StatusCmd{SessionID: "sess-9"}
		require.NoError(t, cmd.Run(globals))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "status", result["type"])
		assert.Equal(t, "sess-9", result["session_id"])
		assert.Equal(t, "gadget", result["name"])
		assert.EqualValues(t, 1, result["run_number"])
	})

	t.Run("outputs status in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "text")
		runHook(t, globals, startEventJSON)
		stdout.Reset()

		cmd := &StatusCmd{}
		require.NoError(t, cmd.Run(globals))

		out := stdout.String()
		assert.Contains(t, out, "Session:    sess-9")
		assert.Contains(t, out, "Name:       gadget")
		assert.Contains(t, out, "Run:        1")
	})
}

// --- Sessions Command Tests ---

func TestSessionsCmd_Run(t *testing.T) {
	t.Run("lists sessions as NDJSON", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")
		runHook(t, globals, startEventJSON)
		runHook(t, globals, `{"hook_event_name":"SessionStart","session_id":"sess-10","cwd":"/home/dev/another"}`)
		stdout.Reset()

		cmd := &SessionsCmd{}
		require.NoError(t, cmd.Run(globals))

		lines := strings.Split(strings.TrimRight(stdout.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		ids := map[string]bool{}
		for _, line := range lines {
			var rec map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(line), &rec))
			assert.Equal(t, "session", rec["type"])
			ids[rec["session_id"].(string)] = true
		}
		assert.True(t, ids["sess-9"])
		assert.True(t, ids["sess-10"])
	})

	t.Run("reports empty store in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "text")

		cmd := &SessionsCmd{}
		require.NoError(t, cmd.Run(globals))
		assert.Contains(t, stdout.String(), "No sessions recorded yet.")
	})

	t.Run("renders plain rows when stdout is not a tty", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "text")
		runHook(t, globals, startEventJSON)
		stdout.Reset()

		cmd := &SessionsCmd{}
		require.NoError(t, cmd.Run(globals))
		assert.Contains(t, stdout.String(), "sess-9\tgadget\t1\t")
	})
}

// --- Rename Command Tests ---

func TestRenameCmd_Run(t *testing.T) {
	t.Run("moves the log directory and keeps records", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "text")
		runHook(t, globals, startEventJSON)
		runHook(t, globals, `{"hook_event_name":"PostToolUse","session_id":"sess-9","cwd":"/home/dev/gadget","tool_name":"Bash","tool_input":{"command":"ls"},"tool_response":{"exit_code":0}}`)
		stdout.Reset()

		cmd := &RenameCmd{SessionID: "sess-9", Name: "Gadget: Rework"}
		require.NoError(t, cmd.Run(globals))

		oldDir := filepath.Join(globals.Config.Paths.LogRoot, "gadget__sess-9_"+renameUser())
		newDir := filepath.Join(globals.Config.Paths.LogRoot, "gadget_rework__sess-9_"+renameUser())
		_, err := os.Stat(oldDir)
		assert.True(t, os.IsNotExist(err), "old directory must be gone")
		raw, err := os.ReadFile(filepath.Join(newDir, "toolcalls.log"))
		require.NoError(t, err)
		assert.Contains(t, string(raw), "{Bash: ls }")
	})

	t.Run("rejects names that sanitize to nothing", func(t *testing.T) {
		globals, _, _ := testGlobals(t, "text")

		cmd := &RenameCmd{SessionID: "sess-9", Name: "???"}
		assert.Error(t, cmd.Run(globals))
	})

	t.Run("errors for unknown sessions", func(t *testing.T) {
		globals, _, stderr := testGlobals(t, "text")

		cmd := &RenameCmd{SessionID: "ghost", Name: "anything"}
		require.Error(t, cmd.Run(globals))
		assert.Contains(t, stderr.String(), "NO_SESSION")
	})
}

// --- Schema Command Tests ---

func TestSchemaCmd_Run(t *testing.T) {
	t.Run("outputs all schemas by default", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")
		cmd := &SchemaCmd{}

		require.NoError(t, cmd.Run(globals))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "http://json-schema.org/draft-07/schema#", result["$schema"])

		defs := result["definitions"].(map[string]interface{})
		assert.Contains(t, defs, "reply")
		assert.Contains(t, defs, "session")
		assert.Contains(t, defs, "status")
		assert.Contains(t, defs, "error")
	})

	t.Run("filters schemas by type", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")
		cmd := &SchemaCmd{Type: []string{"reply", "error"}}

		require.NoError(t, cmd.Run(globals))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		defs := result["definitions"].(map[string]interface{})
		assert.Len(t, defs, 2)
		assert.Contains(t, defs, "reply")
		assert.NotContains(t, defs, "session")
	})
}

// --- Config Command Tests ---

func TestConfigShowCmd_Run(t *testing.T) {
	t.Run("outputs config in text format", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "text")
		cmd := &ConfigShowCmd{}

		require.NoError(t, cmd.Run(globals))

		out := stdout.String()
		assert.Contains(t, out, "Current Configuration:")
		assert.Contains(t, out, "verbosity: 2")
		assert.Contains(t, out, "datetime: full")
	})

	t.Run("outputs config in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")
		cmd := &ConfigShowCmd{}

		require.NoError(t, cmd.Run(globals))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "config", result["type"])
		assert.Contains(t, result, "verbosity")
		assert.Contains(t, result, "rotation")
	})
}

func TestConfigPathCmd_Run(t *testing.T) {
	t.Run("outputs path info in NDJSON format", func(t *testing.T) {
		globals, stdout, _ := testGlobals(t, "ndjson")
		cmd := &ConfigPathCmd{}

		require.NoError(t, cmd.Run(globals))

		var result map[string]interface{}
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "config_path", result["type"])
		assert.Contains(t, result, "path")
	})
}

func TestConfigGenerateCmd_Run(t *testing.T) {
	globals, stdout, _ := testGlobals(t, "text")
	cmd := &ConfigGenerateCmd{}

	require.NoError(t, cmd.Run(globals))

	out := stdout.String()
	assert.Contains(t, out, "# sesslog configuration file")
	assert.Contains(t, out, "verbosity: 2")
	assert.Contains(t, out, "threshold_bytes: 1048576")

	// the sample must itself be loadable
	path := filepath.Join(t.TempDir(), "sesslog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o644))
	cfg, err := config.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "full", cfg.Datetime)
	assert.Equal(t, int64(1<<20), cfg.Rotation.ThresholdBytes)
}
