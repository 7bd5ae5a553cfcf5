package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dazzle-tools/sesslog/internal/config"
)

// ConfigShowCmd prints the resolved configuration.
type ConfigShowCmd struct{}

// Run executes the config show command.
func (c *ConfigShowCmd) Run(globals *Globals) error {
	cfg := globals.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if globals.Format == "ndjson" {
		record := map[string]interface{}{
			"type":      "config",
			"format":    cfg.Format,
			"verbosity": cfg.Verbosity,
			"datetime":  cfg.Datetime,
			"pwd":       cfg.PWD,
			"filter":    map[string]interface{}{"include": cfg.Filter.Include},
			"failure_capture": map[string]interface{}{
				"enabled":          cfg.FailureCapture.Enabled,
				"capture_stderr":   cfg.FailureCapture.CaptureStderr,
				"max_stderr_lines": cfg.FailureCapture.MaxLines,
			},
			"rotation": map[string]interface{}{"threshold_bytes": cfg.Rotation.ThresholdBytes},
			"paths": map[string]interface{}{
				"state_root": cfg.Paths.StateRoot,
				"log_root":   cfg.Paths.LogRoot,
			},
		}
		enc := json.NewEncoder(globals.Stdout)
		return enc.Encode(record)
	}

	fmt.Fprintln(globals.Stdout, "Current Configuration:")
	fmt.Fprintf(globals.Stdout, "  format: %s\n", cfg.Format)
	fmt.Fprintf(globals.Stdout, "  verbosity: %d\n", cfg.Verbosity)
	fmt.Fprintf(globals.Stdout, "  datetime: %s\n", cfg.Datetime)
	fmt.Fprintf(globals.Stdout, "  pwd: %t\n", cfg.PWD)
	include := "(all categories)"
	if len(cfg.Filter.Include) > 0 {
		include = strings.Join(cfg.Filter.Include, ", ")
	}
	fmt.Fprintf(globals.Stdout, "  filter: %s\n", include)
	fmt.Fprintln(globals.Stdout, "  failure_capture:")
	fmt.Fprintf(globals.Stdout, "    enabled: %t\n", cfg.FailureCapture.Enabled)
	fmt.Fprintf(globals.Stdout, "    capture_stderr: %t\n", cfg.FailureCapture.CaptureStderr)
	fmt.Fprintf(globals.Stdout, "    max_stderr_lines: %d\n", cfg.FailureCapture.MaxLines)
	fmt.Fprintf(globals.Stdout, "  rotation.threshold_bytes: %d\n", cfg.Rotation.ThresholdBytes)
	stateRoot, _ := cfg.StateRoot()
	logRoot, _ := cfg.LogRoot()
	fmt.Fprintln(globals.Stdout, "  paths:")
	fmt.Fprintf(globals.Stdout, "    state_root: %s\n", stateRoot)
	fmt.Fprintf(globals.Stdout, "    log_root: %s\n", logRoot)
	return nil
}

// ConfigPathCmd reports where configuration is loaded from.
type ConfigPathCmd struct{}

// Run executes the config path command.
func (c *ConfigPathCmd) Run(globals *Globals) error {
	path := config.ConfigFile()

	if globals.Format == "ndjson" {
		record := map[string]interface{}{
			"type":  "config_path",
			"path":  path,
			"found": path != "",
		}
		return json.NewEncoder(globals.Stdout).Encode(record)
	}

	if path == "" {
		fmt.Fprintln(globals.Stdout, "No configuration file found (using defaults).")
		fmt.Fprintln(globals.Stdout, "Searched: ~/.sesslog.yaml, ./.sesslog.yaml")
		return nil
	}
	fmt.Fprintf(globals.Stdout, "Config file: %s\n", path)
	return nil
}

// ConfigGenerateCmd prints a commented sample configuration.
type ConfigGenerateCmd struct{}

const sampleConfig = `# sesslog configuration file
# Place at ~/.sesslog.yaml or ./.sesslog.yaml

# Output format for operator commands: text or ndjson
format: ndjson

# Record shape: 0 bare argument .. 4 includes compact JSON input
verbosity: 2

# Timestamp prefix: full, date, or none
datetime: full

# Append the working directory to each record
pwd: false

filter:
  # Categories to log; empty means everything.
  # Known: bash, system, io, todo, task, meta, search, mcp, ui, skill, other
  include: []

action_only:
  categories:
    todo: true
  overrides:
    TodoWrite: use_category

failure_capture:
  enabled: false
  capture_stderr: true
  max_stderr_lines: 50

rotation:
  threshold_bytes: 1048576

paths:
  # Defaults to ~/.sesslog/state and ~/.sesslog/logs
  state_root: ""
  log_root: ""
`

// Run executes the config generate command.
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	fmt.Fprint(globals.Stdout, sampleConfig)
	return nil
}
