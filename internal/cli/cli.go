// Package cli defines the command tree and the shared Globals threaded
// through every command.
package cli

import (
	"io"
	"os"

	"github.com/dazzle-tools/sesslog/internal/config"
)

// CLI is the root command structure parsed by kong.
type CLI struct {
	Format  string `help:"Output format: text or ndjson" enum:"text,ndjson" default:"${config_format}"`
	Quiet   bool   `short:"q" help:"Suppress non-essential output"`
	Verbose bool   `short:"v" help:"Enable verbose debug logging to stderr"`

	Hook     HookCmd     `cmd:"" help:"Process one host hook event from stdin (the entry point the agent invokes)"`
	Status   StatusCmd   `cmd:"" help:"Show the state of a session"`
	Sessions SessionsCmd `cmd:"" help:"List all known sessions"`
	Rename   RenameCmd   `cmd:"" help:"Rename a session and move its log directory"`
	UI       UICmd       `cmd:"" name:"ui" help:"Browse a session's logs interactively"`
	Config   ConfigCmd   `cmd:"" help:"Manage configuration"`
	Schema   SchemaCmd   `cmd:"" help:"Output JSON Schema for NDJSON output types"`
}

// ConfigCmd groups the configuration subcommands.
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" help:"Show current configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Show configuration file path"`
	Generate ConfigGenerateCmd `cmd:"" help:"Print a sample configuration file"`
}

// Globals carries cross-command state: resolved config, output streams, and
// the debug logger. Commands receive it via kong's bind mechanism.
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config

	logger *agentLogger
}

// NewGlobalsWithConfig builds Globals from parsed flags with config
// fallbacks already applied by kong defaults.
func NewGlobalsWithConfig(c *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Format:  c.Format,
		Quiet:   c.Quiet || cfg.Quiet,
		Verbose: c.Verbose || cfg.Verbose,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}
	g.logger = newAgentLogger(g)
	return g
}

// Debug logs a formatted debug message when verbose mode is on.
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.logger != nil {
		g.logger.Debug(format, args...)
	}
}
