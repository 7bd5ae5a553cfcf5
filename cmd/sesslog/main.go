package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/dazzle-tools/sesslog/internal/cli"
	"github.com/dazzle-tools/sesslog/internal/config"
)

const quickStart = `sesslog - session state and activity logging for AI agent hooks

Quick start:
  sesslog hook < event.json             Process one hook event (what the agent invokes)
  sesslog sessions                      List known sessions
  sesslog status -s SESSION_ID          Inspect one session
  sesslog ui                            Browse logs interactively

For help:
  sesslog --help                        All commands and flags
`

func main() {
	// Show quick start if no args provided
	if len(os.Args) == 1 {
		fmt.Print(quickStart)
		return
	}

	// Load configuration from files/environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing; CLI flags override them
	vars := kong.Vars{
		"config_format": cfg.Format,
	}

	ctx := kong.Parse(&c,
		kong.Name("sesslog"),
		kong.Description("sesslog: durable session state and append-only activity logs for agent hook events"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	globals := cli.NewGlobalsWithConfig(&c, cfg)
	if err := ctx.Run(globals); err != nil {
		os.Exit(1)
	}
}
