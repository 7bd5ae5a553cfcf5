package cli

import (
	"github.com/dazzle-tools/sesslog/internal/dispatch"
	"github.com/dazzle-tools/sesslog/internal/hostevent"
	"github.com/dazzle-tools/sesslog/internal/output"
)

// HookCmd processes one host hook event. The host blocks on the reply, so
// this command always writes {"continue": true} and exits zero; logging
// failures are reported in the reason field, never as a refusal.
type HookCmd struct{}

// Run executes the hook command.
func (c *HookCmd) Run(globals *Globals) error {
	reply := output.NewNDJSONWriter(globals.Stdout)

	ev, err := hostevent.Parse(globals.Stdin)
	if err != nil {
		globals.Debug("unparseable event: %v", err)
		return reply.WriteHookReply(true, "event not parseable, nothing logged")
	}
	globals.Debug("event %s for session %s", ev.HookEventName, ev.SessionID)

	d, err := dispatch.New(globals.Config,
		dispatch.WithLogger(globals.logger.zapLogger()))
	if err != nil {
		globals.Debug("dispatcher init failed: %v", err)
		return reply.WriteHookReply(true, "engine unavailable, nothing logged")
	}

	if err := d.Dispatch(ev); err != nil {
		globals.Debug("dispatch failed: %v", err)
		return reply.WriteHookReply(true, "logging degraded: "+err.Error())
	}
	return reply.WriteHookReply(true, "")
}
