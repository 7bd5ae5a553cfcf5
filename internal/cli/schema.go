package cli

import (
	"encoding/json"
	"strings"
)

// SchemaCmd outputs JSON Schema for sesslog NDJSON output types.
type SchemaCmd struct {
	Type []string `short:"t" help:"Output types to include (reply,session,status,error). Default: all"`
}

// Run executes the schema command.
func (c *SchemaCmd) Run(globals *Globals) error {
	schemas := map[string]interface{}{
		"reply":   replySchema(),
		"session": sessionSchema(),
		"status":  statusSchema(),
		"error":   errorSchema(),
	}

	typesToOutput := c.Type
	if len(typesToOutput) == 0 {
		typesToOutput = []string{"reply", "session", "status", "error"}
	}

	out := map[string]interface{}{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "sesslog Output Schemas",
		"description": "JSON Schema definitions for all sesslog NDJSON output types",
		"definitions": map[string]interface{}{},
	}

	defs := out["definitions"].(map[string]interface{})
	for _, t := range typesToOutput {
		t = strings.ToLower(strings.TrimSpace(t))
		if schema, ok := schemas[t]; ok {
			defs[t] = schema
		}
	}

	encoder := json.NewEncoder(globals.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func replySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Hook Reply",
		"description": "The object written to stdout at the end of every hook invocation",
		"properties": map[string]interface{}{
			"continue": map[string]interface{}{
				"type":        "boolean",
				"const":       true,
				"description": "Always true; logging failures never block the host",
			},
			"reason": map[string]interface{}{
				"type":        "string",
				"description": "Present when the invocation degraded; explains what was not logged",
			},
		},
		"required": []string{"continue"},
	}
}

func sessionSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Session Record",
		"description": "One session's durable state, as listed by 'sesslog sessions'",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "session",
			},
			"schemaVersion": map[string]interface{}{
				"type": "integer",
			},
			"session_id": map[string]interface{}{
				"type":        "string",
				"description": "Stable identifier assigned by the host",
			},
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Derived or operator-assigned session name",
			},
			"cwd": map[string]interface{}{
				"type":        "string",
				"description": "Canonical form of the most recently reported working directory",
			},
			"log_dir": map[string]interface{}{
				"type":        "string",
				"description": "Per-session log directory",
			},
			"run_number": map[string]interface{}{
				"type":        "integer",
				"description": "Count of runs, incremented on each detected resume",
			},
			"updated_at": map[string]interface{}{
				"type":   "string",
				"format": "date-time",
			},
		},
		"required": []string{"type", "schemaVersion", "session_id", "cwd", "run_number"},
	}
}

func statusSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Status Report",
		"description": "The engine's full view of one session, from 'sesslog status'",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "status",
			},
			"schemaVersion": map[string]interface{}{
				"type": "integer",
			},
			"session_id": map[string]interface{}{
				"type": "string",
			},
			"name": map[string]interface{}{
				"type": "string",
			},
			"log_dir": map[string]interface{}{
				"type": "string",
			},
			"run_number": map[string]interface{}{
				"type": "integer",
			},
			"transcript": map[string]interface{}{
				"type":        "string",
				"description": "Target of the transcript discovery link",
			},
			"channels": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Channel files present in the log directory",
			},
			"overflow_count": map[string]interface{}{
				"type":        "integer",
				"description": "Rotated segments across all channels",
			},
			"shell": map[string]interface{}{
				"type":        "string",
				"description": "Shell the invocation environment reports",
			},
			"tmux_session": map[string]interface{}{
				"type": "string",
			},
		},
		"required": []string{"type", "schemaVersion", "session_id", "run_number", "channels"},
	}
}

func errorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"title":       "Error Record",
		"description": "Structured failure report from operator commands",
		"properties": map[string]interface{}{
			"type": map[string]interface{}{
				"type":  "string",
				"const": "error",
			},
			"schemaVersion": map[string]interface{}{
				"type": "integer",
			},
			"code": map[string]interface{}{
				"type":        "string",
				"description": "Stable machine-readable error code",
			},
			"error": map[string]interface{}{
				"type": "string",
			},
			"hint": map[string]interface{}{
				"type":        "string",
				"description": "Suggested next step",
			},
		},
		"required": []string{"type", "schemaVersion", "code", "error"},
	}
}
