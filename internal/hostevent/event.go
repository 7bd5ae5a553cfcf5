// Package hostevent models the JSON record the host delivers on stdin for
// each hook invocation. The host's dispatch mechanism is an opaque event
// source; this package only parses and summarizes what arrives.
package hostevent

import (
	"encoding/json"
	"fmt"
	"io"
)

// Kind is the coarse event classification the dispatcher routes on.
type Kind int

const (
	// KindSessionStart marks the beginning of a run (fresh or resumed).
	KindSessionStart Kind = iota
	// KindPostToolUse carries a completed tool call to be logged.
	KindPostToolUse
	// KindOther covers lifecycle events that only refresh session state.
	KindOther
)

// Event is one host hook invocation's input record.
type Event struct {
	HookEventName   string         `json:"hook_event_name"`
	SessionID       string         `json:"session_id"`
	TranscriptPath  string         `json:"transcript_path"`
	CWD             string         `json:"cwd"`
	ToolName        string         `json:"tool_name"`
	ToolDescription string         `json:"tool_description"`
	ToolInput       map[string]any `json:"tool_input"`
	ToolResponse    map[string]any `json:"tool_response"`
}

// Parse reads one event record from r. The host always sends UTF-8 JSON.
func Parse(r io.Reader) (*Event, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.SessionID == "" {
		ev.SessionID = "unknown"
	}
	if ev.HookEventName == "" {
		ev.HookEventName = "PostToolUse"
	}
	return &ev, nil
}

// Kind classifies the raw hook event name.
func (e *Event) Kind() Kind {
	switch e.HookEventName {
	case "SessionStart":
		return KindSessionStart
	case "PostToolUse", "PreToolUse", "PostToolUseFailure":
		return KindPostToolUse
	default:
		return KindOther
	}
}

// InputString returns a string field from the tool input, or "".
func (e *Event) InputString(key string) string {
	if e.ToolInput == nil {
		return ""
	}
	s, _ := e.ToolInput[key].(string)
	return s
}

// ResponseMap returns a nested object from the tool response, or nil.
func (e *Event) ResponseMap(key string) map[string]any {
	if e.ToolResponse == nil {
		return nil
	}
	m, _ := e.ToolResponse[key].(map[string]any)
	return m
}

// ResponseString returns a string field from the tool response, or "".
func (e *Event) ResponseString(key string) string {
	if e.ToolResponse == nil {
		return ""
	}
	s, _ := e.ToolResponse[key].(string)
	return s
}
