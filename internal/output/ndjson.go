// Package output emits the machine-readable surfaces: the hook reply the
// host agent blocks on, and NDJSON records for --format json consumers.
package output

import (
	"encoding/json"
	"io"
)

// SchemaVersion is bumped whenever an NDJSON record shape changes in a way
// consumers must detect.
const SchemaVersion = 1

// HookReply is the single JSON object written to stdout at the end of every
// hook invocation. The host agent blocks until it arrives, so it is emitted
// even when logging failed.
type HookReply struct {
	Continue bool   `json:"continue"`
	Reason   string `json:"reason,omitempty"`
}

// SessionRecord is one session's state as an NDJSON line.
type SessionRecord struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	SessionID     string `json:"session_id"`
	Name          string `json:"name,omitempty"`
	CWD           string `json:"cwd"`
	LogDir        string `json:"log_dir,omitempty"`
	RunNumber     int    `json:"run_number"`
	UpdatedAt     string `json:"updated_at"`
}

// StatusRecord describes the engine's view of a single session for
// `status --format json`.
type StatusRecord struct {
	Type          string   `json:"type"`
	SchemaVersion int      `json:"schemaVersion"`
	SessionID     string   `json:"session_id"`
	Name          string   `json:"name,omitempty"`
	LogDir        string   `json:"log_dir,omitempty"`
	RunNumber     int      `json:"run_number"`
	Transcript    string   `json:"transcript,omitempty"`
	Channels      []string `json:"channels"`
	OverflowCount int      `json:"overflow_count"`
	Shell         string   `json:"shell,omitempty"`
	TmuxSession   string   `json:"tmux_session,omitempty"`
}

// ErrorRecord is a structured failure report for JSON consumers.
type ErrorRecord struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Code          string `json:"code"`
	Error         string `json:"error"`
	Hint          string `json:"hint,omitempty"`
}

// NDJSONWriter serializes records one JSON object per line.
type NDJSONWriter struct {
	enc *json.Encoder
}

// NewNDJSONWriter wraps w. Records are flushed per write; the encoder's
// trailing newline gives the one-object-per-line framing.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

// WriteHookReply emits the reply the host agent is waiting on.
func (w *NDJSONWriter) WriteHookReply(cont bool, reason string) error {
	return w.enc.Encode(HookReply{Continue: cont, Reason: reason})
}

// WriteSession emits one session record.
func (w *NDJSONWriter) WriteSession(rec *SessionRecord) error {
	rec.Type = "session"
	rec.SchemaVersion = SchemaVersion
	return w.enc.Encode(rec)
}

// WriteStatus emits one status record.
func (w *NDJSONWriter) WriteStatus(rec *StatusRecord) error {
	rec.Type = "status"
	rec.SchemaVersion = SchemaVersion
	if rec.Channels == nil {
		rec.Channels = []string{}
	}
	return w.enc.Encode(rec)
}

// WriteError emits a structured error record.
func (w *NDJSONWriter) WriteError(code, msg string, hint ...string) error {
	rec := ErrorRecord{
		Type:          "error",
		SchemaVersion: SchemaVersion,
		Code:          code,
		Error:         msg,
	}
	if len(hint) > 0 {
		rec.Hint = hint[0]
	}
	return w.enc.Encode(rec)
}
