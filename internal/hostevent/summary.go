package hostevent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const descriptionPreviewLen = 100

// Summary renders the tool's primary target or argument for the tool-call
// channel: a path for file tools, a pattern for search tools, the literal
// command for Bash, a compact todo dump for TodoWrite.
func (e *Event) Summary() string {
	switch e.ToolName {
	case "Bash":
		return e.InputString("command")
	case "Read", "Write", "Edit", "MultiEdit", "NotebookEdit":
		if p := e.InputString("file_path"); p != "" {
			return fmt.Sprintf("%q", p)
		}
		return ""
	case "LS":
		if p := e.InputString("path"); p != "" {
			return fmt.Sprintf("%q", p)
		}
		return ""
	case "Glob", "Grep":
		return e.InputString("pattern")
	case "WebSearch", "WebFetch":
		return lo.CoalesceOrEmpty(e.InputString("url"), e.InputString("query"))
	case "Task":
		return e.InputString("prompt")
	case "TodoWrite":
		if e.ToolInput == nil {
			return ""
		}
		if todos, ok := e.ToolInput["todos"]; ok {
			if b, err := json.Marshal(todos); err == nil {
				return string(b)
			}
		}
		return ""
	case "TaskCreate", "TaskUpdate", "TaskList", "TaskGet":
		return e.TaskRecord().Render()
	default:
		// unknown tools: try the usual suspects
		return lo.CoalesceOrEmpty(
			e.InputString("pattern"),
			e.InputString("url"),
			e.InputString("prompt"),
			e.InputString("query"),
			e.InputString("content"),
		)
	}
}

// CompactInput renders the full tool input as single-line JSON for the
// highest verbosity level.
func (e *Event) CompactInput() string {
	if e.ToolInput == nil {
		return "{}"
	}
	b, err := json.Marshal(e.ToolInput)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// TaskOp is the task-log operation kind.
type TaskOp string

const (
	TaskOpCreate TaskOp = "create"
	TaskOpUpdate TaskOp = "update"
	TaskOpList   TaskOp = "list"
	TaskOpGet    TaskOp = "get"
)

// TaskRecordData is the logical task record written to the task channel.
// Nothing beyond the rendered log text survives the invocation.
type TaskRecordData struct {
	Op         TaskOp
	TaskID     string
	Subject    string
	Status     string
	FromStatus string
	ActiveForm string
	Preview    string
}

// TaskRecord extracts the task fields for Task* tools. Identifier and
// status-transition details come from the tool response where the host
// reports them (the assigned id for creates, the previous status for
// updates).
func (e *Event) TaskRecord() TaskRecordData {
	rec := TaskRecordData{}
	switch e.ToolName {
	case "TaskCreate":
		rec.Op = TaskOpCreate
		rec.Subject = lo.CoalesceOrEmpty(e.InputString("subject"), "(no subject)")
		if d := e.InputString("description"); d != "" {
			rec.Preview = truncate(d, descriptionPreviewLen)
		}
		if task := e.ResponseMap("task"); task != nil {
			rec.TaskID, _ = task["id"].(string)
		}
	case "TaskUpdate":
		rec.Op = TaskOpUpdate
		rec.TaskID = lo.CoalesceOrEmpty(e.InputString("taskId"), "?")
		rec.Subject = e.InputString("subject")
		rec.Status = e.InputString("status")
		rec.ActiveForm = e.InputString("activeForm")
		if change := e.ResponseMap("statusChange"); change != nil {
			rec.FromStatus, _ = change["from"].(string)
		}
	case "TaskList":
		rec.Op = TaskOpList
	case "TaskGet":
		rec.Op = TaskOpGet
		rec.TaskID = lo.CoalesceOrEmpty(e.InputString("taskId"), "?")
	}
	return rec
}

// Render formats a task record the way the task channel expects it.
func (r TaskRecordData) Render() string {
	switch r.Op {
	case TaskOpCreate:
		id := ""
		if r.TaskID != "" {
			id = " #" + r.TaskID
		}
		if r.Preview != "" {
			return fmt.Sprintf("CREATE%s: %s | %s...", id, r.Subject, r.Preview)
		}
		return fmt.Sprintf("CREATE%s: %s", id, r.Subject)
	case TaskOpUpdate:
		var b strings.Builder
		fmt.Fprintf(&b, "UPDATE: #%s", r.TaskID)
		if r.Status != "" {
			if r.FromStatus != "" {
				fmt.Fprintf(&b, ": %s -> %s", r.FromStatus, r.Status)
			} else {
				fmt.Fprintf(&b, " -> %s", r.Status)
			}
		}
		if r.Subject != "" {
			fmt.Fprintf(&b, " | title='%s'", r.Subject)
		}
		if r.ActiveForm != "" {
			fmt.Fprintf(&b, " | %s", r.ActiveForm)
		}
		return b.String()
	case TaskOpList:
		return "LIST"
	case TaskOpGet:
		return fmt.Sprintf("GET: #%s", r.TaskID)
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
