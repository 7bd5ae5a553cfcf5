package channel

import (
	"fmt"
	"strings"
	"time"

	"github.com/dazzle-tools/sesslog/internal/config"
	"github.com/dazzle-tools/sesslog/internal/hostevent"
)

// runMarkerRule is the visual boundary between runs.
var runMarkerRule = strings.Repeat("═", 80)

// FormatTimestamp renders the bracketed record prefix for the configured
// datetime mode; mode "none" yields "".
func FormatTimestamp(mode string, t time.Time) string {
	switch mode {
	case "date":
		return "[[" + t.Format("2006-01-02") + "]] "
	case "full":
		return "[[" + t.Format("2006-01-02 15:04:05") + "]] "
	}
	return ""
}

// FormatToolRecord renders a tool-call record. Verbosity widens the record
// from the bare argument up to the tool's compact JSON input; action-only
// tools collapse to their name regardless.
func FormatToolRecord(ev *hostevent.Event, cfg *config.Config, t time.Time) string {
	summary := ev.Summary()

	var content string
	switch {
	case cfg.ActionOnlyFor(ev.ToolName, string(hostevent.Categorize(ev.ToolName))):
		content = ev.ToolName
	case cfg.Verbosity <= 1:
		content = summary
	case cfg.Verbosity == 2:
		content = fmt.Sprintf("%s: %s", ev.ToolName, summary)
	case cfg.Verbosity == 3:
		if ev.ToolDescription != "" {
			content = fmt.Sprintf("%s: %s %s", ev.ToolName, summary, ev.ToolDescription)
		} else {
			content = fmt.Sprintf("%s: %s", ev.ToolName, summary)
		}
	default: // 4
		content = fmt.Sprintf("%s: %s %s", ev.ToolName, summary, ev.CompactInput())
	}

	return FormatTimestamp(cfg.Datetime, t) + "{" + content + " }" + pwdSuffix(ev, cfg)
}

// FormatShellRecord renders a shell-output record: the literal command, its
// captured output, and the exit code as a trailing marker.
func FormatShellRecord(ev *hostevent.Event, cfg *config.Config, t time.Time) string {
	var b strings.Builder
	b.WriteString(FormatTimestamp(cfg.Datetime, t))
	b.WriteString("$ ")
	b.WriteString(ev.InputString("command"))

	if out := capturedOutput(ev); out != "" {
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(out, "\n"))
	}
	fmt.Fprintf(&b, "\n[exit %d]", exitCode(ev))
	return b.String()
}

// FormatTaskRecord renders a task-channel record.
func FormatTaskRecord(ev *hostevent.Event, cfg *config.Config, t time.Time) string {
	return FormatTimestamp(cfg.Datetime, t) + "{" + ev.TaskRecord().Render() + " }"
}

// FormatFailureRecord renders the [FAILED] record appended when a Bash
// command's output matches an error pattern. The stderr excerpt is indented
// under the record and bounded by maxLines.
func FormatFailureRecord(ev *hostevent.Event, cfg *config.Config, t time.Time, reason, errOutput string) string {
	var content string
	switch {
	case cfg.ActionOnlyFor(ev.ToolName, string(hostevent.Categorize(ev.ToolName))):
		content = ev.ToolName
	case cfg.Verbosity <= 1:
		content = ev.InputString("command")
	default:
		content = fmt.Sprintf("%s: %s", ev.ToolName, ev.InputString("command"))
	}

	record := fmt.Sprintf("%s{%s } [FAILED: %s]%s",
		FormatTimestamp(cfg.Datetime, t), content, reason, pwdSuffix(ev, cfg))

	if cfg.FailureCapture.CaptureStderr && errOutput != "" {
		lines := strings.Split(errOutput, "\n")
		if len(lines) > cfg.FailureCapture.MaxLines {
			lines = lines[:cfg.FailureCapture.MaxLines]
		}
		for _, line := range lines {
			record += "\n  " + line
		}
	}
	return record
}

// RunMarker renders the session-start boundary written to the tool-call and
// shell channels at each new run.
func RunMarker(runNumber int, t time.Time, name string) string {
	if name == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s\n═══ SESSION START  •  %s  •  Run #%d  •  %s\n%s",
		runMarkerRule, t.Format("2006-01-02 15:04:05"), runNumber, name, runMarkerRule)
}

func pwdSuffix(ev *hostevent.Event, cfg *config.Config) string {
	if !cfg.PWD || ev.CWD == "" {
		return ""
	}
	return fmt.Sprintf(" [%q]", ev.CWD)
}

func capturedOutput(ev *hostevent.Event) string {
	out := ev.ResponseString("stdout")
	if errOut := ev.ResponseString("stderr"); errOut != "" {
		if out != "" {
			out += "\n"
		}
		out += errOut
	}
	if out == "" {
		out = ev.ResponseString("output")
	}
	return out
}

func exitCode(ev *hostevent.Event) int {
	if ev.ToolResponse == nil {
		return 0
	}
	switch v := ev.ToolResponse["exit_code"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
