// Package channel implements the append-only activity log channels with
// size-bounded overflow rotation.
package channel

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Channel identifies one append-only log stream within a session directory.
type Channel string

const (
	// ToolCall records every logged tool invocation.
	ToolCall Channel = "toolcalls"
	// Shell records bash commands with their captured output.
	Shell Channel = "shell"
	// Task records task lifecycle operations.
	Task Channel = "tasks"
)

// Filename returns the active file name for the channel.
func (c Channel) Filename() string { return string(c) + ".log" }

// gapThreshold separates bursts of activity with a blank line.
const gapThreshold = 30 * time.Minute

var timestampPrefix = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Writer appends records to a session's channel files, rotating the active
// file to an .overflow.N sibling when it reaches the threshold. Callers hold
// the per-session lock, so there is a single writer per channel at a time.
type Writer struct {
	dir       string
	threshold int64
}

// NewWriter creates a writer for one session log directory.
func NewWriter(dir string, threshold int64) *Writer {
	return &Writer{dir: dir, threshold: threshold}
}

// Redirect points subsequent appends at a new directory after a
// rename-triggered move.
func (w *Writer) Redirect(dir string) { w.dir = dir }

// Dir returns the current log directory.
func (w *Writer) Dir() string { return w.dir }

// ActivePath returns the channel's active file path.
func (w *Writer) ActivePath(c Channel) string {
	return filepath.Join(w.dir, c.Filename())
}

// Append writes one record to the channel, rotating first if the active
// file has reached the size threshold. Rotation happens between records,
// never mid-write, so the active file exceeds the threshold by at most one
// record. When eventTime is ≥30 minutes past the previous record a blank
// line separates the bursts.
func (w *Writer) Append(c Channel, record string, eventTime time.Time) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	path := w.ActivePath(c)

	if err := w.rotateIfNeeded(path); err != nil {
		return err
	}

	// NUL bytes corrupt log readers
	record = strings.ReplaceAll(record, "\x00", "")

	var b strings.Builder
	if w.gapSince(path, eventTime) {
		b.WriteByte('\n')
	}
	b.WriteString(record)
	b.WriteByte('\n')

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.Filename(), err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("append to %s: %w", c.Filename(), err)
	}
	return f.Close()
}

// rotateIfNeeded closes out the active file as the next overflow segment
// once it reaches the threshold.
func (w *Writer) rotateIfNeeded(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return nil // no active file yet
	}
	if info.Size() < w.threshold {
		return nil
	}

	next := w.nextOverflow(path)
	if err := os.Rename(path, next); err != nil {
		return fmt.Errorf("rotate %s: %w", filepath.Base(path), err)
	}
	return nil
}

// nextOverflow finds the first unused overflow suffix; segments are
// numbered 1..k in creation order, oldest first.
func (w *Writer) nextOverflow(path string) string {
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.overflow.%d", path, n)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

// OverflowFiles lists the channel's rotated segments in numeric order.
func (w *Writer) OverflowFiles(c Channel) []string {
	var files []string
	base := w.ActivePath(c)
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.overflow.%d", base, n)
		if _, err := os.Stat(candidate); err != nil {
			return files
		}
		files = append(files, candidate)
	}
}

// gapSince reports whether the last record in the file is old enough to
// warrant a visual gap. Only the file tail is read.
func (w *Writer) gapSince(path string, eventTime time.Time) bool {
	last, ok := lastLine(path)
	if !ok {
		return false
	}
	m := timestampPrefix.FindStringSubmatch(last)
	if m == nil {
		return false
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02"} {
		if prev, err := time.ParseInLocation(layout, m[1], eventTime.Location()); err == nil {
			return eventTime.Sub(prev) >= gapThreshold
		}
	}
	return false
}

const tailWindow = 4096

func lastLine(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.Size() == 0 {
		return "", false
	}

	offset := info.Size() - tailWindow
	if offset < 0 {
		offset = 0
	}
	buf := make([]byte, info.Size()-offset)
	if _, err := f.ReadAt(buf, offset); err != nil {
		return "", false
	}

	lines := strings.Split(strings.TrimRight(string(buf), "\n"), "\n")
	if len(lines) == 0 {
		return "", false
	}
	return lines[len(lines)-1], true
}
