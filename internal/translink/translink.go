// Package translink keeps a stable reference to the host's transcript file
// inside a session's log directory. A symlink is preferred; filesystems or
// platforms that refuse symlinks fall back to a hardlink, and failing that a
// plain pointer file holding the transcript path.
package translink

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// LinkName is the entry created inside the log directory.
	LinkName = "transcript.jsonl"
	// PointerName is the last-resort fallback file.
	PointerName = "transcript.jsonl.path"

	pointerMarker = "# sesslog pointer"
)

// Ensure makes logDir contain a reference to target, creating or retargeting
// as needed. It is idempotent and reports the mechanism used: "symlink",
// "hardlink", or "pointer". Callers treat errors as advisory; a missing
// transcript reference never blocks logging.
func Ensure(logDir, target string) (string, error) {
	if target == "" {
		return "", fmt.Errorf("empty transcript path")
	}
	linkPath := filepath.Join(logDir, LinkName)

	if current, err := os.Readlink(linkPath); err == nil {
		if current == target {
			return "symlink", nil
		}
		if err := os.Remove(linkPath); err != nil {
			return "", fmt.Errorf("retarget transcript link: %w", err)
		}
	}

	if err := os.Symlink(target, linkPath); err == nil {
		return "symlink", nil
	} else if os.IsExist(err) {
		// a regular file is squatting on the link name, likely a stale
		// hardlink from a previous fallback
		if rmErr := os.Remove(linkPath); rmErr == nil {
			if err := os.Symlink(target, linkPath); err == nil {
				return "symlink", nil
			}
		}
	}

	if err := os.Link(target, linkPath); err == nil {
		return "hardlink", nil
	}

	if err := writePointer(logDir, target); err != nil {
		return "", err
	}
	return "pointer", nil
}

// Resolve returns the transcript path referenced from logDir, following
// whichever mechanism Ensure left behind. Returns "" when no reference
// exists.
func Resolve(logDir string) string {
	linkPath := filepath.Join(logDir, LinkName)
	if target, err := os.Readlink(linkPath); err == nil {
		return target
	}
	if _, err := os.Stat(linkPath); err == nil {
		// hardlink; the entry is the transcript itself
		return linkPath
	}
	return readPointer(logDir)
}

func writePointer(logDir, target string) error {
	path := filepath.Join(logDir, PointerName)
	body := pointerMarker + "\n" + target + "\n"
	return os.WriteFile(path, []byte(body), 0o644)
}

func readPointer(logDir string) string {
	raw, err := os.ReadFile(filepath.Join(logDir, PointerName))
	if err != nil {
		return ""
	}
	lines := strings.SplitN(strings.TrimRight(string(raw), "\n"), "\n", 2)
	if len(lines) != 2 || lines[0] != pointerMarker {
		return ""
	}
	return lines[1]
}
