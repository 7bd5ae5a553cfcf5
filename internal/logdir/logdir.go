// Package logdir derives and maintains per-session log directories. The
// directory name is always recomputed from the session name, never stored
// and trusted, so a rename can only ever leave one directory current.
package logdir

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DirName builds the log directory name: {name}__{session_id}_{user}, or
// __{session_id}_{user} while the session is unnamed.
func DirName(name, sessionID, user string) string {
	return fmt.Sprintf("%s__%s_%s", name, sessionID, user)
}

// NameFromDir recovers the session name embedded in a directory name, or
// "" for the unnamed form.
func NameFromDir(dirName, sessionID string) string {
	marker := "__" + sessionID + "_"
	i := strings.Index(dirName, marker)
	if i <= 0 {
		return ""
	}
	return dirName[:i]
}

// Ensure creates root/dirName if needed and returns its path. Concurrent
// invocations creating the same directory both succeed.
func Ensure(root, dirName string) (string, error) {
	path := filepath.Join(root, dirName)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return "", fmt.Errorf("create log directory: %w", err)
	}
	return path, nil
}

// FindByID locates an existing log directory for the session regardless of
// its current name component.
func FindByID(root, sessionID string) (string, bool) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() && strings.Contains(e.Name(), sessionID) {
			return filepath.Join(root, e.Name()), true
		}
	}
	return "", false
}

// Move relocates the whole log directory, active and overflow files alike.
// A plain rename is atomic where the filesystem allows it; across devices
// it degrades to copy, verify, then delete the original.
func Move(oldPath, newPath string) error {
	if oldPath == newPath {
		return nil
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("move log directory: destination %s already exists", newPath)
	}

	err := os.Rename(oldPath, newPath)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return fmt.Errorf("move log directory: %w", err)
	}

	// likely EXDEV; fall back to copy-verify-delete
	if err := copyTree(oldPath, newPath); err != nil {
		os.RemoveAll(newPath)
		return fmt.Errorf("copy log directory: %w", err)
	}
	if err := verifyTree(oldPath, newPath); err != nil {
		os.RemoveAll(newPath)
		return fmt.Errorf("verify copied log directory: %w", err)
	}
	return os.RemoveAll(oldPath)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if d.Type()&os.ModeSymlink != 0 {
			dest, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(dest, target)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// verifyTree confirms every regular file arrived with its full size before
// the original is deleted.
func verifyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Type()&os.ModeSymlink != 0 {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		srcInfo, err := os.Stat(path)
		if err != nil {
			return err
		}
		dstInfo, err := os.Stat(filepath.Join(dst, rel))
		if err != nil {
			return err
		}
		if srcInfo.Size() != dstInfo.Size() {
			return fmt.Errorf("size mismatch for %s", rel)
		}
		return nil
	})
}
