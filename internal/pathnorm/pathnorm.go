package pathnorm

import (
	"errors"
	"strings"
)

// ErrEmptyPath is returned when an empty or all-whitespace path is given.
var ErrEmptyPath = errors.New("path is empty")

// emulation mount prefixes that wrap a drive letter (Git Bash, WSL, Cygwin)
var mountPrefixes = []string{"/mnt/", "/cygdrive/"}

// Normalize collapses the textual variants of the same filesystem location
// into one canonical string so it can be used as a lookup key.
//
// Canonical form uses forward slashes, and drive-letter notations
// (`C:\Users`, `/c/Users`, `/mnt/c/Users`, `/cygdrive/c/Users`) all become
// `c:/Users` with the drive lowercased. Paths that match no known drive
// notation pass through with only slash direction unified; the pipeline
// must keep moving even for unusual but well-formed input.
func Normalize(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyPath
	}

	p := strings.ReplaceAll(raw, `\`, "/")
	p = collapseSlashes(p)

	// Native Windows drive: X:/... or bare X:
	if len(p) >= 2 && isDriveLetter(p[0]) && p[1] == ':' {
		rest := p[2:]
		if rest == "" || rest == "/" {
			return string(lower(p[0])) + ":/", nil
		}
		return string(lower(p[0])) + ":" + rest, nil
	}

	// Emulation mounts: /mnt/c/..., /cygdrive/c/...
	for _, prefix := range mountPrefixes {
		if drive, rest, ok := splitMount(p, prefix); ok {
			return drive + ":" + ensureRooted(rest), nil
		}
	}

	// MSYS / Git Bash: /c/...
	if drive, rest, ok := splitMount(p, "/"); ok {
		return drive + ":" + ensureRooted(rest), nil
	}

	return trimTrailingSlash(p), nil
}

// splitMount matches prefix + single drive letter, returning the lowercased
// drive and whatever follows it.
func splitMount(p, prefix string) (drive, rest string, ok bool) {
	if !strings.HasPrefix(p, prefix) {
		return "", "", false
	}
	tail := p[len(prefix):]
	if tail == "" || !isDriveLetter(tail[0]) {
		return "", "", false
	}
	if len(tail) > 1 && tail[1] != '/' {
		return "", "", false
	}
	return string(lower(tail[0])), tail[1:], true
}

func ensureRooted(rest string) string {
	if rest == "" {
		return "/"
	}
	return trimTrailingSlash(rest)
}

func trimTrailingSlash(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return p[:len(p)-1]
	}
	return p
}

func collapseSlashes(p string) string {
	// Preserve a leading double slash (UNC //server/share); collapse the rest.
	prefix := ""
	if strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "///") {
		prefix, p = "//", p[2:]
	}
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return prefix + p
}

func isDriveLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
