// Package naming turns canonical working-directory paths into
// human-readable session names.
package naming

import "strings"

// maxNameLen keeps derived names usable as directory-name components.
const maxNameLen = 50

// genericFolders are leaf names too common to identify a session on their
// own; they get disambiguated with their parent segment.
var genericFolders = map[string]struct{}{
	"home": {}, "user": {}, "users": {}, "code": {}, "projects": {},
	"project": {}, "work": {}, "dev": {}, "development": {}, "src": {},
	"source": {}, "app": {}, "apps": {}, "local": {}, "current": {},
	"main": {}, "master": {}, "opt": {}, "var": {}, "tmp": {}, "temp": {},
	"desktop": {}, "documents": {}, "downloads": {}, "repos": {},
	"repository": {}, "github": {}, "gitlab": {}, "bitbucket": {},
	"workspace": {}, "workspaces": {},
}

// Derive maps a canonical path (see pathnorm) to a session name. It is pure:
// the same input always yields the same name, and the output is restricted
// to lowercase letters, digits, dash and underscore.
//
// A distinctive leaf folder names the session by itself. A generic leaf
// (or one too short to mean anything) is joined with its parent as
// {parent}--{leaf}; when the parent is a volume root the volume letter
// stands in, so a root-level "code" folder on drive C becomes "c--code".
// The empty string is returned only when the path has no usable segments.
func Derive(canonical string) string {
	volume, segments := splitCanonical(canonical)

	if len(segments) == 0 {
		return clamp(Sanitize(volume))
	}

	leaf := segments[len(segments)-1]
	leafName := Sanitize(leaf)
	if leafName == "" {
		return ""
	}

	if !isGeneric(leaf) && len(leafName) >= 3 {
		return clamp(leafName)
	}

	parent := volume
	if len(segments) >= 2 {
		parent = segments[len(segments)-2]
	}
	parentName := Sanitize(parent)
	if parentName == "" {
		return clamp(leafName)
	}
	return clamp(parentName + "--" + leafName)
}

// Sanitize lowercases a single path segment and replaces anything outside
// [a-z0-9_-] with a dash, collapsing dash runs.
func Sanitize(segment string) string {
	var b strings.Builder
	lastDash := true // swallow leading dashes
	for _, r := range strings.ToLower(segment) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
			lastDash = false
		case r == '-':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func isGeneric(segment string) bool {
	_, ok := genericFolders[strings.ToLower(segment)]
	return ok
}

// splitCanonical separates an optional volume identifier ("c" for "c:/...")
// from the remaining path segments.
func splitCanonical(p string) (volume string, segments []string) {
	if len(p) >= 2 && p[1] == ':' {
		volume = strings.ToLower(p[:1])
		p = p[2:]
	}
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return volume, segments
}

func clamp(name string) string {
	if len(name) <= maxNameLen {
		return name
	}
	// cut at the last joiner that still fits, else hard-truncate
	cut := name[:maxNameLen]
	if i := strings.LastIndex(cut, "--"); i > 0 {
		return cut[:i]
	}
	return strings.Trim(cut, "-_")
}
