package naming

import (
	"regexp"
	"strings"
)

const maxProposedWords = 10

var (
	sameConceptSep = regexp.MustCompile(`[:/\\]`)
	wordSep        = regexp.MustCompile(`\s+`)
	unsafeChars    = regexp.MustCompile(`[^a-z0-9_-]`)
	repeatedSep    = regexp.MustCompile(`[-_]{2,}`)
)

// SanitizeProposed converts an externally proposed session name (from the
// rename surface) into the same restricted character class Derive emits.
// Spaces become underscores (word separators), colons and slashes become
// dashes, everything else outside [a-z0-9_-] is dropped, and the result is
// capped at ten words.
//
//	"Fix Auth Bug"        -> "fix_auth_bug"
//	"auth/login refactor" -> "auth-login_refactor"
func SanitizeProposed(name string) string {
	s := strings.ToLower(name)
	s = sameConceptSep.ReplaceAllString(s, "-")
	s = wordSep.ReplaceAllString(s, "_")
	s = unsafeChars.ReplaceAllString(s, "")
	s = repeatedSep.ReplaceAllString(s, "_")
	s = strings.Trim(s, "-_")

	words := strings.Split(s, "_")
	if len(words) > maxProposedWords {
		words = words[:maxProposedWords]
	}
	return strings.Join(words, "_")
}
