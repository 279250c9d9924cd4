// Package normalize canonicalizes user utterances into the key form used
// for knowledge lookups and deduplication.
package normalize

import (
	"strings"
	"unicode"
)

// Normalize trims, lower-cases, strips punctuation and collapses internal
// whitespace. The result is deterministic and idempotent: applying Normalize
// to its own output returns the same string.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	space := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// Dropped entirely; "won't" and "wont" normalize the same.
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsBlank reports whether s normalizes to the empty string.
func IsBlank(s string) bool {
	return Normalize(s) == ""
}
