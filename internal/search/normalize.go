package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Normalize folds case, trims surrounding space and turns runs of internal
// whitespace or underscores into a single hyphen so that "Chat Alt" and
// "chat_alt" address the same segments as "chat-alt".
func Normalize(query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return ""
	}
	// A Caser is stateful; one per call keeps Normalize safe for
	// concurrent use.
	folded := cases.Fold().String(query)

	var b strings.Builder
	b.Grow(len(folded))
	sep := false
	for _, r := range folded {
		if unicode.IsSpace(r) || r == '_' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
			sep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
