// Package fold provides case- and diacritic-insensitive string comparison
// for catalog vocabulary such as month names, level labels and subjects.
package fold

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// String returns s with diacritics stripped, case folded and surrounding
// whitespace trimmed. "Février" and "fevrier" fold to the same value.
func String(s string) string {
	// Transformers carry state, so a fresh chain is built per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.TrimSpace(cases.Fold().String(stripped))
}

// Equal reports whether a and b are equal after folding.
func Equal(a, b string) bool {
	return String(a) == String(b)
}

// Contains reports whether any element of list folds to the same value as s.
func Contains(list []string, s string) bool {
	target := String(s)
	for _, item := range list {
		if String(item) == target {
			return true
		}
	}
	return false
}
