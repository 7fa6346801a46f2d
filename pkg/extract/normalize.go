package extract

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize composes Unicode (NFC), trims and collapses runs of whitespace.
// Case is preserved.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Fold is Normalize plus lower-casing, for case-insensitive comparisons.
// A Caser is stateful, so each call builds its own.
func Fold(s string) string {
	return cases.Lower(language.Und).String(Normalize(s))
}
