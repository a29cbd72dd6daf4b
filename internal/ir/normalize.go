package ir

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace and applies Unicode NFC so that
// visually identical names compare equal regardless of how they were typed.
func Normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
