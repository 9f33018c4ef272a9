package utils

import "strings"

// NormalizeDocument strips formatting characters from a payer document id
// (CPF). Returns the digits and whether the result is a valid 11-digit
// document.
func NormalizeDocument(doc string) (string, bool) {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	return digits, len(digits) == 11
}
