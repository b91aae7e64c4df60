package billing

import "strings"

// NormalizeID strips every character that is not an ASCII digit, so that
// "12.345.678/0001-90" and "12345678000190" compare equal.
func NormalizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
