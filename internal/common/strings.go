package common

// TruncateRunes caps s at max runes. Titles carry Vietnamese text, so
// truncation must count runes rather than bytes to avoid splitting a
// multi-byte character.
func TruncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
