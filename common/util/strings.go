package util

import "unicode/utf8"

// TruncateStringToMaxLength returns s cut to at most maxChars runes. A truncated string ends
// in "..." when there is room for it.
func TruncateStringToMaxLength(s string, maxChars int) string {
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	if maxChars > 3 {
		return string(runes[:maxChars-3]) + "..."
	}
	return string(runes[:maxChars])
}
