package utils

import "strings"

func AssertInvariant(condition bool, message string) {
	if !condition {
		panic("invariant violated - " + message)
	}
}

// NormalizeCommandText trims surrounding whitespace and case-folds a free-text message
// so it can be compared against a text command token like "!oi".
func NormalizeCommandText(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Truncate shortens s to at most max runes, marking the cut with an ellipsis
func Truncate(s string, max int) string {
	AssertInvariant(max > 0, "max must be positive")

	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
