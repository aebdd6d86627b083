package tui

import "strings"

// WrapLog word-wraps s to width, breaking between words rather than mid-word.
// It returns s unchanged if width is non-positive or s is empty.
func WrapLog(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		switch {
		case i == 0:
			b.WriteString(word)
			lineLen = len(word)
		case lineLen+1+len(word) > width:
			b.WriteByte('\n')
			b.WriteString(word)
			lineLen = len(word)
		default:
			b.WriteByte(' ')
			b.WriteString(word)
			lineLen += 1 + len(word)
		}
	}
	return b.String()
}
