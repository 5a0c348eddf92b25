package rewrite

import (
	"strings"
	"unicode/utf8"
)

var sentenceEnds = []string{"다. ", ". ", "! ", "? ", "。"}

// Fallback is the local stand-in for a failed rewrite: the first sentence of
// text when it fits in maxRunes, otherwise a hard cut with an ellipsis.
func Fallback(text string, maxRunes int) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" || maxRunes <= 0 {
		return ""
	}

	if first := firstSentence(text); first != "" && utf8.RuneCountInString(first) <= maxRunes {
		return first
	}
	if utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return Cap(text, maxRunes-1) + "…"
}

func firstSentence(text string) string {
	cut := -1
	for _, end := range sentenceEnds {
		if i := strings.Index(text, end); i >= 0 {
			stop := i + len(strings.TrimRight(end, " "))
			if cut < 0 || stop < cut {
				cut = stop
			}
		}
	}
	if cut < 0 {
		return ""
	}
	return strings.TrimSpace(text[:cut])
}

// Cap returns at most n runes of s.
func Cap(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
