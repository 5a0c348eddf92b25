package rewrite

import (
	"regexp"
	"strings"
)

var (
	parenNoteRe   = regexp.MustCompile(`(?i)\((?:note|참고|주의)\s*:[^)]*\)`)
	bracketNoteRe = regexp.MustCompile(`(?i)\[(?:note|참고|주의)\s*:?[^\]]*\]`)
	lineNoteRe    = regexp.MustCompile(`(?i)^(?:note|참고|주의|disclaimer)\s*:`)
	bulletRe      = regexp.MustCompile(`^(?:[-*•]\s+|\d+[.)]\s+)`)
	emphasisRe    = regexp.MustCompile(`\*\*|__|` + "`")
)

// SanitizeAIText strips model disclaimers, markdown emphasis and list bullets
// from a model answer while keeping the content lines.
func SanitizeAIText(s string) string {
	s = parenNoteRe.ReplaceAllString(s, "")
	s = bracketNoteRe.ReplaceAllString(s, "")
	s = emphasisRe.ReplaceAllString(s, "")

	var lines []string
	for _, raw := range strings.Split(s, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || lineNoteRe.MatchString(line) {
			continue
		}
		line = bulletRe.ReplaceAllString(line, "")
		lines = append(lines, strings.Join(strings.Fields(line), " "))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
