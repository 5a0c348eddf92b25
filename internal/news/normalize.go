package news

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var tagRe = regexp.MustCompile(`<[^>]*>`)

var entityReplacer = strings.NewReplacer(
	"&quot;", `"`,
	"&#34;", `"`,
	"&apos;", "'",
	"&#39;", "'",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
)

// Normalize strips markup, decodes the common entities and collapses
// whitespace. It runs to a fixed point so that escaped markup such as
// "&lt;b&gt;" is removed as well, which keeps it idempotent.
func Normalize(raw string) string {
	s := raw
	for {
		next := norm.NFC.String(normalizeOnce(s))
		if next == s {
			return s
		}
		s = next
	}
}

func normalizeOnce(s string) string {
	s = tagRe.ReplaceAllString(s, " ")
	s = entityReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
