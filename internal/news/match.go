package news

import (
	"regexp"
	"strings"
	"sync"

	"golang.org/x/text/cases"
)

var (
	boundaryMu sync.Mutex
	boundaryRe = map[string]*regexp.Regexp{}
)

// fold lower-cases text for keyword matching.
func fold(s string) string {
	return cases.Fold().String(s)
}

// contains reports whether a folded text holds keyword. Short ASCII words
// ("ai", "it") need a word boundary so they do not match inside "said".
func contains(folded, keyword string) bool {
	k := fold(strings.TrimSpace(keyword))
	if k == "" {
		return false
	}
	if len(k) <= 3 && isASCIIWord(k) {
		return wordRe(k).MatchString(folded)
	}
	return strings.Contains(folded, k)
}

// countMatches returns how many distinct keywords occur in folded.
func countMatches(folded string, keywords []string) int {
	seen := make(map[string]struct{}, len(keywords))
	n := 0
	for _, k := range keywords {
		key := fold(strings.TrimSpace(k))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if contains(folded, k) {
			n++
		}
	}
	return n
}

// firstMatches returns up to limit keywords found in folded, in list order.
func firstMatches(folded string, keywords []string, limit int) []string {
	var out []string
	for _, k := range keywords {
		if len(out) >= limit {
			break
		}
		if contains(folded, k) {
			out = append(out, fold(strings.TrimSpace(k)))
		}
	}
	return out
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func wordRe(k string) *regexp.Regexp {
	boundaryMu.Lock()
	defer boundaryMu.Unlock()
	if re, ok := boundaryRe[k]; ok {
		return re
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(k) + `\b`)
	boundaryRe[k] = re
	return re
}
