package news

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/deusflow/industry-news/internal/profile"
)

// KeyFunc derives a fingerprint key from an item. The empty string means
// "no signal" and never collapses two items.
type KeyFunc func(Item) string

const signatureSep = "|"

var numberTokenRe = regexp.MustCompile(`\d+(?:[.,]\d+)*(?:%|퍼센트|[조억만천]+(?:원|달러|톤)?|원|달러|배|명|건|척|톤|개|[A-Za-z]{1,3})?`)

// URLKey is the link without its query string.
func URLKey(it Item) string {
	link := strings.TrimSpace(it.Link)
	if i := strings.IndexByte(link, '?'); i >= 0 {
		link = link[:i]
	}
	return link
}

// SignatureExtractor builds the salient-token key used for sources whose
// links are unreliable: up to two entities, two numbers and two actions.
type SignatureExtractor struct {
	Entities []string
	Actions  []string
	// MinComponents is the least number of tokens a signature needs before it
	// is allowed to merge anything.
	MinComponents int
}

// NewSignatureExtractor builds an extractor from a profile lexicon.
func NewSignatureExtractor(p *profile.Profile) *SignatureExtractor {
	return &SignatureExtractor{
		Entities:      p.Entities,
		Actions:       p.Actions,
		MinComponents: 2,
	}
}

// Key extracts the signature from the item title.
func (e *SignatureExtractor) Key(it Item) string {
	text := fold(it.Title)

	parts := firstMatches(text, e.Entities, 2)
	numbers := numberTokenRe.FindAllString(text, 2)
	parts = append(parts, numbers...)
	parts = append(parts, firstMatches(text, e.Actions, 2)...)

	need := e.MinComponents
	if need < 1 {
		need = 1
	}
	if len(parts) < need {
		return ""
	}
	sort.Strings(parts)
	return fold(strings.Join(parts, signatureSep))
}

// TitleSignature is the simple key: the folded title without punctuation,
// words of at least three characters, the first five sorted.
func TitleSignature(it Item) string {
	var b strings.Builder
	for _, r := range fold(Normalize(it.Title)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			b.WriteRune(r)
		}
	}

	var words []string
	for _, w := range strings.Fields(b.String()) {
		if utf8.RuneCountInString(w) >= 3 {
			words = append(words, w)
		}
	}
	if len(words) > 5 {
		words = words[:5]
	}
	sort.Strings(words)
	return strings.Join(words, " ")
}

// SignatureKey picks the second-pass key for a profile, or nil when the
// profile only deduplicates by URL.
func SignatureKey(p *profile.Profile) KeyFunc {
	switch p.Signature {
	case profile.SignatureEntities:
		return NewSignatureExtractor(p).Key
	case profile.SignatureTitle:
		return TitleSignature
	default:
		return nil
	}
}
