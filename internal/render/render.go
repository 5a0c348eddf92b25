// Package render turns the final item list into one chat message that fits
// the transport limit.
package render

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/industry-news/internal/news"
	"github.com/deusflow/industry-news/internal/profile"
)

// Unit is how the message limit is measured.
type Unit string

const (
	Bytes Unit = "bytes"
	Runes Unit = "runes"
)

// Ladder rungs. Full is the normal rendering; Truncated means the message was
// cut.
const (
	Full = iota
	Compact
	PerCategory
	Truncated
)

const (
	ellipsis  = "..."
	separator = "━━━━━━━━━━━━━━━━━━━━━━━━━"
	itemBreak = "\n"

	defaultTitleRunes   = 35
	defaultCompactRunes = 25
	defaultEmoji        = "📌"
)

// Options control the look of the message.
type Options struct {
	Title       string
	HeaderEmoji string
	Footer      string
	EmptyText   string
	Emojis      map[string]string

	TitleRunes   int
	CompactRunes int

	Limit int
	Unit  Unit
}

// Result is the rendered message and the ladder rung that produced it.
type Result struct {
	Text string
	Rung int
}

// Renderer builds messages for one profile.
type Renderer struct {
	opts Options
}

// New builds a renderer from a profile and the transport limit.
func New(p *profile.Profile, limit int, unit Unit) *Renderer {
	return NewWithOptions(Options{
		Title:       p.Title,
		HeaderEmoji: p.HeaderEmoji,
		Footer:      p.Footer,
		EmptyText:   p.EmptyText,
		Emojis:      p.Emojis(),
		Limit:       limit,
		Unit:        unit,
	})
}

func NewWithOptions(o Options) *Renderer {
	if o.TitleRunes <= 0 {
		o.TitleRunes = defaultTitleRunes
	}
	if o.CompactRunes <= 0 {
		o.CompactRunes = defaultCompactRunes
	}
	if o.Unit == "" {
		o.Unit = Bytes
	}
	return &Renderer{opts: o}
}

// Render produces the message. The result never exceeds the limit: when the
// full layout is too long it drops annotations, then keeps one line per
// category, and finally cuts the text.
func (r *Renderer) Render(items []news.Item, insight string, now time.Time) Result {
	if r.opts.Limit <= 0 {
		return Result{Rung: Truncated}
	}
	if len(items) == 0 {
		return r.fit(r.empty(now), Full)
	}

	full := r.full(items, insight, now)
	if r.fits(full) {
		return Result{Text: full, Rung: Full}
	}
	compact := r.compact(items, insight, now)
	if r.fits(compact) {
		return Result{Text: compact, Rung: Compact}
	}
	short := r.perCategory(items, now)
	if r.fits(short) {
		return Result{Text: short, Rung: PerCategory}
	}
	return Result{Text: r.truncate(short), Rung: Truncated}
}

// Length measures s in the renderer's unit.
func (r *Renderer) Length(s string) int {
	if r.opts.Unit == Runes {
		return utf8.RuneCountInString(s)
	}
	return len(s)
}

func (r *Renderer) fits(s string) bool {
	return r.Length(s) <= r.opts.Limit
}

func (r *Renderer) fit(s string, rung int) Result {
	if r.fits(s) {
		return Result{Text: s, Rung: rung}
	}
	return Result{Text: r.truncate(s), Rung: Truncated}
}

func (r *Renderer) header(now time.Time) string {
	return fmt.Sprintf("%s %s (%s)\n%s\n\n", r.opts.HeaderEmoji, r.opts.Title, now.Format("01월 02일"), separator)
}

func (r *Renderer) footer(count int) string {
	var b strings.Builder
	b.WriteString("\n" + separator + "\n")
	if r.opts.Footer != "" {
		b.WriteString(r.opts.Footer + "\n")
	}
	b.WriteString(fmt.Sprintf("📊 총 %d건", count))
	return b.String()
}

func (r *Renderer) empty(now time.Time) string {
	var b strings.Builder
	b.WriteString(r.header(now))
	b.WriteString(r.opts.EmptyText + "\n")
	b.WriteString("\n" + separator + "\n")
	b.WriteString(r.opts.Footer)
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) emoji(category string) string {
	if e, ok := r.opts.Emojis[category]; ok && e != "" {
		return e
	}
	return defaultEmoji
}

func (r *Renderer) full(items []news.Item, insight string, now time.Time) string {
	var b strings.Builder
	b.WriteString(r.header(now))
	for _, it := range items {
		b.WriteString(fmt.Sprintf("%s %s\n", r.emoji(it.Category), TruncateRunes(it.Title, r.opts.TitleRunes)))
		if it.Link != "" {
			b.WriteString(it.Link + "\n")
		}
		if it.Annotation != "" {
			b.WriteString("└ " + it.Annotation + "\n")
		}
		b.WriteString(itemBreak)
	}
	writeInsight(&b, insight)
	b.WriteString(r.footer(len(items)))
	return b.String()
}

func (r *Renderer) compact(items []news.Item, insight string, now time.Time) string {
	var b strings.Builder
	b.WriteString(r.header(now))
	for _, it := range items {
		b.WriteString(fmt.Sprintf("%s %s\n", r.emoji(it.Category), TruncateRunes(it.Title, r.opts.CompactRunes)))
		if it.Link != "" {
			b.WriteString(it.Link + "\n")
		}
	}
	b.WriteString("\n")
	writeInsight(&b, insight)
	b.WriteString(r.footer(len(items)))
	return b.String()
}

// perCategory keeps the best item of every category, one line each.
func (r *Renderer) perCategory(items []news.Item, now time.Time) string {
	top := news.SelectTopN(items, len(items), 1)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s %s %s\n\n", r.opts.HeaderEmoji, r.opts.Title, now.Format("01.02")))
	for i, it := range top {
		b.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, it.Category, TruncateRunes(it.Title, r.opts.CompactRunes)))
	}
	b.WriteString(fmt.Sprintf("\n📊 %d건", len(top)))
	return b.String()
}

func writeInsight(b *strings.Builder, insight string) {
	insight = strings.TrimSpace(insight)
	if insight == "" {
		return
	}
	b.WriteString("💡 " + insight + "\n")
}

// truncate cuts s to the limit on a character boundary and marks the cut.
func (r *Renderer) truncate(s string) string {
	limit := r.opts.Limit
	if r.Length(s) <= limit {
		return s
	}
	if limit <= r.Length(ellipsis) {
		return r.cut(s, limit)
	}
	return r.cut(s, limit-r.Length(ellipsis)) + ellipsis
}

func (r *Renderer) cut(s string, n int) string {
	if r.opts.Unit == Runes {
		return firstRunes(s, n)
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// TruncateRunes shortens s to at most n characters, marking the cut with
// an ellipsis.
func TruncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= len(ellipsis) {
		return firstRunes(s, n)
	}
	return firstRunes(s, n-len(ellipsis)) + ellipsis
}

func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
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
