// Package ratelimit paces calls to external APIs and caps how many calls a
// single run may spend on each provider.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrBudgetExhausted is returned by Use once a provider or the run total has
// spent its allowance.
var ErrBudgetExhausted = errors.New("request budget exhausted")

// Budget counts provider calls against per-provider and total caps. A cap of
// zero means unlimited.
type Budget struct {
	mu       sync.Mutex
	limits   map[string]int
	used     map[string]int
	maxTotal int
	total    int
	hits     int
	log      *zerolog.Logger
}

func NewBudget(maxTotal int, limits map[string]int, log *zerolog.Logger) *Budget {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	l := make(map[string]int, len(limits))
	for k, v := range limits {
		l[k] = v
	}
	return &Budget{
		limits:   l,
		used:     make(map[string]int),
		maxTotal: maxTotal,
		log:      log,
	}
}

// CanUse reports whether provider still has budget.
func (b *Budget) CanUse(provider string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.available(provider) == nil
}

// Use spends one call for provider.
func (b *Budget) Use(provider string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.available(provider); err != nil {
		b.log.Warn().Err(err).Str("provider", provider).Msg("request budget reached")
		return err
	}
	b.used[provider]++
	b.total++
	b.log.Debug().
		Str("provider", provider).
		Int("used", b.used[provider]).
		Int("total", b.total).
		Int("max_total", b.maxTotal).
		Msg("request budget spent")
	return nil
}

func (b *Budget) available(provider string) error {
	if limit := b.limits[provider]; limit > 0 && b.used[provider] >= limit {
		return fmt.Errorf("%s %d/%d: %w", provider, b.used[provider], limit, ErrBudgetExhausted)
	}
	if b.maxTotal > 0 && b.total >= b.maxTotal {
		return fmt.Errorf("total %d/%d: %w", b.total, b.maxTotal, ErrBudgetExhausted)
	}
	return nil
}

// RecordCacheHit counts a call that was answered from cache.
func (b *Budget) RecordCacheHit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits++
}

// Stats is a snapshot of the counters.
type Stats struct {
	Used      map[string]int
	Total     int
	MaxTotal  int
	CacheHits int
}

func (b *Budget) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	used := make(map[string]int, len(b.used))
	for k, v := range b.used {
		used[k] = v
	}
	return Stats{Used: used, Total: b.total, MaxTotal: b.maxTotal, CacheHits: b.hits}
}

// LogStats writes one line with the run totals.
func (b *Budget) LogStats() {
	s := b.Stats()
	providers := make([]string, 0, len(s.Used))
	for p := range s.Used {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	ev := b.log.Info().Int("total", s.Total).Int("max_total", s.MaxTotal).Int("cache_hits", s.CacheHits)
	for _, p := range providers {
		ev = ev.Int(p, s.Used[p])
	}
	ev.Msg("request budget")
}

// Pacer spaces calls to one API. A non-positive rps disables pacing.
type Pacer struct {
	limiter *rate.Limiter
}

func NewPacer(rps float64, burst int) *Pacer {
	if rps <= 0 {
		return &Pacer{}
	}
	if burst < 1 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
