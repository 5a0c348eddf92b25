// Package app runs one bot variant end to end: collect, rank, rewrite,
// render, deliver.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/deusflow/industry-news/internal/metrics"
	"github.com/deusflow/industry-news/internal/news"
	"github.com/deusflow/industry-news/internal/profile"
	"github.com/deusflow/industry-news/internal/render"
	"github.com/deusflow/industry-news/internal/rewrite"
	"github.com/deusflow/industry-news/internal/storage"
)

var (
	// ErrNoItems means nothing survived the pipeline and the variant has no
	// empty notice to send instead.
	ErrNoItems = errors.New("no items to send")
	// ErrDelivery wraps the delivery collaborator's failure.
	ErrDelivery = errors.New("delivery failed")
)

// Source is one raw-item collaborator. A failing source is logged and
// contributes nothing.
type Source struct {
	Name    string
	Collect func(ctx context.Context) ([]news.RawItem, error)
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

type Pipeline struct {
	Profile  *profile.Profile
	Sources  []Source
	Rewriter *rewrite.Service // nil skips rewriting
	Renderer *render.Renderer
	Sender   Sender
	Store    storage.SentStore
	Metrics  *metrics.Metrics
	AuditDir string // empty disables the audit artifact
	Now      func() time.Time
	Log      *zerolog.Logger
}

// Report is what one run produced.
type Report struct {
	Collected int
	Selected  []news.Item
	Render    render.Result
	Sent      bool
}

// Run executes the pipeline once. It returns ErrNoItems or an error wrapping
// ErrDelivery; every other collaborator failure is degraded locally.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	p.defaults()
	now := p.Now()
	log := p.Log
	audit := storage.NewAudit(p.Profile.Name, now)

	var rep Report
	items := p.collect(ctx)
	rep.Collected = len(items)

	items = p.rank(ctx, items, now)
	if len(items) == 0 && p.Profile.EmptyText == "" {
		log.Warn().Msg("nothing to send today")
		p.writeAudit(audit, rep, ErrNoItems)
		return rep, ErrNoItems
	}

	selected := news.SelectTopN(items, p.Profile.TopN, p.Profile.MaxPerCategory)
	p.Metrics.AddDropped(metrics.DropQuota, len(items)-len(selected))
	log.Info().
		Int("selected", len(selected)).
		Interface("per_category", news.CountByCategory(selected)).
		Msg("selected top items")

	var insight string
	if p.Rewriter != nil && p.Profile.Rewrite && len(selected) > 0 {
		var stats rewrite.Stats
		selected, stats = p.Rewriter.Apply(ctx, selected, p.Profile)
		p.recordRewrites(stats)
		log.Info().Int("ok", stats.OK).Int("cached", stats.Cached).Int("fallback", stats.Fallback).Msg("rewrite finished")
		insight = p.Rewriter.Insight(ctx, selected, p.Profile)
	}
	rep.Selected = selected

	rep.Render = p.Renderer.Render(selected, insight, now)
	length := p.Renderer.Length(rep.Render.Text)
	p.Metrics.RecordRender(rep.Render.Rung, length)
	log.Info().Int("rung", rep.Render.Rung).Int("length", length).Msg("message rendered")

	err := p.Sender.Send(ctx, rep.Render.Text)
	p.Metrics.RecordDelivery(err == nil, p.Now())
	if err != nil {
		log.Error().Err(err).Msg("delivery failed")
		err = fmt.Errorf("%w: %w", ErrDelivery, err)
		p.writeAudit(audit, rep, err)
		return rep, err
	}
	rep.Sent = true
	log.Info().Int("items", len(selected)).Msg("message delivered")

	if len(selected) > 0 {
		if err := p.Store.Put(ctx, storage.Record(selected, p.Profile.Name, now)); err != nil {
			log.Warn().Err(err).Msg("failed to record sent items")
		}
	}
	p.writeAudit(audit, rep, nil)
	return rep, nil
}

func (p *Pipeline) defaults() {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.Log == nil {
		nop := zerolog.Nop()
		p.Log = &nop
	}
	if p.Store == nil {
		p.Store = storage.Nop{}
	}
	if p.Metrics == nil {
		p.Metrics = metrics.New(p.Profile.Name)
	}
}

func (p *Pipeline) collect(ctx context.Context) []news.Item {
	var items []news.Item
	for _, src := range p.Sources {
		raw, err := src.Collect(ctx)
		if err != nil {
			p.Log.Warn().Err(err).Str("source", src.Name).Msg("collection failed")
		}
		p.Metrics.AddCollected(src.Name, len(raw))
		p.Log.Info().Str("source", src.Name).Int("items", len(raw)).Msg("collected")

		for _, r := range raw {
			it := news.FromRaw(r)
			if p.Profile.ClassifyByContent {
				it.Category = news.Classify(it, p.Profile)
			}
			items = append(items, it)
		}
	}
	return items
}

// rank scores, deduplicates, drops stale and already-sent items.
func (p *Pipeline) rank(ctx context.Context, items []news.Item, now time.Time) []news.Item {
	news.NewScorer(p.Profile).ScoreAll(items, p.Profile)

	before := len(items)
	items = news.DedupAll(items, news.URLKey, news.SignatureKey(p.Profile))
	p.Metrics.AddDropped(metrics.DropDuplicate, before-len(items))
	p.Log.Info().Int("before", before).Int("after", len(items)).Msg("deduplicated")

	before = len(items)
	items = news.FilterRecent(items, p.Profile.RecencyWindow, now)
	p.Metrics.AddDropped(metrics.DropStale, before-len(items))
	p.Log.Info().Int("before", before).Int("after", len(items)).Dur("window", p.Profile.RecencyWindow).Msg("filtered by recency")

	before = len(items)
	items = p.dropSent(ctx, items)
	p.Metrics.AddDropped(metrics.DropAlreadySent, before-len(items))
	if before != len(items) {
		p.Log.Info().Int("before", before).Int("after", len(items)).Msg("dropped already sent")
	}
	return items
}

// dropSent keeps items the store has not seen. A store error keeps the item.
func (p *Pipeline) dropSent(ctx context.Context, items []news.Item) []news.Item {
	out := items[:0:0]
	for _, it := range items {
		seen, err := p.Store.Has(ctx, storage.Hash(it))
		if err != nil {
			p.Log.Warn().Err(err).Str("title", it.Title).Msg("sent store lookup failed")
		}
		if !seen {
			out = append(out, it)
		}
	}
	return out
}

func (p *Pipeline) recordRewrites(s rewrite.Stats) {
	for range s.OK {
		p.Metrics.IncRewrite(metrics.RewriteOK)
	}
	for range s.Cached {
		p.Metrics.IncRewrite(metrics.RewriteCached)
	}
	for range s.Fallback {
		p.Metrics.IncRewrite(metrics.RewriteFallback)
	}
}

func (p *Pipeline) writeAudit(a *storage.Audit, rep Report, runErr error) {
	if p.AuditDir == "" {
		return
	}
	if rep.Selected != nil {
		a.Items = rep.Selected
	}
	a.SendResult = rep.Sent
	a.RenderRung = rep.Render.Rung
	a.Length = p.Renderer.Length(rep.Render.Text)
	if runErr != nil {
		a.Error = runErr.Error()
	}
	path, err := storage.WriteAudit(p.AuditDir, a)
	if err != nil {
		p.Log.Warn().Err(err).Msg("failed to write audit artifact")
		return
	}
	p.Log.Debug().Str("path", path).Msg("audit artifact written")
}
