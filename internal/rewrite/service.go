package rewrite

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/industry-news/internal/cache"
	"github.com/deusflow/industry-news/internal/news"
	"github.com/deusflow/industry-news/internal/profile"
)

const (
	defaultInputRunes      = 150
	defaultAnnotationRunes = 50
	defaultConcurrency     = 3
	insightTimeout         = 30 * time.Second
)

type Options struct {
	// InputRunes caps the text sent to the provider.
	InputRunes int
	// AnnotationRunes caps the local fallback annotation.
	AnnotationRunes int
	Concurrency     int
	// Timeout bounds each provider call. Zero means no extra deadline.
	Timeout  time.Duration
	CacheTTL time.Duration
}

// Stats counts per-item outcomes of one Apply call.
type Stats struct {
	OK       int
	Cached   int
	Fallback int
}

// Service applies a provider to a list of items. A nil provider means every
// item takes the local fallback.
type Service struct {
	provider Provider
	cache    *cache.Cache[Result]
	opts     Options
	log      *zerolog.Logger
}

func NewService(provider Provider, opts Options, log *zerolog.Logger) *Service {
	if opts.InputRunes <= 0 {
		opts.InputRunes = defaultInputRunes
	}
	if opts.AnnotationRunes <= 0 {
		opts.AnnotationRunes = defaultAnnotationRunes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Service{
		provider: provider,
		cache:    cache.New[Result](opts.CacheTTL),
		opts:     opts,
		log:      log,
	}
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeCached
	outcomeFallback
)

// Apply rewrites every item and returns the updated copy. Failures never
// abort the batch: the description stays as it was and the annotation is
// cut locally.
func (s *Service) Apply(ctx context.Context, items []news.Item, p *profile.Profile) ([]news.Item, Stats) {
	out := make([]news.Item, len(items))
	copy(out, items)
	outcomes := make([]outcome, len(out))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i := range out {
		g.Go(func() error {
			outcomes[i] = s.applyOne(gctx, &out[i], p)
			return nil
		})
	}
	_ = g.Wait()

	var st Stats
	for _, o := range outcomes {
		switch o {
		case outcomeOK:
			st.OK++
		case outcomeCached:
			st.Cached++
		default:
			st.Fallback++
		}
	}
	return out, st
}

func (s *Service) applyOne(ctx context.Context, it *news.Item, p *profile.Profile) outcome {
	source := it.Description
	if source == "" {
		source = it.Title
	}

	if s.provider == nil {
		it.Annotation = Fallback(source, s.opts.AnnotationRunes)
		return outcomeFallback
	}

	req := Request{
		Title:      it.Title,
		Text:       Cap(source, s.opts.InputRunes),
		Category:   it.Category,
		PointLabel: p.PointLabel,
		PointHint:  p.PointHint,
	}
	key := cache.Key(req.Title, req.Text, req.PointLabel)
	if res, ok := s.cache.Get(key); ok {
		apply(it, res)
		return outcomeCached
	}

	callCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	res, err := s.provider.Rewrite(callCtx, req)
	if err != nil {
		s.log.Warn().Err(err).Str("title", it.Title).Msg("rewrite failed, using local fallback")
		it.Annotation = Fallback(source, s.opts.AnnotationRunes)
		return outcomeFallback
	}

	s.cache.Set(key, res)
	apply(it, res)
	return outcomeOK
}

func apply(it *news.Item, res Result) {
	if it.OriginalDescription == "" {
		it.OriginalDescription = it.Description
	}
	it.Description = res.Summary
	it.Annotation = res.Point
	if it.Annotation == "" {
		it.Annotation = res.Summary
	}
}

// Insight asks for one closing line over the item titles. Any failure yields
// an empty string.
func (s *Service) Insight(ctx context.Context, items []news.Item, p *profile.Profile) string {
	if s.provider == nil || !p.Insight || len(items) == 0 {
		return ""
	}
	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}

	ctx, cancel := context.WithTimeout(ctx, insightTimeout)
	defer cancel()
	out, err := s.provider.Insight(ctx, InsightRequest{Topic: p.Title, Titles: titles})
	if err != nil {
		s.log.Warn().Err(err).Msg("insight failed, omitting")
		return ""
	}
	return Cap(ParseInsight(out), insightRunes*2)
}
