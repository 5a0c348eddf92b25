package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/deusflow/industry-news/internal/config"
	"github.com/deusflow/industry-news/internal/gemini"
	"github.com/deusflow/industry-news/internal/kakao"
	"github.com/deusflow/industry-news/internal/logger"
	"github.com/deusflow/industry-news/internal/metrics"
	"github.com/deusflow/industry-news/internal/naver"
	"github.com/deusflow/industry-news/internal/news"
	"github.com/deusflow/industry-news/internal/openai"
	"github.com/deusflow/industry-news/internal/profile"
	"github.com/deusflow/industry-news/internal/ratelimit"
	"github.com/deusflow/industry-news/internal/render"
	"github.com/deusflow/industry-news/internal/retry"
	"github.com/deusflow/industry-news/internal/rewrite"
	"github.com/deusflow/industry-news/internal/rss"
	"github.com/deusflow/industry-news/internal/scraper"
	"github.com/deusflow/industry-news/internal/storage"
	"github.com/deusflow/industry-news/internal/telegram"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitNoItems  = 2
	ExitDelivery = 3
)

const pushTimeout = 10 * time.Second

// Main runs variant with configuration from the environment and returns the
// process exit code.
func Main(ctx context.Context, variant string) (code int) {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("variant", variant).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("unexpected failure")
			code = ExitFailure
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return ExitFailure
	}
	base, err := logger.New(logger.Options{AppEnv: cfg.AppEnv, Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		log.Error().Err(err).Msg("failed to build logger")
		return ExitFailure
	}
	log = base.With().Str("variant", variant).Logger()

	p, err := loadProfile(variant, cfg.ProfilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to load profile")
		return ExitFailure
	}
	if !p.Rewrite {
		cfg.RewriteProvider = config.ProviderNone
	}
	if err := cfg.Validate(p.Source == profile.SourceSearch); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return ExitFailure
	}

	started := time.Now()
	m := metrics.New(p.Name)
	defer func() {
		m.RecordRunDuration(time.Since(started))
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := m.Push(pushCtx, cfg.PushgatewayURL, "newsbot_"+p.Name); err != nil {
			log.Warn().Err(err).Msg("failed to push metrics")
		}
	}()

	pipeline, cleanup, err := Build(ctx, cfg, p, m, &log)
	if err != nil {
		log.Error().Err(err).Msg("failed to build pipeline")
		return ExitFailure
	}
	defer cleanup()

	log.Info().Str("title", p.Title).Msg("run started")
	_, err = pipeline.Run(ctx)
	code = exitCode(err)
	log.Info().Int("exit_code", code).Dur("took", time.Since(started)).Msg("run finished")
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrNoItems):
		return ExitNoItems
	case errors.Is(err, ErrDelivery):
		return ExitDelivery
	default:
		return ExitFailure
	}
}

func loadProfile(variant, path string) (*profile.Profile, error) {
	if path != "" {
		return profile.LoadFile(path)
	}
	return profile.Load(variant)
}

// Build wires the collaborators chosen by cfg. cleanup releases clients and
// stores and is safe to call when err is nil.
func Build(ctx context.Context, cfg *config.Config, p *profile.Profile, m *metrics.Metrics, log *zerolog.Logger) (*Pipeline, func(), error) {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	sources, err := buildSources(cfg, p, log)
	if err != nil {
		return nil, cleanup, err
	}

	var rewriter *rewrite.Service
	if p.Rewrite {
		provider, closeProvider, err := buildProvider(ctx, cfg, log)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, closeProvider)
		rewriter = rewrite.NewService(provider, rewrite.Options{
			InputRunes:  cfg.RewriteInputRunes,
			Concurrency: cfg.RewriteConcurrency,
			Timeout:     30 * time.Second,
			CacheTTL:    24 * time.Hour,
		}, log)
	}

	store := OpenStore(ctx, cfg, p.Name, log)
	closers = append(closers, func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close sent store")
		}
	})

	unit := render.Bytes
	if cfg.MessageLimitUnit == string(render.Runes) {
		unit = render.Runes
	}

	return &Pipeline{
		Profile:  p,
		Sources:  sources,
		Rewriter: rewriter,
		Renderer: render.New(p, cfg.MessageLimit, unit),
		Sender:   buildSender(cfg, log),
		Store:    store,
		Metrics:  m,
		AuditDir: cfg.AuditDir,
		Log:      log,
	}, cleanup, nil
}

func buildSources(cfg *config.Config, p *profile.Profile, log *zerolog.Logger) ([]Source, error) {
	rc := retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay, Backoff: true}

	var sources []Source
	switch p.Source {
	case profile.SourceWork24:
		w := scraper.NewWork24(scraper.Options{URL: cfg.Work24URL, Timeout: cfg.HTTPTimeout}, log)
		sources = append(sources, Source{Name: "work24", Collect: w.Collect})
	default:
		client := naver.New(naver.Options{
			BaseURL:      cfg.NaverBaseURL,
			ClientID:     cfg.NaverClientID,
			ClientSecret: cfg.NaverClientSecret,
			Timeout:      cfg.HTTPTimeout,
			RPS:          cfg.SearchRPS,
			Retry:        rc,
		}, log)
		queries := p.Queries()
		sources = append(sources, Source{Name: "naver", Collect: func(ctx context.Context) ([]news.RawItem, error) {
			return client.Collect(ctx, queries, p.SearchDisplay, cfg.SearchConcurrency), nil
		}})
	}

	if cfg.FeedsPath != "" {
		feeds, err := rss.LoadFeeds(cfg.FeedsPath)
		if err != nil {
			return nil, fmt.Errorf("load feeds: %w", err)
		}
		sources = append(sources, Source{Name: "rss", Collect: func(ctx context.Context) ([]news.RawItem, error) {
			return rss.FetchAll(ctx, feeds, cfg.HTTPTimeout, log), nil
		}})
	}
	return sources, nil
}

// buildProvider returns the configured provider followed by OpenAI as the
// secondary when its key is set. A nil provider sends every item to the
// local fallback.
func buildProvider(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (rewrite.Provider, func(), error) {
	closeFn := func() {}
	var providers []rewrite.Provider

	switch cfg.RewriteProvider {
	case config.ProviderGemini:
		g, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.RewriteRPS)
		if err != nil {
			return nil, closeFn, err
		}
		closeFn = g.Close
		providers = append(providers, g)
		if cfg.OpenAIAPIKey != "" {
			providers = append(providers, openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, "", cfg.RewriteRPS))
		}
	case config.ProviderOpenAI:
		providers = append(providers, openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, "", cfg.RewriteRPS))
	}

	if len(providers) == 0 {
		log.Info().Msg("rewrite disabled, using local annotations")
		return nil, closeFn, nil
	}
	budget := ratelimit.NewBudget(cfg.MaxRewriteRequests, nil, log)
	chain := rewrite.NewChain(budget, log, providers...)
	return chain, func() {
		budget.LogStats()
		closeFn()
	}, nil
}

func buildSender(cfg *config.Config, log *zerolog.Logger) Sender {
	switch cfg.DeliveryChannel {
	case config.ChannelTelegram:
		return telegram.New(telegram.Options{Token: cfg.TelegramToken, ChatID: cfg.TelegramChatID}, log)
	case config.ChannelStdout:
		return NewStdoutSender(os.Stdout)
	default:
		return kakao.New(kakao.Options{
			AuthURL:      cfg.KakaoAuthURL,
			APIURL:       cfg.KakaoAPIURL,
			RESTAPIKey:   cfg.KakaoRESTAPIKey,
			ClientSecret: cfg.KakaoClientSecret,
			RefreshToken: cfg.KakaoRefreshToken,
			AccessToken:  cfg.KakaoAccessToken,
			Timeout:      cfg.HTTPTimeout,
			Retry:        retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
		}, log)
	}
}

// OpenStore falls back to no memory of past runs when the backend is
// unreachable.
func OpenStore(ctx context.Context, cfg *config.Config, variant string, log *zerolog.Logger) storage.SentStore {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	var (
		store storage.SentStore
		err   error
	)
	switch cfg.SentStore {
	case config.StoreFile:
		store, err = storage.OpenFileStore(cfg.SentStorePath, cfg.SentTTL)
	case config.StorePostgres:
		store, err = storage.OpenPostgres(ctx, cfg.PostgresDSN, variant, cfg.SentTTL)
	case config.StoreRedis:
		store, err = storage.OpenRedis(ctx, cfg.RedisAddr, variant, cfg.SentTTL)
	default:
		return storage.Nop{}
	}
	if err != nil {
		log.Warn().Err(err).Str("store", cfg.SentStore).Msg("sent store unavailable, continuing without it")
		return storage.Nop{}
	}
	return store
}
