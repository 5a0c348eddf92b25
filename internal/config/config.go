// Package config loads the run configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingCredential is returned by Validate when a credential needed by the
// chosen variant, provider or channel is not set.
var ErrMissingCredential = errors.New("missing required credential")

// Rewrite providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Delivery channels.
const (
	ChannelKakao    = "kakao"
	ChannelTelegram = "telegram"
	ChannelStdout   = "stdout"
)

// Sent store backends.
const (
	StoreNone     = "none"
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`

	// Search
	NaverClientID     string        `env:"NAVER_CLIENT_ID"`
	NaverClientSecret string        `env:"NAVER_CLIENT_SECRET"`
	NaverBaseURL      string        `env:"NAVER_BASE_URL" envDefault:"https://openapi.naver.com/v1/search/news.json"`
	SearchConcurrency int           `env:"SEARCH_CONCURRENCY" envDefault:"4"`
	SearchRPS         float64       `env:"SEARCH_RPS" envDefault:"5"`
	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	RetryAttempts     int           `env:"RETRY_ATTEMPTS" envDefault:"2"`
	RetryDelay        time.Duration `env:"RETRY_DELAY" envDefault:"1s"`
	FeedsPath         string        `env:"FEEDS_PATH"`
	Work24URL         string        `env:"WORK24_URL" envDefault:"https://www.work24.go.kr/wk/a/b/1200/retriveDtlEmpSrchList.do"`
	ProfilePath       string        `env:"PROFILE_PATH"`

	// Rewrite
	RewriteProvider    string  `env:"REWRITE_PROVIDER" envDefault:"gemini"`
	GeminiAPIKey       string  `env:"GEMINI_API_KEY"`
	GeminiModel        string  `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	OpenAIAPIKey       string  `env:"OPENAI_API_KEY"`
	OpenAIModel        string  `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	RewriteConcurrency int     `env:"REWRITE_CONCURRENCY" envDefault:"3"`
	RewriteRPS         float64 `env:"REWRITE_RPS" envDefault:"1"`
	MaxRewriteRequests int     `env:"MAX_REWRITE_REQUESTS" envDefault:"20"`
	RewriteInputRunes  int     `env:"REWRITE_INPUT_RUNES" envDefault:"150"`

	// Delivery
	DeliveryChannel   string `env:"DELIVERY_CHANNEL" envDefault:"kakao"`
	KakaoRESTAPIKey   string `env:"KAKAO_REST_API_KEY"`
	KakaoClientSecret string `env:"KAKAO_CLIENT_SECRET"`
	KakaoRefreshToken string `env:"KAKAO_REFRESH_TOKEN"`
	KakaoAccessToken  string `env:"KAKAO_ACCESS_TOKEN"`
	KakaoAuthURL      string `env:"KAKAO_AUTH_URL" envDefault:"https://kauth.kakao.com"`
	KakaoAPIURL       string `env:"KAKAO_API_URL" envDefault:"https://kapi.kakao.com"`
	TelegramToken     string `env:"TELEGRAM_TOKEN"`
	TelegramChatID    int64  `env:"TELEGRAM_CHAT_ID"`
	MessageLimit      int    `env:"MESSAGE_LIMIT" envDefault:"1000"`
	MessageLimitUnit  string `env:"MESSAGE_LIMIT_UNIT" envDefault:"bytes"`

	// State
	SentStore     string        `env:"SENT_STORE" envDefault:"none"`
	SentStorePath string        `env:"SENT_STORE_PATH" envDefault:"sent_news.json"`
	SentTTL       time.Duration `env:"SENT_TTL" envDefault:"72h"`
	PostgresDSN   string        `env:"POSTGRES_DSN"`
	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	AuditDir      string        `env:"AUDIT_DIR" envDefault:"."`

	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings a run needs. requiresSearch is true for the
// variants that query the search API.
func (c *Config) Validate(requiresSearch bool) error {
	if requiresSearch && (c.NaverClientID == "" || c.NaverClientSecret == "") {
		return fmt.Errorf("NAVER_CLIENT_ID and NAVER_CLIENT_SECRET: %w", ErrMissingCredential)
	}

	switch c.RewriteProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY: %w", ErrMissingCredential)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY: %w", ErrMissingCredential)
		}
	case ProviderNone:
	default:
		return fmt.Errorf("REWRITE_PROVIDER must be gemini, openai or none, got %q", c.RewriteProvider)
	}

	switch c.DeliveryChannel {
	case ChannelKakao:
		if c.KakaoRESTAPIKey == "" || c.KakaoRefreshToken == "" {
			return fmt.Errorf("KAKAO_REST_API_KEY and KAKAO_REFRESH_TOKEN: %w", ErrMissingCredential)
		}
	case ChannelTelegram:
		if c.TelegramToken == "" || c.TelegramChatID == 0 {
			return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID: %w", ErrMissingCredential)
		}
	case ChannelStdout:
	default:
		return fmt.Errorf("DELIVERY_CHANNEL must be kakao, telegram or stdout, got %q", c.DeliveryChannel)
	}

	switch c.SentStore {
	case StoreNone, StoreFile, StoreRedis:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN: %w", ErrMissingCredential)
		}
	default:
		return fmt.Errorf("SENT_STORE must be none, file, postgres or redis, got %q", c.SentStore)
	}

	if c.MessageLimitUnit != "bytes" && c.MessageLimitUnit != "runes" {
		return fmt.Errorf("MESSAGE_LIMIT_UNIT must be bytes or runes, got %q", c.MessageLimitUnit)
	}
	if c.MessageLimit <= 0 {
		return fmt.Errorf("MESSAGE_LIMIT must be positive")
	}
	return nil
}
