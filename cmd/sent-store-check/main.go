// Command sent-store-check verifies that the configured sent store is
// reachable and writable.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/deusflow/industry-news/internal/app"
	"github.com/deusflow/industry-news/internal/config"
	"github.com/deusflow/industry-news/internal/news"
	"github.com/deusflow/industry-news/internal/storage"
)

const variant = "store-check"

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.SentStore == config.StoreNone {
		log.Fatal().Msg("SENT_STORE is none, nothing to check")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := app.OpenStore(ctx, cfg, variant, &log)
	defer store.Close()
	if _, ok := store.(storage.Nop); ok {
		log.Fatal().Str("store", cfg.SentStore).Msg("store unavailable")
	}

	probe := news.Item{Title: "store check", Link: fmt.Sprintf("https://probe.invalid/%d", time.Now().UnixNano())}
	hash := storage.Hash(probe)
	if err := store.Put(ctx, storage.Record([]news.Item{probe}, variant, time.Now())); err != nil {
		log.Fatal().Err(err).Msg("write failed")
	}
	seen, err := store.Has(ctx, hash)
	if err != nil {
		log.Fatal().Err(err).Msg("read failed")
	}
	if !seen {
		log.Fatal().Str("hash", hash).Msg("probe written but not found")
	}
	log.Info().Str("store", cfg.SentStore).Str("hash", hash).Msg("sent store is healthy")
}
