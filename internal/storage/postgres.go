package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS sent_news (
	variant  TEXT NOT NULL,
	hash     VARCHAR(64) NOT NULL,
	title    TEXT NOT NULL,
	link     TEXT NOT NULL,
	category TEXT,
	source   TEXT,
	sent_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (variant, hash)
);
CREATE INDEX IF NOT EXISTS idx_sent_news_sent_at ON sent_news(sent_at);
`

// PostgresStore keeps sent items per variant in the sent_news table.
type PostgresStore struct {
	pool    *pgxpool.Pool
	variant string
	ttl     time.Duration
}

func OpenPostgres(ctx context.Context, dsn, variant string, ttl time.Duration) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &PostgresStore{pool: pool, variant: variant, ttl: ttl}, nil
}

func (ps *PostgresStore) cutoff() time.Time {
	if ps.ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-ps.ttl)
}

func (ps *PostgresStore) Has(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := ps.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM sent_news WHERE variant = $1 AND hash = $2 AND sent_at > $3)`,
		ps.variant, hash, ps.cutoff(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check sent item: %w", err)
	}
	return exists, nil
}

// Put upserts items in one batch and prunes expired rows.
func (ps *PostgresStore) Put(ctx context.Context, items []SentItem) error {
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO sent_news (variant, hash, title, link, category, source, sent_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (variant, hash) DO UPDATE SET sent_at = EXCLUDED.sent_at`,
			ps.variant, it.Hash, it.Title, it.Link, it.Category, it.Source, it.SentAt)
	}
	if ps.ttl > 0 {
		batch.Queue(`DELETE FROM sent_news WHERE variant = $1 AND sent_at < $2`, ps.variant, ps.cutoff())
	}
	if err := ps.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to mark as sent: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	ps.pool.Close()
	return nil
}
