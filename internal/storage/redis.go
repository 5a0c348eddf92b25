package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one expiring key per sent item.
type RedisStore struct {
	client  *redis.Client
	variant string
	ttl     time.Duration
}

// OpenRedis accepts either a redis:// URL or a host:port address.
func OpenRedis(ctx context.Context, addr, variant string, ttl time.Duration) (*RedisStore, error) {
	opt := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		var err error
		if opt, err = redis.ParseURL(addr); err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisStore(client, variant, ttl), nil
}

func NewRedisStore(client *redis.Client, variant string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, variant: variant, ttl: ttl}
}

func (rs *RedisStore) key(hash string) string {
	return "newsbot:sent:" + rs.variant + ":" + hash
}

func (rs *RedisStore) Has(ctx context.Context, hash string) (bool, error) {
	n, err := rs.client.Exists(ctx, rs.key(hash)).Result()
	if err != nil {
		return false, fmt.Errorf("check sent item: %w", err)
	}
	return n > 0, nil
}

func (rs *RedisStore) Put(ctx context.Context, items []SentItem) error {
	pipe := rs.client.Pipeline()
	for _, it := range items {
		pipe.Set(ctx, rs.key(it.Hash), it.Title, rs.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark as sent: %w", err)
	}
	return nil
}

func (rs *RedisStore) Close() error { return rs.client.Close() }
