// Package storage remembers which items were already delivered and writes
// the per-run audit artifact.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/deusflow/industry-news/internal/news"
)

// SentItem is one delivered item as kept by a SentStore.
type SentItem struct {
	Hash     string    `json:"hash"`
	Title    string    `json:"title"`
	Link     string    `json:"link"`
	Category string    `json:"category"`
	SentAt   time.Time `json:"sent_at"`
	Source   string    `json:"source"`
}

// SentStore is checked before selection and updated after a successful send.
type SentStore interface {
	Has(ctx context.Context, hash string) (bool, error)
	Put(ctx context.Context, items []SentItem) error
	Close() error
}

// Hash identifies an item across runs: its canonical link when present,
// otherwise its normalized title and source domain.
func Hash(it news.Item) string {
	basis := news.URLKey(it)
	if basis == "" {
		title := strings.ToLower(strings.Join(strings.Fields(it.Title), " "))
		basis = title + "|" + extractDomain(it.Link)
	}
	h := sha256.Sum256([]byte(basis))
	return hex.EncodeToString(h[:])[:16]
}

// Record builds SentItems for a delivered batch.
func Record(items []news.Item, source string, at time.Time) []SentItem {
	out := make([]SentItem, 0, len(items))
	for _, it := range items {
		out = append(out, SentItem{
			Hash:     Hash(it),
			Title:    it.Title,
			Link:     it.Link,
			Category: it.Category,
			SentAt:   at,
			Source:   source,
		})
	}
	return out
}

func extractDomain(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// Nop remembers nothing.
type Nop struct{}

func (Nop) Has(context.Context, string) (bool, error) { return false, nil }
func (Nop) Put(context.Context, []SentItem) error { return nil }
func (Nop) Close() error { return nil }
