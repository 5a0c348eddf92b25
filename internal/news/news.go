// Package news holds the ranking pipeline: normalization, fingerprinting,
// scoring, deduplication, recency filtering and category balancing.
package news

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// RawItem is what a collaborator hands over before normalization.
type RawItem struct {
	Title        string
	Description  string
	Link         string
	PublishedRaw string
	Keyword      string
	Category     string
}

// Item is a single news entry moving through the pipeline.
type Item struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	OriginalDescription string     `json:"original_description,omitempty"`
	Link                string     `json:"link"`
	PublishedAt         *time.Time `json:"published_at,omitempty"`
	Category            string     `json:"category"`
	Score               int        `json:"score"`
	Keyword             string     `json:"keyword,omitempty"`
	Annotation          string     `json:"annotation,omitempty"`
}

// FromRaw normalizes the text fields and parses the publication time.
// An unparseable time leaves PublishedAt nil.
func FromRaw(r RawItem) Item {
	return Item{
		Title:       Normalize(r.Title),
		Description: Normalize(r.Description),
		Link:        strings.TrimSpace(r.Link),
		PublishedAt: ParsePublished(r.PublishedRaw),
		Category:    r.Category,
		Keyword:     r.Keyword,
	}
}

// ParsePublished accepts RFC1123Z (the search API format) and anything
// dateparse understands.
func ParsePublished(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC1123Z, raw); err == nil {
		return &t
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return nil
	}
	return &t
}

// CountByCategory is used for the per-stage distribution log lines.
func CountByCategory(items []Item) map[string]int {
	counts := make(map[string]int)
	for _, it := range items {
		counts[it.Category]++
	}
	return counts
}
