// Package rss pulls extra items from RSS/Atom feeds listed in a YAML file.
package rss

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/deusflow/industry-news/internal/news"
)

// Feed is one configured source.
//
//	feeds:
//	  - url: https://www.hankyung.com/feed/industry
//	    category: 반도체
type Feed struct {
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
}

type FeedsConfig struct {
	Feeds []Feed `yaml:"feeds"`
}

// LoadFeeds reads the feed list from a YAML file.
func LoadFeeds(path string) ([]Feed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feeds %s: %w", path, err)
	}
	defer f.Close()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode feeds %s: %w", path, err)
	}
	for i, fd := range cfg.Feeds {
		if fd.URL == "" {
			return nil, fmt.Errorf("feeds %s: entry %d has no url", path, i)
		}
	}
	return cfg.Feeds, nil
}

// FetchAll downloads every feed. A broken feed is logged and skipped.
func FetchAll(ctx context.Context, feeds []Feed, timeout time.Duration, log *zerolog.Logger) []news.RawItem {
	parser := gofeed.NewParser()
	var out []news.RawItem
	ok := 0

	for _, fd := range feeds {
		fctx, cancel := context.WithTimeout(ctx, timeout)
		feed, err := parser.ParseURLWithContext(fd.URL, fctx)
		cancel()
		if err != nil {
			log.Warn().Err(err).Str("url", fd.URL).Msg("feed failed")
			continue
		}
		for _, it := range feed.Items {
			out = append(out, toRaw(it, fd.Category))
		}
		ok++
		log.Debug().Str("url", fd.URL).Int("items", len(feed.Items)).Msg("feed loaded")
	}

	log.Info().Int("ok", ok).Int("feeds", len(feeds)).Int("items", len(out)).Msg("feeds processed")
	return out
}

func toRaw(it *gofeed.Item, category string) news.RawItem {
	published := it.Published
	if it.PublishedParsed != nil {
		published = it.PublishedParsed.Format(time.RFC1123Z)
	} else if published == "" {
		published = it.Updated
	}
	desc := it.Description
	if desc == "" {
		desc = it.Content
	}
	return news.RawItem{
		Title:        it.Title,
		Description:  desc,
		Link:         it.Link,
		PublishedRaw: published,
		Category:     category,
		Keyword:      "rss",
	}
}
