// Package naver queries the Naver news search API.
package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/deusflow/industry-news/internal/news"
	"github.com/deusflow/industry-news/internal/profile"
	"github.com/deusflow/industry-news/internal/ratelimit"
	"github.com/deusflow/industry-news/internal/retry"
)

const DefaultBaseURL = "https://openapi.naver.com/v1/search/news.json"

// Options configure a Client. Zero values fall back to sane defaults.
type Options struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	RPS          float64
	Retry        retry.Config
	HTTPClient   *http.Client
}

type Client struct {
	http    *http.Client
	baseURL string
	id      string
	secret  string
	pacer   *ratelimit.Pacer
	retry   retry.Config
	log     *zerolog.Logger
}

type searchResponse struct {
	Total int `json:"total"`
	Items []struct {
		Title        string `json:"title"`
		OriginalLink string `json:"originallink"`
		Link         string `json:"link"`
		Description  string `json:"description"`
		PubDate      string `json:"pubDate"`
	} `json:"items"`
}

func New(opts Options, log *zerolog.Logger) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Client{
		http:    hc,
		baseURL: opts.BaseURL,
		id:      opts.ClientID,
		secret:  opts.ClientSecret,
		pacer:   ratelimit.NewPacer(opts.RPS, 1),
		retry:   opts.Retry,
		log:     log,
	}
}

// Search returns the newest results for keyword, at most display of them.
func (c *Client) Search(ctx context.Context, keyword string, display int) ([]news.RawItem, error) {
	if display <= 0 {
		display = 10
	}

	var out []news.RawItem
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		if err := c.pacer.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}
		items, err := c.searchOnce(ctx, keyword, display)
		if err != nil {
			return err
		}
		out = items
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", keyword, err)
	}
	return out, nil
}

func (c *Client) searchOnce(ctx context.Context, keyword string, display int) ([]news.RawItem, error) {
	q := url.Values{}
	q.Set("query", keyword)
	q.Set("display", strconv.Itoa(display))
	q.Set("sort", "date")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("X-Naver-Client-Id", c.id)
	req.Header.Set("X-Naver-Client-Secret", c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("naver API status %d: %s", resp.StatusCode, body)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, retry.Permanent(fmt.Errorf("decode response: %w", err))
	}

	items := make([]news.RawItem, 0, len(sr.Items))
	for _, it := range sr.Items {
		link := it.OriginalLink
		if link == "" {
			link = it.Link
		}
		items = append(items, news.RawItem{
			Title:        it.Title,
			Description:  it.Description,
			Link:         link,
			PublishedRaw: it.PubDate,
			Keyword:      keyword,
		})
	}
	return items, nil
}

// Collect runs every query with at most concurrency requests in flight. A
// failed query is logged and contributes nothing. Results keep query order.
func (c *Client) Collect(ctx context.Context, queries []profile.Query, display, concurrency int) []news.RawItem {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([][]news.RawItem, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, q := range queries {
		g.Go(func() error {
			items, err := c.Search(gctx, q.Keyword, display)
			if err != nil {
				c.log.Warn().Err(err).Str("keyword", q.Keyword).Str("category", q.Category).Msg("search failed")
				return nil
			}
			for j := range items {
				items[j].Category = q.Category
			}
			results[i] = items
			c.log.Debug().Str("keyword", q.Keyword).Int("items", len(items)).Msg("search done")
			return nil
		})
	}
	_ = g.Wait()

	var out []news.RawItem
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
