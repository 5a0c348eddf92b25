// Package scraper collects job listings from the work24 search page.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/deusflow/industry-news/internal/news"
)

const (
	DefaultURL = "https://www.work24.go.kr/wk/a/b/1200/retriveDtlEmpSrchList.do"
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	dateLayout = "06.01.02"
)

// Company-scale labels in the order they are matched.
var scaleLabels = []struct {
	marker   string
	category string
}{
	{"대기업", "대기업"},
	{"중견", "중견기업"},
	{"외국계", "외국계"},
	{"강소", "강소기업"},
}

var (
	rowSelectors     = "table.table-list tbody tr, ul.job-list li"
	dateSelectors    = ".date, .reg-date"
	companySelectors = ".cp_name, .company-name"
	titleSelectors   = "a.title, a.job-title"
	labelSelectors   = ".tbl_label, .badge"
)

type Options struct {
	URL        string
	Timeout    time.Duration
	MaxJobs    int
	Location   *time.Location
	HTTPClient *http.Client
}

type Work24 struct {
	http     *http.Client
	url      string
	maxJobs  int
	location *time.Location
	log      *zerolog.Logger
}

func NewWork24(opts Options, log *zerolog.Logger) *Work24 {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxJobs <= 0 {
		opts.MaxJobs = 50
	}
	if opts.Location == nil {
		opts.Location = kst
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Work24{http: hc, url: opts.URL, maxJobs: opts.MaxJobs, location: opts.Location, log: log}
}

var kst = time.FixedZone("KST", 9*60*60)

// Collect fetches the newest listings filtered to the four company scales.
// Rows without a recognizable scale label are skipped.
func (s *Work24) Collect(ctx context.Context) ([]news.RawItem, error) {
	q := url.Values{}
	q.Set("pageIndex", "1")
	q.Set("pageUnit", "50")
	q.Set("enterPriseScaleCd", "1,2,3,4")
	q.Set("sortType", "LATEST")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			s.log.Debug().Err(err).Msg("close response body")
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("work24 status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse listings: %w", err)
	}

	base, err := url.Parse(s.url)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	rows := doc.Find(rowSelectors)
	s.log.Debug().Int("rows", rows.Length()).Msg("work24 rows found")

	var out []news.RawItem
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if len(out) >= s.maxJobs {
			return false
		}
		if item, ok := s.parseRow(row, base); ok {
			out = append(out, item)
		}
		return true
	})
	return out, nil
}

func (s *Work24) parseRow(row *goquery.Selection, base *url.URL) (news.RawItem, bool) {
	company := text(row.Find(companySelectors).First())
	titleEl := row.Find(titleSelectors).First()
	title := text(titleEl)
	if company == "" || title == "" {
		return news.RawItem{}, false
	}

	var labels []string
	row.Find(labelSelectors).Each(func(_ int, l *goquery.Selection) {
		labels = append(labels, text(l))
	})
	category := scaleCategory(labels)
	if category == "" {
		return news.RawItem{}, false
	}

	link, _ := titleEl.Attr("href")
	if ref, err := url.Parse(strings.TrimSpace(link)); err == nil && link != "" {
		link = base.ResolveReference(ref).String()
	}

	return news.RawItem{
		Title:        company + " · " + title,
		Description:  title,
		Link:         link,
		PublishedRaw: s.registered(text(row.Find(dateSelectors).First())),
		Keyword:      "work24",
		Category:     category,
	}, true
}

// registered turns "25.03.10" (optionally with a suffix) into RFC1123Z.
func (s *Work24) registered(raw string) string {
	for _, f := range strings.Fields(raw) {
		if t, err := time.ParseInLocation(dateLayout, f, s.location); err == nil {
			return t.Format(time.RFC1123Z)
		}
	}
	return raw
}

func scaleCategory(labels []string) string {
	for _, sl := range scaleLabels {
		for _, l := range labels {
			if strings.Contains(l, sl.marker) {
				return sl.category
			}
		}
	}
	return ""
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
