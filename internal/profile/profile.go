// Package profile holds the immutable per-variant configuration: categories,
// keyword lexicons, quotas and message texts. Profiles are embedded YAML and
// can be replaced at runtime with PROFILE_PATH.
package profile

import (
	"embed"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Variant names, one per bot entry point.
const (
	Industry   = "industry"
	Employment = "employment"
	Corporate  = "corporate"
	Work24     = "work24"
)

// Other is the catch-all category.
const Other = "기타"

// Sources an item stream can come from.
const (
	SourceSearch = "search"
	SourceWork24 = "work24"
)

// Signature modes for the second deduplication pass.
const (
	SignatureEntities = "entities"
	SignatureTitle    = "title"
	SignatureNone     = "none"
)

const defaultEmoji = "📌"

//go:embed profiles/*.yaml
var embedded embed.FS

// Category is one topic bucket with its search and scoring vocabulary.
type Category struct {
	Name           string   `yaml:"name"`
	Emoji          string   `yaml:"emoji"`
	SearchKeywords []string `yaml:"search_keywords"`
	MatchKeywords  []string `yaml:"match_keywords"`
	HighPriority   []string `yaml:"high_priority"`
}

// Profile describes one bot variant end to end.
type Profile struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	HeaderEmoji string `yaml:"header_emoji"`
	Footer      string `yaml:"footer"`
	EmptyText   string `yaml:"empty_text"`
	Source      string `yaml:"source"`

	Categories []Category `yaml:"categories"`

	// Profile-wide vocabulary. SearchKeywords and HighPriority apply to every
	// category; they are used by variants that classify by content.
	SearchKeywords []string `yaml:"search_keywords"`
	HighPriority   []string `yaml:"high_priority"`
	Entities       []string `yaml:"entities"`
	Actions        []string `yaml:"actions"`

	ClassifyByContent bool   `yaml:"classify_by_content"`
	Signature         string `yaml:"signature"`

	TopN                int           `yaml:"top_n"`
	MaxPerCategory      int           `yaml:"max_per_category"`
	RecencyWindow       time.Duration `yaml:"recency_window"`
	SearchDisplay       int           `yaml:"search_display"`
	KeywordsPerCategory int           `yaml:"keywords_per_category"`

	Rewrite    bool   `yaml:"rewrite"`
	Insight    bool   `yaml:"insight"`
	PointLabel string `yaml:"point_label"`
	PointHint  string `yaml:"point_hint"`
}

// Load returns the embedded profile for a variant.
func Load(name string) (*Profile, error) {
	data, err := embedded.ReadFile("profiles/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown profile %q: %w", name, err)
	}
	return parse(data)
}

// LoadFile reads a profile from a YAML file on disk.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	return parse(data)
}

func parse(data []byte) (*Profile, error) {
	p := &Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profile) applyDefaults() {
	if p.Source == "" {
		p.Source = SourceSearch
	}
	if p.Signature == "" {
		p.Signature = SignatureTitle
	}
	if p.TopN == 0 {
		p.TopN = 10
	}
	if p.RecencyWindow == 0 {
		p.RecencyWindow = 48 * time.Hour
	}
	if p.SearchDisplay == 0 {
		p.SearchDisplay = 10
	}
}

// Validate checks that the profile is usable by the pipeline.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("profile: name is required")
	}
	if len(p.Categories) == 0 {
		return fmt.Errorf("profile %s: at least one category is required", p.Name)
	}
	switch p.Source {
	case SourceSearch, SourceWork24:
	default:
		return fmt.Errorf("profile %s: unknown source %q", p.Name, p.Source)
	}
	switch p.Signature {
	case SignatureEntities, SignatureTitle, SignatureNone:
	default:
		return fmt.Errorf("profile %s: unknown signature mode %q", p.Name, p.Signature)
	}
	if p.TopN < 0 || p.MaxPerCategory < 0 {
		return fmt.Errorf("profile %s: top_n and max_per_category must not be negative", p.Name)
	}
	if p.Source == SourceSearch && len(p.Queries()) == 0 {
		return fmt.Errorf("profile %s: no search keywords", p.Name)
	}
	seen := make(map[string]struct{}, len(p.Categories))
	for _, c := range p.Categories {
		if c.Name == "" {
			return fmt.Errorf("profile %s: category without name", p.Name)
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("profile %s: duplicate category %q", p.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Query is one search request: the keyword and the category the results
// belong to. Category is empty for content-classified profiles.
type Query struct {
	Keyword  string
	Category string
}

// Queries lists the search requests of a run in a stable order.
func (p *Profile) Queries() []Query {
	var out []Query
	if p.ClassifyByContent {
		for _, kw := range p.SearchKeywords {
			out = append(out, Query{Keyword: kw})
		}
		return out
	}
	for _, c := range p.Categories {
		keywords := c.SearchKeywords
		if p.KeywordsPerCategory > 0 && len(keywords) > p.KeywordsPerCategory {
			keywords = keywords[:p.KeywordsPerCategory]
		}
		for _, kw := range keywords {
			out = append(out, Query{Keyword: kw, Category: c.Name})
		}
	}
	return out
}

// Category returns the named category, or a bare catch-all one.
func (p *Profile) Category(name string) Category {
	for _, c := range p.Categories {
		if c.Name == name {
			return c
		}
	}
	return Category{Name: name, Emoji: defaultEmoji}
}

// Emojis maps category names to their markers.
func (p *Profile) Emojis() map[string]string {
	m := make(map[string]string, len(p.Categories))
	for _, c := range p.Categories {
		if c.Emoji == "" {
			m[c.Name] = defaultEmoji
			continue
		}
		m[c.Name] = c.Emoji
	}
	return m
}
