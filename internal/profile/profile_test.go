package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbedded(t *testing.T) {
	for _, name := range []string{Industry, Employment, Corporate, Work24} {
		t.Run(name, func(t *testing.T) {
			p, err := Load(name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name)
			assert.NotEmpty(t, p.Title)
			assert.NotEmpty(t, p.Categories)
			assert.Positive(t, p.TopN)
		})
	}
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load("weather")
	assert.ErrorContains(t, err, `unknown profile "weather"`)
}

func TestVariantSettings(t *testing.T) {
	industry, err := Load(Industry)
	require.NoError(t, err)
	assert.Equal(t, SignatureEntities, industry.Signature)
	assert.Len(t, industry.Categories, 7)
	assert.True(t, industry.Insight)
	assert.Equal(t, 48*time.Hour, industry.RecencyWindow)

	employment, err := Load(Employment)
	require.NoError(t, err)
	assert.True(t, employment.ClassifyByContent)
	assert.Equal(t, SignatureTitle, employment.Signature)
	assert.Equal(t, "채용포인트", employment.PointLabel)

	corporate, err := Load(Corporate)
	require.NoError(t, err)
	assert.Equal(t, 72*time.Hour, corporate.RecencyWindow)

	work24, err := Load(Work24)
	require.NoError(t, err)
	assert.Equal(t, SourceWork24, work24.Source)
	assert.False(t, work24.Rewrite)
	assert.Contains(t, work24.EmptyText, "오늘 등록된 타겟 채용 공고가 없습니다")
	assert.Empty(t, work24.Queries())
}

func TestQueries(t *testing.T) {
	p := &Profile{
		KeywordsPerCategory: 2,
		Categories: []Category{
			{Name: "조선", SearchKeywords: []string{"조선", "LNG선", "수주"}},
			{Name: "철강", SearchKeywords: []string{"철강"}},
		},
	}
	assert.Equal(t, []Query{
		{Keyword: "조선", Category: "조선"},
		{Keyword: "LNG선", Category: "조선"},
		{Keyword: "철강", Category: "철강"},
	}, p.Queries())

	p.ClassifyByContent = true
	p.SearchKeywords = []string{"채용 공고", "취업"}
	assert.Equal(t, []Query{{Keyword: "채용 공고"}, {Keyword: "취업"}}, p.Queries())
}

func TestCategoryAndEmojis(t *testing.T) {
	p := &Profile{Categories: []Category{{Name: "조선", Emoji: "🚢"}, {Name: "철강"}}}
	assert.Equal(t, "🚢", p.Category("조선").Emoji)
	assert.Equal(t, Category{Name: Other, Emoji: defaultEmoji}, p.Category(Other))
	assert.Equal(t, map[string]string{"조선": "🚢", "철강": defaultEmoji}, p.Emojis())
}

func TestValidate(t *testing.T) {
	valid := func() *Profile {
		return &Profile{
			Name:       "x",
			Source:     SourceSearch,
			Signature:  SignatureTitle,
			Categories: []Category{{Name: "a", SearchKeywords: []string{"k"}}},
		}
	}

	tests := []struct {
		name   string
		mutate func(p *Profile)
		errMsg string
	}{
		{"ok", func(*Profile) {}, ""},
		{"no name", func(p *Profile) { p.Name = "" }, "name is required"},
		{"no categories", func(p *Profile) { p.Categories = nil }, "at least one category"},
		{"bad source", func(p *Profile) { p.Source = "ftp" }, "unknown source"},
		{"bad signature", func(p *Profile) { p.Signature = "md5" }, "unknown signature"},
		{"negative quota", func(p *Profile) { p.MaxPerCategory = -1 }, "must not be negative"},
		{"no keywords", func(p *Profile) { p.Categories[0].SearchKeywords = nil }, "no search keywords"},
		{"duplicate category", func(p *Profile) {
			p.Categories = append(p.Categories, Category{Name: "a"})
		}, "duplicate category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid()
			tt.mutate(p)
			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestLoadFileAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	yaml := "name: custom\ntitle: 맞춤 뉴스\ncategories:\n  - name: 조선\n    search_keywords: [조선]\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, SourceSearch, p.Source)
	assert.Equal(t, SignatureTitle, p.Signature)
	assert.Equal(t, 10, p.TopN)
	assert.Equal(t, 48*time.Hour, p.RecencyWindow)
	assert.Equal(t, 10, p.SearchDisplay)
}
