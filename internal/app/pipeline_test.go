package app

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/industry-news/internal/metrics"
	"github.com/deusflow/industry-news/internal/news"
	"github.com/deusflow/industry-news/internal/profile"
	"github.com/deusflow/industry-news/internal/render"
	"github.com/deusflow/industry-news/internal/rewrite"
	"github.com/deusflow/industry-news/internal/storage"
)

var testNow = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

type fakeSender struct {
	err   error
	texts []string
}

func (f *fakeSender) Send(_ context.Context, text string) error {
	f.texts = append(f.texts, text)
	return f.err
}

type fakeStore struct {
	mu   sync.Mutex
	seen map[string]bool
	put  []storage.SentItem
}

func (f *fakeStore) Has(_ context.Context, hash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[hash], nil
}

func (f *fakeStore) Put(_ context.Context, items []storage.SentItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put = append(f.put, items...)
	return nil
}

func (f *fakeStore) Close() error { return nil }

type annotator struct{}

func (annotator) Name() string { return "fake" }

func (annotator) Rewrite(_ context.Context, req rewrite.Request) (rewrite.Result, error) {
	return rewrite.Result{Summary: "요약 " + req.Title, Point: "포인트"}, nil
}

func (annotator) Insight(context.Context, rewrite.InsightRequest) (string, error) {
	return "오늘의 흐름", nil
}

func testProfile() *profile.Profile {
	return &profile.Profile{
		Name:        "test",
		Title:       "테스트뉴스",
		HeaderEmoji: "📰",
		Footer:      "매일 발송",
		Source:      profile.SourceSearch,
		Signature:   profile.SignatureNone,
		Categories: []profile.Category{
			{Name: "반도체", Emoji: "💾", HighPriority: []string{"HBM"}},
			{Name: "조선", Emoji: "🚢"},
		},
		TopN:           3,
		MaxPerCategory: 2,
		RecencyWindow:  48 * time.Hour,
		PointLabel:     "영향",
	}
}

func rfc(d time.Duration) string { return testNow.Add(-d).Format(time.RFC1123Z) }

func staticSource(name string, raw ...news.RawItem) Source {
	return Source{Name: name, Collect: func(context.Context) ([]news.RawItem, error) { return raw, nil }}
}

func sampleRaw() []news.RawItem {
	return []news.RawItem{
		{Title: "SK하이닉스 HBM 증산", Link: "https://n.example/a", PublishedRaw: rfc(time.Hour), Category: "반도체"},
		{Title: "SK하이닉스 HBM 증산 속보", Link: "https://n.example/a?utm=x", PublishedRaw: rfc(time.Hour), Category: "반도체"},
		{Title: "삼성 파운드리 가동", Link: "https://n.example/b", PublishedRaw: rfc(2 * time.Hour), Category: "반도체"},
		{Title: "메모리 가격 반등", Link: "https://n.example/c", PublishedRaw: rfc(3 * time.Hour), Category: "반도체"},
		{Title: "조선 수주 소식", Link: "https://n.example/d", PublishedRaw: rfc(100 * time.Hour), Category: "조선"},
		{Title: "LNG선 인도", Link: "https://n.example/e", Category: "조선"},
	}
}

func newPipeline(t *testing.T, p *profile.Profile, sender Sender, store storage.SentStore, sources ...Source) *Pipeline {
	t.Helper()
	return &Pipeline{
		Profile:  p,
		Sources:  sources,
		Renderer: render.New(p, 1000, render.Bytes),
		Sender:   sender,
		Store:    store,
		Metrics:  metrics.New(p.Name),
		AuditDir: t.TempDir(),
		Now:      func() time.Time { return testNow },
	}
}

func counter(t *testing.T, m *metrics.Metrics, reason string) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Dropped.WithLabelValues(reason).Write(&out))
	return out.GetCounter().GetValue()
}

func titles(items []news.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestRunDeliversRankedItems(t *testing.T) {
	store := &fakeStore{seen: map[string]bool{
		storage.Hash(news.Item{Link: "https://n.example/c"}): true,
	}}
	sender := &fakeSender{}
	pl := newPipeline(t, testProfile(), sender, store, staticSource("naver", sampleRaw()...))

	rep, err := pl.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, rep.Collected)
	assert.True(t, rep.Sent)
	assert.Equal(t, []string{"SK하이닉스 HBM 증산", "삼성 파운드리 가동", "LNG선 인도"}, titles(rep.Selected))
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "📰 테스트뉴스 (03월 10일)")
	assert.Contains(t, sender.texts[0], "💾 SK하이닉스 HBM 증산")
	assert.Contains(t, sender.texts[0], "📊 총 3건")
	assert.LessOrEqual(t, len(sender.texts[0]), 1000)

	assert.Len(t, store.put, 3)
	assert.Equal(t, 1.0, counter(t, pl.Metrics, metrics.DropDuplicate))
	assert.Equal(t, 1.0, counter(t, pl.Metrics, metrics.DropStale))
	assert.Equal(t, 1.0, counter(t, pl.Metrics, metrics.DropAlreadySent))

	data, err := os.ReadFile(storage.AuditPath(pl.AuditDir, "test"))
	require.NoError(t, err)
	var audit storage.Audit
	require.NoError(t, json.Unmarshal(data, &audit))
	assert.True(t, audit.SendResult)
	assert.Equal(t, 3, audit.ItemCount)
	assert.Equal(t, render.Full, audit.RenderRung)
}

func TestRunNoItems(t *testing.T) {
	sender := &fakeSender{}
	pl := newPipeline(t, testProfile(), sender, nil, staticSource("naver"))

	_, err := pl.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoItems)
	assert.Empty(t, sender.texts)
	assert.Equal(t, ExitNoItems, exitCode(err))
}

func TestRunSendsEmptyNotice(t *testing.T) {
	p := testProfile()
	p.EmptyText = "오늘 등록된 타겟 채용 공고가 없습니다"
	sender := &fakeSender{}
	failing := Source{Name: "work24", Collect: func(context.Context) ([]news.RawItem, error) {
		return nil, errors.New("timeout")
	}}
	pl := newPipeline(t, p, sender, nil, failing)

	rep, err := pl.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Sent)
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], p.EmptyText)
}

func TestRunDeliveryFailure(t *testing.T) {
	store := &fakeStore{}
	sender := &fakeSender{err: errors.New("401 twice")}
	pl := newPipeline(t, testProfile(), sender, store, staticSource("naver", sampleRaw()...))

	rep, err := pl.Run(context.Background())
	assert.ErrorIs(t, err, ErrDelivery)
	assert.ErrorContains(t, err, "401 twice")
	assert.False(t, rep.Sent)
	assert.Empty(t, store.put, "nothing is remembered when delivery fails")
	assert.Equal(t, ExitDelivery, exitCode(err))

	data, err := os.ReadFile(storage.AuditPath(pl.AuditDir, "test"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"send_result": false`)
}

func TestRunFailingSourceDoesNotAbort(t *testing.T) {
	sender := &fakeSender{}
	broken := Source{Name: "rss", Collect: func(context.Context) ([]news.RawItem, error) {
		return nil, errors.New("feed down")
	}}
	pl := newPipeline(t, testProfile(), sender, nil, broken, staticSource("naver", sampleRaw()[0]))

	rep, err := pl.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, rep.Selected, 1)
}

func TestRunRewritesSelectedItems(t *testing.T) {
	p := testProfile()
	p.Rewrite = true
	p.Insight = true
	sender := &fakeSender{}
	pl := newPipeline(t, p, sender, nil, staticSource("naver", sampleRaw()[0]))
	pl.Rewriter = rewrite.NewService(annotator{}, rewrite.Options{}, nil)

	rep, err := pl.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Selected, 1)
	assert.Equal(t, "요약 SK하이닉스 HBM 증산", rep.Selected[0].Description)
	assert.Equal(t, "포인트", rep.Selected[0].Annotation)
	assert.Contains(t, sender.texts[0], "└ 포인트")
	assert.Contains(t, sender.texts[0], "💡 오늘의 흐름")
}

func TestRunClassifiesByContent(t *testing.T) {
	p := testProfile()
	p.ClassifyByContent = true
	p.Categories = []profile.Category{
		{Name: "공채", MatchKeywords: []string{"공채"}},
		{Name: "인턴", MatchKeywords: []string{"인턴"}},
	}
	sender := &fakeSender{}
	pl := newPipeline(t, p, sender, nil, staticSource("naver",
		news.RawItem{Title: "삼성 하반기 공채 시작", Link: "https://n.example/1"},
		news.RawItem{Title: "여름 인턴 모집", Link: "https://n.example/2"},
		news.RawItem{Title: "고용률 발표", Link: "https://n.example/3"},
	))

	rep, err := pl.Run(context.Background())
	require.NoError(t, err)
	got := map[string]string{}
	for _, it := range rep.Selected {
		got[it.Title] = it.Category
	}
	assert.Equal(t, map[string]string{
		"삼성 하반기 공채 시작": "공채",
		"여름 인턴 모집":     "인턴",
		"고용률 발표":       profile.Other,
	}, got)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, exitCode(nil))
	assert.Equal(t, ExitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, ExitDelivery, exitCode(errors.Join(ErrDelivery, errors.New("x"))))
}

func TestStdoutSender(t *testing.T) {
	var b strings.Builder
	require.NoError(t, NewStdoutSender(&b).Send(context.Background(), "hello"))
	assert.Contains(t, b.String(), "\nhello\n")
}

func TestAuditDisabled(t *testing.T) {
	pl := newPipeline(t, testProfile(), &fakeSender{}, nil, staticSource("naver", sampleRaw()[0]))
	dir := pl.AuditDir
	pl.AuditDir = ""
	_, err := pl.Run(context.Background())
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "test_news_result.json"))
	assert.True(t, os.IsNotExist(err))
}
