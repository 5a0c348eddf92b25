package naver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/industry-news/internal/profile"
	"github.com/deusflow/industry-news/internal/retry"
)

const sampleResponse = `{
  "total": 2,
  "items": [
    {"title": "<b>HD현대중공업</b> LNG선 수주", "originallink": "https://news.example.kr/1", "link": "https://n.news.naver.com/1", "description": "&quot;대규모&quot; 계약", "pubDate": "Mon, 10 Mar 2025 09:00:00 +0900"},
    {"title": "삼성중공업 실적", "originallink": "", "link": "https://n.news.naver.com/2", "description": "", "pubDate": "Mon, 10 Mar 2025 08:00:00 +0900"}
  ]
}`

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "id", r.Header.Get("X-Naver-Client-Id"))
		assert.Equal(t, "secret", r.Header.Get("X-Naver-Client-Secret"))
		assert.Equal(t, "조선", r.URL.Query().Get("query"))
		assert.Equal(t, "15", r.URL.Query().Get("display"))
		assert.Equal(t, "date", r.URL.Query().Get("sort"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, ClientID: "id", ClientSecret: "secret"}, nil)
	items, err := c.Search(context.Background(), "조선", 15)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "<b>HD현대중공업</b> LNG선 수주", items[0].Title)
	assert.Equal(t, "https://news.example.kr/1", items[0].Link)
	assert.Equal(t, "조선", items[0].Keyword)
	assert.Equal(t, "https://n.news.naver.com/2", items[1].Link)
}

func TestSearchRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Retry: retry.Config{MaxAttempts: 3, Delay: time.Millisecond}}, nil)
	items, err := c.Search(context.Background(), "반도체", 10)
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearchDoesNotRetryAuthErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Retry: retry.Config{MaxAttempts: 3, Delay: time.Millisecond}}, nil)
	_, err := c.Search(context.Background(), "반도체", 10)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCollectSkipsFailedQueries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL}, nil)
	queries := []profile.Query{
		{Keyword: "조선", Category: "조선"},
		{Keyword: "broken", Category: "금융"},
		{Keyword: "반도체", Category: "반도체"},
	}
	items := c.Collect(context.Background(), queries, 10, 2)
	require.Len(t, items, 4)
	assert.Equal(t, "조선", items[0].Category)
	assert.Equal(t, "조선", items[1].Category)
	assert.Equal(t, "반도체", items[2].Category)
	assert.Equal(t, "반도체", items[3].Keyword)
}
