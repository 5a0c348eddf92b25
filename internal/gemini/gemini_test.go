package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/industry-news/internal/ratelimit"
	"github.com/deusflow/industry-news/internal/rewrite"
)

func stubClient(fn generateFunc) *Client {
	return &Client{generate: fn, pacer: ratelimit.NewPacer(0, 0)}
}

func TestRewrite(t *testing.T) {
	var prompt string
	c := stubClient(func(_ context.Context, p string) (string, error) {
		prompt = p
		return "요약: LNG선 4척 2조원 수주\n영향: 수주 잔고 3년치 확보", nil
	})

	res, err := c.Rewrite(context.Background(), rewrite.Request{Title: "HD현대중공업 수주", Text: "내용", Category: "조선", PointLabel: "영향"})
	require.NoError(t, err)
	assert.Equal(t, "LNG선 4척 2조원 수주", res.Summary)
	assert.Equal(t, "수주 잔고 3년치 확보", res.Point)
	assert.Contains(t, prompt, "HD현대중공업 수주")
	assert.Equal(t, Name, c.Name())
}

func TestRewriteErrors(t *testing.T) {
	c := stubClient(func(context.Context, string) (string, error) { return "", errors.New("quota") })
	_, err := c.Rewrite(context.Background(), rewrite.Request{Title: "x"})
	assert.Error(t, err)

	garbage := stubClient(func(context.Context, string) (string, error) { return "I cannot help with that.", nil })
	_, err = garbage.Rewrite(context.Background(), rewrite.Request{Title: "x", PointLabel: "영향"})
	assert.Error(t, err)
}

func TestInsight(t *testing.T) {
	c := stubClient(func(context.Context, string) (string, error) { return "\n반도체 회복세가 뚜렷하다\n", nil })
	out, err := c.Insight(context.Background(), rewrite.InsightRequest{Topic: "산업뉴스", Titles: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "반도체 회복세가 뚜렷하다", out)
}

func TestResponseText(t *testing.T) {
	_, err := responseText(nil)
	assert.Error(t, err)

	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{genai.Text("요약: "), genai.Text("본문")}},
	}}}
	text, err := responseText(resp)
	require.NoError(t, err)
	assert.Equal(t, "요약: 본문", text)
}
