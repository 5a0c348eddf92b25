// Package openai is the secondary rewrite provider.
package openai

import (
	"context"
	"errors"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/deusflow/industry-news/internal/ratelimit"
	"github.com/deusflow/industry-news/internal/rewrite"
)

const (
	Name         = "openai"
	DefaultModel = goopenai.GPT4oMini
)

const systemPrompt = "당신은 한국 산업 뉴스를 짧게 요약하는 편집자입니다. 요청한 형식만 지키고 부연 설명을 붙이지 마세요."

type Client struct {
	client *goopenai.Client
	model  string
	pacer  *ratelimit.Pacer
}

// NewClient builds a client. baseURL is only set in tests and for
// compatible gateways.
func NewClient(apiKey, model, baseURL string, rps float64) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: goopenai.NewClientWithConfig(cfg),
		model:  model,
		pacer:  ratelimit.NewPacer(rps, 1),
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Rewrite(ctx context.Context, req rewrite.Request) (rewrite.Result, error) {
	text, err := c.complete(ctx, rewrite.Prompt(req))
	if err != nil {
		return rewrite.Result{}, err
	}
	return rewrite.ParseResponse(text, req.PointLabel)
}

func (c *Client) Insight(ctx context.Context, req rewrite.InsightRequest) (string, error) {
	text, err := c.complete(ctx, rewrite.InsightPrompt(req))
	if err != nil {
		return "", err
	}
	return rewrite.ParseInsight(text), nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:         0.3,
		MaxCompletionTokens: 256,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
