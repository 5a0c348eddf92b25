package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/deusflow/industry-news/internal/ratelimit"
	"github.com/deusflow/industry-news/internal/rewrite"
)

const (
	Name         = "gemini"
	DefaultModel = "gemini-2.0-flash"
)

// generateFunc sends one prompt and returns the model text.
type generateFunc func(ctx context.Context, prompt string) (string, error)

type Client struct {
	client   *genai.Client
	generate generateFunc
	pacer    *ratelimit.Pacer
}

func NewClient(ctx context.Context, apiKey, model string, rps float64) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}

	gm := client.GenerativeModel(model)
	gm.SetTemperature(0.3)
	gm.SetMaxOutputTokens(256)

	c := &Client{client: client, pacer: ratelimit.NewPacer(rps, 1)}
	c.generate = func(ctx context.Context, prompt string) (string, error) {
		resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		return responseText(resp)
	}
	return c, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Rewrite(ctx context.Context, req rewrite.Request) (rewrite.Result, error) {
	text, err := c.call(ctx, rewrite.Prompt(req))
	if err != nil {
		return rewrite.Result{}, err
	}
	return rewrite.ParseResponse(text, req.PointLabel)
}

func (c *Client) Insight(ctx context.Context, req rewrite.InsightRequest) (string, error) {
	text, err := c.call(ctx, rewrite.InsightPrompt(req))
	if err != nil {
		return "", err
	}
	return rewrite.ParseInsight(text), nil
}

func (c *Client) call(ctx context.Context, prompt string) (string, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return "", err
	}
	return c.generate(ctx, prompt)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from Gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no text in Gemini response")
	}
	return b.String(), nil
}
