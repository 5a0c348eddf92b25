// Package rewrite shortens item descriptions through a generative-text
// provider and derives the one-line annotation shown under each item.
package rewrite

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/deusflow/industry-news/internal/ratelimit"
)

// ErrNoProvider is returned by a Chain that has nothing left to try.
var ErrNoProvider = errors.New("no rewrite provider available")

// Request is one item to rewrite. Text is already capped to the input limit.
type Request struct {
	Title      string
	Text       string
	Category   string
	PointLabel string
	PointHint  string
}

// Result is the provider output. Point may be empty.
type Result struct {
	Summary string
	Point   string
}

// InsightRequest asks for one closing line over the selected headlines.
type InsightRequest struct {
	Topic  string
	Titles []string
}

// Provider is a generative-text backend.
type Provider interface {
	Name() string
	Rewrite(ctx context.Context, req Request) (Result, error)
	Insight(ctx context.Context, req InsightRequest) (string, error)
}

// Chain tries providers in order. Each call is charged to the provider's
// budget first; a provider whose budget is spent is skipped.
type Chain struct {
	providers []Provider
	budget    *ratelimit.Budget
	log       *zerolog.Logger
}

func NewChain(budget *ratelimit.Budget, log *zerolog.Logger, providers ...Provider) *Chain {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	var ps []Provider
	for _, p := range providers {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return &Chain{providers: ps, budget: budget, log: log}
}

func (c *Chain) Name() string { return "chain" }

// Len is the number of configured providers.
func (c *Chain) Len() int { return len(c.providers) }

func (c *Chain) Rewrite(ctx context.Context, req Request) (Result, error) {
	var errs []error
	for _, p := range c.providers {
		if err := c.spend(p); err != nil {
			errs = append(errs, err)
			continue
		}
		res, err := p.Rewrite(ctx, req)
		if err == nil {
			return res, nil
		}
		c.log.Debug().Err(err).Str("provider", p.Name()).Msg("rewrite failed, trying next provider")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return Result{}, ErrNoProvider
	}
	return Result{}, errors.Join(errs...)
}

func (c *Chain) Insight(ctx context.Context, req InsightRequest) (string, error) {
	var errs []error
	for _, p := range c.providers {
		if err := c.spend(p); err != nil {
			errs = append(errs, err)
			continue
		}
		out, err := p.Insight(ctx, req)
		if err == nil && out != "" {
			return out, nil
		}
		if err == nil {
			err = errors.New("empty insight")
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
	}
	if len(errs) == 0 {
		return "", ErrNoProvider
	}
	return "", errors.Join(errs...)
}

func (c *Chain) spend(p Provider) error {
	if c.budget == nil {
		return nil
	}
	return c.budget.Use(p.Name())
}
