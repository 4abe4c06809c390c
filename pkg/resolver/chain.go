package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-tplengine/pkg/template"
)

// Chain consults resolvers in order and returns the first match.
type Chain struct {
	resolvers []Resolver
	logger    *slog.Logger
}

// ChainOption customises a Chain.
type ChainOption func(*Chain)

// WithLogger attaches a logger used for match/skip diagnostics.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewChain builds a chain over resolvers, skipping nil entries. Order is kept.
func NewChain(resolvers []Resolver, options ...ChainOption) *Chain {
	chain := &Chain{logger: slog.New(slog.DiscardHandler)}
	for _, r := range resolvers {
		if r != nil {
			chain.resolvers = append(chain.resolvers, r)
		}
	}
	for _, opt := range options {
		if opt != nil {
			opt(chain)
		}
	}
	return chain
}

// Len returns the number of resolvers.
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.resolvers)
}

// Names lists resolver names in consultation order.
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.resolvers))
	for _, r := range c.resolvers {
		names = append(names, r.Name())
	}
	return names
}

// Resolve returns the first non-nil resolution. It never retries.
func (c *Chain) Resolve(ctx context.Context, req Request) (*template.Resolution, error) {
	if req.Name == "" {
		return nil, errors.New("resolver: template name is required")
	}
	if c == nil || len(c.resolvers) == 0 {
		return nil, &NotResolvableError{Template: req.Name}
	}

	tried := make([]string, 0, len(c.resolvers))
	for _, r := range c.resolvers {
		res, err := r.Resolve(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("resolver: %s: resolve %q: %w", r.Name(), req.Name, err)
		}
		if res != nil {
			if res.Resource == nil {
				return nil, fmt.Errorf("resolver: %s: resolution for %q has no resource", r.Name(), req.Name)
			}
			if res.Validity == nil {
				res.Validity = template.NeverCacheable
			}
			c.logger.Debug("template resolver match",
				slog.String("resolver", r.Name()),
				slog.String("template", req.Name))
			return res, nil
		}
		c.logger.Debug("skipping template resolver",
			slog.String("resolver", r.Name()),
			slog.String("template", req.Name))
		tried = append(tried, r.Name())
	}
	return nil, &NotResolvableError{Template: req.Name, Tried: tried}
}
