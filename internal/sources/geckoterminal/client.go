// Package geckoterminal adapts the GeckoTerminal v2 API to sources.Source.
package geckoterminal

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/observability"
	"meme-coin-sniper/internal/sources"
)

// Name is the adapter name.
const Name = "geckoterminal"

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.geckoterminal.com/api/v2"

// Config configures the adapter.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Pages of new_pools fetched per ListNew; 0 = 2.
	NewPoolPages int
	// Spacing between page requests.
	Spacing time.Duration
	Breaker sources.Breaker
}

// Client implements sources.Source for GeckoTerminal.
type Client struct {
	http     *resty.Client
	pacer    *sources.Pacer
	guard    *sources.Guard
	newPages int
	logger   zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the resty client.
func WithHTTPClient(c *resty.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// New creates a GeckoTerminal adapter.
func New(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	pages := cfg.NewPoolPages
	if pages <= 0 {
		pages = 2
	}
	c := &Client{
		http:     sources.NewRESTClient(cfg.BaseURL, cfg.Timeout),
		pacer:    sources.NewPacer(cfg.Spacing),
		newPages: pages,
		logger:   logger.With().Str("component", Name).Logger(),
	}
	c.guard = sources.NewGuard(sources.GuardOptions{
		Name:                Name,
		ConsecutiveFailures: cfg.Breaker.ConsecutiveFailures,
		OpenFor:             cfg.Breaker.OpenFor,
		Logger:              c.logger,
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ sources.Source = (*Client)(nil)

// Name returns the adapter name.
func (c *Client) Name() string { return Name }

// ListNew pages through new_pools.
func (c *Client) ListNew(ctx context.Context, limit int) []domain.MarketPair {
	return c.guard.Do(ctx, sources.OpListNew, func(ctx context.Context) ([]domain.MarketPair, error) {
		var all []domain.MarketPair
		for page := 1; page <= c.newPages; page++ {
			if err := c.pacer.Wait(ctx); err != nil {
				return all, err
			}
			pairs, err := c.fetchPools(ctx, "/networks/solana/new_pools", page)
			if err != nil {
				if len(all) > 0 {
					c.logger.Warn().Err(err).Int("page", page).Msg("stopping pagination")
					break
				}
				return nil, err
			}
			all = append(all, pairs...)
			if limit > 0 && len(all) >= limit {
				break
			}
		}
		return sources.Truncate(all, limit), nil
	})
}

// ListTrending returns trending_pools.
func (c *Client) ListTrending(ctx context.Context, limit int) []domain.MarketPair {
	return c.guard.Do(ctx, sources.OpListTrending, func(ctx context.Context) ([]domain.MarketPair, error) {
		pairs, err := c.fetchPools(ctx, "/networks/solana/trending_pools", 1)
		return sources.Truncate(pairs, limit), err
	})
}

// Lookup returns pools whose base token is address.
func (c *Client) Lookup(ctx context.Context, address string) []domain.MarketPair {
	return c.guard.Do(ctx, sources.OpLookup, func(ctx context.Context) ([]domain.MarketPair, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		pairs, err := c.fetchPools(ctx, "/networks/solana/tokens/"+address+"/pools", 1)
		if err != nil {
			return nil, err
		}
		var out []domain.MarketPair
		for _, p := range pairs {
			if p.BaseAddress == address {
				out = append(out, p)
			}
		}
		return out, nil
	})
}

func (c *Client) fetchPools(ctx context.Context, path string, page int) ([]domain.MarketPair, error) {
	var resp poolsResponse
	query := map[string]string{"include": "base_token,dex", "page": strconv.Itoa(page)}
	if err := sources.GetJSON(ctx, c.http, path, query, &resp); err != nil {
		return nil, err
	}

	tokens := resp.tokenIndex()
	out := make([]domain.MarketPair, 0, len(resp.Data))
	dropped := 0
	for i := range resp.Data {
		p, ok := normalize(&resp.Data[i], tokens)
		if !ok {
			dropped++
			continue
		}
		out = append(out, p)
	}
	observability.RecordDropped(Name, dropped)
	return out, nil
}
