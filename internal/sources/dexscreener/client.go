// Package dexscreener adapts the DexScreener public API to sources.Source.
package dexscreener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/observability"
	"meme-coin-sniper/internal/sources"
)

// Name is the adapter name.
const Name = "dexscreener"

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.dexscreener.com"

// maxBatch is the provider limit of addresses per tokens request.
const maxBatch = 30

// Config configures the adapter.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Spacing between sequential sub-requests of one logical fetch.
	Spacing time.Duration
	Breaker sources.Breaker
}

// Client implements sources.Source for DexScreener.
type Client struct {
	http   *resty.Client
	pacer  *sources.Pacer
	guard  *sources.Guard
	logger zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the resty client (tests point it at httptest).
func WithHTTPClient(c *resty.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// New creates a DexScreener adapter.
func New(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	c := &Client{
		http:   sources.NewRESTClient(cfg.BaseURL, cfg.Timeout),
		pacer:  sources.NewPacer(cfg.Spacing),
		logger: logger.With().Str("component", Name).Logger(),
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

// ListNew returns pairs for the latest token profiles.
func (c *Client) ListNew(ctx context.Context, limit int) []domain.MarketPair {
	return c.guard.Do(ctx, sources.OpListNew, func(ctx context.Context) ([]domain.MarketPair, error) {
		var profiles []tokenRef
		if err := sources.GetJSON(ctx, c.http, "/token-profiles/latest/v1", nil, &profiles); err != nil {
			return nil, err
		}
		pairs, err := c.pairsFor(ctx, solanaAddresses(profiles))
		return sources.Truncate(pairs, limit), err
	})
}

// ListTrending returns pairs for the most boosted tokens.
func (c *Client) ListTrending(ctx context.Context, limit int) []domain.MarketPair {
	return c.guard.Do(ctx, sources.OpListTrending, func(ctx context.Context) ([]domain.MarketPair, error) {
		var boosts []tokenRef
		if err := sources.GetJSON(ctx, c.http, "/token-boosts/top/v1", nil, &boosts); err != nil {
			return nil, err
		}
		pairs, err := c.pairsFor(ctx, solanaAddresses(boosts))
		return sources.Truncate(pairs, limit), err
	})
}

// Lookup returns the most liquid pair for address.
func (c *Client) Lookup(ctx context.Context, address string) []domain.MarketPair {
	return c.guard.Do(ctx, sources.OpLookup, func(ctx context.Context) ([]domain.MarketPair, error) {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, err
		}
		var resp searchResponse
		if err := sources.GetJSON(ctx, c.http, "/latest/dex/tokens/"+address, nil, &resp); err != nil {
			return nil, err
		}
		return c.normalizeAll(resp.Pairs), nil
	})
}

// pairsFor fetches pairs in provider-sized batches, pacing each request.
func (c *Client) pairsFor(ctx context.Context, addresses []string) ([]domain.MarketPair, error) {
	var raw []pairData
	for start := 0; start < len(addresses); start += maxBatch {
		end := start + maxBatch
		if end > len(addresses) {
			end = len(addresses)
		}
		if err := c.pacer.Wait(ctx); err != nil {
			return c.normalizeAll(raw), err
		}

		var batch []pairData
		path := fmt.Sprintf("/tokens/v1/%s/%s", domain.ChainSolana, strings.Join(addresses[start:end], ","))
		if err := sources.GetJSON(ctx, c.http, path, nil, &batch); err != nil {
			// Keep what earlier batches produced.
			c.logger.Warn().Err(err).Int("batch_start", start).Msg("token batch failed")
			continue
		}
		raw = append(raw, batch...)
	}
	return c.normalizeAll(raw), nil
}

// normalizeAll normalizes records and keeps the most liquid pair per base
// token, preserving first-seen order.
func (c *Client) normalizeAll(raw []pairData) []domain.MarketPair {
	var out []domain.MarketPair
	index := make(map[string]int)
	dropped := 0

	for i := range raw {
		p, ok := normalize(&raw[i])
		if !ok {
			dropped++
			continue
		}
		key := p.CanonicalKey()
		if j, seen := index[key]; seen {
			if p.Liquidity() > out[j].Liquidity() {
				out[j] = p
			}
			continue
		}
		index[key] = len(out)
		out = append(out, p)
	}

	observability.RecordDropped(Name, dropped)
	return out
}

// solanaAddresses returns distinct solana token addresses in input order.
func solanaAddresses(refs []tokenRef) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range refs {
		if !strings.EqualFold(r.ChainID, domain.ChainSolana) || r.TokenAddress == "" || seen[r.TokenAddress] {
			continue
		}
		seen[r.TokenAddress] = true
		out = append(out, r.TokenAddress)
	}
	return out
}
