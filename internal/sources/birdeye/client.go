// Package birdeye adapts the Birdeye new-listing feed, a secondary source of
// low-liquidity tokens not yet reflected in the primary feeds.
package birdeye

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/observability"
	"meme-coin-sniper/internal/sources"
)

// Name is the adapter name.
const Name = "birdeye"

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://public-api.birdeye.so"

// maxPageSize is the provider ceiling for new_listing.
const maxPageSize = 20

// Config configures the adapter.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Spacing time.Duration
	// MemePlatforms includes pump.fun style launches in the listing.
	MemePlatforms bool
	Breaker       sources.Breaker
}

// Client implements sources.Source. Only ListNew is supported.
type Client struct {
	sources.Unsupported

	http   *resty.Client
	pacer  *sources.Pacer
	guard  *sources.Guard
	meme   bool
	logger zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the resty client.
func WithHTTPClient(c *resty.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// New creates a Birdeye adapter.
func New(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	c := &Client{
		http:   sources.NewRESTClient(cfg.BaseURL, cfg.Timeout),
		pacer:  sources.NewPacer(cfg.Spacing),
		meme:   cfg.MemePlatforms,
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
	c.http.SetHeader("X-API-KEY", cfg.APIKey).SetHeader("x-chain", domain.ChainSolana)
	return c
}

var _ sources.Source = (*Client)(nil)

// Name returns the adapter name.
func (c *Client) Name() string { return Name }

// ListNew returns recently listed tokens, paging in provider-sized chunks.
func (c *Client) ListNew(ctx context.Context, limit int) []domain.MarketPair {
	if limit <= 0 {
		limit = maxPageSize
	}
	return c.guard.Do(ctx, sources.OpListNew, func(ctx context.Context) ([]domain.MarketPair, error) {
		var out []domain.MarketPair
		seen := make(map[string]bool)

		for offset := 0; len(out) < limit; offset += maxPageSize {
			if err := c.pacer.Wait(ctx); err != nil {
				return out, err
			}
			var resp listingResponse
			query := map[string]string{
				"limit":                 strconv.Itoa(maxPageSize),
				"offset":                strconv.Itoa(offset),
				"meme_platform_enabled": strconv.FormatBool(c.meme),
			}
			if err := sources.GetJSON(ctx, c.http, "/defi/v2/tokens/new_listing", query, &resp); err != nil {
				if len(out) > 0 {
					c.logger.Warn().Err(err).Int("offset", offset).Msg("stopping pagination")
					break
				}
				return nil, err
			}

			dropped := 0
			for i := range resp.Data.Items {
				p, ok := normalize(&resp.Data.Items[i])
				if !ok || seen[p.BaseAddress] {
					if !ok {
						dropped++
					}
					continue
				}
				seen[p.BaseAddress] = true
				out = append(out, p)
			}
			observability.RecordDropped(Name, dropped)

			if len(resp.Data.Items) < maxPageSize {
				break
			}
		}
		return sources.Truncate(out, limit), nil
	})
}

type listingResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items []listing `json:"items"`
	} `json:"data"`
}

type listing struct {
	Address          string   `json:"address"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Source           string   `json:"source"`
	LiquidityAddedAt string   `json:"liquidityAddedAt"`
	Liquidity        *float64 `json:"liquidity"`
}

func normalize(l *listing) (domain.MarketPair, bool) {
	if l.Address == "" {
		return domain.MarketPair{}, false
	}
	p := domain.MarketPair{
		Source:       Name,
		Chain:        domain.ChainSolana,
		Venue:        domain.NormalizeVenue(l.Source),
		BaseAddress:  l.Address,
		BaseName:     strings.TrimSpace(l.Name),
		BaseSymbol:   strings.TrimSpace(l.Symbol),
		LiquidityUSD: l.Liquidity,
		CreatedAt:    parseListedAt(l.LiquidityAddedAt),
	}
	return p, true
}

// parseListedAt accepts RFC3339 with or without zone; the provider omits it.
func parseListedAt(s string) *int64 {
	if ms := sources.ParseTimeMs(s); ms != nil {
		return ms
	}
	t, err := time.Parse("2006-01-02T15:04:05", strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return domain.Int64(t.UnixMilli())
}
