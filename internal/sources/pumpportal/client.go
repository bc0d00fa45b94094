// Package pumpportal adapts the PumpPortal websocket feed of pump.fun token
// launches. It is the push-based source consulted first for the new view.
package pumpportal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/observability"
	"meme-coin-sniper/internal/sources"
)

// Name is the adapter name.
const Name = "pumpportal"

// DefaultEndpoint is the public data stream.
const DefaultEndpoint = "wss://pumpportal.fun/api/data"

// Defaults.
const (
	DefaultWindow    = 10 * time.Second
	DefaultMaxEvents = 50
)

// Config configures the adapter.
type Config struct {
	Endpoint string
	// Window bounds how long one ListNew collects events.
	Window time.Duration
	// MaxEvents ends collection early once reached.
	MaxEvents int
	// SolPriceUSD converts bonding-curve SOL reserves to USD. 0 leaves
	// price and liquidity unknown.
	SolPriceUSD float64
	Breaker     sources.Breaker
}

// Client implements sources.Source. Only ListNew is supported.
type Client struct {
	sources.Unsupported

	endpoint  string
	window    time.Duration
	maxEvents int
	solPrice  float64
	dialer    *websocket.Dialer
	guard     *sources.Guard
	now       func() time.Time
	logger    zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// WithClock overrides the event receive clock.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a PumpPortal adapter.
func New(cfg Config, logger zerolog.Logger, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = DefaultMaxEvents
	}
	c := &Client{
		endpoint:  cfg.Endpoint,
		window:    cfg.Window,
		maxEvents: cfg.MaxEvents,
		solPrice:  cfg.SolPriceUSD,
		dialer:    &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		now:       time.Now,
		logger:    logger.With().Str("component", Name).Logger(),
	}
	c.guard = sources.NewGuard(sources.GuardOptions{
		Name:                Name,
		Timeout:             cfg.Window + 2*time.Second,
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

// ListNew subscribes to token creation events and collects them until limit
// (or MaxEvents) is reached or the window closes. Partial results on window
// expiry are returned as-is.
func (c *Client) ListNew(ctx context.Context, limit int) []domain.MarketPair {
	if limit <= 0 || limit > c.maxEvents {
		limit = c.maxEvents
	}
	return c.guard.Do(ctx, sources.OpListNew, func(ctx context.Context) ([]domain.MarketPair, error) {
		return c.collect(ctx, limit)
	})
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Keys   []string `json:"keys,omitempty"`
}

// createEvent is one token creation message.
type createEvent struct {
	Signature             string  `json:"signature"`
	Mint                  string  `json:"mint"`
	TraderPublicKey       string  `json:"traderPublicKey"`
	TxType                string  `json:"txType"`
	BondingCurveKey       string  `json:"bondingCurveKey"`
	VTokensInBondingCurve float64 `json:"vTokensInBondingCurve"`
	VSolInBondingCurve    float64 `json:"vSolInBondingCurve"`
	MarketCapSol          float64 `json:"marketCapSol"`
	Name                  string  `json:"name"`
	Symbol                string  `json:"symbol"`
	Pool                  string  `json:"pool"`
}

func (c *Client) collect(ctx context.Context, limit int) ([]domain.MarketPair, error) {
	deadline := time.Now().Add(c.window)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	// Unblock the reader when the caller cancels early.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteJSON(subscribeRequest{Method: "subscribeNewToken"}); err != nil {
		return nil, fmt.Errorf("write subscribe: %w", err)
	}
	_ = conn.SetReadDeadline(deadline)

	var out []domain.MarketPair
	seen := make(map[string]bool)
	dropped := 0
	defer func() { observability.RecordDropped(Name, dropped) }()

	for len(out) < limit {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if isTimeout(err) || ctx.Err() != nil {
				return out, nil
			}
			if len(out) > 0 {
				c.logger.Warn().Err(err).Int("collected", len(out)).Msg("stream closed early")
				return out, nil
			}
			return nil, fmt.Errorf("read event: %w", err)
		}

		var ev createEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			dropped++
			continue
		}
		if ev.Mint == "" {
			// Subscription acknowledgements carry no mint.
			continue
		}
		if ev.TxType != "" && ev.TxType != "create" {
			continue
		}
		if seen[ev.Mint] {
			continue
		}
		seen[ev.Mint] = true
		out = append(out, c.normalize(&ev))
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return out, nil
}

func (c *Client) normalize(ev *createEvent) domain.MarketPair {
	p := domain.MarketPair{
		Source:      Name,
		Chain:       domain.ChainSolana,
		Venue:       venueFor(ev.Pool),
		PairAddress: ev.BondingCurveKey,
		BaseAddress: ev.Mint,
		BaseName:    ev.Name,
		BaseSymbol:  ev.Symbol,
		CreatedAt:   domain.Int64(c.now().UnixMilli()),
	}
	if c.solPrice > 0 && ev.VSolInBondingCurve > 0 {
		p.LiquidityUSD = domain.Float(ev.VSolInBondingCurve * c.solPrice)
		if ev.VTokensInBondingCurve > 0 {
			p.PriceUSD = domain.Float(ev.VSolInBondingCurve / ev.VTokensInBondingCurve * c.solPrice)
		}
	}
	return p
}

func venueFor(pool string) string {
	if pool == "" {
		return "pump.fun"
	}
	return domain.NormalizeVenue(pool)
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
