// Package security classifies tokens from provider security data before
// scoring.
package security

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
)

// NeutralSecurityScore is substituted when no verdict is available.
const NeutralSecurityScore = 50

// DefaultTimeout bounds one provider call.
const DefaultTimeout = 5 * time.Second

// Provider fetches a security verdict for one token.
type Provider interface {
	Assess(ctx context.Context, address string) (*domain.SecurityVerdict, error)
}

// GateOptions configures a Gate.
type GateOptions struct {
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Gate wraps a Provider with a per-call timeout and a per-cycle cache.
// Provider failures become "unavailable", never errors.
type Gate struct {
	provider Provider
	timeout  time.Duration
	logger   zerolog.Logger

	mu    sync.Mutex
	cache map[string]*domain.SecurityVerdict
}

// NewGate creates a Gate. A nil provider makes every verdict unavailable.
func NewGate(provider Provider, opts GateOptions) *Gate {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Gate{
		provider: provider,
		timeout:  opts.Timeout,
		logger:   opts.Logger.With().Str("component", "security_gate").Logger(),
		cache:    make(map[string]*domain.SecurityVerdict),
	}
}

// Assess returns the verdict for address. ok is false when the provider
// failed or had no data; callers must not treat that as insecure.
func (g *Gate) Assess(ctx context.Context, address string) (*domain.SecurityVerdict, bool) {
	if g.provider == nil || address == "" {
		return nil, false
	}

	g.mu.Lock()
	if v, hit := g.cache[address]; hit {
		g.mu.Unlock()
		return v, v != nil
	}
	g.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	v, err := g.provider.Assess(cctx, address)
	if err != nil {
		g.logger.Warn().Err(err).Str("address", address).Msg("security data unavailable")
		// Failures are not cached so a later cycle can retry.
		return nil, false
	}

	g.mu.Lock()
	g.cache[address] = v
	g.mu.Unlock()
	return v, v != nil
}

// Reset drops cached verdicts. Called at the start of each cycle.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.cache = make(map[string]*domain.SecurityVerdict)
	g.mu.Unlock()
}
