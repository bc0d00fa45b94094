// Package sources defines the market-data adapter contract and the shared
// transport used by the concrete adapters in its subpackages.
package sources

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/observability"
)

// Operation names used in logs and metrics.
const (
	OpListNew      = "list_new"
	OpListTrending = "list_trending"
	OpLookup       = "lookup"
)

// ErrUnsupported marks a capability an adapter does not implement.
// It never leaves the adapter: Guard converts it to an empty result.
var ErrUnsupported = errors.New("capability not supported")

// Source is a market-data provider normalized to domain.MarketPair.
// Implementations fail soft: any error yields an empty slice.
type Source interface {
	// Name identifies the adapter in logs, metrics and CanonicalToken.Sources.
	Name() string

	// ListNew returns recently created pairs, at most limit when limit > 0.
	ListNew(ctx context.Context, limit int) []domain.MarketPair

	// ListTrending returns currently trending pairs.
	ListTrending(ctx context.Context, limit int) []domain.MarketPair

	// Lookup returns pairs whose base token is address.
	Lookup(ctx context.Context, address string) []domain.MarketPair
}

// FetchFunc is the error-returning body of one adapter operation.
type FetchFunc func(ctx context.Context) ([]domain.MarketPair, error)

// Guard wraps every call of one adapter: timeout, circuit breaker, soft failure,
// logging and metrics.
type Guard struct {
	name    string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// Breaker tunes an adapter's circuit breaker. Zero fields take defaults.
type Breaker struct {
	ConsecutiveFailures uint32
	OpenFor             time.Duration
}

// GuardOptions configures a Guard.
type GuardOptions struct {
	Name    string
	Timeout time.Duration // per call; 0 = no extra timeout
	// ConsecutiveFailures trips the breaker; 0 = default 5.
	ConsecutiveFailures uint32
	// OpenFor is how long the breaker stays open; 0 = default 30s.
	OpenFor time.Duration
	Logger  zerolog.Logger
}

// NewGuard creates a Guard for one adapter.
func NewGuard(opts GuardOptions) *Guard {
	trip := opts.ConsecutiveFailures
	if trip == 0 {
		trip = 5
	}
	openFor := opts.OpenFor
	if openFor == 0 {
		openFor = 30 * time.Second
	}

	logger := opts.Logger.With().Str("source", opts.Name).Logger()

	st := gobreaker.Settings{
		Name:    opts.Name,
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= trip
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnsupported)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("source breaker state change")
		},
	}

	return &Guard{
		name:    opts.Name,
		timeout: opts.Timeout,
		breaker: gobreaker.NewCircuitBreaker(st),
		logger:  logger,
	}
}

// Do runs fn and returns its pairs, or nil on any failure.
func (g *Guard) Do(ctx context.Context, op string, fn FetchFunc) []domain.MarketPair {
	start := time.Now()
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	res, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrUnsupported) {
			outcome = "unsupported"
		} else {
			g.logger.Warn().Err(err).Str("op", op).Msg("source unavailable, continuing without it")
		}
		observability.RecordSourceFetch(g.name, op, outcome, elapsed)
		return nil
	}

	pairs, _ := res.([]domain.MarketPair)
	outcome := "ok"
	if len(pairs) == 0 {
		outcome = "empty"
	}
	observability.RecordSourceFetch(g.name, op, outcome, elapsed)
	return pairs
}

// Unsupported can be embedded by adapters lacking some capabilities.
type Unsupported struct{}

// ListNew returns no pairs.
func (Unsupported) ListNew(context.Context, int) []domain.MarketPair { return nil }

// ListTrending returns no pairs.
func (Unsupported) ListTrending(context.Context, int) []domain.MarketPair { return nil }

// Lookup returns no pairs.
func (Unsupported) Lookup(context.Context, string) []domain.MarketPair { return nil }

// Truncate cuts pairs to limit when limit > 0.
func Truncate(pairs []domain.MarketPair, limit int) []domain.MarketPair {
	if limit > 0 && len(pairs) > limit {
		return pairs[:limit]
	}
	return pairs
}
