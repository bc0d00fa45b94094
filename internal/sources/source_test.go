package sources

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-coin-sniper/internal/domain"
)

func TestGuard_ErrorBecomesEmpty(t *testing.T) {
	g := NewGuard(GuardOptions{Name: "test", Logger: zerolog.Nop()})

	pairs := g.Do(context.Background(), OpListNew, func(context.Context) ([]domain.MarketPair, error) {
		return []domain.MarketPair{{BaseAddress: "x"}}, errors.New("boom")
	})
	assert.Empty(t, pairs)
}

func TestGuard_ReturnsPairs(t *testing.T) {
	g := NewGuard(GuardOptions{Name: "test", Logger: zerolog.Nop()})

	pairs := g.Do(context.Background(), OpLookup, func(context.Context) ([]domain.MarketPair, error) {
		return []domain.MarketPair{{BaseAddress: "a"}, {BaseAddress: "b"}}, nil
	})
	require.Len(t, pairs, 2)
	assert.Equal(t, "a", pairs[0].BaseAddress)
}

func TestGuard_TimeoutDegradesToEmpty(t *testing.T) {
	g := NewGuard(GuardOptions{Name: "slow", Timeout: 20 * time.Millisecond, Logger: zerolog.Nop()})

	pairs := g.Do(context.Background(), OpListNew, func(ctx context.Context) ([]domain.MarketPair, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	assert.Empty(t, pairs)
}

func TestGuard_BreakerOpensAfterFailures(t *testing.T) {
	g := NewGuard(GuardOptions{Name: "flaky", ConsecutiveFailures: 2, OpenFor: time.Minute, Logger: zerolog.Nop()})
	calls := 0
	fail := func(context.Context) ([]domain.MarketPair, error) {
		calls++
		return nil, errors.New("down")
	}

	for i := 0; i < 4; i++ {
		g.Do(context.Background(), OpListNew, fail)
	}
	assert.Equal(t, 2, calls, "breaker should short-circuit after tripping")
}

func TestGuard_UnsupportedDoesNotTrip(t *testing.T) {
	g := NewGuard(GuardOptions{Name: "partial", ConsecutiveFailures: 1, Logger: zerolog.Nop()})
	calls := 0
	unsupported := func(context.Context) ([]domain.MarketPair, error) {
		calls++
		return nil, ErrUnsupported
	}

	g.Do(context.Background(), OpLookup, unsupported)
	g.Do(context.Background(), OpLookup, unsupported)
	assert.Equal(t, 2, calls)
}

func TestPacer_SpacesRequests(t *testing.T) {
	p := NewPacer(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestPacer_ZeroSpacing(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestParseHelpers(t *testing.T) {
	assert.Nil(t, ParseFloat(""))
	assert.Nil(t, ParseFloat("abc"))
	require.NotNil(t, ParseFloat("12.5"))
	assert.Equal(t, 12.5, *ParseFloat("12.5"))

	assert.Nil(t, ParseTimeMs("yesterday"))
	ms := ParseTimeMs("2024-01-01T00:00:00Z")
	require.NotNil(t, ms)
	assert.Equal(t, int64(1704067200000), *ms)
}

func TestTruncate(t *testing.T) {
	pairs := make([]domain.MarketPair, 5)
	assert.Len(t, Truncate(pairs, 3), 3)
	assert.Len(t, Truncate(pairs, 0), 5)
	assert.Len(t, Truncate(pairs, 10), 5)
}
