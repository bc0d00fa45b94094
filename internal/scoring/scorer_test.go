package scoring

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-coin-sniper/internal/domain"
)

var now = time.UnixMilli(1704067200000)

func fullPair(liq float64, ageMinutes int) *domain.MarketPair {
	return &domain.MarketPair{
		BaseAddress:  "Mint",
		LiquidityUSD: domain.Float(liq),
		CreatedAt:    domain.Int64(now.Add(-time.Duration(ageMinutes) * time.Minute).UnixMilli()),
		Socials:      domain.Socials{Website: "w", Twitter: "t", Telegram: "tg"},
	}
}

func TestScore_HoneypotVeto(t *testing.T) {
	s := New(DefaultConfig())
	b := s.Score(Signals{
		Pair:     fullPair(500_000, 60),
		Security: &domain.SecurityVerdict{Score: 100, Honeypot: true},
		Buzz:     &domain.BuzzSignal{Score: 25, AlertWorthy: true, UniqueAuthors: 10},
		Now:      now,
	})

	assert.True(t, b.Vetoed)
	assert.Equal(t, 0, b.Total)
	assert.Equal(t, domain.ScoreComponents{}, b.Components)
	assert.Empty(t, b.Strengths)
	assert.NotEmpty(t, b.Warnings)
}

func TestScore_PerfectToken(t *testing.T) {
	s := New(DefaultConfig())
	b := s.Score(Signals{
		Pair:     fullPair(250_000, 90),
		Security: &domain.SecurityVerdict{Score: 100, TopHolderPct: 5},
		Buzz:     &domain.BuzzSignal{Score: 25, AlertWorthy: true, UniqueAuthors: 12},
		Now:      now,
	})

	assert.Equal(t, 100, b.Total)
	assert.Equal(t, MaxSecurity, b.Components.Security)
	assert.Equal(t, MaxLiquidity, b.Components.Liquidity)
	assert.Equal(t, MaxSocialPresence, b.Components.SocialPresence)
	assert.Equal(t, MaxTiming, b.Components.Timing)
	assert.Contains(t, b.Strengths, "deep liquidity")
	assert.Empty(t, b.Warnings)
}

func TestScore_MissingSecurityUsesNeutral(t *testing.T) {
	s := New(DefaultConfig())
	b := s.Score(Signals{Pair: fullPair(1000, 90), Now: now})

	assert.InDelta(t, 12.5, b.Components.Security, 1e-9)
	assert.Contains(t, b.Warnings, "security data unavailable")
	assert.False(t, b.Vetoed)
}

func TestScore_ConcentrationPenalty(t *testing.T) {
	s := New(DefaultConfig())
	b := s.Score(Signals{Security: &domain.SecurityVerdict{Score: 100, TopHolderPct: 45}, Now: now})
	assert.InDelta(t, 15.0, b.Components.Security, 1e-9)

	b = s.Score(Signals{Security: &domain.SecurityVerdict{Score: 20, TopHolderPct: 45}, Now: now})
	assert.Equal(t, 0.0, b.Components.Security, "floored at zero")
}

func TestScore_LiquidityBands(t *testing.T) {
	s := New(DefaultConfig())
	tests := []struct {
		liq  float64
		want float64
	}{
		{100_000, 20},
		{99_999, 16},
		{50_000, 16},
		{20_000, 12},
		{10_000, 8},
		{5_000, 4},
		{4_999, 0},
		{0, 0},
	}
	for _, tt := range tests {
		b := s.Score(Signals{Pair: fullPair(tt.liq, 90), Now: now})
		assert.Equal(t, tt.want, b.Components.Liquidity, "liquidity %v", tt.liq)
	}

	p := fullPair(0, 90)
	p.LiquidityUSD = nil
	b := s.Score(Signals{Pair: p, Now: now})
	assert.Zero(t, b.Components.Liquidity)
	assert.Contains(t, b.Warnings, "liquidity unknown")
}

func TestScore_TimingPrefersOptimalWindow(t *testing.T) {
	s := New(DefaultConfig())
	timing := func(age int) float64 {
		return s.Score(Signals{Pair: fullPair(0, age), Now: now}).Components.Timing
	}

	assert.Equal(t, MaxTiming, timing(30))
	assert.Equal(t, MaxTiming, timing(180))
	assert.Greater(t, timing(60), timing(5))
	assert.Greater(t, timing(60), timing(20))
	assert.Greater(t, timing(60), timing(300))
	assert.Greater(t, timing(300), timing(2000))
	assert.Zero(t, timing(5000))

	p := fullPair(0, 0)
	p.CreatedAt = nil
	assert.Zero(t, s.Score(Signals{Pair: p, Now: now}).Components.Timing)
}

func TestScore_SocialPresenceIsFlatCredits(t *testing.T) {
	s := New(DefaultConfig())
	p := fullPair(0, 90)
	p.Socials = domain.Socials{Twitter: "t"}
	b := s.Score(Signals{Pair: p, Now: now})
	assert.Equal(t, 5.0, b.Components.SocialPresence)

	p.Socials = domain.Socials{}
	b = s.Score(Signals{Pair: p, Now: now})
	assert.Zero(t, b.Components.SocialPresence)
	assert.Contains(t, b.Warnings, "no social links")
}

func TestScore_BuzzOnlyWhenSupplied(t *testing.T) {
	s := New(DefaultConfig())
	without := s.Score(Signals{Pair: fullPair(10_000, 90), Now: now})
	with := s.Score(Signals{Pair: fullPair(10_000, 90), Buzz: &domain.BuzzSignal{Score: 10, AlertWorthy: true, UniqueAuthors: 4}, Now: now})

	assert.Zero(t, without.Components.SocialBuzz)
	assert.Equal(t, 10.0, with.Components.SocialBuzz)
	assert.Equal(t, without.Total+10, with.Total)
}

func TestScore_AlwaysBounded(t *testing.T) {
	s := New(DefaultConfig())
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		p := &domain.MarketPair{
			LiquidityUSD: domain.Float(r.Float64() * 1e7),
			CreatedAt:    domain.Int64(now.Add(-time.Duration(r.Intn(5000)) * time.Minute).UnixMilli()),
		}
		if r.Intn(2) == 0 {
			p.Socials.Website = "w"
		}
		sig := Signals{Pair: p, Now: now}
		if r.Intn(3) > 0 {
			sig.Security = &domain.SecurityVerdict{Score: r.Intn(300) - 100, TopHolderPct: r.Float64() * 100, Honeypot: r.Intn(5) == 0}
		}
		if r.Intn(2) == 0 {
			sig.Buzz = &domain.BuzzSignal{Score: r.Float64()*60 - 10}
		}

		b := s.Score(sig)
		require.GreaterOrEqual(t, b.Total, 0)
		require.LessOrEqual(t, b.Total, MaxScore)
		if sig.Security != nil && sig.Security.Honeypot {
			require.Equal(t, 0, b.Total)
		}
	}
}
