// Package scoring maps a token's signal bundle to a bounded viral-potential
// score with display notes.
package scoring

import (
	"fmt"
	"math"
	"time"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/security"
)

// Component caps. They sum to MaxScore.
const (
	MaxScore          = 100
	MaxSecurity       = 25.0
	MaxLiquidity      = 20.0
	MaxSocialPresence = 15.0
	MaxSocialBuzz     = 25.0
	MaxTiming         = 15.0

	socialLinkCredit = 5.0
)

// Config holds the tunable scoring constants.
type Config struct {
	// NeutralSecurity replaces a missing security score.
	NeutralSecurity int
	// ConcentrationThreshold is the top-holder percent above which the
	// security component is reduced by ConcentrationPenalty.
	ConcentrationThreshold float64
	ConcentrationPenalty   float64
}

// DefaultConfig returns the default scoring constants.
func DefaultConfig() Config {
	return Config{
		NeutralSecurity:        security.NeutralSecurityScore,
		ConcentrationThreshold: 30,
		ConcentrationPenalty:   10,
	}
}

// Signals is everything the scorer looks at for one token.
type Signals struct {
	Pair     *domain.MarketPair
	Security *domain.SecurityVerdict // nil = unavailable
	Buzz     *domain.BuzzSignal      // nil = no social data supplied
	Now      time.Time
}

// Scorer is a pure function of Signals.
type Scorer struct {
	cfg Config
}

// New creates a Scorer. Zero config fields take defaults.
func New(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.NeutralSecurity <= 0 {
		cfg.NeutralSecurity = def.NeutralSecurity
	}
	if cfg.ConcentrationThreshold <= 0 {
		cfg.ConcentrationThreshold = def.ConcentrationThreshold
	}
	if cfg.ConcentrationPenalty <= 0 {
		cfg.ConcentrationPenalty = def.ConcentrationPenalty
	}
	return &Scorer{cfg: cfg}
}

// liquidityBands are checked top-down; the first satisfied band wins.
var liquidityBands = []struct {
	min    float64
	points float64
}{
	{100_000, 20},
	{50_000, 16},
	{20_000, 12},
	{10_000, 8},
	{5_000, 4},
}

// Score computes the breakdown. A honeypot verdict vetoes everything.
func (s *Scorer) Score(sig Signals) domain.ScoreBreakdown {
	var b domain.ScoreBreakdown

	// Hard veto: cannot sell.
	if sig.Security != nil && sig.Security.Honeypot {
		b.Vetoed = true
		b.Warnings = []string{"honeypot: token cannot be sold"}
		return b
	}

	b.Components.Security = s.securityComponent(sig.Security, &b)
	if sig.Pair != nil {
		b.Components.Liquidity = liquidityComponent(sig.Pair, &b)
		b.Components.SocialPresence = presenceComponent(sig.Pair.Socials, &b)
		b.Components.Timing = timingComponent(sig.Pair, sig.Now, &b)
	}
	b.Components.SocialBuzz = buzzComponent(sig.Buzz, &b)

	total := int(math.Round(b.Components.Sum()))
	if total < 0 {
		total = 0
	}
	if total > MaxScore {
		total = MaxScore
	}
	b.Total = total
	return b
}

func (s *Scorer) securityComponent(v *domain.SecurityVerdict, b *domain.ScoreBreakdown) float64 {
	raw := s.cfg.NeutralSecurity
	if v == nil {
		b.Warnings = append(b.Warnings, "security data unavailable")
	} else {
		raw = v.Score
		for _, f := range v.Flags {
			b.Warnings = append(b.Warnings, flagWarning(f))
		}
	}
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}

	points := float64(raw) / 100 * MaxSecurity
	if v != nil && v.TopHolderPct > s.cfg.ConcentrationThreshold {
		points -= s.cfg.ConcentrationPenalty
		b.Warnings = append(b.Warnings, fmt.Sprintf("top holder owns %.1f%% of supply", v.TopHolderPct))
	}
	if points < 0 {
		points = 0
	}
	if v != nil && raw >= 80 && len(v.Flags) == 0 {
		b.Strengths = append(b.Strengths, "clean security profile")
	}
	return points
}

func flagWarning(flag string) string {
	switch flag {
	case domain.FlagMintable:
		return "mint authority not renounced"
	case domain.FlagFreezable:
		return "freeze authority active"
	case domain.FlagTransferFee:
		return "transfer fee enabled"
	case domain.FlagMutableBalance:
		return "balances can be changed by an authority"
	case domain.FlagNonTransferable:
		return "token is non-transferable"
	case domain.FlagConcentration:
		return "holder concentration is high"
	}
	return flag
}

func liquidityComponent(p *domain.MarketPair, b *domain.ScoreBreakdown) float64 {
	if p.LiquidityUSD == nil {
		b.Warnings = append(b.Warnings, "liquidity unknown")
		return 0
	}
	liq := *p.LiquidityUSD
	for _, band := range liquidityBands {
		if liq >= band.min {
			if band.points == MaxLiquidity {
				b.Strengths = append(b.Strengths, "deep liquidity")
			}
			return band.points
		}
	}
	b.Warnings = append(b.Warnings, fmt.Sprintf("thin liquidity ($%.0f)", liq))
	return 0
}

func presenceComponent(s domain.Socials, b *domain.ScoreBreakdown) float64 {
	points := 0.0
	for _, link := range []string{s.Website, s.Twitter, s.Telegram} {
		if link != "" {
			points += socialLinkCredit
		}
	}
	switch points {
	case 0:
		b.Warnings = append(b.Warnings, "no social links")
	case MaxSocialPresence:
		b.Strengths = append(b.Strengths, "website, twitter and telegram present")
	}
	return points
}

// timingComponent rewards tokens old enough to have survived launch but not
// yet stale.
func timingComponent(p *domain.MarketPair, now time.Time, b *domain.ScoreBreakdown) float64 {
	age, ok := p.AgeMinutes(now)
	if !ok {
		b.Warnings = append(b.Warnings, "launch time unknown")
		return 0
	}
	switch {
	case age < 10:
		b.Warnings = append(b.Warnings, "launched under 10 minutes ago")
		return 3
	case age < 30:
		return 8
	case age <= 180:
		b.Strengths = append(b.Strengths, "in the optimal entry window")
		return MaxTiming
	case age <= 360:
		return 8
	case age <= 1440:
		return 3
	}
	b.Warnings = append(b.Warnings, "older than a day")
	return 0
}

func buzzComponent(buzz *domain.BuzzSignal, b *domain.ScoreBreakdown) float64 {
	if buzz == nil {
		return 0
	}
	if buzz.Coordinated {
		b.Warnings = append(b.Warnings, "mentions look coordinated")
	} else if buzz.AlertWorthy {
		b.Strengths = append(b.Strengths, fmt.Sprintf("organic buzz from %d authors", buzz.UniqueAuthors))
	}
	return math.Max(0, math.Min(buzz.Score, MaxSocialBuzz))
}
