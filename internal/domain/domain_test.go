package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVenue(t *testing.T) {
	tests := map[string]string{
		"Raydium":      "raydium",
		"raydium_clmm": "raydium",
		"raydium-cp":   "raydium",
		" Whirlpool ":  "orca",
		"orca-legacy":  "orca",
		"meteora_dlmm": "meteora",
		"pumpfun":      "pump.fun",
		"Pump_Fun":     "pump.fun",
		"pump-amm":     "pumpswap",
		"pumpswap":     "pumpswap",
		"lifinity":     "lifinity",
		"raydiumclone": "raydiumclone",
		"":             "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeVenue(in), "venue %q", in)
	}
}

func TestMarketPair_CanonicalKeyAndAge(t *testing.T) {
	p := MarketPair{PairAddress: "Pair1"}
	assert.Equal(t, "Pair1", p.CanonicalKey())
	p.BaseAddress = "Mint1"
	assert.Equal(t, "Mint1", p.CanonicalKey())

	assert.Equal(t, 0.0, p.Liquidity())
	p.LiquidityUSD = Float(1234.5)
	assert.Equal(t, 1234.5, p.Liquidity())

	now := time.UnixMilli(1_700_000_000_000)
	_, ok := p.AgeMinutes(now)
	assert.False(t, ok)

	p.CreatedAt = Int64(now.Add(-90 * time.Minute).UnixMilli())
	age, ok := p.AgeMinutes(now)
	assert.True(t, ok)
	assert.InDelta(t, 90, age, 1e-9)
}

func TestAlertRules_Normalized(t *testing.T) {
	assert.Equal(t, DefaultAlertRules(), AlertRules{}.Normalized())
	assert.Equal(t, AlertRules{MinBuyers: 2, MaxLookbackHours: 24, MaxAlerts: 5},
		AlertRules{MinBuyers: 2, MaxLookbackHours: -1, MaxAlerts: 5}.Normalized())
}

func TestViewAndFlags(t *testing.T) {
	assert.True(t, ViewSurge.IsValid())
	assert.False(t, View("hot").IsValid())

	st := ScoredToken{}
	assert.Nil(t, st.Flags())
	st.Security = &SecurityVerdict{Flags: []string{FlagMintable}}
	assert.Equal(t, []string{FlagMintable}, st.Flags())
}
