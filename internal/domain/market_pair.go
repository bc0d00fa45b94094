package domain

import (
	"strings"
	"time"
)

// ChainSolana is the only chain the pipelines accept.
const ChainSolana = "solana"

// Windows holds a metric over the standard 1h/6h/24h windows.
// A nil entry means the provider did not report the window.
type Windows struct {
	H1  *float64
	H6  *float64
	H24 *float64
}

// TxnCount is a buys/sells pair for one window.
type TxnCount struct {
	Buys  int
	Sells int
}

// TxnWindows holds transaction counts per standard window.
type TxnWindows struct {
	H1  *TxnCount
	H6  *TxnCount
	H24 *TxnCount
}

// Socials holds optional project links. Empty string means absent.
type Socials struct {
	Website  string
	Twitter  string
	Telegram string
}

// MarketPair is a normalized token/liquidity-pair snapshot from one source.
// Constructed fresh per fetch and never mutated after normalization.
type MarketPair struct {
	Source       string // adapter that produced the record
	Chain        string
	Venue        string // DEX id, lower-case
	PairAddress  string // optional
	BaseAddress  string
	BaseName     string
	BaseSymbol   string
	PriceUSD     *float64
	LiquidityUSD *float64
	Volume       Windows
	PriceChange  Windows
	Txns         TxnWindows
	CreatedAt    *int64 // pair creation, Unix ms
	Socials      Socials
}

// CanonicalKey returns the dedup identity: base-token address when known,
// else the pair address. Empty when neither is present.
func (p *MarketPair) CanonicalKey() string {
	if p.BaseAddress != "" {
		return p.BaseAddress
	}
	return p.PairAddress
}

// Liquidity returns liquidity in USD, 0 when unknown.
func (p *MarketPair) Liquidity() float64 {
	if p.LiquidityUSD == nil {
		return 0
	}
	return *p.LiquidityUSD
}

// AgeMinutes returns the pair age at now. ok is false when creation time is unknown.
func (p *MarketPair) AgeMinutes(now time.Time) (age float64, ok bool) {
	if p.CreatedAt == nil || *p.CreatedAt <= 0 {
		return 0, false
	}
	return float64(now.UnixMilli()-*p.CreatedAt) / float64(time.Minute/time.Millisecond), true
}

// NormalizeVenue lower-cases a DEX identifier and folds known aliases.
func NormalizeVenue(v string) string {
	v = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), "_", "-")
	switch v {
	case "pumpfun", "pump", "pump-fun", "pump-dot-fun":
		return "pump.fun"
	case "pump-swap", "pumpfun-amm", "pump-amm":
		return "pumpswap"
	case "whirlpool":
		return "orca"
	}
	for _, family := range []string{"raydium", "orca", "meteora"} {
		if strings.HasPrefix(v, family+"-") {
			return family
		}
	}
	return v
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }
