package domain

// TrackedWallet is read-only reference data supplied by the registry.
type TrackedWallet struct {
	Address string
	Label   string
}

// WalletBuyEvent is one buy-like token acquisition by a tracked wallet.
type WalletBuyEvent struct {
	Wallet    string
	Mint      string
	Timestamp int64  // Unix ms
	Signature string // optional
}

// CoBuyAlert reports a mint bought by a quorum of tracked wallets.
// BuyerCount always equals len(Buyers).
type CoBuyAlert struct {
	ID           string
	Mint         string
	Symbol       string
	Name         string
	Buyers       []string // distinct wallets ordered by first buy time
	BuyerCount   int
	FirstBuyAt   int64 // Unix ms
	LastBuyAt    int64 // Unix ms
	LiquidityUSD *float64
	PriceUSD     *float64
}

// AlertRules configures one co-buy cycle.
type AlertRules struct {
	MinBuyers        int
	MaxLookbackHours int
	MaxAlerts        int
}

// Default rule values used when the rule store is unavailable.
const (
	DefaultMinBuyers        = 3
	DefaultMaxLookbackHours = 24
	DefaultMaxAlerts        = 10
)

// DefaultAlertRules returns the hardcoded fallback rules.
func DefaultAlertRules() AlertRules {
	return AlertRules{
		MinBuyers:        DefaultMinBuyers,
		MaxLookbackHours: DefaultMaxLookbackHours,
		MaxAlerts:        DefaultMaxAlerts,
	}
}

// Normalized replaces every value below 1 with its default.
func (r AlertRules) Normalized() AlertRules {
	if r.MinBuyers < 1 {
		r.MinBuyers = DefaultMinBuyers
	}
	if r.MaxLookbackHours < 1 {
		r.MaxLookbackHours = DefaultMaxLookbackHours
	}
	if r.MaxAlerts < 1 {
		r.MaxAlerts = DefaultMaxAlerts
	}
	return r
}
