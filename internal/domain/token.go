package domain

// CanonicalToken is the Aggregator's merged view of one token.
type CanonicalToken struct {
	Key string
	MarketPair
	// Sources lists adapters that observed the token, in first-seen order.
	Sources []string
}

// View selects which aggregation the caller wants.
type View string

const (
	ViewNew      View = "new"
	ViewTrending View = "trending"
	ViewSurge    View = "surge"
)

// IsValid checks if the view is a known value.
func (v View) IsValid() bool {
	return v == ViewNew || v == ViewTrending || v == ViewSurge
}

// Tier is the caller entitlement bounding result size.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// ScoredToken is a token after security, social and scoring stages.
type ScoredToken struct {
	Token        CanonicalToken
	Score        ScoreBreakdown
	Security     *SecurityVerdict // nil when the gate was unavailable
	Buzz         *BuzzSignal      // nil when no social data was supplied
	DiscoveredAt int64            // Unix ms
}

// Flags returns the security flags, empty when no verdict exists.
func (t *ScoredToken) Flags() []string {
	if t.Security == nil {
		return nil
	}
	return t.Security.Flags
}
