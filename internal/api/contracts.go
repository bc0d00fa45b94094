package api

import (
	"time"

	"meme-coin-sniper/internal/domain"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse answers /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// StatusResponse answers /status.
type StatusResponse struct {
	StartedAt time.Time `json:"started_at"`
	Jobs      []JobInfo `json:"jobs"`
}

// JobInfo is one scheduled job.
type JobInfo struct {
	Name       string     `json:"name"`
	Interval   string     `json:"interval"`
	Running    bool       `json:"running"`
	Runs       int        `json:"runs"`
	Failures   int        `json:"failures"`
	Skipped    int        `json:"skipped"`
	LastStart  *time.Time `json:"last_start,omitempty"`
	DurationMs int64      `json:"last_duration_ms"`
	LastError  string     `json:"last_error,omitempty"`
}

// TokensResponse answers /tokens and /tokens/top.
type TokensResponse struct {
	CycleID   string      `json:"cycle_id,omitempty"`
	View      string      `json:"view,omitempty"`
	Tier      string      `json:"tier,omitempty"`
	Count     int         `json:"count"`
	Tokens    []TokenInfo `json:"tokens"`
	Generated time.Time   `json:"generated"`
}

// TokenInfo is one scored token.
type TokenInfo struct {
	Address       string                `json:"address"`
	Symbol        string                `json:"symbol"`
	Name          string                `json:"name"`
	Venue         string                `json:"venue"`
	PairAddress   string                `json:"pair_address,omitempty"`
	PriceUSD      *float64              `json:"price_usd"`
	LiquidityUSD  *float64              `json:"liquidity_usd"`
	Volume24h     *float64              `json:"volume_24h"`
	PriceChange1h *float64              `json:"price_change_1h"`
	CreatedAt     *int64                `json:"created_at"`
	Website       string                `json:"website,omitempty"`
	Twitter       string                `json:"twitter,omitempty"`
	Telegram      string                `json:"telegram,omitempty"`
	Sources       []string              `json:"sources"`
	Score         domain.ScoreBreakdown `json:"score"`
	Security      *SecurityInfo         `json:"security"`
	Buzz          *BuzzInfo             `json:"buzz"`
	Flags         []string              `json:"flags"`
	DiscoveredAt  int64                 `json:"discovered_at"`
}

// SecurityInfo mirrors domain.SecurityVerdict.
type SecurityInfo struct {
	Score          int      `json:"score"`
	TopHolderPct   float64  `json:"top_holder_pct"`
	Honeypot       bool     `json:"honeypot"`
	Flags          []string `json:"flags"`
	Classification string   `json:"classification"`
}

// BuzzInfo mirrors domain.BuzzSignal.
type BuzzInfo struct {
	Mentions         int     `json:"mentions"`
	UniqueAuthors    int     `json:"unique_authors"`
	AvgEngagement    float64 `json:"avg_engagement"`
	MeanAuthorWeight float64 `json:"mean_author_weight"`
	Coordinated      bool    `json:"coordinated"`
	AlertWorthy      bool    `json:"alert_worthy"`
	Score            float64 `json:"score"`
}

// AlertsResponse answers /alerts.
type AlertsResponse struct {
	CycleID string      `json:"cycle_id"`
	Rules   RulesInfo   `json:"rules"`
	Wallets int         `json:"wallets"`
	Count   int         `json:"count"`
	Alerts  []AlertInfo `json:"alerts"`
	TookMs  int64       `json:"took_ms"`
}

// RulesInfo mirrors domain.AlertRules.
type RulesInfo struct {
	MinBuyers        int `json:"min_buyers"`
	MaxLookbackHours int `json:"max_lookback_hours"`
	MaxAlerts        int `json:"max_alerts"`
}

// AlertInfo is one co-buy alert.
type AlertInfo struct {
	ID           string   `json:"id"`
	Mint         string   `json:"mint"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Buyers       []string `json:"buyers"`
	BuyerCount   int      `json:"buyer_count"`
	FirstBuyAt   int64    `json:"first_buy_at"`
	LastBuyAt    int64    `json:"last_buy_at"`
	LiquidityUSD *float64 `json:"liquidity_usd"`
	PriceUSD     *float64 `json:"price_usd"`
}

// NewTokenInfo converts a scored token to its wire form.
func NewTokenInfo(t domain.ScoredToken) TokenInfo {
	p := t.Token.MarketPair
	info := TokenInfo{
		Address:       t.Token.Key,
		Symbol:        p.BaseSymbol,
		Name:          p.BaseName,
		Venue:         p.Venue,
		PairAddress:   p.PairAddress,
		PriceUSD:      p.PriceUSD,
		LiquidityUSD:  p.LiquidityUSD,
		Volume24h:     p.Volume.H24,
		PriceChange1h: p.PriceChange.H1,
		CreatedAt:     p.CreatedAt,
		Website:       p.Socials.Website,
		Twitter:       p.Socials.Twitter,
		Telegram:      p.Socials.Telegram,
		Sources:       nonNil(t.Token.Sources),
		Score:         t.Score,
		Flags:         nonNil(t.Flags()),
		DiscoveredAt:  t.DiscoveredAt,
	}
	info.Score.Warnings = nonNil(info.Score.Warnings)
	info.Score.Strengths = nonNil(info.Score.Strengths)
	if v := t.Security; v != nil {
		info.Security = &SecurityInfo{
			Score:          v.Score,
			TopHolderPct:   v.TopHolderPct,
			Honeypot:       v.Honeypot,
			Flags:          nonNil(v.Flags),
			Classification: string(v.Classification),
		}
	}
	if b := t.Buzz; b != nil {
		info.Buzz = &BuzzInfo{
			Mentions:         b.Mentions,
			UniqueAuthors:    b.UniqueAuthors,
			AvgEngagement:    b.AvgEngagement,
			MeanAuthorWeight: b.MeanAuthorWeight,
			Coordinated:      b.Coordinated,
			AlertWorthy:      b.AlertWorthy,
			Score:            b.Score,
		}
	}
	return info
}

// NewTokenInfos converts a list, never returning nil.
func NewTokenInfos(tokens []domain.ScoredToken) []TokenInfo {
	out := make([]TokenInfo, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, NewTokenInfo(t))
	}
	return out
}

// NewAlertInfos converts co-buy alerts to their wire form.
func NewAlertInfos(alerts []domain.CoBuyAlert) []AlertInfo {
	out := make([]AlertInfo, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, AlertInfo{
			ID:           a.ID,
			Mint:         a.Mint,
			Symbol:       a.Symbol,
			Name:         a.Name,
			Buyers:       nonNil(a.Buyers),
			BuyerCount:   a.BuyerCount,
			FirstBuyAt:   a.FirstBuyAt,
			LastBuyAt:    a.LastBuyAt,
			LiquidityUSD: a.LiquidityUSD,
			PriceUSD:     a.PriceUSD,
		})
	}
	return out
}

// nonNil keeps empty lists as [] rather than null in JSON.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
