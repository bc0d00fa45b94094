package wallets

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/solana"
	"meme-coin-sniper/internal/sources"
)

// DefaultHeliusBaseURL is the enhanced transactions API root.
const DefaultHeliusBaseURL = "https://api.helius.xyz/v0"

// HeliusConfig configures HeliusSource.
type HeliusConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HeliusSource reads parsed wallet history from the Helius enhanced
// transactions API.
type HeliusSource struct {
	http *resty.Client
	key  string
}

// HeliusOption configures HeliusSource.
type HeliusOption func(*HeliusSource)

// WithHeliusHTTPClient overrides the resty client.
func WithHeliusHTTPClient(c *resty.Client) HeliusOption {
	return func(s *HeliusSource) {
		s.http = c
	}
}

// NewHeliusSource creates a Helius-backed ActivitySource.
func NewHeliusSource(cfg HeliusConfig, opts ...HeliusOption) *HeliusSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultHeliusBaseURL
	}
	s := &HeliusSource{
		http: sources.NewRESTClient(cfg.BaseURL, cfg.Timeout),
		key:  cfg.APIKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ActivitySource = (*HeliusSource)(nil)

type enhancedTx struct {
	Signature      string      `json:"signature"`
	Timestamp      int64       `json:"timestamp"`
	Type           string      `json:"type"`
	Source         string      `json:"source"`
	TransactionErr interface{} `json:"transactionError"`
	TokenTransfers []struct {
		Mint            string  `json:"mint"`
		FromUserAccount string  `json:"fromUserAccount"`
		ToUserAccount   string  `json:"toUserAccount"`
		TokenAmount     float64 `json:"tokenAmount"`
	} `json:"tokenTransfers"`
}

// buyLike reports whether a Helius transaction type can carry a buy.
func buyLike(tx *enhancedTx) bool {
	switch tx.Type {
	case "SWAP", "BUY":
		return true
	case "TOKEN_MINT", "CREATE":
		return tx.Source == "PUMP_FUN"
	}
	return false
}

// RecentBuys returns the wallet's incoming non-quote token transfers in
// swap-like transactions, stopping at the first one older than since.
func (s *HeliusSource) RecentBuys(ctx context.Context, wallet string, limit int, since time.Time) ([]domain.WalletBuyEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var txs []enhancedTx
	query := map[string]string{"api-key": s.key, "limit": strconv.Itoa(limit)}
	if err := sources.GetJSON(ctx, s.http, "/addresses/"+wallet+"/transactions", query, &txs); err != nil {
		return nil, err
	}

	var out []domain.WalletBuyEvent
	for i := range txs {
		tx := &txs[i]
		if !since.IsZero() && tx.Timestamp < since.Unix() {
			break
		}
		if tx.TransactionErr != nil || !buyLike(tx) {
			continue
		}
		for _, tt := range tx.TokenTransfers {
			if tt.ToUserAccount != wallet || tt.TokenAmount <= 0 || solana.IsQuoteMint(tt.Mint) {
				continue
			}
			out = append(out, domain.WalletBuyEvent{
				Wallet:    wallet,
				Mint:      tt.Mint,
				Timestamp: tx.Timestamp * 1000,
				Signature: tx.Signature,
			})
		}
	}
	return out, nil
}
