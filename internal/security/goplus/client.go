// Package goplus maps GoPlus Solana token security data to SecurityVerdict.
package goplus

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/security"
	"meme-coin-sniper/internal/sources"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.gopluslabs.io/api/v1"

// ConcentrationThreshold is the top-holder share (percent) that raises a flag.
const ConcentrationThreshold = 30.0

// Score penalties applied to a clean 100.
const (
	penaltyMintable       = 20
	penaltyFreezable      = 25
	penaltyTransferFee    = 15
	penaltyMutableBalance = 20
	penaltyConcentration  = 15
)

// Config configures the client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Spacing between consecutive calls; the free tier allows ~30/min.
	Spacing time.Duration
}

// Client implements security.Provider.
type Client struct {
	http  *resty.Client
	pacer *sources.Pacer
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient overrides the resty client.
func WithHTTPClient(c *resty.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// New creates a GoPlus client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	c := &Client{
		http:  sources.NewRESTClient(cfg.BaseURL, cfg.Timeout),
		pacer: sources.NewPacer(cfg.Spacing),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ security.Provider = (*Client)(nil)

type response struct {
	Code    int                       `json:"code"`
	Message string                    `json:"message"`
	Result  map[string]*tokenSecurity `json:"result"`
}

type status struct {
	Status string `json:"status"`
}

type holder struct {
	Account string `json:"account"`
	Percent string `json:"percent"`
}

type transferFee struct {
	CurrentFeeRate string `json:"current_fee_rate"`
}

type tokenSecurity struct {
	Mintable                *status      `json:"mintable"`
	Freezable               *status      `json:"freezable"`
	BalanceMutableAuthority *status      `json:"balance_mutable_authority"`
	TransferFee             *transferFee `json:"transfer_fee"`
	NonTransferable         string       `json:"non_transferable"`
	IsHoneypot              string       `json:"is_honeypot"`
	CannotSellAll           string       `json:"cannot_sell_all"`
	Holders                 []holder     `json:"holders"`
}

// Assess fetches and maps the security record for address. A missing record
// returns (nil, nil).
func (c *Client) Assess(ctx context.Context, address string) (*domain.SecurityVerdict, error) {
	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	var resp response
	query := map[string]string{"contract_addresses": address}
	if err := sources.GetJSON(ctx, c.http, "/solana/token_security", query, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 1 {
		return nil, fmt.Errorf("goplus code %d: %s", resp.Code, resp.Message)
	}

	rec := resp.Result[address]
	if rec == nil {
		return nil, nil
	}
	return mapVerdict(address, rec), nil
}

func mapVerdict(address string, rec *tokenSecurity) *domain.SecurityVerdict {
	v := &domain.SecurityVerdict{Address: address, Score: 100}

	if rec.IsHoneypot == "1" || rec.CannotSellAll == "1" || rec.NonTransferable == "1" {
		v.Honeypot = true
		v.Score = 0
		v.Flags = append(v.Flags, domain.FlagHoneypot)
		if rec.NonTransferable == "1" {
			v.Flags = append(v.Flags, domain.FlagNonTransferable)
		}
	}

	penalize := func(on bool, flag string, points int) {
		if !on {
			return
		}
		v.Flags = append(v.Flags, flag)
		v.Score -= points
	}
	penalize(active(rec.Mintable), domain.FlagMintable, penaltyMintable)
	penalize(active(rec.Freezable), domain.FlagFreezable, penaltyFreezable)
	penalize(active(rec.BalanceMutableAuthority), domain.FlagMutableBalance, penaltyMutableBalance)
	penalize(rec.TransferFee != nil && nonZero(rec.TransferFee.CurrentFeeRate), domain.FlagTransferFee, penaltyTransferFee)

	for _, h := range rec.Holders {
		pct := sources.ParseFloat(h.Percent)
		if pct != nil && *pct*100 > v.TopHolderPct {
			v.TopHolderPct = *pct * 100
		}
	}
	penalize(v.TopHolderPct > ConcentrationThreshold, domain.FlagConcentration, penaltyConcentration)

	if v.Score < 0 || v.Honeypot {
		v.Score = 0
	}

	switch {
	case v.Honeypot:
		v.Classification = domain.ClassReject
	case len(v.Flags) > 0:
		v.Classification = domain.ClassFlag
	default:
		v.Classification = domain.ClassPass
	}
	return v
}

func active(s *status) bool {
	return s != nil && s.Status == "1"
}

func nonZero(rate string) bool {
	rate = strings.TrimSpace(rate)
	if rate == "" {
		return false
	}
	f := sources.ParseFloat(rate)
	return f == nil || *f > 0
}
