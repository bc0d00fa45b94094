// Package rules supplies co-buy alert rules and the tracked-wallet list.
package rules

import (
	"context"
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/observability"
)

// ErrUnavailable is returned when the backing store cannot be read.
var ErrUnavailable = errors.New("rule store unavailable")

// Store reads alert rules. Read once per cycle.
type Store interface {
	Load(ctx context.Context) (domain.AlertRules, error)
}

// Registry lists tracked wallets.
type Registry interface {
	List(ctx context.Context) ([]domain.TrackedWallet, error)
}

// Resolve loads rules from store. Any failure falls back to the defaults,
// logged at Warn and counted.
func Resolve(ctx context.Context, store Store, logger zerolog.Logger) domain.AlertRules {
	if store == nil {
		return domain.DefaultAlertRules()
	}
	r, err := store.Load(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("alert rules unavailable, using defaults")
		observability.RecordRuleFallback()
		return domain.DefaultAlertRules()
	}
	return r.Normalized()
}

// Static serves fixed rules, used when no redis is configured.
type Static struct {
	Rules domain.AlertRules
}

var _ Store = Static{}

// Load returns the configured rules with defaults filled in.
func (s Static) Load(context.Context) (domain.AlertRules, error) {
	return s.Rules.Normalized(), nil
}

// StaticRegistry serves a fixed wallet list.
type StaticRegistry struct {
	Wallets []domain.TrackedWallet
}

var _ Registry = StaticRegistry{}

// List returns the wallets sorted by address.
func (s StaticRegistry) List(context.Context) ([]domain.TrackedWallet, error) {
	out := append([]domain.TrackedWallet(nil), s.Wallets...)
	sortWallets(out)
	return out, nil
}

func sortWallets(ws []domain.TrackedWallet) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].Address < ws[j].Address })
}
