// Package wallets collects recent buy-like activity of tracked wallets.
package wallets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/observability"
)

// ErrInvalidWallet is returned for addresses that are not ed25519 public keys.
var ErrInvalidWallet = errors.New("invalid wallet address")

// ActivitySource returns buy-like events of one wallet, newest first. A
// non-zero since lets the source stop at activity older than it.
type ActivitySource interface {
	RecentBuys(ctx context.Context, wallet string, limit int, since time.Time) ([]domain.WalletBuyEvent, error)
}

// ValidateWallet checks that address is base58 for a 32-byte key that lies
// on the ed25519 curve. Program-derived addresses fail the curve check.
func ValidateWallet(address string) error {
	b, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWallet, err)
	}
	if len(b) != 32 {
		return fmt.Errorf("%w: decoded to %d bytes", ErrInvalidWallet, len(b))
	}
	if _, err := new(edwards25519.Point).SetBytes(b); err != nil {
		return fmt.Errorf("%w: not on curve", ErrInvalidWallet)
	}
	return nil
}

// CollectorOptions configures a Collector.
type CollectorOptions struct {
	Now    func() time.Time
	Logger zerolog.Logger
}

// Collector wraps an ActivitySource with validation, dedup and age filtering.
type Collector struct {
	source ActivitySource
	now    func() time.Time
	logger zerolog.Logger
}

// NewCollector creates a Collector.
func NewCollector(source ActivitySource, opts CollectorOptions) *Collector {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Collector{
		source: source,
		now:    opts.Now,
		logger: opts.Logger.With().Str("component", "wallet_collector").Logger(),
	}
}

// CollectRecentBuys returns at most one event per mint (the first the source
// returned) no older than maxAge. Any failure yields an empty list.
func (c *Collector) CollectRecentBuys(ctx context.Context, wallet string, maxCount int, maxAge time.Duration) []domain.WalletBuyEvent {
	if err := ValidateWallet(wallet); err != nil {
		c.logger.Warn().Err(err).Str("wallet", wallet).Msg("skipping wallet")
		observability.RecordWalletFailure()
		return nil
	}

	var since time.Time
	if maxAge > 0 {
		since = c.now().Add(-maxAge)
	}
	events, err := c.source.RecentBuys(ctx, wallet, maxCount, since)
	if err != nil {
		c.logger.Warn().Err(err).Str("wallet", wallet).Msg("wallet activity unavailable")
		observability.RecordWalletFailure()
		return nil
	}

	cutoff := since.UnixMilli()
	seen := make(map[string]bool)
	var out []domain.WalletBuyEvent
	for _, ev := range events {
		if ev.Mint == "" || seen[ev.Mint] {
			continue
		}
		seen[ev.Mint] = true
		if maxAge > 0 && ev.Timestamp < cutoff {
			continue
		}
		ev.Wallet = wallet
		out = append(out, ev)
	}
	return out
}
