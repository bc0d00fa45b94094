// Package notify hands scored tokens and co-buy alerts to delivery channels.
// Delivery success is not tracked; callers log and count errors.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
)

// Notifier delivers plain structured records.
type Notifier interface {
	NotifyTokens(ctx context.Context, tokens []domain.ScoredToken) error
	NotifyAlerts(ctx context.Context, alerts []domain.CoBuyAlert) error
}

// Log writes each record as one structured log line.
type Log struct {
	logger zerolog.Logger
}

// NewLog creates a log notifier.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "notify").Logger()}
}

var _ Notifier = (*Log)(nil)

// NotifyTokens logs each token at Info.
func (l *Log) NotifyTokens(_ context.Context, tokens []domain.ScoredToken) error {
	for i := range tokens {
		t := &tokens[i]
		l.logger.Info().
			Str("address", t.Token.Key).
			Str("symbol", t.Token.BaseSymbol).
			Str("venue", t.Token.Venue).
			Int("score", t.Score.Total).
			Strs("flags", t.Flags()).
			Msg("token signal")
	}
	return nil
}

// NotifyAlerts logs each alert at Info.
func (l *Log) NotifyAlerts(_ context.Context, alerts []domain.CoBuyAlert) error {
	for i := range alerts {
		a := &alerts[i]
		l.logger.Info().
			Str("mint", a.Mint).
			Str("symbol", a.Symbol).
			Int("buyers", a.BuyerCount).
			Strs("wallets", a.Buyers).
			Msg("co-buy alert")
	}
	return nil
}

// Multi fans out to every notifier. One failing notifier does not stop the
// others; their errors are joined.
type Multi []Notifier

var _ Notifier = Multi(nil)

// NotifyTokens calls every notifier.
func (m Multi) NotifyTokens(ctx context.Context, tokens []domain.ScoredToken) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyTokens(ctx, tokens); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotifyAlerts calls every notifier.
func (m Multi) NotifyAlerts(ctx context.Context, alerts []domain.CoBuyAlert) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyAlerts(ctx, alerts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards everything.
type Nop struct{}

var _ Notifier = Nop{}

// NotifyTokens does nothing.
func (Nop) NotifyTokens(context.Context, []domain.ScoredToken) error { return nil }

// NotifyAlerts does nothing.
func (Nop) NotifyAlerts(context.Context, []domain.CoBuyAlert) error { return nil }
