// Package storage defines the persistence collaborators of the pipelines.
// Implementations live in memory/, postgres/ and clickhouse/.
package storage

import (
	"context"

	"meme-coin-sniper/internal/domain"
)

// TokenStore keeps the latest scored snapshot of each token, keyed by
// canonical token address.
type TokenStore interface {
	// Upsert inserts or replaces the token. The first discovery time is kept.
	// Returns ErrInvalidInput if the token has no key.
	Upsert(ctx context.Context, t *domain.ScoredToken) error

	// TopByScore returns up to n tokens ordered by total score DESC, then address ASC.
	TopByScore(ctx context.Context, n int) ([]domain.ScoredToken, error)

	// Get returns one token. Returns ErrNotFound if not exists.
	Get(ctx context.Context, address string) (*domain.ScoredToken, error)
}

// HistoryStore appends per-cycle snapshots for later analysis.
type HistoryStore interface {
	// InsertScores appends the scored tokens of one scan cycle.
	InsertScores(ctx context.Context, cycleID string, tokens []domain.ScoredToken) error

	// InsertAlerts appends the alerts of one co-buy cycle.
	InsertAlerts(ctx context.Context, cycleID string, alerts []domain.CoBuyAlert) error
}
