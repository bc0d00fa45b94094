// Package memory provides in-memory store implementations for tests and
// single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[string]domain.ScoredToken // keyed by token address
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[string]domain.ScoredToken),
	}
}

var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts or replaces the token, keeping the first discovery time.
func (s *TokenStore) Upsert(_ context.Context, t *domain.ScoredToken) error {
	if t == nil || t.Token.Key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *t
	if prev, ok := s.data[t.Token.Key]; ok && prev.DiscoveredAt > 0 && prev.DiscoveredAt < stored.DiscoveredAt {
		stored.DiscoveredAt = prev.DiscoveredAt
	}
	s.data[t.Token.Key] = stored
	return nil
}

// TopByScore returns up to n tokens by total score DESC, address ASC.
func (s *TokenStore) TopByScore(_ context.Context, n int) ([]domain.ScoredToken, error) {
	if n <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	result := make([]domain.ScoredToken, 0, len(s.data))
	for _, t := range s.data {
		result = append(result, t)
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].Score.Total != result[j].Score.Total {
			return result[i].Score.Total > result[j].Score.Total
		}
		return result[i].Token.Key < result[j].Token.Key
	})
	if len(result) > n {
		result = result[:n]
	}
	return result, nil
}

// Get returns one token. Returns ErrNotFound if not exists.
func (s *TokenStore) Get(_ context.Context, address string) (*domain.ScoredToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.data[address]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &t, nil
}
