package memory

import (
	"context"
	"sync"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/storage"
)

// ScoreRecord is one stored score snapshot.
type ScoreRecord struct {
	CycleID string
	Token   domain.ScoredToken
}

// AlertRecord is one stored alert snapshot.
type AlertRecord struct {
	CycleID string
	Alert   domain.CoBuyAlert
}

// HistoryStore is an in-memory implementation of storage.HistoryStore.
type HistoryStore struct {
	mu     sync.RWMutex
	scores []ScoreRecord
	alerts []AlertRecord
	seen   map[string]bool // cycle|kind|key
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{seen: make(map[string]bool)}
}

var _ storage.HistoryStore = (*HistoryStore)(nil)

// InsertScores appends one cycle's tokens. Fails the whole batch when a token
// repeats within the cycle.
func (s *HistoryStore) InsertScores(_ context.Context, cycleID string, tokens []domain.ScoredToken) error {
	if cycleID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.claim(cycleID, "score", len(tokens), func(i int) string { return tokens[i].Token.Key })
	if err != nil {
		return err
	}
	for i, t := range tokens {
		s.scores = append(s.scores, ScoreRecord{CycleID: cycleID, Token: t})
		s.seen[keys[i]] = true
	}
	return nil
}

// InsertAlerts appends one cycle's alerts.
func (s *HistoryStore) InsertAlerts(_ context.Context, cycleID string, alerts []domain.CoBuyAlert) error {
	if cycleID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.claim(cycleID, "alert", len(alerts), func(i int) string { return alerts[i].ID })
	if err != nil {
		return err
	}
	for i, a := range alerts {
		s.alerts = append(s.alerts, AlertRecord{CycleID: cycleID, Alert: a})
		s.seen[keys[i]] = true
	}
	return nil
}

// claim builds the batch keys and rejects duplicates before anything is written.
func (s *HistoryStore) claim(cycleID, kind string, n int, key func(int) string) ([]string, error) {
	keys := make([]string, n)
	batch := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		k := cycleID + "|" + kind + "|" + key(i)
		if s.seen[k] || batch[k] {
			return nil, storage.ErrDuplicateKey
		}
		batch[k] = true
		keys[i] = k
	}
	return keys, nil
}

// Scores returns a copy of all stored score records in insertion order.
func (s *HistoryStore) Scores() []ScoreRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ScoreRecord(nil), s.scores...)
}

// Alerts returns a copy of all stored alert records in insertion order.
func (s *HistoryStore) Alerts() []AlertRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AlertRecord(nil), s.alerts...)
}
