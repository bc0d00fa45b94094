package clickhouse

import (
	"context"
	"fmt"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/idhash"
	"meme-coin-sniper/internal/storage"
)

// HistoryStore implements storage.HistoryStore using ClickHouse.
type HistoryStore struct {
	conn *Conn
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(conn *Conn) *HistoryStore {
	return &HistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.HistoryStore = (*HistoryStore)(nil)

// InsertScores appends one row per token in a single batch.
func (s *HistoryStore) InsertScores(ctx context.Context, cycleID string, tokens []domain.ScoredToken) error {
	if cycleID == "" {
		return storage.ErrInvalidInput
	}
	if len(tokens) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO score_history (
			snapshot_id, cycle_id, address, symbol, venue, liquidity_usd, price_usd,
			score_total, buzz, security, liquidity, presence, timing, vetoed, discovered_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range tokens {
		t := &tokens[i]
		c := t.Score.Components
		var vetoed uint8
		if t.Score.Vetoed {
			vetoed = 1
		}
		err = batch.Append(
			idhash.ComputeSnapshotID(t.Token.Key, cycleID, t.DiscoveredAt),
			cycleID, t.Token.Key, t.Token.BaseSymbol, t.Token.Venue,
			t.Token.LiquidityUSD, t.Token.PriceUSD,
			uint8(clampScore(t.Score.Total)), c.SocialBuzz, c.Security, c.Liquidity, c.SocialPresence, c.Timing,
			vetoed, uint64(t.DiscoveredAt),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// InsertAlerts appends one row per alert in a single batch.
func (s *HistoryStore) InsertAlerts(ctx context.Context, cycleID string, alerts []domain.CoBuyAlert) error {
	if cycleID == "" {
		return storage.ErrInvalidInput
	}
	if len(alerts) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO alert_history (
			alert_id, cycle_id, mint, symbol, buyers, buyer_count,
			first_buy_at, last_buy_at, liquidity_usd, price_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for i := range alerts {
		a := &alerts[i]
		err = batch.Append(
			a.ID, cycleID, a.Mint, a.Symbol, a.Buyers, uint16(a.BuyerCount),
			uint64(a.FirstBuyAt), uint64(a.LastBuyAt), a.LiquidityUSD, a.PriceUSD,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
