package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/storage"
)

func TestHistoryStore_InsertScores(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewHistoryStore(conn)

	tokens := []domain.ScoredToken{
		{
			Token:        domain.CanonicalToken{Key: "MintA", MarketPair: domain.MarketPair{BaseSymbol: "AAA", Venue: "raydium", LiquidityUSD: ptr(5000.0)}},
			Score:        domain.ScoreBreakdown{Total: 61, Components: domain.ScoreComponents{Security: 25, Liquidity: 4}},
			DiscoveredAt: 1704067200000,
		},
		{
			Token:        domain.CanonicalToken{Key: "MintB"},
			Score:        domain.ScoreBreakdown{Vetoed: true},
			DiscoveredAt: 1704067200000,
		},
	}
	require.NoError(t, store.InsertScores(ctx, "cycle-1", tokens))

	var count uint64
	require.NoError(t, conn.QueryRow(ctx, "SELECT count() FROM score_history WHERE cycle_id = 'cycle-1'").Scan(&count))
	assert.Equal(t, uint64(2), count)

	var total uint8
	var liq *float64
	require.NoError(t, conn.QueryRow(ctx, "SELECT score_total, liquidity_usd FROM score_history WHERE address = 'MintA'").Scan(&total, &liq))
	assert.Equal(t, uint8(61), total)
	require.NotNil(t, liq)
	assert.Equal(t, 5000.0, *liq)
}

func TestHistoryStore_InsertAlerts(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewHistoryStore(conn)

	alerts := []domain.CoBuyAlert{{
		ID: "abc", Mint: "M1", Symbol: "ONE", Buyers: []string{"W1", "W2", "W3"}, BuyerCount: 3,
		FirstBuyAt: 1000, LastBuyAt: 3000,
	}}
	require.NoError(t, store.InsertAlerts(ctx, "cycle-9", alerts))
	require.NoError(t, store.InsertAlerts(ctx, "cycle-9", nil))

	var buyers []string
	require.NoError(t, conn.QueryRow(ctx, "SELECT buyers FROM alert_history WHERE alert_id = 'abc'").Scan(&buyers))
	assert.Equal(t, []string{"W1", "W2", "W3"}, buyers)
}

func TestHistoryStore_RequiresCycle(t *testing.T) {
	store := NewHistoryStore(nil)
	assert.ErrorIs(t, store.InsertScores(context.Background(), "", nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.InsertAlerts(context.Background(), "", nil), storage.ErrInvalidInput)
}
