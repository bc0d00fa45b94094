package geckoterminal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func poolDoc(entries ...[3]string) map[string]interface{} {
	var data, inc []interface{}
	for _, e := range entries {
		mint, symbol, dex := e[0], e[1], e[2]
		data = append(data, map[string]interface{}{
			"id": "solana_pool" + mint,
			"attributes": map[string]interface{}{
				"address":                 "pool" + mint,
				"name":                    symbol + " / SOL",
				"base_token_price_usd":    "0.5",
				"reserve_in_usd":          "15000.25",
				"pool_created_at":         "2024-01-01T00:00:00Z",
				"volume_usd":              map[string]string{"h1": "10", "h6": "60", "h24": "240"},
				"price_change_percentage": map[string]string{"h1": "-3.5"},
				"transactions":            map[string]interface{}{"h24": map[string]int{"buys": 7, "sells": 2}},
			},
			"relationships": map[string]interface{}{
				"base_token": map[string]interface{}{"data": map[string]string{"id": "solana_" + mint}},
				"dex":        map[string]interface{}{"data": map[string]string{"id": dex}},
			},
		})
		inc = append(inc, map[string]interface{}{
			"id": "solana_" + mint, "type": "token",
			"attributes": map[string]string{"address": mint, "name": symbol + " Coin", "symbol": symbol},
		})
	}
	return map[string]interface{}{"data": data, "included": inc}
}

func newTestClient(t *testing.T, cfg Config, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(cfg, zerolog.Nop(), WithHTTPClient(resty.NewWithClient(server.Client()).SetBaseURL(server.URL)))
}

func TestClient_ListNew_Pages(t *testing.T) {
	var pages atomic.Int32
	client := newTestClient(t, Config{NewPoolPages: 3}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/networks/solana/new_pools", r.URL.Path)
		assert.Equal(t, "base_token,dex", r.URL.Query().Get("include"))
		n := pages.Add(1)
		w.Header().Set("Content-Type", "application/json")
		doc := poolDoc([3]string{"Mint" + string(rune('A'+n-1)), "T" + string(rune('A'+n-1)), "raydium"})
		json.NewEncoder(w).Encode(doc)
	})

	pairs := client.ListNew(context.Background(), 0)
	require.Len(t, pairs, 3)
	assert.Equal(t, int32(3), pages.Load())

	p := pairs[0]
	assert.Equal(t, "MintA", p.BaseAddress)
	assert.Equal(t, "TA", p.BaseSymbol)
	assert.Equal(t, "TA Coin", p.BaseName)
	assert.Equal(t, "raydium", p.Venue)
	assert.Equal(t, "poolMintA", p.PairAddress)
	assert.InDelta(t, 15000.25, p.Liquidity(), 1e-9)
	require.NotNil(t, p.CreatedAt)
	assert.Equal(t, int64(1704067200000), *p.CreatedAt)
	require.NotNil(t, p.PriceChange.H1)
	assert.Equal(t, -3.5, *p.PriceChange.H1)
	assert.Nil(t, p.PriceChange.H6)
	require.NotNil(t, p.Txns.H24)
	assert.Equal(t, 7, p.Txns.H24.Buys)
}

func TestClient_ListNew_StopsAtLimit(t *testing.T) {
	var pages atomic.Int32
	client := newTestClient(t, Config{NewPoolPages: 5}, func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(poolDoc([3]string{"MintA", "A", "orca"}, [3]string{"MintB", "B", "orca"}))
	})

	pairs := client.ListNew(context.Background(), 3)
	assert.Len(t, pairs, 3)
	assert.Equal(t, int32(2), pages.Load())
}

func TestClient_ListNew_KeepsEarlierPagesOnError(t *testing.T) {
	var pages atomic.Int32
	client := newTestClient(t, Config{NewPoolPages: 3}, func(w http.ResponseWriter, r *http.Request) {
		if pages.Add(1) > 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(poolDoc([3]string{"MintA", "A", "meteora"}))
	})

	pairs := client.ListNew(context.Background(), 0)
	require.Len(t, pairs, 1)
	assert.Equal(t, "meteora", pairs[0].Venue)
}

func TestClient_Lookup_FiltersBaseToken(t *testing.T) {
	client := newTestClient(t, Config{}, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/networks/solana/tokens/MintA/pools", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(poolDoc([3]string{"MintA", "A", "raydium"}, [3]string{"So111", "SOL", "raydium"}))
	})

	pairs := client.Lookup(context.Background(), "MintA")
	require.Len(t, pairs, 1)
	assert.Equal(t, "MintA", pairs[0].BaseAddress)
}

func TestNormalize_SymbolFromPoolName(t *testing.T) {
	p := pool{ID: "solana_pool1"}
	p.Attributes.Address = "pool1"
	p.Attributes.Name = "WIF / SOL"

	pair, ok := normalize(&p, nil)
	require.True(t, ok)
	assert.Equal(t, "WIF", pair.BaseSymbol)
	assert.Equal(t, "pool1", pair.CanonicalKey())
}

func TestNormalize_RejectsOtherNetworks(t *testing.T) {
	p := pool{ID: "eth_0xpool"}
	p.Attributes.Address = "0xpool"
	_, ok := normalize(&p, nil)
	assert.False(t, ok)
}
