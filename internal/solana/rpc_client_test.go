package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func rpcServer(t *testing.T, handle func(req rpcRequest) interface{}) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req),
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(server *httptest.Server) *HTTPClient {
	return NewHTTPClient(server.URL, WithHTTPClient(server.Client()), WithRateLimit(0))
}

func TestHTTPClient_GetTransaction(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getTransaction" {
			t.Errorf("expected method getTransaction, got %s", req.Method)
		}
		opts, _ := req.Params[1].(map[string]interface{})
		if opts["encoding"] != "jsonParsed" {
			t.Errorf("expected jsonParsed encoding, got %v", opts["encoding"])
		}
		return map[string]interface{}{
			"slot":      int64(123456),
			"blockTime": int64(1700000000),
			"meta": map[string]interface{}{
				"err":         nil,
				"logMessages": []string{"Program 6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P invoke [1]", "Program log: Instruction: Buy"},
				"preTokenBalances": []interface{}{
					map[string]interface{}{"accountIndex": 2, "mint": "MintA", "owner": "wallet", "uiTokenAmount": map[string]string{"uiAmountString": "10"}},
				},
				"postTokenBalances": []interface{}{
					map[string]interface{}{"accountIndex": 2, "mint": "MintA", "owner": "wallet", "uiTokenAmount": map[string]string{"uiAmountString": "25.5"}},
					map[string]interface{}{"accountIndex": 3, "mint": "MintB", "owner": "other", "uiTokenAmount": map[string]string{"uiAmountString": "1"}},
				},
			},
			"transaction": map[string]interface{}{
				"message": map[string]interface{}{
					"accountKeys": []map[string]string{{"pubkey": "wallet"}, {"pubkey": "program"}},
				},
			},
		}
	})

	tx, err := newTestClient(server).GetTransaction(context.Background(), "sig1")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}
	if tx.Slot != 123456 || tx.BlockTime != 1700000000 {
		t.Errorf("unexpected slot/blockTime %d/%d", tx.Slot, tx.BlockTime)
	}
	if tx.Failed {
		t.Error("expected successful transaction")
	}
	if len(tx.AccountKeys) != 2 || tx.AccountKeys[0] != "wallet" {
		t.Errorf("unexpected account keys %v", tx.AccountKeys)
	}

	deltas := tx.OwnerDeltas("wallet")
	if deltas["MintA"] != 15.5 {
		t.Errorf("expected MintA delta 15.5, got %v", deltas["MintA"])
	}
	if _, ok := deltas["MintB"]; ok {
		t.Error("other owner's balance must not appear")
	}

	venue, ok := InvokedSwapProgram(tx.LogMessages)
	if !ok || venue != "pump.fun" {
		t.Errorf("expected pump.fun invocation, got %q %v", venue, ok)
	}
}

func TestHTTPClient_GetTransaction_NotFound(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} { return nil })

	tx, err := newTestClient(server).GetTransaction(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if tx != nil {
		t.Errorf("expected nil for not found, got %+v", tx)
	}
}

func TestHTTPClient_GetSignaturesForAddress(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} {
		if req.Method != "getSignaturesForAddress" {
			t.Errorf("expected method getSignaturesForAddress, got %s", req.Method)
		}
		if req.Params[0] != "wallet" {
			t.Errorf("expected address param, got %v", req.Params[0])
		}
		opts, _ := req.Params[1].(map[string]interface{})
		if opts["limit"] != float64(5) {
			t.Errorf("expected limit 5, got %v", opts["limit"])
		}
		return []map[string]interface{}{
			{"signature": "sig1", "slot": 10, "blockTime": 1700000000, "err": nil},
			{"signature": "sig2", "slot": 9, "blockTime": nil, "err": map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}},
		}
	})

	sigs, err := newTestClient(server).GetSignaturesForAddress(context.Background(), "wallet", &SignaturesOpts{Limit: 5})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	if sigs[0].BlockTime == nil || *sigs[0].BlockTime != 1700000000 {
		t.Errorf("unexpected blockTime %v", sigs[0].BlockTime)
	}
	if sigs[0].Failed || !sigs[1].Failed {
		t.Errorf("unexpected failure flags %v %v", sigs[0].Failed, sigs[1].Failed)
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param"}}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRateLimit(0), WithRetryDelay(time.Millisecond, time.Millisecond))
	_, err := client.GetTransaction(context.Background(), "bad")

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32602 {
		t.Fatalf("expected RPCError -32602, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestHTTPClient_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[]}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithRateLimit(0), WithRetryDelay(time.Millisecond, 5*time.Millisecond))
	sigs, err := client.GetSignaturesForAddress(context.Background(), "wallet", nil)
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}
	if len(sigs) != 0 {
		t.Errorf("expected no signatures, got %d", len(sigs))
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 calls, got %d", calls.Load())
	}
}

func TestHTTPClient_RateLimit(t *testing.T) {
	server := rpcServer(t, func(req rpcRequest) interface{} { return []interface{}{} })
	client := NewHTTPClient(server.URL, WithHTTPClient(server.Client()), WithRateLimit(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.GetSignaturesForAddress(context.Background(), "w", nil); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("expected paced calls, took %v", elapsed)
	}
}

func TestInvokedSwapProgram_IgnoresUnknown(t *testing.T) {
	logs := []string{
		"Program 11111111111111111111111111111111 invoke [1]",
		"Program log: 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8",
	}
	if _, ok := InvokedSwapProgram(logs); ok {
		t.Error("expected no swap program")
	}
}
