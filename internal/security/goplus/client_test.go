package goplus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-coin-sniper/internal/domain"
)

func newTestClient(t *testing.T, body string) *Client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/solana/token_security", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return New(Config{}, WithHTTPClient(resty.NewWithClient(server.Client()).SetBaseURL(server.URL)))
}

func TestClient_Assess_Clean(t *testing.T) {
	client := newTestClient(t, `{"code":1,"message":"OK","result":{"Mint1":{
		"mintable":{"status":"0"},"freezable":{"status":"0"},
		"holders":[{"account":"a","percent":"0.12"},{"account":"b","percent":"0.05"}]}}}`)

	v, err := client.Assess(context.Background(), "Mint1")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 100, v.Score)
	assert.InDelta(t, 12.0, v.TopHolderPct, 1e-9)
	assert.Equal(t, domain.ClassPass, v.Classification)
	assert.Empty(t, v.Flags)
}

func TestClient_Assess_Flagged(t *testing.T) {
	client := newTestClient(t, `{"code":1,"result":{"Mint1":{
		"mintable":{"status":"1"},"freezable":{"status":"1"},
		"transfer_fee":{"current_fee_rate":"0.05"},
		"holders":[{"account":"a","percent":"0.45"}]}}}`)

	v, err := client.Assess(context.Background(), "Mint1")
	require.NoError(t, err)
	assert.Equal(t, 100-20-25-15-15, v.Score)
	assert.Equal(t, domain.ClassFlag, v.Classification)
	assert.ElementsMatch(t, []string{domain.FlagMintable, domain.FlagFreezable, domain.FlagTransferFee, domain.FlagConcentration}, v.Flags)
	assert.False(t, v.Honeypot)
}

func TestClient_Assess_Honeypot(t *testing.T) {
	client := newTestClient(t, `{"code":1,"result":{"Mint1":{"is_honeypot":"1"}}}`)

	v, err := client.Assess(context.Background(), "Mint1")
	require.NoError(t, err)
	assert.True(t, v.Honeypot)
	assert.Equal(t, 0, v.Score)
	assert.Equal(t, domain.ClassReject, v.Classification)
	assert.Contains(t, v.Flags, domain.FlagHoneypot)
}

func TestClient_Assess_MissingRecord(t *testing.T) {
	client := newTestClient(t, `{"code":1,"result":{}}`)
	v, err := client.Assess(context.Background(), "Mint1")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestClient_Assess_ProviderError(t *testing.T) {
	client := newTestClient(t, `{"code":2004,"message":"rate limited"}`)
	_, err := client.Assess(context.Background(), "Mint1")
	assert.Error(t, err)
}

func TestMapVerdict_FeeRateZeroNotFlagged(t *testing.T) {
	var rec tokenSecurity
	require.NoError(t, json.Unmarshal([]byte(`{"transfer_fee":{"current_fee_rate":"0"}}`), &rec))
	v := mapVerdict("M", &rec)
	assert.NotContains(t, v.Flags, domain.FlagTransferFee)
}
