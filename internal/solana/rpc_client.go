package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
	DefaultMaxDelay   = 10 * time.Second
	// DefaultRPS stays under public-endpoint limits.
	DefaultRPS = 8
)

// HTTPClient implements RPCClient over JSON-RPC 2.0.
type HTTPClient struct {
	endpoint  string
	http      *resty.Client
	limiter   *rate.Limiter
	requestID atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.SetTimeout(d)
	}
}

// WithMaxRetries sets maximum retry attempts for 429 and 5xx.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.http.SetRetryCount(n)
	}
}

// WithRetryDelay sets the initial and maximum retry delay.
func WithRetryDelay(initial, maxDelay time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.http.SetRetryWaitTime(initial).SetRetryMaxWaitTime(maxDelay)
	}
}

// WithRateLimit caps requests per second; rps <= 0 disables the cap.
func WithRateLimit(rps float64) ClientOption {
	return func(c *HTTPClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.http = resty.NewWithClient(client).
			SetRetryCount(0).
			SetHeader("Content-Type", "application/json")
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint: endpoint,
		http: resty.New().
			SetTimeout(DefaultTimeout).
			SetRetryCount(DefaultMaxRetries).
			SetRetryWaitTime(DefaultRetryDelay).
			SetRetryMaxWaitTime(DefaultMaxDelay).
			SetHeader("Content-Type", "application/json").
			AddRetryCondition(func(r *resty.Response, err error) bool {
				return err != nil || r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
			}),
		limiter: rate.NewLimiter(rate.Limit(DefaultRPS), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ RPCClient = (*HTTPClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object. It is never retried.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs one rate-limited JSON-RPC call. Transport retries are
// handled by resty.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}

	resp, err := c.http.R().SetContext(ctx).SetBody(req).Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode())
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result != nil && len(rpcResp.Result) > 0 && string(rpcResp.Result) != "null" {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("%s: unmarshal result: %w", method, err)
		}
	}
	return nil
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := map[string]interface{}{"commitment": "confirmed"}
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}

	var result []struct {
		Signature string      `json:"signature"`
		Slot      int64       `json:"slot"`
		BlockTime *int64      `json:"blockTime"`
		Err       interface{} `json:"err"`
	}
	if err := c.call(ctx, "getSignaturesForAddress", []interface{}{address, config}, &result); err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, len(result))
	for i, r := range result {
		sigs[i] = SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			BlockTime: r.BlockTime,
			Failed:    r.Err != nil,
		}
	}
	return sigs, nil
}

// GetTransaction retrieves a jsonParsed transaction by signature.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result *parsedTransaction
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	tx := &Transaction{Slot: result.Slot, Signature: signature}
	if result.BlockTime != nil {
		tx.BlockTime = *result.BlockTime
	}
	if m := result.Meta; m != nil {
		tx.Failed = m.Err != nil
		tx.LogMessages = m.LogMessages
		tx.PreTokenBalances = convertBalances(m.PreTokenBalances)
		tx.PostTokenBalances = convertBalances(m.PostTokenBalances)
	}
	if result.Transaction != nil {
		for _, k := range result.Transaction.Message.AccountKeys {
			tx.AccountKeys = append(tx.AccountKeys, k.Pubkey)
		}
	}
	return tx, nil
}

// parsedTransaction is the raw jsonParsed getTransaction result.
type parsedTransaction struct {
	Slot        int64       `json:"slot"`
	BlockTime   *int64      `json:"blockTime"`
	Meta        *parsedMeta `json:"meta"`
	Transaction *struct {
		Message struct {
			AccountKeys []struct {
				Pubkey string `json:"pubkey"`
			} `json:"accountKeys"`
		} `json:"message"`
	} `json:"transaction"`
}

type parsedMeta struct {
	Err               interface{}     `json:"err"`
	LogMessages       []string        `json:"logMessages"`
	PreTokenBalances  []parsedBalance `json:"preTokenBalances"`
	PostTokenBalances []parsedBalance `json:"postTokenBalances"`
}

type parsedBalance struct {
	AccountIndex  int    `json:"accountIndex"`
	Mint          string `json:"mint"`
	Owner         string `json:"owner"`
	UITokenAmount struct {
		UIAmountString string `json:"uiAmountString"`
	} `json:"uiTokenAmount"`
}

func convertBalances(raw []parsedBalance) []TokenBalance {
	if len(raw) == 0 {
		return nil
	}
	out := make([]TokenBalance, 0, len(raw))
	for _, b := range raw {
		amount, _ := strconv.ParseFloat(b.UITokenAmount.UIAmountString, 64)
		out = append(out, TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         b.Mint,
			Owner:        b.Owner,
			Amount:       amount,
		})
	}
	return out
}

// OwnerDeltas returns the per-mint token balance change of owner in tx.
func (tx *Transaction) OwnerDeltas(owner string) map[string]float64 {
	deltas := make(map[string]float64)
	for _, b := range tx.PostTokenBalances {
		if b.Owner == owner {
			deltas[b.Mint] += b.Amount
		}
	}
	for _, b := range tx.PreTokenBalances {
		if b.Owner == owner {
			deltas[b.Mint] -= b.Amount
		}
	}
	return deltas
}
