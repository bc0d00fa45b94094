// Package stub provides an in-memory solana.RPCClient for tests.
package stub

import (
	"context"
	"sync"

	"meme-coin-sniper/internal/solana"
)

// RPCClient serves canned signatures and transactions.
type RPCClient struct {
	Transactions map[string]*solana.Transaction
	Signatures   map[string][]solana.SignatureInfo
	// Errors fail GetTransaction for the given signatures.
	Errors map[string]error
	// SignaturesErr fails every GetSignaturesForAddress call when set.
	SignaturesErr error

	mu      sync.Mutex
	fetched []string
}

var _ solana.RPCClient = (*RPCClient)(nil)

// NewRPCClient creates an empty stub.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions: make(map[string]*solana.Transaction),
		Signatures:   make(map[string][]solana.SignatureInfo),
		Errors:       make(map[string]error),
	}
}

// GetTransaction returns the stored transaction, nil when unknown.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	c.fetched = append(c.fetched, signature)
	c.mu.Unlock()

	if err := c.Errors[signature]; err != nil {
		return nil, err
	}
	return c.Transactions[signature], nil
}

// GetSignaturesForAddress returns the stored signatures, honoring opts.Limit.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	if c.SignaturesErr != nil {
		return nil, c.SignaturesErr
	}
	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}

// AddTransaction stores tx and appends its signature to address. Callers add
// transactions newest first, as the node returns them.
func (c *RPCClient) AddTransaction(address string, tx *solana.Transaction) {
	c.Transactions[tx.Signature] = tx
	info := solana.SignatureInfo{Signature: tx.Signature, Failed: tx.Failed}
	if tx.BlockTime != 0 {
		bt := tx.BlockTime
		info.BlockTime = &bt
	}
	c.Signatures[address] = append(c.Signatures[address], info)
}

// FailTransaction registers a signature whose fetch returns err.
func (c *RPCClient) FailTransaction(address, signature string, err error) {
	c.Errors[signature] = err
	c.Signatures[address] = append(c.Signatures[address], solana.SignatureInfo{Signature: signature})
}

// Fetched returns the signatures passed to GetTransaction, in call order.
func (c *RPCClient) Fetched() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.fetched...)
}
