// Package solana is a minimal Solana JSON-RPC client for wallet activity.
package solana

import "context"

// RPCClient defines the Solana RPC calls used by the wallet activity source.
type RPCClient interface {
	// GetSignaturesForAddress returns recent signatures involving address,
	// newest first.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetTransaction returns a jsonParsed transaction, or nil when unknown.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)
}

// Transaction is the subset of a parsed transaction needed to detect buys.
type Transaction struct {
	Slot              int64
	Signature         string
	BlockTime         int64 // Unix seconds
	Failed            bool
	LogMessages       []string
	AccountKeys       []string
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// TokenBalance is one SPL token account balance snapshot.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string
	Amount       float64 // UI amount
}
