package wallets

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/solana"
)

// RPCSource derives buys from raw chain data: a positive token balance change
// of the wallet on a non-quote mint in a transaction invoking a known AMM or
// the pump.fun bonding curve.
type RPCSource struct {
	client solana.RPCClient
	logger zerolog.Logger
}

// NewRPCSource creates an RPC-backed ActivitySource.
func NewRPCSource(client solana.RPCClient, logger zerolog.Logger) *RPCSource {
	return &RPCSource{client: client, logger: logger.With().Str("component", "wallet_rpc").Logger()}
}

var _ ActivitySource = (*RPCSource)(nil)

// RecentBuys inspects the wallet's last limit signatures, newest first, and
// stops at the first signature older than since.
func (s *RPCSource) RecentBuys(ctx context.Context, wallet string, limit int, since time.Time) ([]domain.WalletBuyEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	sigs, err := s.client.GetSignaturesForAddress(ctx, wallet, &solana.SignaturesOpts{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("get signatures: %w", err)
	}

	var out []domain.WalletBuyEvent
	for _, sig := range sigs {
		if !since.IsZero() && sig.BlockTime != nil && *sig.BlockTime < since.Unix() {
			break
		}
		if sig.Failed {
			continue
		}
		tx, err := s.client.GetTransaction(ctx, sig.Signature)
		if err != nil {
			if ctx.Err() != nil {
				return out, nil
			}
			// One unreadable transaction does not void the wallet.
			s.logger.Debug().Err(err).Str("signature", sig.Signature).Msg("skipping transaction")
			continue
		}
		if tx == nil || tx.Failed {
			continue
		}
		if _, ok := solana.InvokedSwapProgram(tx.LogMessages); !ok {
			continue
		}

		ts := tx.BlockTime
		if ts == 0 && sig.BlockTime != nil {
			ts = *sig.BlockTime
		}
		for _, mint := range boughtMints(tx, wallet) {
			out = append(out, domain.WalletBuyEvent{
				Wallet:    wallet,
				Mint:      mint,
				Timestamp: ts * 1000,
				Signature: sig.Signature,
			})
		}
	}
	return out, nil
}

// boughtMints returns, sorted, the non-quote mints whose balance the wallet
// increased in tx.
func boughtMints(tx *solana.Transaction, wallet string) []string {
	var out []string
	for mint, d := range tx.OwnerDeltas(wallet) {
		if d > 0 && !solana.IsQuoteMint(mint) {
			out = append(out, mint)
		}
	}
	sort.Strings(out)
	return out
}
