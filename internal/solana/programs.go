package solana

import "strings"

// WrappedSOLMint is the wSOL mint; balance changes on it are the quote leg.
const WrappedSOLMint = "So11111111111111111111111111111111111111112"

// Stablecoin mints treated as quote currency.
const (
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// SwapPrograms maps swap-capable program ids to a venue label.
var SwapPrograms = map[string]string{
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "raydium",
	"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK": "raydium",
	"CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C": "raydium",
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  "orca",
	"LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo":  "meteora",
	"Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB": "meteora",
	"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  "pump.fun",
	"pAMMBay6oceH9fJKBRHGP5D4bD4sWpmSwMn52FMfXEA":  "pumpswap",
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":  "jupiter",
}

// IsQuoteMint reports whether mint is SOL or a stablecoin.
func IsQuoteMint(mint string) bool {
	return mint == WrappedSOLMint || mint == USDCMint || mint == USDTMint
}

// InvokedSwapProgram returns the venue of the first known swap program the
// logs show being invoked.
func InvokedSwapProgram(logs []string) (string, bool) {
	for _, line := range logs {
		// "Program <id> invoke [n]"
		if !strings.HasPrefix(line, "Program ") || !strings.Contains(line, " invoke [") {
			continue
		}
		id := strings.TrimPrefix(line, "Program ")
		if i := strings.IndexByte(id, ' '); i > 0 {
			id = id[:i]
		}
		if venue, ok := SwapPrograms[id]; ok {
			return venue, true
		}
	}
	return "", false
}
