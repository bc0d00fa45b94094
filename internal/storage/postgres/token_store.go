package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

const tokenColumns = `
	address, symbol, name, venue, sources, liquidity_usd, price_usd,
	score_total, vetoed, breakdown, security_score, security_class, flags,
	website, twitter, telegram, discovered_at
`

// Upsert inserts or replaces the token keyed by address.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.ScoredToken) error {
	if t == nil || t.Token.Key == "" {
		return storage.ErrInvalidInput
	}

	breakdown, err := json.Marshal(t.Score)
	if err != nil {
		return fmt.Errorf("marshal breakdown: %w", err)
	}

	var secScore *int
	var secClass *string
	if t.Security != nil {
		secScore = &t.Security.Score
		class := string(t.Security.Classification)
		secClass = &class
	}
	flags := t.Flags()
	if flags == nil {
		flags = []string{}
	}
	srcs := t.Token.Sources
	if srcs == nil {
		srcs = []string{}
	}

	query := `
		INSERT INTO scored_tokens (` + tokenColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (address) DO UPDATE SET
			symbol         = EXCLUDED.symbol,
			name           = EXCLUDED.name,
			venue          = EXCLUDED.venue,
			sources        = EXCLUDED.sources,
			liquidity_usd  = EXCLUDED.liquidity_usd,
			price_usd      = EXCLUDED.price_usd,
			score_total    = EXCLUDED.score_total,
			vetoed         = EXCLUDED.vetoed,
			breakdown      = EXCLUDED.breakdown,
			security_score = EXCLUDED.security_score,
			security_class = EXCLUDED.security_class,
			flags          = EXCLUDED.flags,
			website        = EXCLUDED.website,
			twitter        = EXCLUDED.twitter,
			telegram       = EXCLUDED.telegram,
			discovered_at  = LEAST(scored_tokens.discovered_at, EXCLUDED.discovered_at),
			updated_at     = NOW()
	`

	p := &t.Token.MarketPair
	_, err = s.pool.Exec(ctx, query,
		t.Token.Key,
		p.BaseSymbol,
		p.BaseName,
		p.Venue,
		srcs,
		p.LiquidityUSD,
		p.PriceUSD,
		t.Score.Total,
		t.Score.Vetoed,
		breakdown,
		secScore,
		secClass,
		flags,
		p.Socials.Website,
		p.Socials.Twitter,
		p.Socials.Telegram,
		t.DiscoveredAt,
	)
	if err != nil {
		return fmt.Errorf("upsert scored token: %w", err)
	}
	return nil
}

// TopByScore returns up to n tokens by score DESC, address ASC.
func (s *TokenStore) TopByScore(ctx context.Context, n int) ([]domain.ScoredToken, error) {
	if n <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `SELECT ` + tokenColumns + ` FROM scored_tokens ORDER BY score_total DESC, address ASC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query top tokens: %w", err)
	}
	defer rows.Close()

	var result []domain.ScoredToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan scored token: %w", err)
		}
		result = append(result, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top tokens: %w", err)
	}
	return result, nil
}

// Get returns one token. Returns ErrNotFound if not exists.
func (s *TokenStore) Get(ctx context.Context, address string) (*domain.ScoredToken, error) {
	query := `SELECT ` + tokenColumns + ` FROM scored_tokens WHERE address = $1`

	t, err := scanToken(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get scored token: %w", err)
	}
	return t, nil
}

func scanToken(row pgx.Row) (*domain.ScoredToken, error) {
	var (
		t         domain.ScoredToken
		breakdown []byte
		secScore  *int
		secClass  *string
		flags     []string
	)
	p := &t.Token.MarketPair

	err := row.Scan(
		&t.Token.Key,
		&p.BaseSymbol,
		&p.BaseName,
		&p.Venue,
		&t.Token.Sources,
		&p.LiquidityUSD,
		&p.PriceUSD,
		&t.Score.Total,
		&t.Score.Vetoed,
		&breakdown,
		&secScore,
		&secClass,
		&flags,
		&p.Socials.Website,
		&p.Socials.Twitter,
		&p.Socials.Telegram,
		&t.DiscoveredAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(breakdown, &t.Score); err != nil {
		return nil, fmt.Errorf("unmarshal breakdown: %w", err)
	}
	p.Chain = domain.ChainSolana
	p.BaseAddress = t.Token.Key
	if secScore != nil {
		t.Security = &domain.SecurityVerdict{
			Address:  t.Token.Key,
			Score:    *secScore,
			Flags:    flags,
			Honeypot: containsFlag(flags, domain.FlagHoneypot),
		}
		if secClass != nil {
			t.Security.Classification = domain.Classification(*secClass)
		}
	}
	return &t, nil
}

func containsFlag(flags []string, f string) bool {
	for _, x := range flags {
		if x == f {
			return true
		}
	}
	return false
}
