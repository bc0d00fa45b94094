package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meme-coin-sniper/internal/aggregator"
	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/notify"
	"meme-coin-sniper/internal/storage/memory"
)

const (
	goodMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	midMint  = "MidMint111"
	badMint  = "BadMint111"
)

var now = time.UnixMilli(1704067200000)

type fakeAggregator struct {
	tokens []domain.CanonicalToken
	err    error
}

func (f *fakeAggregator) Aggregate(context.Context, aggregator.Request) ([]domain.CanonicalToken, error) {
	return f.tokens, f.err
}

type fakeGate struct {
	mu       sync.Mutex
	verdicts map[string]*domain.SecurityVerdict
	resets   int
}

func (g *fakeGate) Assess(_ context.Context, addr string) (*domain.SecurityVerdict, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	v, ok := g.verdicts[addr]
	return v, ok
}

func (g *fakeGate) Reset() { g.resets++ }

type fakePosts struct {
	posts []domain.SocialPost
	err   error
}

func (f *fakePosts) Name() string { return "fake" }

func (f *fakePosts) Recent(context.Context, int) ([]domain.SocialPost, error) {
	return f.posts, f.err
}

type captureNotifier struct {
	notify.Nop
	tokens []domain.ScoredToken
}

func (c *captureNotifier) NotifyTokens(_ context.Context, ts []domain.ScoredToken) error {
	c.tokens = append(c.tokens, ts...)
	return nil
}

func token(addr, symbol string, liq float64, ageMin int, socials domain.Socials) domain.CanonicalToken {
	p := domain.MarketPair{
		Chain:        domain.ChainSolana,
		Venue:        "raydium",
		BaseAddress:  addr,
		BaseSymbol:   symbol,
		LiquidityUSD: domain.Float(liq),
		Socials:      socials,
	}
	if ageMin > 0 {
		p.CreatedAt = domain.Int64(now.Add(-time.Duration(ageMin) * time.Minute).UnixMilli())
	}
	return domain.CanonicalToken{Key: addr, MarketPair: p}
}

func fixture() ([]domain.CanonicalToken, *fakeGate, *fakePosts) {
	full := domain.Socials{Website: "https://a.io", Twitter: "https://x.com/a", Telegram: "https://t.me/a"}
	tokens := []domain.CanonicalToken{
		token(midMint, "MID", 6000, 0, domain.Socials{}),
		token(badMint, "BAD", 500000, 60, full),
		token(goodMint, "GOOD", 150000, 60, full),
	}
	gate := &fakeGate{verdicts: map[string]*domain.SecurityVerdict{
		goodMint: {Address: goodMint, Score: 100, Classification: domain.ClassPass},
		badMint:  {Address: badMint, Honeypot: true, Flags: []string{domain.FlagHoneypot}, Classification: domain.ClassReject},
	}}
	posts := &fakePosts{posts: []domain.SocialPost{
		{ID: "1", Author: "alice", Text: "aping " + goodMint, Likes: 50},
		{ID: "2", Author: "bob", Text: "look at " + goodMint + " chart", Likes: 20},
		{ID: "3", Author: "carol", Text: goodMint + " is moving", Reshares: 5},
		{ID: "4", Author: "dave", Text: "$mid looks cheap"},
	}}
	return tokens, gate, posts
}

func newScanner(t *testing.T, tokens []domain.CanonicalToken, gate Gate, posts *fakePosts) (*Scanner, *memory.TokenStore, *memory.HistoryStore, *captureNotifier) {
	t.Helper()
	store := memory.NewTokenStore()
	history := memory.NewHistoryStore()
	n := &captureNotifier{}
	cfg := ScannerConfig{
		Aggregator:     &fakeAggregator{tokens: tokens},
		Gate:           gate,
		Tokens:         store,
		History:        history,
		Notifier:       n,
		NotifyMinScore: 60,
		Now:            func() time.Time { return now },
		Logger:         zerolog.Nop(),
	}
	if posts != nil {
		cfg.Posts = posts
	}
	return NewScanner(cfg), store, history, n
}

func TestScanner_ScoresRanksAndPersists(t *testing.T) {
	tokens, gate, posts := fixture()
	s, store, history, n := newScanner(t, tokens, gate, posts)

	res, err := s.Scan(context.Background(), aggregator.Request{View: domain.ViewTrending})
	require.NoError(t, err)
	require.Len(t, res.Tokens, 3)
	assert.Equal(t, 1, gate.resets)

	assert.Equal(t, goodMint, res.Tokens[0].Token.Key)
	assert.Equal(t, midMint, res.Tokens[1].Token.Key)
	assert.Equal(t, badMint, res.Tokens[2].Token.Key)

	good := res.Tokens[0]
	require.NotNil(t, good.Buzz, "matched by address")
	assert.Equal(t, 3, good.Buzz.UniqueAuthors)
	assert.True(t, good.Buzz.AlertWorthy)
	assert.Greater(t, good.Score.Components.SocialBuzz, 0.0)

	mid := res.Tokens[1]
	require.NotNil(t, mid.Buzz, "matched by symbol")
	assert.False(t, mid.Buzz.AlertWorthy)
	assert.Nil(t, mid.Security, "unavailable verdict stays nil")
	assert.Greater(t, mid.Score.Components.Security, 0.0, "neutral security substituted")

	bad := res.Tokens[2]
	assert.Zero(t, bad.Score.Total)
	assert.True(t, bad.Score.Vetoed)

	top, err := store.TopByScore(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, top, 3)
	assert.Len(t, history.Scores(), 3)
	assert.Equal(t, res.CycleID, history.Scores()[0].CycleID)

	require.Len(t, n.tokens, 1)
	assert.Equal(t, goodMint, n.tokens[0].Token.Key)
}

func TestScanner_NewViewKeepsPresentationOrder(t *testing.T) {
	tokens, gate, _ := fixture()
	s, _, _, _ := newScanner(t, tokens, gate, nil)

	res, err := s.Scan(context.Background(), aggregator.Request{View: domain.ViewNew})
	require.NoError(t, err)
	for i := range tokens {
		assert.Equal(t, tokens[i].Key, res.Tokens[i].Token.Key)
	}
}

func TestScanner_DegradesWithoutCollaborators(t *testing.T) {
	tokens, _, _ := fixture()
	s := NewScanner(ScannerConfig{
		Aggregator: &fakeAggregator{tokens: tokens},
		Posts:      &fakePosts{err: errors.New("rate limited")},
		Now:        func() time.Time { return now },
		Logger:     zerolog.Nop(),
	})

	res, err := s.Scan(context.Background(), aggregator.Request{View: domain.ViewSurge})
	require.NoError(t, err)
	require.Len(t, res.Tokens, 3)
	for _, tok := range res.Tokens {
		assert.Nil(t, tok.Security)
		assert.Nil(t, tok.Buzz)
		assert.False(t, tok.Score.Vetoed, "no gate means no veto")
	}
}

func TestScanner_EmptyAndErrors(t *testing.T) {
	s, store, _, _ := newScanner(t, nil, nil, nil)
	res, err := s.Scan(context.Background(), aggregator.Request{View: domain.ViewNew})
	require.NoError(t, err)
	assert.Empty(t, res.Tokens)
	_, err = store.TopByScore(context.Background(), 1)
	require.NoError(t, err)

	bad := NewScanner(ScannerConfig{Aggregator: &fakeAggregator{err: aggregator.ErrUnknownView}, Logger: zerolog.Nop()})
	_, err = bad.Scan(context.Background(), aggregator.Request{View: "nope"})
	assert.ErrorIs(t, err, aggregator.ErrUnknownView)
}
