// Package pipeline runs the token scan: aggregate, gate, social, score,
// rank, then hand the result to storage and notification collaborators.
package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"meme-coin-sniper/internal/aggregator"
	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/notify"
	"meme-coin-sniper/internal/observability"
	"meme-coin-sniper/internal/scoring"
	"meme-coin-sniper/internal/social"
	"meme-coin-sniper/internal/storage"
)

// PipelineName labels scan cycles in logs and metrics.
const PipelineName = "scan"

// Defaults.
const (
	DefaultGateWorkers    = 4
	DefaultPostLimit      = 100
	DefaultNotifyMinScore = 70
)

// Aggregator produces the candidate list for a request.
type Aggregator interface {
	Aggregate(ctx context.Context, req aggregator.Request) ([]domain.CanonicalToken, error)
}

// Gate assesses token security. Reset clears per-cycle state.
type Gate interface {
	Assess(ctx context.Context, address string) (*domain.SecurityVerdict, bool)
	Reset()
}

// ScannerConfig wires a Scanner.
type ScannerConfig struct {
	Aggregator Aggregator
	Scorer     *scoring.Scorer
	Gate       Gate              // optional
	Posts      social.PostSource // optional
	Analyzer   *social.Analyzer  // required when Posts is set
	Tokens     storage.TokenStore
	History    storage.HistoryStore
	Notifier   notify.Notifier

	GateWorkers    int
	PostLimit      int
	NotifyMinScore int

	Now    func() time.Time
	Logger zerolog.Logger
}

// Scanner runs scan cycles.
type Scanner struct {
	cfg    ScannerConfig
	logger zerolog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(cfg ScannerConfig) *Scanner {
	if cfg.GateWorkers <= 0 {
		cfg.GateWorkers = DefaultGateWorkers
	}
	if cfg.PostLimit <= 0 {
		cfg.PostLimit = DefaultPostLimit
	}
	if cfg.NotifyMinScore <= 0 {
		cfg.NotifyMinScore = DefaultNotifyMinScore
	}
	if cfg.Scorer == nil {
		cfg.Scorer = scoring.New(scoring.DefaultConfig())
	}
	if cfg.Analyzer == nil {
		cfg.Analyzer = social.NewAnalyzer(nil)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Scanner{cfg: cfg, logger: cfg.Logger.With().Str("component", "scanner").Logger()}
}

// Result is one scan cycle.
type Result struct {
	CycleID    string
	Request    aggregator.Request
	Tokens     []domain.ScoredToken
	StartedAt  time.Time
	FinishedAt time.Time
}

// Scan runs one cycle. The only error is an invalid request; every
// collaborator failure degrades the result instead.
func (s *Scanner) Scan(ctx context.Context, req aggregator.Request) (Result, error) {
	res := Result{CycleID: uuid.NewString(), Request: req, StartedAt: s.cfg.Now()}
	logger := s.logger.With().Str("cycle_id", res.CycleID).Str("view", string(req.View)).Logger()

	candidates, err := s.cfg.Aggregator.Aggregate(ctx, req)
	if err != nil {
		observability.RecordCycle(PipelineName, "failed", s.cfg.Now().Sub(res.StartedAt).Seconds(), 0)
		return res, err
	}

	verdicts := s.assess(ctx, candidates)
	buzz := s.buzz(ctx, candidates, logger)

	now := s.cfg.Now()
	scored := make([]domain.ScoredToken, len(candidates))
	for i := range candidates {
		t := domain.ScoredToken{
			Token:        candidates[i],
			Security:     verdicts[i],
			Buzz:         buzz[i],
			DiscoveredAt: now.UnixMilli(),
		}
		t.Score = s.cfg.Scorer.Score(scoring.Signals{
			Pair:     &t.Token.MarketPair,
			Security: t.Security,
			Buzz:     t.Buzz,
			Now:      now,
		})
		observability.RecordScored(t.Score.Vetoed, t.Security == nil)
		scored[i] = t
	}

	// The new view keeps its shuffled presentation order.
	if req.View != domain.ViewNew {
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].Score.Total > scored[j].Score.Total
		})
	}
	res.Tokens = scored

	s.persist(ctx, res, logger)

	res.FinishedAt = s.cfg.Now()
	elapsed := res.FinishedAt.Sub(res.StartedAt)
	observability.RecordCycle(PipelineName, "success", elapsed.Seconds(), res.FinishedAt.Unix())
	logger.Info().
		Int("candidates", len(candidates)).
		Int("scored", len(scored)).
		Dur("elapsed", elapsed).
		Msg("scan cycle finished")
	return res, nil
}

// assess runs the gate with bounded concurrency. A nil entry is unavailable.
func (s *Scanner) assess(ctx context.Context, tokens []domain.CanonicalToken) []*domain.SecurityVerdict {
	out := make([]*domain.SecurityVerdict, len(tokens))
	if s.cfg.Gate == nil {
		return out
	}
	s.cfg.Gate.Reset()

	var g errgroup.Group
	g.SetLimit(s.cfg.GateWorkers)
	for i := range tokens {
		addr := tokens[i].BaseAddress
		g.Go(func() error {
			if v, ok := s.cfg.Gate.Assess(ctx, addr); ok {
				out[i] = v
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// buzz matches mention clusters to tokens by address, then by symbol.
// A nil entry means no social data for that token.
func (s *Scanner) buzz(ctx context.Context, tokens []domain.CanonicalToken, logger zerolog.Logger) []*domain.BuzzSignal {
	out := make([]*domain.BuzzSignal, len(tokens))
	if s.cfg.Posts == nil {
		return out
	}
	posts, err := s.cfg.Posts.Recent(ctx, s.cfg.PostLimit)
	if err != nil {
		logger.Warn().Err(err).Str("source", s.cfg.Posts.Name()).Msg("social posts unavailable")
		return out
	}
	clusters := social.ExtractMentions(posts)
	if len(clusters) == 0 {
		return out
	}

	for i := range tokens {
		c, ok := clusters[tokens[i].BaseAddress]
		if !ok && tokens[i].BaseSymbol != "" {
			c, ok = clusters[strings.ToUpper(tokens[i].BaseSymbol)]
		}
		if !ok {
			continue
		}
		sig := s.cfg.Analyzer.Buzz(c)
		out[i] = &sig
	}
	return out
}

// persist writes and notifies best-effort.
func (s *Scanner) persist(ctx context.Context, res Result, logger zerolog.Logger) {
	if len(res.Tokens) == 0 {
		return
	}

	if s.cfg.Tokens != nil {
		failed := 0
		for i := range res.Tokens {
			if err := s.cfg.Tokens.Upsert(ctx, &res.Tokens[i]); err != nil {
				failed++
				observability.RecordStoreError("tokens", "upsert")
			}
		}
		if failed > 0 {
			logger.Warn().Int("failed", failed).Msg("token upserts failed")
		}
	}

	if s.cfg.History != nil {
		if err := s.cfg.History.InsertScores(ctx, res.CycleID, res.Tokens); err != nil {
			logger.Warn().Err(err).Msg("score history write failed")
			observability.RecordStoreError("history", "insert_scores")
		}
	}

	if s.cfg.Notifier != nil {
		var hot []domain.ScoredToken
		for _, t := range res.Tokens {
			if !t.Score.Vetoed && t.Score.Total >= s.cfg.NotifyMinScore {
				hot = append(hot, t)
			}
		}
		if len(hot) > 0 {
			if err := s.cfg.Notifier.NotifyTokens(ctx, hot); err != nil {
				logger.Warn().Err(err).Int("tokens", len(hot)).Msg("token notification failed")
				observability.RecordNotifyError("tokens")
			}
		}
	}
}
