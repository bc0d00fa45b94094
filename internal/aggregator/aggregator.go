// Package aggregator merges market pairs from several sources into one ranked
// view of canonical tokens.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/observability"
	"meme-coin-sniper/internal/sources"
)

// ErrUnknownView is returned for a view selector the aggregator does not serve.
var ErrUnknownView = errors.New("unknown view")

// Defaults.
const (
	DefaultPushTimeout = 10 * time.Second
	DefaultNewMaxAge   = 120 * time.Minute
	DefaultWidenFactor = 2
	DefaultFetchLimit  = 100
	DefaultFreeLimit   = 20
	DefaultPaidLimit   = 100
)

// DefaultVenues is the default AMM allow-list.
var DefaultVenues = []string{"raydium", "orca", "meteora", "pump.fun", "pumpswap"}

// Config configures an Aggregator. Source order is merge precedence.
type Config struct {
	// Push is consulted first for the new view. Optional.
	Push        sources.Source
	PushTimeout time.Duration

	// Primary poll sources, in precedence order.
	Primary []sources.Source
	// Secondary low-liquidity listing sources, merged after the primaries.
	Secondary []sources.Source

	// Venues is the allow-list; empty allows every venue.
	Venues []string

	NewMaxAge   time.Duration
	WidenFactor int
	// FetchLimit is passed to each source call.
	FetchLimit int
	// TierLimits caps the result size per entitlement tier.
	TierLimits map[domain.Tier]int

	// NewRand returns the shuffle source for one call. Default seeds from
	// the wall clock.
	NewRand func() *rand.Rand
	Now     func() time.Time
	Logger  zerolog.Logger
}

// Request selects one aggregation.
type Request struct {
	View         domain.View
	MaxAge       time.Duration // 0 uses the view default
	MinLiquidity float64
	Limit        int // 0 uses the tier ceiling
	Tier         domain.Tier
}

// Aggregator implements the multi-source token view.
type Aggregator struct {
	cfg    Config
	venues map[string]bool
	logger zerolog.Logger
}

// New creates an Aggregator.
func New(cfg Config) *Aggregator {
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = DefaultPushTimeout
	}
	if cfg.NewMaxAge <= 0 {
		cfg.NewMaxAge = DefaultNewMaxAge
	}
	if cfg.WidenFactor <= 1 {
		cfg.WidenFactor = DefaultWidenFactor
	}
	if cfg.FetchLimit <= 0 {
		cfg.FetchLimit = DefaultFetchLimit
	}
	if cfg.TierLimits == nil {
		cfg.TierLimits = map[domain.Tier]int{domain.TierFree: DefaultFreeLimit, domain.TierPaid: DefaultPaidLimit}
	}
	if cfg.NewRand == nil {
		cfg.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	venues := make(map[string]bool, len(cfg.Venues))
	for _, v := range cfg.Venues {
		venues[domain.NormalizeVenue(v)] = true
	}

	return &Aggregator{
		cfg:    cfg,
		venues: venues,
		logger: cfg.Logger.With().Str("component", "aggregator").Logger(),
	}
}

// Aggregate returns the ranked canonical tokens for req. Source failures only
// reduce the candidate set; an empty result is not an error.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) ([]domain.CanonicalToken, error) {
	if !req.View.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownView, req.View)
	}
	start := time.Now()

	tokens := a.fetch(ctx, req.View)
	fetched := len(tokens)

	tokens = a.filter(tokens, req)
	a.sortView(tokens, req.View)
	if req.View == domain.ViewNew {
		Shuffle(tokens, a.cfg.NewRand())
	}
	tokens = truncate(tokens, a.limit(req))

	observability.RecordAggregated(string(req.View), len(tokens))
	a.logger.Info().
		Str("view", string(req.View)).
		Int("fetched", fetched).
		Int("returned", len(tokens)).
		Dur("duration", time.Since(start)).
		Msg("aggregation complete")

	return tokens, nil
}

// Lookup merges every primary source's answer for one address.
func (a *Aggregator) Lookup(ctx context.Context, address string) (domain.CanonicalToken, bool) {
	results := a.pollAll(ctx, a.cfg.Primary, func(ctx context.Context, s sources.Source) []domain.MarketPair {
		return s.Lookup(ctx, address)
	})
	for _, t := range Merge(results...) {
		if t.Key == address {
			return t, true
		}
	}
	return domain.CanonicalToken{}, false
}

func (a *Aggregator) fetch(ctx context.Context, view domain.View) []domain.CanonicalToken {
	var secondary [][]domain.MarketPair
	g, gctx := errgroup.WithContext(ctx)
	if view == domain.ViewNew && len(a.cfg.Secondary) > 0 {
		g.Go(func() error {
			secondary = a.pollAll(gctx, a.cfg.Secondary, func(ctx context.Context, s sources.Source) []domain.MarketPair {
				return s.ListNew(ctx, a.cfg.FetchLimit)
			})
			return nil
		})
	}

	var primary [][]domain.MarketPair
	switch view {
	case domain.ViewNew:
		if pushed := a.push(ctx); len(pushed) > 0 {
			primary = [][]domain.MarketPair{pushed}
		} else {
			primary = a.pollAll(ctx, a.cfg.Primary, func(ctx context.Context, s sources.Source) []domain.MarketPair {
				return s.ListNew(ctx, a.cfg.FetchLimit)
			})
		}
	default:
		primary = a.pollAll(ctx, a.cfg.Primary, func(ctx context.Context, s sources.Source) []domain.MarketPair {
			return s.ListTrending(ctx, a.cfg.FetchLimit)
		})
	}

	_ = g.Wait()
	return MergeSecondary(Merge(a.eligible(primary)...), a.eligible(secondary)...)
}

// eligible drops pairs off the chain or outside the venue allow-list. Runs
// per pair before merging so one adapter's venue cannot hide another's.
func (a *Aggregator) eligible(batches [][]domain.MarketPair) [][]domain.MarketPair {
	out := make([][]domain.MarketPair, len(batches))
	for i, batch := range batches {
		keep := make([]domain.MarketPair, 0, len(batch))
		for _, p := range batch {
			if p.Chain != "" && !strings.EqualFold(p.Chain, domain.ChainSolana) {
				continue
			}
			if len(a.venues) > 0 && !a.venues[domain.NormalizeVenue(p.Venue)] {
				continue
			}
			keep = append(keep, p)
		}
		out[i] = keep
	}
	return out
}

func (a *Aggregator) push(ctx context.Context) []domain.MarketPair {
	if a.cfg.Push == nil {
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, a.cfg.PushTimeout)
	defer cancel()

	pairs := a.cfg.Push.ListNew(pctx, a.cfg.FetchLimit)
	if len(pairs) == 0 {
		observability.RecordPushFallback()
		a.logger.Info().Str("source", a.cfg.Push.Name()).Msg("push feed empty, falling back to polling")
	}
	return pairs
}

// pollAll calls every source concurrently and returns results in source order.
func (a *Aggregator) pollAll(ctx context.Context, srcs []sources.Source, call func(context.Context, sources.Source) []domain.MarketPair) [][]domain.MarketPair {
	results := make([][]domain.MarketPair, len(srcs))
	var g errgroup.Group
	for i, s := range srcs {
		g.Go(func() error {
			results[i] = call(ctx, s)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// filter applies liquidity and age rules to merged tokens. The new view widens its age
// window and finally drops it rather than return nothing for timing alone.
func (a *Aggregator) filter(tokens []domain.CanonicalToken, req Request) []domain.CanonicalToken {
	eligible := make([]domain.CanonicalToken, 0, len(tokens))
	for i := range tokens {
		t := &tokens[i]
		if req.MinLiquidity > 0 && t.Liquidity() < req.MinLiquidity {
			continue
		}
		eligible = append(eligible, *t)
	}

	now := a.cfg.Now()
	maxAge := req.MaxAge
	if req.View != domain.ViewNew {
		if maxAge <= 0 {
			return eligible
		}
		return withinAge(eligible, now, maxAge)
	}

	if maxAge <= 0 {
		maxAge = a.cfg.NewMaxAge
	}
	if strict := withinAge(eligible, now, maxAge); len(strict) > 0 {
		return strict
	}
	widened := maxAge * time.Duration(a.cfg.WidenFactor)
	if wide := withinAge(eligible, now, widened); len(wide) > 0 {
		a.logger.Debug().Dur("max_age", widened).Msg("strict age window empty, widened")
		return wide
	}
	if len(eligible) > 0 {
		a.logger.Debug().Msg("age windows empty, returning unfiltered eligible set")
	}
	return eligible
}

func withinAge(tokens []domain.CanonicalToken, now time.Time, maxAge time.Duration) []domain.CanonicalToken {
	limit := maxAge.Minutes()
	var out []domain.CanonicalToken
	for i := range tokens {
		age, ok := tokens[i].AgeMinutes(now)
		if ok && age <= limit {
			out = append(out, tokens[i])
		}
	}
	return out
}

func (a *Aggregator) sortView(tokens []domain.CanonicalToken, view domain.View) {
	switch view {
	case domain.ViewTrending:
		sort.SliceStable(tokens, func(i, j int) bool {
			return trendingMetric(&tokens[i].MarketPair) > trendingMetric(&tokens[j].MarketPair)
		})
	case domain.ViewSurge:
		sort.SliceStable(tokens, func(i, j int) bool {
			return surgeMetric(&tokens[i].MarketPair) > surgeMetric(&tokens[j].MarketPair)
		})
	default:
		sort.SliceStable(tokens, func(i, j int) bool {
			return createdAt(&tokens[i].MarketPair) > createdAt(&tokens[j].MarketPair)
		})
	}
}

func createdAt(p *domain.MarketPair) int64 {
	if p.CreatedAt == nil {
		return 0
	}
	return *p.CreatedAt
}

// trendingMetric weights 24h volume by positive 1h momentum.
func trendingMetric(p *domain.MarketPair) float64 {
	vol := value(p.Volume.H24)
	if vol == 0 {
		vol = value(p.Volume.H6)
	}
	momentum := 1 + value(p.PriceChange.H1)/100
	if momentum < 0 {
		momentum = 0
	}
	return vol * momentum
}

// surgeMetric is raw 1h volume.
func surgeMetric(p *domain.MarketPair) float64 {
	return value(p.Volume.H1)
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (a *Aggregator) limit(req Request) int {
	ceiling, ok := a.cfg.TierLimits[req.Tier]
	if !ok {
		ceiling = a.cfg.TierLimits[domain.TierFree]
	}
	if req.Limit <= 0 || (ceiling > 0 && req.Limit > ceiling) {
		return ceiling
	}
	return req.Limit
}

// Shuffle permutes tokens in place (Fisher-Yates). Presentation only.
func Shuffle(tokens []domain.CanonicalToken, r *rand.Rand) {
	for i := len(tokens) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		tokens[i], tokens[j] = tokens[j], tokens[i]
	}
}

func truncate(tokens []domain.CanonicalToken, n int) []domain.CanonicalToken {
	if n > 0 && len(tokens) > n {
		return tokens[:n]
	}
	return tokens
}
