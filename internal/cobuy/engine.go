// Package cobuy detects tokens bought by a quorum of tracked wallets within
// a lookback window.
package cobuy

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/idhash"
	"meme-coin-sniper/internal/observability"
	"meme-coin-sniper/internal/sources"
)

// Defaults.
const (
	DefaultEventsPerWallet = 50
	DefaultWalletDelay     = 200 * time.Millisecond
	PlaceholderSymbol      = "UNKNOWN"
)

// Collector returns the recent buys of one wallet, empty on any failure.
type Collector interface {
	CollectRecentBuys(ctx context.Context, wallet string, maxCount int, maxAge time.Duration) []domain.WalletBuyEvent
}

// MarketLookup resolves display data for a mint.
type MarketLookup interface {
	Lookup(ctx context.Context, address string) (domain.CanonicalToken, bool)
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	Collector Collector
	Lookup    MarketLookup // optional
	// EventsPerWallet bounds each collection call.
	EventsPerWallet int
	// WalletDelay spaces collection and per-mint lookup calls. Shared by all
	// workers.
	WalletDelay time.Duration
	// Workers > 1 collects wallets concurrently.
	Workers int
	Logger  zerolog.Logger
}

// Engine computes co-buy alerts. It holds no state between calls.
type Engine struct {
	cfg    EngineConfig
	logger zerolog.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.EventsPerWallet <= 0 {
		cfg.EventsPerWallet = DefaultEventsPerWallet
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:    cfg,
		logger: cfg.Logger.With().Str("component", "cobuy").Logger(),
	}
}

// buyerSet accumulates distinct buyers of one mint.
type buyerSet struct {
	mint    string
	firstAt map[string]int64
	rank    map[string]int // position of the wallet in the tracked list
	last    int64
}

// ComputeAlerts collects buys for every wallet and returns the mints bought
// by at least rules.MinBuyers distinct wallets, ranked and capped. No wallets
// or no collectable activity yield an empty list.
func (e *Engine) ComputeAlerts(ctx context.Context, wallets []domain.TrackedWallet, rules domain.AlertRules) []domain.CoBuyAlert {
	rules = rules.Normalized()
	addrs := distinctAddresses(wallets)
	if len(addrs) == 0 {
		return nil
	}

	maxAge := time.Duration(rules.MaxLookbackHours) * time.Hour
	pacer := sources.NewPacer(e.cfg.WalletDelay)
	events := e.collect(ctx, pacer, addrs, maxAge)

	sets := make(map[string]*buyerSet)
	for i, addr := range addrs {
		for _, ev := range events[i] {
			if ev.Mint == "" {
				continue
			}
			s, ok := sets[ev.Mint]
			if !ok {
				s = &buyerSet{mint: ev.Mint, firstAt: make(map[string]int64), rank: make(map[string]int)}
				sets[ev.Mint] = s
			}
			if at, seen := s.firstAt[addr]; !seen || ev.Timestamp < at {
				s.firstAt[addr] = ev.Timestamp
			}
			s.rank[addr] = i
			if ev.Timestamp > s.last {
				s.last = ev.Timestamp
			}
		}
	}

	var alerts []domain.CoBuyAlert
	for _, s := range sets {
		if len(s.firstAt) < rules.MinBuyers {
			continue
		}
		alerts = append(alerts, s.alert())
	}

	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if a.BuyerCount != b.BuyerCount {
			return a.BuyerCount > b.BuyerCount
		}
		if a.LastBuyAt != b.LastBuyAt {
			return a.LastBuyAt > b.LastBuyAt
		}
		return a.Mint < b.Mint
	})
	if len(alerts) > rules.MaxAlerts {
		alerts = alerts[:rules.MaxAlerts]
	}

	for i := range alerts {
		e.resolve(ctx, pacer, &alerts[i])
	}

	observability.RecordAlerts(len(alerts))
	return alerts
}

// collect returns events per wallet index. Wallets never affect each other:
// the collector absorbs per-wallet failures.
func (e *Engine) collect(ctx context.Context, pacer *sources.Pacer, addrs []string, maxAge time.Duration) [][]domain.WalletBuyEvent {
	out := make([][]domain.WalletBuyEvent, len(addrs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, addr := range addrs {
		g.Go(func() error {
			if err := pacer.Wait(gctx); err != nil {
				// Cancelled: remaining wallets contribute nothing.
				return nil
			}
			out[i] = e.cfg.Collector.CollectRecentBuys(gctx, addr, e.cfg.EventsPerWallet, maxAge)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// resolve fills display and snapshot fields; a failed lookup leaves
// placeholders.
func (e *Engine) resolve(ctx context.Context, pacer *sources.Pacer, a *domain.CoBuyAlert) {
	a.Symbol = PlaceholderSymbol
	a.Name = shortMint(a.Mint)
	if e.cfg.Lookup == nil {
		return
	}
	if err := pacer.Wait(ctx); err != nil {
		return
	}
	tok, ok := e.cfg.Lookup.Lookup(ctx, a.Mint)
	if !ok {
		e.logger.Debug().Str("mint", a.Mint).Msg("no market data for alert")
		return
	}
	if tok.BaseSymbol != "" {
		a.Symbol = tok.BaseSymbol
	}
	if tok.BaseName != "" {
		a.Name = tok.BaseName
	}
	a.LiquidityUSD = tok.LiquidityUSD
	a.PriceUSD = tok.PriceUSD
}

// alert orders buyers by first buy time, ties by tracked-list order.
func (s *buyerSet) alert() domain.CoBuyAlert {
	buyers := make([]string, 0, len(s.firstAt))
	first := int64(0)
	for w, at := range s.firstAt {
		buyers = append(buyers, w)
		if first == 0 || at < first {
			first = at
		}
	}
	sort.Slice(buyers, func(i, j int) bool {
		ai, aj := s.firstAt[buyers[i]], s.firstAt[buyers[j]]
		if ai != aj {
			return ai < aj
		}
		return s.rank[buyers[i]] < s.rank[buyers[j]]
	})

	return domain.CoBuyAlert{
		ID:         idhash.ComputeAlertID(s.mint, buyers),
		Mint:       s.mint,
		Buyers:     buyers,
		BuyerCount: len(buyers),
		FirstBuyAt: first,
		LastBuyAt:  s.last,
	}
}

func distinctAddresses(wallets []domain.TrackedWallet) []string {
	seen := make(map[string]bool, len(wallets))
	out := make([]string, 0, len(wallets))
	for _, w := range wallets {
		if w.Address == "" || seen[w.Address] {
			continue
		}
		seen[w.Address] = true
		out = append(out, w.Address)
	}
	return out
}

func shortMint(mint string) string {
	if len(mint) <= 10 {
		return mint
	}
	return mint[:4] + "..." + mint[len(mint)-4:]
}
