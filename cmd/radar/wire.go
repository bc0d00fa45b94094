package main

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/aggregator"
	"meme-coin-sniper/internal/cobuy"
	"meme-coin-sniper/internal/config"
	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/notify"
	"meme-coin-sniper/internal/pipeline"
	"meme-coin-sniper/internal/rules"
	"meme-coin-sniper/internal/scoring"
	"meme-coin-sniper/internal/security"
	"meme-coin-sniper/internal/security/goplus"
	"meme-coin-sniper/internal/social"
	"meme-coin-sniper/internal/social/twitter"
	"meme-coin-sniper/internal/solana"
	"meme-coin-sniper/internal/sources"
	"meme-coin-sniper/internal/sources/birdeye"
	"meme-coin-sniper/internal/sources/dexscreener"
	"meme-coin-sniper/internal/sources/geckoterminal"
	"meme-coin-sniper/internal/sources/pumpportal"
	"meme-coin-sniper/internal/storage"
	"meme-coin-sniper/internal/storage/clickhouse"
	"meme-coin-sniper/internal/storage/memory"
	"meme-coin-sniper/internal/storage/postgres"
	"meme-coin-sniper/internal/wallets"
)

// app holds every wired component of one process.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	aggregator *aggregator.Aggregator
	scanner    *pipeline.Scanner
	runner     *cobuy.Runner // nil without a wallet activity source
	tokens     storage.TokenStore

	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.aggregator = buildAggregator(cfg, logger)

	tokens, err := a.buildTokenStore(ctx)
	if err != nil {
		return nil, err
	}
	a.tokens = tokens

	history, err := a.buildHistoryStore(ctx)
	if err != nil {
		return nil, err
	}

	notifier := a.buildNotifier()

	scannerCfg := pipeline.ScannerConfig{
		Aggregator: a.aggregator,
		Scorer: scoring.New(scoring.Config{
			NeutralSecurity:        cfg.Scorer.NeutralSecurity,
			ConcentrationThreshold: cfg.Scorer.ConcentrationThreshold,
			ConcentrationPenalty:   cfg.Scorer.ConcentrationPenalty,
		}),
		Tokens:         tokens,
		History:        history,
		Notifier:       notifier,
		GateWorkers:    cfg.Scorer.GateWorkers,
		PostLimit:      cfg.Social.PostLimit,
		NotifyMinScore: cfg.Scorer.NotifyMinScore,
		Logger:         logger,
	}
	if !cfg.Sources.GoPlus.Disabled {
		provider := goplus.New(goplus.Config{
			BaseURL: cfg.Sources.GoPlus.BaseURL,
			Timeout: cfg.Sources.GoPlus.Timeout,
			Spacing: cfg.Sources.GoPlus.Spacing,
		})
		scannerCfg.Gate = security.NewGate(provider, security.GateOptions{Timeout: cfg.Scorer.GateTimeout, Logger: logger})
	}
	if tw := cfg.Sources.Twitter; tw.Enabled {
		scannerCfg.Posts = twitter.New(twitter.Config{
			BaseURL:     tw.BaseURL,
			BearerToken: tw.BearerToken,
			Query:       tw.Query,
			Timeout:     tw.Timeout,
		})
		analyzer := social.NewAnalyzer(social.NewAuthorWeights(cfg.Social.Authors))
		if cfg.Social.MinAuthors > 0 {
			analyzer.MinAuthors = cfg.Social.MinAuthors
		}
		scannerCfg.Analyzer = analyzer
	}
	a.scanner = pipeline.NewScanner(scannerCfg)

	activity := buildActivitySource(cfg, logger)
	if activity == nil {
		logger.Warn().Msg("no wallet activity source configured, co-buy alerts disabled")
		return a, nil
	}
	ruleStore, registry := a.buildRules()
	engine := cobuy.NewEngine(cobuy.EngineConfig{
		Collector:       wallets.NewCollector(activity, wallets.CollectorOptions{Logger: logger}),
		Lookup:          a.aggregator,
		EventsPerWallet: cfg.CoBuy.EventsPerWallet,
		WalletDelay:     cfg.CoBuy.WalletDelay,
		Workers:         cfg.CoBuy.Workers,
		Logger:          logger,
	})
	a.runner = cobuy.NewRunner(cobuy.RunnerConfig{
		Engine:   engine,
		Rules:    ruleStore,
		Registry: registry,
		History:  history,
		Notifier: notifier,
		Logger:   logger,
	})
	return a, nil
}

func buildAggregator(cfg *config.Config, logger zerolog.Logger) *aggregator.Aggregator {
	src := cfg.Sources
	breaker := sources.Breaker{
		ConsecutiveFailures: src.Breaker.ConsecutiveFailures,
		OpenFor:             src.Breaker.OpenFor,
	}

	aggCfg := aggregator.Config{
		PushTimeout: cfg.Aggregator.PushTimeout,
		Venues:      cfg.Aggregator.Venues,
		NewMaxAge:   cfg.Aggregator.NewMaxAge,
		WidenFactor: cfg.Aggregator.WidenFactor,
		FetchLimit:  cfg.Aggregator.FetchLimit,
		Logger:      logger,
	}
	if len(aggCfg.Venues) == 0 {
		aggCfg.Venues = aggregator.DefaultVenues
	}
	if cfg.Aggregator.FreeLimit > 0 || cfg.Aggregator.PaidLimit > 0 {
		aggCfg.TierLimits = map[domain.Tier]int{
			domain.TierFree: orDefault(cfg.Aggregator.FreeLimit, aggregator.DefaultFreeLimit),
			domain.TierPaid: orDefault(cfg.Aggregator.PaidLimit, aggregator.DefaultPaidLimit),
		}
	}

	if pp := src.PumpPortal; pp.Enabled {
		aggCfg.Push = pumpportal.New(pumpportal.Config{
			Endpoint:    pp.Endpoint,
			Window:      pp.Window,
			MaxEvents:   pp.MaxEvents,
			SolPriceUSD: pp.SolPriceUSD,
			Breaker:     breaker,
		}, logger)
	}
	if ds := src.DexScreener; !ds.Disabled {
		aggCfg.Primary = append(aggCfg.Primary, dexscreener.New(dexscreener.Config{
			BaseURL: ds.BaseURL,
			Timeout: ds.Timeout,
			Spacing: ds.Spacing,
			Breaker: breaker,
		}, logger))
	}
	if gt := src.GeckoTerminal; !gt.Disabled {
		aggCfg.Primary = append(aggCfg.Primary, geckoterminal.New(geckoterminal.Config{
			BaseURL:      gt.BaseURL,
			Timeout:      gt.Timeout,
			NewPoolPages: gt.NewPoolPages,
			Spacing:      gt.Spacing,
			Breaker:      breaker,
		}, logger))
	}
	if be := src.Birdeye; be.Enabled {
		aggCfg.Secondary = append(aggCfg.Secondary, birdeye.New(birdeye.Config{
			BaseURL:       be.BaseURL,
			APIKey:        be.APIKey,
			Timeout:       be.Timeout,
			Spacing:       be.Spacing,
			MemePlatforms: be.MemePlatforms,
			Breaker:       breaker,
		}, logger))
	}
	return aggregator.New(aggCfg)
}

// buildActivitySource prefers Helius and falls back to plain JSON-RPC.
func buildActivitySource(cfg *config.Config, logger zerolog.Logger) wallets.ActivitySource {
	if h := cfg.Sources.Helius; h.APIKey != "" {
		return wallets.NewHeliusSource(wallets.HeliusConfig{BaseURL: h.BaseURL, APIKey: h.APIKey, Timeout: h.Timeout})
	}
	if rpc := cfg.Sources.SolanaRPC; rpc.Endpoint != "" {
		opts := []solana.ClientOption{solana.WithRateLimit(rpc.RPS)}
		if rpc.Timeout > 0 {
			opts = append(opts, solana.WithTimeout(rpc.Timeout))
		}
		return wallets.NewRPCSource(solana.NewHTTPClient(rpc.Endpoint, opts...), logger)
	}
	return nil
}

func (a *app) buildTokenStore(ctx context.Context) (storage.TokenStore, error) {
	if a.cfg.Postgres.DSN == "" {
		a.logger.Info().Msg("postgres not configured, using in-memory token store")
		return memory.NewTokenStore(), nil
	}
	pool, err := postgres.NewPool(ctx, a.cfg.Postgres.DSN, a.cfg.Postgres.MaxConns)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	return postgres.NewTokenStore(pool), nil
}

// buildHistoryStore returns nil when ClickHouse is not configured.
func (a *app) buildHistoryStore(ctx context.Context) (storage.HistoryStore, error) {
	if a.cfg.ClickHouse.DSN == "" {
		return nil, nil
	}
	conn, err := clickhouse.NewConn(ctx, a.cfg.ClickHouse.DSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)
	return clickhouse.NewHistoryStore(conn), nil
}

func (a *app) buildNotifier() notify.Notifier {
	multi := notify.Multi{notify.NewLog(a.logger)}
	if k := a.cfg.Kafka; len(k.Brokers) > 0 {
		kafka := notify.NewKafka(notify.KafkaConfig{
			Brokers:      k.Brokers,
			TokensTopic:  k.TokensTopic,
			AlertsTopic:  k.AlertsTopic,
			WriteTimeout: k.WriteTimeout,
		})
		a.closers = append(a.closers, kafka.Close)
		multi = append(multi, kafka)
	}
	return multi
}

// buildRules uses redis when configured, else the static config values.
func (a *app) buildRules() (rules.Store, rules.Registry) {
	r := a.cfg.Redis
	if r.Addr == "" {
		return rules.Static{Rules: a.cfg.AlertRules()}, rules.StaticRegistry{Wallets: a.cfg.TrackedWallets()}
	}
	client := redis.NewClient(&redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB})
	a.closers = append(a.closers, client.Close)
	return rules.NewRedisStore(client, r.RulesKey, a.logger), rules.NewRedisRegistry(client, r.WalletsKey)
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

var errNoCoBuy = errors.New("co-buy engine disabled: set sources.helius.api_key or sources.solana_rpc.endpoint")
