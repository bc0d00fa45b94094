package cobuy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/notify"
	"meme-coin-sniper/internal/observability"
	"meme-coin-sniper/internal/rules"
	"meme-coin-sniper/internal/storage"
)

// PipelineName labels co-buy cycles in logs and metrics.
const PipelineName = "cobuy"

// RunnerConfig wires an Engine to its collaborators.
type RunnerConfig struct {
	Engine   *Engine
	Rules    rules.Store
	Registry rules.Registry
	History  storage.HistoryStore // optional
	Notifier notify.Notifier      // optional
	Now      func() time.Time
	Logger   zerolog.Logger
}

// Runner executes full co-buy cycles.
type Runner struct {
	cfg    RunnerConfig
	logger zerolog.Logger
}

// NewRunner creates a Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{cfg: cfg, logger: cfg.Logger.With().Str("component", "cobuy_cycle").Logger()}
}

// CycleResult is the outcome of one cycle.
type CycleResult struct {
	CycleID    string
	Rules      domain.AlertRules
	Wallets    int
	Alerts     []domain.CoBuyAlert
	StartedAt  time.Time
	FinishedAt time.Time
}

// RunCycle reads rules once, lists wallets, computes alerts, then records
// and notifies best-effort. It never fails: unavailable collaborators
// degrade to defaults or an empty result.
func (r *Runner) RunCycle(ctx context.Context) CycleResult {
	res := CycleResult{CycleID: uuid.NewString(), StartedAt: r.cfg.Now()}
	logger := r.logger.With().Str("cycle_id", res.CycleID).Logger()

	res.Rules = rules.Resolve(ctx, r.cfg.Rules, logger)

	var wallets []domain.TrackedWallet
	if r.cfg.Registry != nil {
		ws, err := r.cfg.Registry.List(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("wallet registry unavailable, no signal this cycle")
		}
		wallets = ws
	}
	res.Wallets = len(wallets)

	res.Alerts = r.cfg.Engine.ComputeAlerts(ctx, wallets, res.Rules)

	if r.cfg.History != nil && len(res.Alerts) > 0 {
		if err := r.cfg.History.InsertAlerts(ctx, res.CycleID, res.Alerts); err != nil {
			logger.Warn().Err(err).Msg("alert history write failed")
			observability.RecordStoreError("history", "insert_alerts")
		}
	}
	if r.cfg.Notifier != nil && len(res.Alerts) > 0 {
		if err := r.cfg.Notifier.NotifyAlerts(ctx, res.Alerts); err != nil {
			logger.Warn().Err(err).Msg("alert notification failed")
			observability.RecordNotifyError("alerts")
		}
	}

	res.FinishedAt = r.cfg.Now()
	elapsed := res.FinishedAt.Sub(res.StartedAt)
	observability.RecordCycle(PipelineName, "success", elapsed.Seconds(), res.FinishedAt.Unix())
	logger.Info().
		Int("wallets", res.Wallets).
		Int("alerts", len(res.Alerts)).
		Int("min_buyers", res.Rules.MinBuyers).
		Int("lookback_hours", res.Rules.MaxLookbackHours).
		Dur("elapsed", elapsed).
		Msg("co-buy cycle finished")
	return res
}
