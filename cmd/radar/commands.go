package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"meme-coin-sniper/internal/aggregator"
	"meme-coin-sniper/internal/api"
	"meme-coin-sniper/internal/domain"
	"meme-coin-sniper/internal/scheduler"
	"meme-coin-sniper/internal/storage/migrations"
	"meme-coin-sniper/internal/storage/postgres"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled scans and co-buy cycles behind the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(logger, cfg.Server.ShutdownTimeout)
			defer stop()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			sched := scheduler.New(logger)
			if err := a.schedule(sched); err != nil {
				return err
			}

			srvCfg := api.Config{
				Addr:           cfg.Server.Addr,
				ReadTimeout:    cfg.Server.ReadTimeout,
				WriteTimeout:   cfg.Server.WriteTimeout,
				RequestTimeout: cfg.Server.RequestTimeout,
				Scanner:        a.scanner,
				Tokens:         a.tokens,
				Status:         sched,
				Logger:         logger,
			}
			if a.runner != nil {
				srvCfg.Alerts = a.runner
			}
			srv := api.NewServer(srvCfg)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(srv.Start)
			g.Go(func() error {
				if err := sched.Run(gctx); !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			err = g.Wait()
			logger.Info().Msg("shutdown complete")
			return err
		},
	}
}

// schedule registers one scan job per configured view and the co-buy job.
func (a *app) schedule(s *scheduler.Scheduler) error {
	sc := a.cfg.Schedule
	if sc.ScanInterval > 0 {
		for _, v := range sc.ScanViews {
			req := aggregator.Request{View: domain.View(v), Tier: domain.TierPaid}
			err := s.Add(scheduler.Job{
				Name:       "scan_" + v,
				Interval:   sc.ScanInterval,
				RunOnStart: sc.RunOnStart,
				Run: func(ctx context.Context) error {
					_, err := a.scanner.Scan(ctx, req)
					return err
				},
			})
			if err != nil {
				return err
			}
		}
	}
	if a.runner != nil && sc.AlertInterval > 0 {
		return s.Add(scheduler.Job{
			Name:       "cobuy",
			Interval:   sc.AlertInterval,
			RunOnStart: sc.RunOnStart,
			Run: func(ctx context.Context) error {
				a.runner.RunCycle(ctx)
				return nil
			},
		})
	}
	return nil
}

func newScanCmd(opts *options) *cobra.Command {
	var (
		view         string
		limit        int
		tier         string
		minLiquidity float64
		maxAge       time.Duration
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the scored tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if minLiquidity < 0 || math.IsNaN(minLiquidity) || math.IsInf(minLiquidity, 0) {
				return errors.New("--min-liquidity must be a non-negative number")
			}
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(logger, cfg.Server.ShutdownTimeout)
			defer stop()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.scanner.Scan(ctx, aggregator.Request{
				View:         domain.View(strings.ToLower(view)),
				MaxAge:       maxAge,
				MinLiquidity: minLiquidity,
				Limit:        limit,
				Tier:         domain.Tier(strings.ToLower(tier)),
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(api.NewTokenInfos(res.Tokens))
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tSYMBOL\tADDRESS\tSCORE\tLIQUIDITY\tFLAGS")
			for i, t := range res.Tokens {
				score := fmt.Sprint(t.Score.Total)
				if t.Score.Vetoed {
					score = "VETO"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i+1, t.Token.BaseSymbol, t.Token.Key, score,
					usd(t.Token.LiquidityUSD), strings.Join(t.Flags(), ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&view, "view", string(domain.ViewTrending), "View: new, trending, surge")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum tokens (0 = tier ceiling)")
	cmd.Flags().StringVar(&tier, "tier", string(domain.TierFree), "Tier: free, paid")
	cmd.Flags().Float64Var(&minLiquidity, "min-liquidity", 0, "Minimum liquidity in USD")
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Maximum pair age for the new view (0 = default)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newAlertsCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Run one co-buy cycle and print the alerts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(logger, cfg.Server.ShutdownTimeout)
			defer stop()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()
			if a.runner == nil {
				return errNoCoBuy
			}

			res := a.runner.RunCycle(ctx)
			if asJSON {
				return writeJSON(api.NewAlertInfos(res.Alerts))
			}
			fmt.Printf("cycle %s: %d wallets, quorum %d, lookback %dh\n",
				res.CycleID, res.Wallets, res.Rules.MinBuyers, res.Rules.MaxLookbackHours)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tMINT\tBUYERS\tLAST BUY\tLIQUIDITY")
			for _, al := range res.Alerts {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", al.Symbol, al.Mint, al.BuyerCount,
					time.UnixMilli(al.LastBuyAt).UTC().Format(time.RFC3339), usd(al.LiquidityUSD))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply PostgreSQL and ClickHouse migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if cfg.Postgres.DSN == "" && cfg.ClickHouse.DSN == "" {
				return errors.New("nothing to migrate: set postgres.dsn or clickhouse.dsn")
			}

			if cfg.Postgres.DSN != "" {
				pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN, 1)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
					return err
				}
				logger.Info().Msg("postgres migrations applied")
			}
			if cfg.ClickHouse.DSN != "" {
				conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
				if err != nil {
					return err
				}
				defer conn.Close()
				logger.Info().Msg("clickhouse migrations applied")
			}
			return nil
		},
	}
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func usd(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("$%.0f", *v)
}
