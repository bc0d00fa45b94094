// Command radar runs the token scanner and the wallet co-buy engine.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"meme-coin-sniper/internal/config"
	"meme-coin-sniper/internal/observability"
)

type options struct {
	configPath string
	logLevel   string
	pretty     bool
}

func main() {
	opts := &options{}

	root := &cobra.Command{
		Use:           "radar",
		Short:         "Multi-source meme token scanner and wallet co-buy alerts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("RADAR_CONFIG"), "Path to YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human-readable console logs")

	root.AddCommand(
		newServeCmd(opts),
		newScanCmd(opts),
		newAlertsCmd(opts),
		newMigrateCmd(opts),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "radar: %v\n", err)
		os.Exit(1)
	}
}

// setup loads .env, the config file and the root logger.
func setup(opts *options) (*config.Config, zerolog.Logger, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	logger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Pretty || opts.pretty, os.Stderr)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// signalContext is cancelled on the first SIGINT/SIGTERM. A second signal,
// or a shutdown that outlives grace, exits the process.
func signalContext(logger zerolog.Logger, grace time.Duration) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
			cancel()
		case <-done:
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("second signal, forcing exit")
			os.Exit(1)
		case <-time.After(grace):
			logger.Warn().Dur("grace", grace).Msg("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		close(done)
		cancel()
	}
}
