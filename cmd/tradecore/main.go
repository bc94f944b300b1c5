// Command tradecore is the CLI entrypoint for the signal-production
// core: a long-running `run` mode wired to a live inbound feed, a
// `replay` mode driving the core from a recorded WebSocket capture for
// deterministic backtests, and a `config validate` mode for CI. A cobra
// root command carries the global flags, with subcommands built via
// RunE; the `run` and `replay` subcommands install the zerolog logger
// through setupLogging at the start of their RunE.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Matswm86/Core/internal/config"
	"github.com/Matswm86/Core/internal/feed/wsfeed"
	"github.com/Matswm86/Core/internal/logx"
	"github.com/Matswm86/Core/internal/metrics"
)

const (
	appName = "tradecore"
	version = "v0.1.0"
)

var (
	flagConfigPath string
	flagEnv        string
	flagLogLevel   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Algorithmic trading engine signal-production core",
		Version: version,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "config.yaml", "path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagEnv, "env", "dev", "logging environment: dev or prod")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "zerolog level")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration file, exiting non-zero on failure",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return err
			}
			fmt.Printf("config %s is valid: %d timeframe(s), buy_threshold=%.2f\n",
				flagConfigPath, len(cfg.Timeframes), cfg.Signal.BuyThreshold)
			return nil
		},
	}
	configCmd.AddCommand(validateCmd)
	return configCmd
}

func newRunCmd() *cobra.Command {
	var listenAddr string
	var startingBalance float64
	var feedURL string
	var symbols []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the engine against a live WebSocket feed until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging()
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			eng, err := newEngine(*cfg, startingBalance, logger)
			if err != nil {
				return err
			}

			metricsAddr := listenAddr
			if metricsAddr == "" {
				metricsAddr = cfg.Metrics.ListenAddr
			}
			metricsSrv := metrics.NewServer(metricsAddr, eng.promRegistry)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			errCh := make(chan error, 2)
			go func() { errCh <- metricsSrv.Run(ctx) }()

			if feedURL != "" {
				feed := wsfeed.New(feedURL, eng.orch, logger)
				go func() { errCh <- feed.Run(ctx) }()
			} else {
				logger.Warn().Msg("no --feed url given; engine is running idle, wire on_tick/on_bar to drive it")
			}

			if err := eng.restoreSnapshots(ctx, symbols); err != nil {
				logger.Warn().Err(err).Msg("warm-restart snapshot restore failed, starting cold")
			}

			select {
			case <-ctx.Done():
				logger.Info().Msg("shutdown signal received")
				eng.close()
				return nil
			case err := <-errCh:
				eng.close()
				if err != nil && err != context.Canceled {
					return err
				}
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&listenAddr, "metrics-addr", "", "override config.metrics.listen_addr")
	cmd.Flags().Float64Var(&startingBalance, "balance", 100000, "starting account balance")
	cmd.Flags().StringVar(&feedURL, "feed", "", "WebSocket URL emitting tick/bar envelopes (internal/feed/wsfeed)")
	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "symbol universe to warm-restart from the snapshot mirror")
	return cmd
}

func newReplayCmd() *cobra.Command {
	var startingBalance float64
	var feedURL string

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Drive the engine from a recorded WebSocket capture for deterministic backtests",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging()
			cfg, err := config.Load(flagConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if feedURL == "" {
				return fmt.Errorf("replay requires --feed pointing at a recorded capture server")
			}

			eng, err := newEngine(*cfg, startingBalance, logger)
			if err != nil {
				return err
			}
			defer eng.close()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			feed := wsfeed.New(feedURL, eng.orch, logger)
			return feed.Run(ctx)
		},
	}
	cmd.Flags().Float64Var(&startingBalance, "balance", 100000, "starting account balance")
	cmd.Flags().StringVar(&feedURL, "feed", "", "WebSocket URL serving the recorded capture")
	return cmd
}

func setupLogging() zerolog.Logger {
	env := logx.EnvDev
	if flagEnv == "prod" {
		env = logx.EnvProd
	}
	return logx.Setup(env, flagLogLevel)
}
