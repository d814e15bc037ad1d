package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"sentiment-signal-engine/internal/backtest"
	"sentiment-signal-engine/internal/ingest"
	"sentiment-signal-engine/internal/logger"
	"sentiment-signal-engine/internal/pipeline"
	"sentiment-signal-engine/internal/server"
	"sentiment-signal-engine/internal/types"
)

var (
	configPath string
	assetFlag  string
	modeFlag   string
	rowsFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "sigengine",
	Short: "Market sentiment signal engine",
	Long:  "Derives BUY/HOLD/SELL signals from price indicators and text sentiment, and backtests them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeSystem()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		shutdownSystem()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Print the latest signal for the configured asset",
	RunE:  runSignal,
}

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Compare price-only and combined strategy returns",
	RunE:  runBacktest,
}

var scoreCmd = &cobra.Command{
	Use:   "score [text]",
	Short: "Score one text with the configured sentiment engine",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScore,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	RunE:  runServe,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-evaluate the signal on the configured schedule",
	RunE:  runWatch,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download historical candles from Kite into the price directory",
	RunE:  runFetch,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&assetFlag, "asset", "a", "", "Asset to evaluate (overrides config)")

	signalCmd.Flags().StringVarP(&modeFlag, "mode", "m", string(types.ModeCombined), "price_only or combined")
	signalCmd.Flags().BoolVar(&rowsFlag, "rows", false, "Print every signal row, not only the latest")

	rootCmd.AddCommand(signalCmd, backtestCmd, scoreCmd, serveCmd, watchCmd, fetchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sigengine: %v\n", err)
		os.Exit(1)
	}
}

// printJSON writes command results; logs go to stderr so w stays parseable.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runSignal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mode, err := pipeline.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	p, _, closer, err := initializePipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	report, err := p.Run(ctx, cfg.Asset, mode)
	if err != nil {
		return err
	}
	if rowsFlag {
		return printJSON(cmd.OutOrStdout(), report)
	}
	last, _ := report.Latest()
	return printJSON(cmd.OutOrStdout(), map[string]any{
		"asset":  report.Asset,
		"mode":   report.Mode,
		"latest": last,
	})
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	p, _, closer, err := initializePipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	report, err := p.Run(ctx, cfg.Asset, types.ModeCombined)
	if err != nil {
		return err
	}
	cmp := backtest.Compare(report)
	logger.Info(ctx, "Backtest completed",
		"asset", cmp.Asset,
		"rows", len(report.Rows),
		"price_only_final", cmp.PriceOnly.Final,
		"combined_final", cmp.Combined.Final,
	)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s over %d bars\n", cmp.Asset, len(report.Rows))
	fmt.Fprintf(out, "  price only: %.4f\n", cmp.PriceOnly.Final)
	fmt.Fprintf(out, "  combined:   %.4f\n", cmp.Combined.Final)
	return nil
}

func runScore(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	s, closer := initializeScorer(ctx, cfg)
	defer closer()

	text := strings.Join(args, " ")
	return printJSON(cmd.OutOrStdout(), map[string]any{"score": s.Score(ctx, text), "engine": s.Name()})
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	p, s, closer, err := initializePipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	srv := server.New(p, s, cfg.Asset)
	errc := make(chan error, 1)
	go func() {
		logger.Info(ctx, "HTTP server listening", "addr", cfg.Server.Addr)
		errc <- srv.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	mode, err := pipeline.ParseMode(cfg.Watch.Mode)
	if err != nil {
		return err
	}
	p, _, closer, err := initializePipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer()

	evaluate := func() {
		if _, err := p.Run(ctx, cfg.Asset, mode); err != nil {
			logger.ErrorWithErr(ctx, "Scheduled evaluation failed", err, "asset", cfg.Asset)
		}
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.Watch.Schedule, evaluate); err != nil {
		return fmt.Errorf("invalid watch.schedule %q: %w", cfg.Watch.Schedule, err)
	}

	logger.Info(ctx, "Watching asset", "asset", cfg.Asset, "mode", string(mode), "schedule", cfg.Watch.Schedule)
	evaluate()
	c.Start()
	<-ctx.Done()

	logger.Info(ctx, "Stopping watcher")
	<-c.Stop().Done()
	return nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg.Prices.Source = "kite"
	src, err := initializePriceSource(ctx, cfg)
	if err != nil {
		return err
	}

	bars, err := src.Bars(ctx, cfg.Asset)
	if err != nil {
		return err
	}
	path, err := ingest.SavePriceCSV(cfg.Prices.Dir, ingest.SymbolFor(cfg.Asset), bars, time.Now().UTC())
	if err != nil {
		return err
	}
	logger.Info(ctx, "Price CSV written", "asset", cfg.Asset, "bars", len(bars), "file", path)
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
