package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
)

var (
	runWorkers int
	runDry     bool
	runNotify  bool
)

var runCmd = &cobra.Command{
	Use:   "run [tickers...]",
	Short: "Analyze the universe once and save the results",
	Long: `Analyze every ticker of the configured universe (or the tickers given as
arguments) and replace the stored results with the new batch.

Examples:
  sentinel run
  sentinel run AAPL MSFT --dry-run
  sentinel run --workers 8 --notify`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 0, "parallel workers (overrides analysis.workers)")
	runCmd.Flags().BoolVar(&runDry, "dry-run", false, "analyze without saving")
	runCmd.Flags().BoolVar(&runNotify, "notify", false, "send the run summary to Telegram")
}

func runOnce(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		cfg.Universe.Tickers, cfg.Universe.File = args, ""
	}
	if runWorkers > 0 {
		cfg.Analysis.Workers = runWorkers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	tickers, err := loadUniverse(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink recorder.Sink = recorder.NewNoopSink()
	if !runDry {
		if sink, err = newSink(ctx, cfg); err != nil {
			return fmt.Errorf("init sink: %w", err)
		}
	}
	defer sink.Close()

	batch, err := newAnalyzer(cfg).RunAndSave(ctx, tickers, sink)
	if err != nil {
		return err
	}

	summary := batch.Summary()
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d analyzed, %d saved, %d skipped\n",
		summary.RunID, summary.Universe, summary.Succeeded, summary.Failed)
	for _, r := range batch.Skipped() {
		fmt.Fprintf(cmd.OutOrStdout(), "  skipped %s: %v\n", r.Ticker, r.Err)
	}

	if tn := newNotifier(cfg); runNotify && tn != nil {
		if err := tn.SendWithRetry(ctx, notifier.FormatRunSummary(summary, batch.Rows()), 3); err != nil {
			log.Error().Err(err).Msg("send notification")
		}
	}
	return nil
}
