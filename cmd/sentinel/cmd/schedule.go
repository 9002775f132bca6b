package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"StockSentinel/internal/scheduler"
)

var (
	scheduleRunOnStart bool
	schedulePoll       bool
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the analysis on a cron schedule",
	Long: `Run the analysis batch on schedule.cron (six fields, seconds first) until
interrupted. With Telegram configured, each run sends a summary and the bot
answers /run and /latest.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleRunOnStart, "run-on-start", false, "run a batch immediately")
	scheduleCmd.Flags().BoolVar(&schedulePoll, "poll", true, "answer Telegram commands")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	tickers, err := loadUniverse(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, err := newSink(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init sink: %w", err)
	}
	defer sink.Close()

	tn := newNotifier(cfg)
	var n scheduler.Notifier
	if tn != nil {
		n = tn
	}

	sched := scheduler.NewScheduler(ctx, newAnalyzer(cfg), sink, n, tickers)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil && schedulePoll {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}
	if scheduleRunOnStart {
		go func() {
			if err := sched.RunNow(); err != nil {
				log.Error().Err(err).Msg("initial batch failed")
			}
		}()
	}

	log.Info().Int("tickers", len(tickers)).Msg("StockSentinel is running, press Ctrl+C to stop")
	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")
	return nil
}
