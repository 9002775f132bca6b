package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/recorder"
)

// ErrBusy is returned when a batch is already running.
var ErrBusy = errors.New("a batch is already running")

// Notifier delivers the summary of a finished run.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the analysis batch on a cron schedule.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer *analyzer.Analyzer
	Sink     recorder.Sink
	Notifier Notifier // optional
	Universe []string
	Ctx      context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler. Runs that would overlap a still
// running batch are skipped.
func NewScheduler(ctx context.Context, a *analyzer.Analyzer, sink recorder.Sink, n Notifier, universe []string) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		Analyzer: a,
		Sink:     sink,
		Notifier: n,
		Universe: universe,
		Ctx:      ctx,
	}
}

// Register adds the batch job under the cron expression (six fields, seconds first).
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.batchTask); err != nil {
		return fmt.Errorf("register batch task: %w", err)
	}
	log.Info().Str("cron", expr).Msg("batch task registered")
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the batch immediately.
func (s *Scheduler) RunNow() error {
	return s.run()
}

func (s *Scheduler) batchTask() {
	if err := s.run(); err != nil {
		log.Error().Err(err).Msg("scheduled batch failed")
	}
}

func (s *Scheduler) run() error {
	if !s.running.TryLock() {
		return ErrBusy
	}
	defer s.running.Unlock()

	log.Info().Int("tickers", len(s.Universe)).Msg("running batch task")
	s.Analyzer.Collector.Reset()

	batch, err := s.Analyzer.RunAndSave(s.Ctx, s.Universe, s.Sink)
	if err != nil {
		s.trySend(fmt.Sprintf("❌ <b>StockSentinel</b> run failed: %v", err))
		return err
	}
	s.trySend(notifier.FormatRunSummary(batch.Summary(), batch.Rows()))
	return nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch command {
	case "/run":
		if err := s.run(); err != nil {
			return fmt.Sprintf("run failed: %v", err)
		}
		return ""
	case "/latest":
		run, err := s.Sink.LatestRun(ctx)
		if err != nil {
			return fmt.Sprintf("load latest run: %v", err)
		}
		if run == nil {
			return "No run recorded yet."
		}
		rows, err := s.Sink.LoadAll(ctx)
		if err != nil {
			return fmt.Sprintf("load results: %v", err)
		}
		return notifier.FormatRunSummary(run, rows)
	default:
		return "Commands:\n• /run run the analysis now\n• /latest show the latest run"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
