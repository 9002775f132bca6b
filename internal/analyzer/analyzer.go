package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"StockSentinel/internal/collector"
	"StockSentinel/internal/model"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/strategy"
)

// ErrIncompleteQuote is returned when the data source omits ticker metadata.
var ErrIncompleteQuote = errors.New("incomplete quote")

// ProgressFunc is called after each ticker finishes. It may be called from
// several goroutines when Workers > 1.
type ProgressFunc func(done, total int, ticker string)

// Result is the outcome of one ticker. Err is non-nil when the ticker was
// skipped.
type Result struct {
	Ticker string
	Row    model.AnalysisResult
	Err    error
}

// Batch is the outcome of one run over a universe, in universe order.
type Batch struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []Result
}

// Rows returns the successful rows in universe order.
func (b *Batch) Rows() []model.AnalysisResult {
	rows := make([]model.AnalysisResult, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Err == nil {
			rows = append(rows, r.Row)
		}
	}
	return rows
}

// Skipped returns the failed results.
func (b *Batch) Skipped() []Result {
	var out []Result
	for _, r := range b.Results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

func (b *Batch) Summary() *model.RunSummary {
	failed := len(b.Skipped())
	return &model.RunSummary{
		RunID:      b.RunID,
		StartedAt:  b.StartedAt,
		FinishedAt: b.FinishedAt,
		Universe:   len(b.Results),
		Succeeded:  len(b.Results) - failed,
		Failed:     failed,
	}
}

// Analyzer classifies every ticker of a universe.
type Analyzer struct {
	Collector *collector.Collector
	Workers   int
	Progress  ProgressFunc
}

// New creates an Analyzer. workers <= 1 runs tickers sequentially.
func New(col *collector.Collector, workers int) *Analyzer {
	return &Analyzer{Collector: col, Workers: workers}
}

// Analyze fetches the histories of ticker and evaluates all six signals.
func (a *Analyzer) Analyze(ctx context.Context, ticker string) (model.AnalysisResult, error) {
	q, err := a.Collector.Quote(ctx, ticker)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%s: %w", ticker, err)
	}
	if q.Name == "" || math.IsNaN(q.LastPrice) || math.IsNaN(q.ChangeRate) || math.IsNaN(q.Volume) {
		return model.AnalysisResult{}, fmt.Errorf("%s: %w", ticker, ErrIncompleteQuote)
	}

	var in strategy.Inputs
	for _, h := range []struct {
		n    int
		dest *[]model.OHLCV
	}{
		{strategy.BiasLookback, &in.Long},
		{strategy.TrendLookback, &in.Trend},
		{strategy.ShortLookback, &in.Short},
	} {
		bars, err := a.Collector.Prices(ctx, ticker, h.n)
		if err != nil {
			return model.AnalysisResult{}, fmt.Errorf("%s: %w", ticker, err)
		}
		*h.dest = bars
	}

	sig := strategy.Evaluate(in)
	logUndetermined(ticker, sig)

	pct, rank := sig.Bias.Values()
	return model.AnalysisResult{
		TickerID:    ticker,
		Name:        q.Name,
		LastPrice:   q.LastPrice,
		ChangeRate:  q.ChangeRate,
		MA20Trend:   sig.MA20Trend.Value(),
		CloseVsMA20: sig.CloseVsMA20.Value(),
		BiasPct:     pct,
		BiasRank:    rank,
		BollScore:   sig.Boll.Value(),
		MACDLabel:   sig.MACD.Value(),
		KDJLabel:    sig.KDJ.Value(),
		Volume:      q.Volume,
	}, nil
}

func logUndetermined(ticker string, sig strategy.Signals) {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		return
	}
	for _, c := range []struct {
		name string
		err  error
	}{
		{"ma20_trend", sig.MA20Trend.Err},
		{"close_vs_ma20", sig.CloseVsMA20.Err},
		{"bias", sig.Bias.Err},
		{"boll", sig.Boll.Err},
		{"macd", sig.MACD.Err},
		{"kdj", sig.KDJ.Err},
	} {
		if c.err != nil {
			log.Debug().Str("ticker", ticker).Str("signal", c.name).Err(c.err).Msg("signal undetermined")
		}
	}
}

// Run analyzes every ticker of universe. A failing ticker is logged and
// skipped without affecting the others. Run returns an error only when ctx
// is cancelled.
func (a *Analyzer) Run(ctx context.Context, universe []string) (*Batch, error) {
	batch := &Batch{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Results:   make([]Result, len(universe)),
	}
	progress := a.Progress
	if progress == nil {
		progress = logProgress
	}
	log.Info().Str("run_id", batch.RunID).Int("tickers", len(universe)).Int("workers", a.Workers).Msg("analysis run started")

	var done atomic.Int64
	analyze := func(i int, ticker string) {
		row, err := a.Analyze(ctx, ticker)
		a.Collector.Forget(ticker)
		batch.Results[i] = Result{Ticker: ticker, Row: row, Err: err}
		if err != nil && ctx.Err() == nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("Skip " + ticker)
		}
		progress(int(done.Add(1)), len(universe), ticker)
	}

	if a.Workers <= 1 {
		for i, ticker := range universe {
			if ctx.Err() != nil {
				break
			}
			analyze(i, ticker)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(a.Workers)
		for i, ticker := range universe {
			if ctx.Err() != nil {
				break
			}
			i, ticker := i, ticker
			g.Go(func() error {
				analyze(i, ticker)
				return nil
			})
		}
		g.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run %s aborted: %w", batch.RunID, err)
	}
	batch.FinishedAt = time.Now()

	s := batch.Summary()
	log.Info().
		Str("run_id", batch.RunID).
		Int("succeeded", s.Succeeded).
		Int("failed", s.Failed).
		Dur("elapsed", batch.FinishedAt.Sub(batch.StartedAt)).
		Msg("analysis run finished")
	return batch, nil
}

// RunAndSave runs the batch and hands the rows to sink exactly once. Sink
// errors are returned to the caller together with the batch.
func (a *Analyzer) RunAndSave(ctx context.Context, universe []string, sink recorder.Sink) (*Batch, error) {
	batch, err := a.Run(ctx, universe)
	if err != nil {
		return nil, err
	}
	if err := sink.EnsureSchema(ctx); err != nil {
		return batch, fmt.Errorf("ensure schema: %w", err)
	}
	if err := sink.InsertAll(ctx, batch.Rows()); err != nil {
		return batch, fmt.Errorf("save results: %w", err)
	}
	if err := sink.RecordRun(ctx, batch.Summary()); err != nil {
		return batch, fmt.Errorf("record run: %w", err)
	}
	return batch, nil
}

func logProgress(done, total int, ticker string) {
	log.Debug().Int("done", done).Int("total", total).Str("ticker", ticker).Msg("ticker analyzed")
	step := total / 10
	if step == 0 {
		step = 1
	}
	if done%step == 0 || done == total {
		log.Info().Msgf("progress %d/%d", done, total)
	}
}
