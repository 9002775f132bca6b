package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/collector"
	"StockSentinel/internal/model"
)

var universe = []string{"AAPL", "MSFT", "NVDA", "TSLA", "AMZN"}

func newAnalyzer(mock *collector.MockFetcher, workers int) *Analyzer {
	a := New(collector.NewCollector(mock, 2000), workers)
	a.Progress = func(int, int, string) {}
	return a
}

// fingerprint renders rows so that NaN fields compare equal.
func fingerprint(rows []model.AnalysisResult) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprint(r.Values()...)
	}
	return out
}

func tickers(rows []model.AnalysisResult) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.TickerID
	}
	return out
}

type recordingSink struct {
	ensured, inserted, recorded int
	rows                        []model.AnalysisResult
	run                         *model.RunSummary
	insertErr                   error
}

func (s *recordingSink) EnsureSchema(context.Context) error { s.ensured++; return nil }
func (s *recordingSink) InsertAll(_ context.Context, rows []model.AnalysisResult) error {
	s.inserted++
	if s.insertErr != nil {
		return s.insertErr
	}
	s.rows = rows
	return nil
}
func (s *recordingSink) RecordRun(_ context.Context, run *model.RunSummary) error {
	s.recorded++
	s.run = run
	return nil
}
func (s *recordingSink) LoadAll(context.Context) ([]model.AnalysisResult, error) { return s.rows, nil }
func (s *recordingSink) LatestRun(context.Context) (*model.RunSummary, error)    { return s.run, nil }
func (s *recordingSink) Close() error                                            { return nil }

func TestAnalyze_FillsAllFields(t *testing.T) {
	a := newAnalyzer(&collector.MockFetcher{Price: 120}, 1)

	row, err := a.Analyze(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", row.TickerID)
	assert.Equal(t, "Mock AAPL", row.Name)
	assert.Greater(t, row.LastPrice, 0.0)
	assert.Greater(t, row.Volume, 0.0)
	assert.False(t, math.IsNaN(row.BiasPct))
	assert.GreaterOrEqual(t, row.BiasRank, 0.0)
	assert.LessOrEqual(t, row.BiasRank, 1.0)
	assert.Len(t, row.Values(), len(model.Columns))
}

func TestAnalyze_ShortHistoryFoldsToEmpty(t *testing.T) {
	bars := make([]model.OHLCV, 5)
	for i := range bars {
		bars[i] = model.OHLCV{Open: 10, High: 11, Low: 9, Close: 10, Volume: 100}
	}
	mock := &collector.MockFetcher{Bars: map[string][]model.OHLCV{"NEWCO": bars}}
	a := newAnalyzer(mock, 1)

	row, err := a.Analyze(context.Background(), "NEWCO")
	require.NoError(t, err)
	assert.Equal(t, model.LabelNone, row.MA20Trend)
	assert.Equal(t, model.LabelNone, row.CloseVsMA20)
	assert.Equal(t, model.LabelNone, row.MACDLabel)
	assert.True(t, math.IsNaN(row.BiasPct))
	assert.True(t, math.IsNaN(row.BiasRank))
	assert.Equal(t, 0.0, row.BollScore)
}

func TestAnalyze_IncompleteQuote(t *testing.T) {
	mock := &collector.MockFetcher{Quotes: map[string]*model.Quote{
		"GHOST": {Ticker: "GHOST", LastPrice: 1},
	}}
	a := newAnalyzer(mock, 1)

	_, err := a.Analyze(context.Background(), "GHOST")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteQuote)
	assert.Contains(t, err.Error(), "GHOST")
}

func TestRun_FailingTickerIsIsolated(t *testing.T) {
	ctx := context.Background()
	clean, err := newAnalyzer(&collector.MockFetcher{}, 1).Run(ctx, universe)
	require.NoError(t, err)
	require.Len(t, clean.Rows(), len(universe))

	mock := &collector.MockFetcher{Fail: map[string]error{"NVDA": errors.New("upstream 500")}}
	batch, err := newAnalyzer(mock, 1).Run(ctx, universe)
	require.NoError(t, err)

	rows := batch.Rows()
	require.Len(t, rows, len(universe)-1)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA", "AMZN"}, tickers(rows))

	var want []model.AnalysisResult
	for _, r := range clean.Rows() {
		if r.TickerID != "NVDA" {
			want = append(want, r)
		}
	}
	assert.Equal(t, fingerprint(want), fingerprint(rows))

	skipped := batch.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, "NVDA", skipped[0].Ticker)

	s := batch.Summary()
	assert.Equal(t, 5, s.Universe)
	assert.Equal(t, 4, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.NotEmpty(t, s.RunID)
}

func TestRun_Idempotent(t *testing.T) {
	a := newAnalyzer(&collector.MockFetcher{}, 1)
	ctx := context.Background()

	first, err := a.Run(ctx, universe)
	require.NoError(t, err)
	a.Collector.Reset()
	second, err := a.Run(ctx, universe)
	require.NoError(t, err)

	assert.Equal(t, fingerprint(first.Rows()), fingerprint(second.Rows()))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	ctx := context.Background()
	fail := map[string]error{"TSLA": errors.New("delisted")}

	seq, err := newAnalyzer(&collector.MockFetcher{Fail: fail}, 1).Run(ctx, universe)
	require.NoError(t, err)
	par, err := newAnalyzer(&collector.MockFetcher{Fail: fail}, 3).Run(ctx, universe)
	require.NoError(t, err)

	assert.Equal(t, fingerprint(seq.Rows()), fingerprint(par.Rows()))
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA", "AMZN"}, tickers(par.Rows()))
}

func TestRun_ReportsProgress(t *testing.T) {
	a := newAnalyzer(&collector.MockFetcher{}, 2)
	var (
		mu      sync.Mutex
		seen    []int
		highest int
	)
	a.Progress = func(done, total int, _ string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, done)
		if done > highest {
			highest = done
		}
		assert.Equal(t, len(universe), total)
	}

	_, err := a.Run(context.Background(), universe)
	require.NoError(t, err)
	assert.Len(t, seen, len(universe))
	assert.Equal(t, len(universe), highest)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &recordingSink{}

	batch, err := newAnalyzer(&collector.MockFetcher{}, 1).RunAndSave(ctx, universe, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, batch)
	assert.Zero(t, sink.ensured)
	assert.Zero(t, sink.inserted)
}

func TestRunAndSave_WritesOnce(t *testing.T) {
	sink := &recordingSink{}
	mock := &collector.MockFetcher{Fail: map[string]error{"MSFT": errors.New("timeout")}}

	batch, err := newAnalyzer(mock, 1).RunAndSave(context.Background(), universe, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, sink.ensured)
	assert.Equal(t, 1, sink.inserted)
	assert.Equal(t, 1, sink.recorded)
	assert.Equal(t, fingerprint(batch.Rows()), fingerprint(sink.rows))
	assert.Equal(t, batch.RunID, sink.run.RunID)
	assert.Equal(t, 1, sink.run.Failed)
}

func TestRunAndSave_SinkErrorSurfaces(t *testing.T) {
	boom := errors.New("disk full")
	sink := &recordingSink{insertErr: boom}

	batch, err := newAnalyzer(&collector.MockFetcher{}, 1).RunAndSave(context.Background(), universe, sink)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, batch)
	assert.Equal(t, 1, sink.inserted)
	assert.Zero(t, sink.recorded)
}
