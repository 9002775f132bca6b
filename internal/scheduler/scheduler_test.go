package scheduler

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/recorder"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func newTestScheduler(t *testing.T, mock *collector.MockFetcher) (*Scheduler, *fakeNotifier, recorder.Sink) {
	t.Helper()
	sink, err := recorder.NewSQLiteSink(filepath.Join(t.TempDir(), "sched.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sink.Close() })

	a := analyzer.New(collector.NewCollector(mock, 2000), 2)
	a.Progress = func(int, int, string) {}
	n := &fakeNotifier{}
	return NewScheduler(context.Background(), a, sink, n, []string{"AAPL", "MSFT", "NVDA"}), n, sink
}

func TestRegister(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{})
	assert.NoError(t, s.Register("0 30 17 * * 1-5"))
	assert.Error(t, s.Register("not a cron"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestRunNow_SavesAndNotifies(t *testing.T) {
	mock := &collector.MockFetcher{Fail: map[string]error{"NVDA": errors.New("no data")}}
	s, n, sink := newTestScheduler(t, mock)

	require.NoError(t, s.RunNow())

	rows, err := sink.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	run, err := sink.LatestRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, 1, run.Failed)

	require.Len(t, n.sent, 1)
	assert.Contains(t, n.sent[0], "Tickers: 3 | saved 2 | skipped 1")
}

func TestRunNow_Busy(t *testing.T) {
	s, _, _ := newTestScheduler(t, &collector.MockFetcher{})
	s.running.Lock()
	defer s.running.Unlock()
	assert.ErrorIs(t, s.RunNow(), ErrBusy)
}

func TestHandleCommand(t *testing.T) {
	s, n, _ := newTestScheduler(t, &collector.MockFetcher{})
	ctx := context.Background()

	assert.Equal(t, "No run recorded yet.", s.HandleCommand(ctx, "/latest"))
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "/latest")

	assert.Empty(t, s.HandleCommand(ctx, "/run"))
	require.Len(t, n.sent, 1)

	assert.Contains(t, s.HandleCommand(ctx, "/latest"), "saved 3")
}
