package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_ServesTailsFromOneFetch(t *testing.T) {
	mock := &MockFetcher{Price: 50}
	col := NewCollector(mock, 2000)
	ctx := context.Background()

	long, err := col.Prices(ctx, "AAPL", 2000)
	require.NoError(t, err)
	require.Len(t, long, 2000)

	short, err := col.Prices(ctx, "AAPL", 100)
	require.NoError(t, err)
	require.Len(t, short, 100)
	assert.Equal(t, long[len(long)-100:], short)

	bars, _ := mock.Calls()
	assert.Equal(t, 1, bars, "expected a single upstream fetch")

	col.Forget("AAPL")
	_, err = col.Prices(ctx, "AAPL", 100)
	require.NoError(t, err)
	bars, _ = mock.Calls()
	assert.Equal(t, 2, bars)
}

func TestCollector_ConcurrentCallersShareFetch(t *testing.T) {
	mock := &MockFetcher{}
	col := NewCollector(mock, 500)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := col.Prices(context.Background(), "MSFT", 500)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	bars, _ := mock.Calls()
	assert.LessOrEqual(t, bars, 8)
	assert.GreaterOrEqual(t, bars, 1)

	col.Reset()
	_, err := col.Prices(context.Background(), "MSFT", 10)
	require.NoError(t, err)
	after, _ := mock.Calls()
	assert.Equal(t, bars+1, after)
}

func TestCollector_ErrorsAreNotCached(t *testing.T) {
	boom := errors.New("boom")
	mock := &MockFetcher{Fail: map[string]error{"BAD": boom}}
	col := NewCollector(mock, 100)

	_, err := col.Prices(context.Background(), "BAD", 10)
	require.ErrorIs(t, err, boom)
	_, err = col.Quote(context.Background(), "BAD")
	require.ErrorIs(t, err, boom)

	delete(mock.Fail, "BAD")
	_, err = col.Prices(context.Background(), "BAD", 10)
	assert.NoError(t, err)
}

func TestMockFetcher_Deterministic(t *testing.T) {
	m := &MockFetcher{}
	a, _ := m.FetchDailyBars(context.Background(), "X", 50)
	b, _ := m.FetchDailyBars(context.Background(), "X", 50)
	assert.Equal(t, a, b)

	q, err := m.FetchQuote(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, a[len(a)-1].Close, q.LastPrice)
}

const chartJSON = `{"chart":{"result":[{"meta":{"symbol":"AAPL","longName":"Apple Inc.","regularMarketPrice":102,"regularMarketVolume":5000},
"timestamp":[1700000000,1700086400,1700172800],
"indicators":{"quote":[{"open":[99,null,101],"high":[101,null,103],"low":[98,null,100],"close":[100,null,102],"volume":[10,null,30]}]}}],"error":null}}`

func TestYahooFetcher_ParsesChartAndQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		fmt.Fprint(w, chartJSON)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL

	bars, err := f.FetchDailyBars(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, bars, 2, "null bar should be skipped")
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)

	q, err := f.FetchQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", q.Name)
	assert.Equal(t, 102.0, q.LastPrice)
	assert.Equal(t, 2.0, q.Change)
	assert.InDelta(t, 2.0, q.ChangeRate, 1e-9)
	assert.Equal(t, 5000.0, q.Volume)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDailyBars(context.Background(), "NOPE", 10)
	assert.ErrorContains(t, err, "No data found")
}

func TestRestFetcher_BarsAndQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/v1/bars/daily":
			assert.Equal(t, "2", r.URL.Query().Get("limit"))
			fmt.Fprint(w, `[{"timestamp":1700086400,"close":11},{"timestamp":1700000000,"close":10}]`)
		case "/api/v1/quote":
			fmt.Fprint(w, `{"name":"Acme","price":11,"prev_close":10,"volume":42}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRestFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyBars(context.Background(), "ACME", 2)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 10.0, bars[0].Close, "bars should be sorted oldest first")

	q, err := f.FetchQuote(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, "Acme", q.Name)
	assert.InDelta(t, 10.0, q.ChangeRate, 1e-9)
}
