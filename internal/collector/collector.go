package collector

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"StockSentinel/internal/model"
)

// MockFetcher returns controllable deterministic data for development and testing.
type MockFetcher struct {
	Price  float64
	Bars   map[string][]model.OHLCV // fixed bars per ticker
	Quotes map[string]*model.Quote  // fixed quotes per ticker
	Fail   map[string]error         // tickers whose every fetch fails

	mu         sync.Mutex
	barCalls   int
	quoteCalls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, ticker string, n int) ([]model.OHLCV, error) {
	m.mu.Lock()
	m.barCalls++
	m.mu.Unlock()

	return m.series(ticker, n)
}

func (m *MockFetcher) series(ticker string, n int) ([]model.OHLCV, error) {
	if err := m.Fail[ticker]; err != nil {
		return nil, err
	}
	if bars, ok := m.Bars[ticker]; ok {
		if len(bars) > n {
			bars = bars[len(bars)-n:]
		}
		return bars, nil
	}
	return generateMockBars(ticker, m.basePrice(), n), nil
}

func (m *MockFetcher) FetchQuote(_ context.Context, ticker string) (*model.Quote, error) {
	m.mu.Lock()
	m.quoteCalls++
	m.mu.Unlock()

	if err := m.Fail[ticker]; err != nil {
		return nil, err
	}
	if q, ok := m.Quotes[ticker]; ok {
		return q, nil
	}
	bars, err := m.series(ticker, 2)
	if err != nil {
		return nil, err
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("mock: not enough bars for %s", ticker)
	}
	last := bars[len(bars)-1]
	return newQuote(ticker, "Mock "+ticker, last.Close, bars[len(bars)-2].Close, last.Volume), nil
}

// Calls returns how many bar and quote fetches were made.
func (m *MockFetcher) Calls() (bars, quotes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.barCalls, m.quoteCalls
}

func (m *MockFetcher) basePrice() float64 {
	if m.Price > 0 {
		return m.Price
	}
	return 100
}

var mockEnd = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

// generateMockBars builds a wavy, ticker-specific series ending on a fixed date.
func generateMockBars(ticker string, basePrice float64, count int) []model.OHLCV {
	h := fnv.New32a()
	h.Write([]byte(ticker))
	seed := float64(h.Sum32()%97) + 3

	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + 0.08*math.Sin(x/seed) + 0.03*math.Sin(x/(seed/3+1)))
		bars[i] = model.OHLCV{
			Time:   mockEnd.AddDate(0, 0, -(count - 1 - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000 + 1000*seed,
		}
	}
	return bars
}

// Collector fronts a Fetcher with a per-run cache. Each ticker's history is
// fetched once at Depth bars; shorter lookbacks are served as its tail.
type Collector struct {
	Fetcher Fetcher
	Depth   int

	mu     sync.Mutex
	bars   map[string][]model.OHLCV
	quotes map[string]*model.Quote
	sf     singleflight.Group
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, depth int) *Collector {
	return &Collector{
		Fetcher: fetcher,
		Depth:   depth,
		bars:    make(map[string][]model.OHLCV),
		quotes:  make(map[string]*model.Quote),
	}
}

// Prices returns up to the last n daily bars of ticker, oldest first.
func (c *Collector) Prices(ctx context.Context, ticker string, n int) ([]model.OHLCV, error) {
	if n > c.Depth {
		return c.Fetcher.FetchDailyBars(ctx, ticker, n)
	}

	c.mu.Lock()
	bars, ok := c.bars[ticker]
	c.mu.Unlock()
	if !ok {
		v, err, _ := c.sf.Do("bars:"+ticker, func() (interface{}, error) {
			b, err := c.Fetcher.FetchDailyBars(ctx, ticker, c.Depth)
			if err != nil {
				return nil, err
			}
			c.mu.Lock()
			c.bars[ticker] = b
			c.mu.Unlock()
			return b, nil
		})
		if err != nil {
			return nil, fmt.Errorf("fetch daily bars: %w", err)
		}
		bars = v.([]model.OHLCV)
	}

	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

// Quote returns the ticker's metadata.
func (c *Collector) Quote(ctx context.Context, ticker string) (*model.Quote, error) {
	c.mu.Lock()
	q, ok := c.quotes[ticker]
	c.mu.Unlock()
	if ok {
		return q, nil
	}

	v, err, _ := c.sf.Do("quote:"+ticker, func() (interface{}, error) {
		q, err := c.Fetcher.FetchQuote(ctx, ticker)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.quotes[ticker] = q
		c.mu.Unlock()
		return q, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	return v.(*model.Quote), nil
}

// Forget drops the cached data of ticker.
func (c *Collector) Forget(ticker string) {
	c.mu.Lock()
	delete(c.bars, ticker)
	delete(c.quotes, ticker)
	c.mu.Unlock()
}

// Reset clears the whole cache.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.bars = make(map[string][]model.OHLCV)
	c.quotes = make(map[string]*model.Quote)
	c.mu.Unlock()
}
