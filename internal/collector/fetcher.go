package collector

import (
	"context"

	"StockSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data of one ticker.
type Fetcher interface {
	// FetchDailyBars returns up to n daily bars, oldest first.
	FetchDailyBars(ctx context.Context, ticker string, n int) ([]model.OHLCV, error)
	// FetchQuote returns name, last price, change and volume.
	FetchQuote(ctx context.Context, ticker string) (*model.Quote, error)
	Name() string
}
