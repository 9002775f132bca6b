package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote holds the descriptive metadata of a ticker at fetch time.
type Quote struct {
	Ticker     string
	Name       string
	LastPrice  float64
	Change     float64 // absolute change vs previous close
	ChangeRate float64 // percent change vs previous close
	Volume     float64
}
