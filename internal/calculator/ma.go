package calculator

import (
	"math"

	"github.com/markcheno/go-talib"

	"StockSentinel/internal/model"
)

// MA returns the simple moving average of closes over window, aligned 1:1 with
// closes. The first window-1 entries are NaN; a series shorter than window is
// all NaN.
func MA(closes []float64, window int) []float64 {
	if window <= 0 || len(closes) < window {
		return nanSeries(len(closes))
	}
	out := talib.Sma(closes, window)
	blankLookback(out, window-1)
	return out
}

// Closes extracts the close prices of bars in order.
func Closes(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func highsLows(bars []model.OHLCV) (highs, lows []float64) {
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	return highs, lows
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// blankLookback overwrites the first n entries, which talib leaves as zero.
func blankLookback(series []float64, n int) {
	for i := 0; i < n && i < len(series); i++ {
		series[i] = math.NaN()
	}
}
