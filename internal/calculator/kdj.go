package calculator

import (
	"github.com/markcheno/go-talib"

	"StockSentinel/internal/model"
)

const (
	KDJPeriod = 9
	KDJSmooth = 3
)

// KDJ returns the K, D and J lines of bars. RSV is taken over the last 9
// highs/lows, K and D are 1/3 smoothed starting from 50, and J = 3K - 2D.
func KDJ(bars []model.OHLCV) (k, d, j []float64) {
	n := len(bars)
	k, d, j = nanSeries(n), nanSeries(n), nanSeries(n)
	if n < KDJPeriod {
		return k, d, j
	}

	highs, lows := highsLows(bars)
	highest := talib.Max(highs, KDJPeriod)
	lowest := talib.Min(lows, KDJPeriod)

	prevK, prevD := 50.0, 50.0
	for i := KDJPeriod - 1; i < n; i++ {
		rsv := 50.0
		if span := highest[i] - lowest[i]; span != 0 {
			rsv = (bars[i].Close - lowest[i]) / span * 100
		}
		curK := (prevK*(KDJSmooth-1) + rsv) / KDJSmooth
		curD := (prevD*(KDJSmooth-1) + curK) / KDJSmooth
		k[i], d[i], j[i] = curK, curD, 3*curK-2*curD
		prevK, prevD = curK, curD
	}
	return k, d, j
}
