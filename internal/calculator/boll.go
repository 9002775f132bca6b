package calculator

import "github.com/markcheno/go-talib"

const (
	BollPeriod = 20
	BollStdDev = 2.0
)

// Boll returns the Bollinger mid, lower and upper bands of closes using a
// 20-period SMA and 2 standard deviations.
func Boll(closes []float64) (mid, lower, upper []float64) {
	if len(closes) < BollPeriod {
		return nanSeries(len(closes)), nanSeries(len(closes)), nanSeries(len(closes))
	}
	upper, mid, lower = talib.BBands(closes, BollPeriod, BollStdDev, BollStdDev, talib.SMA)
	for _, s := range [][]float64{mid, lower, upper} {
		blankLookback(s, BollPeriod-1)
	}
	return mid, lower, upper
}
