package calculator

import "github.com/markcheno/go-talib"

const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// MACD returns the DIF line, the DEA (signal) line and the histogram
// 2*(DIF-DEA), all aligned with closes.
func MACD(closes []float64) (dif, dea, hist []float64) {
	lookback := MACDSlow - 1 + MACDSignal - 1
	if len(closes) <= lookback {
		return nanSeries(len(closes)), nanSeries(len(closes)), nanSeries(len(closes))
	}
	dif, dea, _ = talib.Macd(closes, MACDFast, MACDSlow, MACDSignal)
	hist = make([]float64, len(closes))
	for i := range hist {
		hist[i] = 2 * (dif[i] - dea[i])
	}
	for _, s := range [][]float64{dif, dea, hist} {
		blankLookback(s, lookback)
	}
	return dif, dea, hist
}
