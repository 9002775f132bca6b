package strategy

import (
	"math"
	"sort"

	"StockSentinel/internal/model"
)

// Bias ranks the latest close/MA20 ratio against every historical ratio of
// the same series. Non-positive and NaN ratios are discarded. Ties resolve to
// the position after all equal values, so rank = count(ratio <= current) / n.
func Bias(closes, ma []float64) BiasOutcome {
	n := len(closes)
	if n == 0 || len(ma) != n {
		return BiasOutcome{Pct: math.NaN(), Rank: math.NaN(), Err: ErrInsufficientHistory}
	}

	ratios := make([]float64, 0, n)
	for i, c := range closes {
		if r := c / ma[i]; r > 0 && !math.IsInf(r, 0) {
			ratios = append(ratios, r)
		}
	}
	sort.Float64s(ratios)

	current := closes[n-1] / ma[n-1]
	if undefined(current) {
		return BiasOutcome{Pct: math.NaN(), Rank: math.NaN(), Err: ErrUndefinedValue}
	}
	if len(ratios) == 0 {
		return BiasOutcome{Pct: math.NaN(), Rank: math.NaN(), Err: ErrInsufficientHistory}
	}

	pos := sort.Search(len(ratios), func(i int) bool { return ratios[i] > current })
	return BiasOutcome{
		Pct:  (current - 1) * 100,
		Rank: float64(pos) / float64(len(ratios)),
	}
}

// MA20Trend labels a turning point of the moving average. The anchor is the
// previous value ma[-2], compared against the trailing 8 values ma[-8:]
// (which contain the anchor).
func MA20Trend(ma []float64) Outcome {
	const window = 8
	if len(ma) < window {
		return undetermined(ErrInsufficientHistory)
	}
	tail := ma[len(ma)-window:]
	if undefined(tail...) {
		return undetermined(ErrUndefinedValue)
	}

	lo, hi := tail[0], tail[0]
	for _, v := range tail[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	anchor := ma[len(ma)-2]
	switch anchor {
	case lo:
		return labeled(model.LabelTurnUp)
	case hi:
		return labeled(model.LabelTurnDown)
	}
	return labeled(model.LabelNone)
}

// CloseVsMA20 detects the close crossing MA20 after 9 periods on the other
// side. Both inputs are aligned; only the last 10 points are used.
func CloseVsMA20(closes, ma []float64) Outcome {
	const span = 10
	if len(closes) < span || len(ma) < span {
		return undetermined(ErrInsufficientHistory)
	}
	c := closes[len(closes)-span:]
	m := ma[len(ma)-span:]
	if undefined(c...) || undefined(m...) {
		return undetermined(ErrUndefinedValue)
	}

	below, above := true, true
	for i := 0; i < span-1; i++ {
		if !(m[i] >= c[i]) {
			below = false
		}
		if !(m[i] <= c[i]) {
			above = false
		}
	}
	last := span - 1
	switch {
	case below && m[last] <= c[last]:
		return labeled(model.LabelSupportUp)
	case above && m[last] >= c[last]:
		return labeled(model.LabelBreakdown)
	}
	return labeled(model.LabelNone)
}

// BollScore places close within the band: 0 at the midline, +/-1 at the
// bands. A zero-width band or undefined input scores a neutral 0.
func BollScore(close, mid, lower, upper float64) Score {
	width := upper - lower
	if undefined(close, mid, width) {
		return Score{Err: ErrUndefinedValue}
	}
	if width == 0 {
		return Score{Err: ErrUndefinedValue}
	}
	return Score{Score: (close - mid) / width * 2}
}

// MACDSignal evaluates, in order: histogram turning up below zero (TU),
// turning down above zero (TD), DIF crossing above DEA below zero (GC), DIF
// crossing below DEA above zero (DC).
func MACDSignal(dif, dea, hist []float64) Outcome {
	if len(hist) < 3 || len(dif) < 2 || len(dea) < 2 {
		return undetermined(ErrInsufficientHistory)
	}
	h3, h2, h1 := hist[len(hist)-3], hist[len(hist)-2], hist[len(hist)-1]
	dif2, dif1 := dif[len(dif)-2], dif[len(dif)-1]
	dea2, dea1 := dea[len(dea)-2], dea[len(dea)-1]
	if undefined(h3, h2, h1, dif2, dif1, dea2, dea1) {
		return undetermined(ErrUndefinedValue)
	}

	switch {
	case h2 < 0 && h2 == math.Min(h3, math.Min(h2, h1)):
		return labeled(model.LabelTurnUp)
	case h2 > 0 && h2 == math.Max(h3, math.Max(h2, h1)):
		return labeled(model.LabelTurnDown)
	case dea1 <= dif1 && dif1 < 0 && dif2 <= dea2:
		return labeled(model.LabelGoldCross)
	case 0 < dif1 && dif1 <= dea1 && dif2 >= dea2:
		return labeled(model.LabelDeadCross)
	}
	return labeled(model.LabelNone)
}

// KDJSignal reports a K/D cross between the last two periods that happened in
// the overbought (>70, HDC) or oversold (<30, LGC) zone.
func KDJSignal(k, d []float64) Outcome {
	if len(k) < 2 || len(d) < 2 {
		return undetermined(ErrInsufficientHistory)
	}
	k2, k1 := k[len(k)-2], k[len(k)-1]
	d2, d1 := d[len(d)-2], d[len(d)-1]
	if undefined(k2, k1, d2, d1) {
		return undetermined(ErrUndefinedValue)
	}

	if (k1-d1)*(k2-d2) > 0 {
		return labeled(model.LabelNone)
	}
	switch {
	case 70 < k1 && k1 <= d1:
		return labeled(model.LabelHighDeadCross)
	case d1 <= k1 && k1 < 30:
		return labeled(model.LabelLowGoldCross)
	}
	return labeled(model.LabelNone)
}
