package strategy

import (
	"errors"
	"math"

	"StockSentinel/internal/calculator"
	"StockSentinel/internal/model"
)

// Lookbacks, in bars, of the price histories each classifier consumes.
const (
	BiasLookback  = 2000
	TrendLookback = 500
	ShortLookback = 100

	MAWindow = 20
)

var (
	// ErrInsufficientHistory means there were not enough trailing points.
	ErrInsufficientHistory = errors.New("insufficient history")
	// ErrUndefinedValue means an input needed by the rule was NaN or infinite.
	ErrUndefinedValue = errors.New("undefined value")
)

// Outcome is the result of a label classifier. A non-nil Err marks the
// outcome as undetermined, which is distinct from a determined "no signal".
type Outcome struct {
	Label model.Label
	Err   error
}

func labeled(l model.Label) Outcome  { return Outcome{Label: l} }
func undetermined(err error) Outcome { return Outcome{Err: err} }

// Determined reports whether the classifier could evaluate its rule.
func (o Outcome) Determined() bool { return o.Err == nil }

// Value returns the label, or the empty label when undetermined.
func (o Outcome) Value() model.Label {
	if o.Err != nil {
		return model.LabelNone
	}
	return o.Label
}

// BiasOutcome carries the percent deviation from MA20 and its percentile
// rank within the ticker's own history.
type BiasOutcome struct {
	Pct  float64
	Rank float64
	Err  error
}

// Values returns (pct, rank), or (NaN, NaN) when undetermined.
func (b BiasOutcome) Values() (pct, rank float64) {
	if b.Err != nil {
		return math.NaN(), math.NaN()
	}
	return b.Pct, b.Rank
}

// Score is a continuous classifier result.
type Score struct {
	Score float64
	Err   error
}

// Value returns the score, or the neutral 0 when undetermined.
func (s Score) Value() float64 {
	if s.Err != nil {
		return 0
	}
	return s.Score
}

// Inputs holds the price histories of one ticker, oldest first.
type Inputs struct {
	Long  []model.OHLCV // up to BiasLookback bars
	Trend []model.OHLCV // up to TrendLookback bars
	Short []model.OHLCV // up to ShortLookback bars
}

// Signals is the full classifier output for one ticker.
type Signals struct {
	MA20Trend   Outcome
	CloseVsMA20 Outcome
	Bias        BiasOutcome
	Boll        Score
	MACD        Outcome
	KDJ         Outcome
}

// Evaluate computes the indicator series and runs every classifier.
func Evaluate(in Inputs) Signals {
	longCloses := calculator.Closes(in.Long)
	trendCloses := calculator.Closes(in.Trend)
	trendMA := calculator.MA(trendCloses, MAWindow)
	shortCloses := calculator.Closes(in.Short)

	mid, lower, upper := calculator.Boll(shortCloses)
	dif, dea, hist := calculator.MACD(shortCloses)
	k, d, _ := calculator.KDJ(in.Short)

	var sig Signals
	sig.MA20Trend = MA20Trend(trendMA)
	sig.CloseVsMA20 = CloseVsMA20(trendCloses, trendMA)
	sig.Bias = Bias(longCloses, calculator.MA(longCloses, MAWindow))
	if n := len(shortCloses); n > 0 {
		sig.Boll = BollScore(shortCloses[n-1], mid[n-1], lower[n-1], upper[n-1])
	} else {
		sig.Boll = Score{Err: ErrInsufficientHistory}
	}
	sig.MACD = MACDSignal(dif, dea, hist)
	sig.KDJ = KDJSignal(k, d)
	return sig
}

func undefined(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
