package model

// Label is a discrete signal emitted by a classifier. The empty label means
// "no signal this period".
type Label string

const (
	LabelNone Label = ""

	// MA20 trend and MACD histogram turning points.
	LabelTurnUp   Label = "TU"
	LabelTurnDown Label = "TD"

	// Close vs MA20 crossings.
	LabelSupportUp Label = "SU"
	LabelBreakdown Label = "DD"

	// MACD line crosses.
	LabelGoldCross Label = "GC"
	LabelDeadCross Label = "DC"

	// KDJ crosses in the extreme zones.
	LabelHighDeadCross Label = "HDC"
	LabelLowGoldCross  Label = "LGC"
)

// Columns is the storage column order of AnalysisResult. It must match Values.
var Columns = []string{
	"ticker_id",
	"name",
	"last_price",
	"change_rate",
	"ma20_trend",
	"close_vs_ma20",
	"bias_pct",
	"bias_rank",
	"boll_score",
	"macd",
	"kdj",
	"volume",
}

// AnalysisResult is the per-ticker summary row written by the sink.
type AnalysisResult struct {
	TickerID    string
	Name        string
	LastPrice   float64
	ChangeRate  float64
	MA20Trend   Label
	CloseVsMA20 Label
	BiasPct     float64 // (close/MA20 - 1) * 100, NaN when undefined
	BiasRank    float64 // percentile rank in [0,1], NaN when undefined
	BollScore   float64
	MACDLabel   Label
	KDJLabel    Label
	Volume      float64
}

// Values returns the fields in Columns order.
func (r AnalysisResult) Values() []any {
	return []any{
		r.TickerID,
		r.Name,
		r.LastPrice,
		r.ChangeRate,
		string(r.MA20Trend),
		string(r.CloseVsMA20),
		r.BiasPct,
		r.BiasRank,
		r.BollScore,
		string(r.MACDLabel),
		string(r.KDJLabel),
		r.Volume,
	}
}
