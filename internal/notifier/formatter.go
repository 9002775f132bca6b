package notifier

import (
	"fmt"
	"math"
	"strings"

	"StockSentinel/internal/model"
)

// Bias ranks at or beyond these bounds are reported as extremes.
const (
	HighBiasRank = 0.95
	LowBiasRank  = 0.05
)

// FormatNumber renders v with two decimals.
func FormatNumber(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatSigned renders v with two decimals and a leading + when positive.
func FormatSigned(v float64) string {
	if v > 0 {
		return "+" + FormatNumber(v)
	}
	return FormatNumber(v)
}

func FormatPct(v float64) string { return FormatNumber(v) + "%" }

func FormatSignedPct(v float64) string { return FormatSigned(v) + "%" }

// FormatVolume abbreviates v as bn, mm or k. Values up to 1000 are shown
// unscaled but still carry the k suffix.
func FormatVolume(v float64) string {
	switch {
	case v > 1e9:
		return FormatNumber(v/1e9) + " bn"
	case v > 1e6:
		return FormatNumber(v/1e6) + " mm"
	case v > 1e3:
		return FormatNumber(v/1e3) + " k"
	default:
		return FormatNumber(v) + " k"
	}
}

// FormatRunSummary formats a finished run into a Telegram message listing the
// tickers that carry actionable labels or extreme bias ranks.
func FormatRunSummary(run *model.RunSummary, rows []model.AnalysisResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>StockSentinel</b> | %s\n\n", run.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Tickers: %d | saved %d | skipped %d\n", run.Universe, run.Succeeded, run.Failed))

	groups := []struct {
		title string
		label model.Label
		pick  func(model.AnalysisResult) model.Label
	}{
		{"KDJ low gold cross", model.LabelLowGoldCross, func(r model.AnalysisResult) model.Label { return r.KDJLabel }},
		{"KDJ high dead cross", model.LabelHighDeadCross, func(r model.AnalysisResult) model.Label { return r.KDJLabel }},
		{"MACD gold cross", model.LabelGoldCross, func(r model.AnalysisResult) model.Label { return r.MACDLabel }},
		{"MACD dead cross", model.LabelDeadCross, func(r model.AnalysisResult) model.Label { return r.MACDLabel }},
	}
	for _, g := range groups {
		var ids []string
		for _, r := range rows {
			if g.pick(r) == g.label {
				ids = append(ids, r.TickerID)
			}
		}
		if len(ids) > 0 {
			b.WriteString(fmt.Sprintf("\n<b>%s</b> (%s): %s\n", g.title, g.label, strings.Join(ids, ", ")))
		}
	}

	var extremes []string
	for _, r := range rows {
		if math.IsNaN(r.BiasRank) {
			continue
		}
		if r.BiasRank >= HighBiasRank || r.BiasRank <= LowBiasRank {
			extremes = append(extremes, fmt.Sprintf("  %s rank %s bias %s | %s %s",
				r.TickerID, FormatNumber(r.BiasRank), FormatSignedPct(r.BiasPct),
				FormatNumber(r.LastPrice), FormatSignedPct(r.ChangeRate)))
		}
	}
	if len(extremes) > 0 {
		b.WriteString("\n<b>Bias extremes</b>\n")
		b.WriteString(strings.Join(extremes, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}
