package calculator

import (
	"math"
	"testing"
	"time"

	"StockSentinel/internal/model"
)

func linearBars(n int) []model.OHLCV {
	bars := make([]model.OHLCV, n)
	start := time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + float64(i)
		bars[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

func TestMA_LeadingNaNAndValues(t *testing.T) {
	closes := Closes(linearBars(25))
	ma := MA(closes, 20)
	if len(ma) != len(closes) {
		t.Fatalf("expected aligned length %d, got %d", len(closes), len(ma))
	}
	for i := 0; i < 19; i++ {
		if !math.IsNaN(ma[i]) {
			t.Errorf("index %d: expected NaN inside lookback, got %v", i, ma[i])
		}
	}
	// SMA of 100..119 is 109.5
	if math.Abs(ma[19]-109.5) > 1e-9 {
		t.Errorf("expected 109.5 at index 19, got %v", ma[19])
	}
	if math.Abs(ma[24]-114.5) > 1e-9 {
		t.Errorf("expected 114.5 at index 24, got %v", ma[24])
	}
}

func TestMA_ShortInputAllNaN(t *testing.T) {
	ma := MA([]float64{1, 2, 3}, 20)
	for i, v := range ma {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN, got %v", i, v)
		}
	}
}

func TestBoll_ConstantSeriesHasZeroWidth(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 50
	}
	mid, lower, upper := Boll(closes)
	last := len(closes) - 1
	if math.Abs(mid[last]-50) > 1e-9 || math.Abs(upper[last]-lower[last]) > 1e-9 {
		t.Errorf("expected flat band at 50, got mid=%v lower=%v upper=%v", mid[last], lower[last], upper[last])
	}
	if !math.IsNaN(mid[0]) {
		t.Errorf("expected NaN mid inside lookback, got %v", mid[0])
	}
}

func TestMACD_ShortInputDoesNotPanic(t *testing.T) {
	dif, dea, hist := MACD([]float64{1, 2, 3, 4, 5})
	if len(dif) != 5 || len(dea) != 5 || len(hist) != 5 {
		t.Fatal("expected aligned series")
	}
	if !math.IsNaN(hist[4]) {
		t.Errorf("expected NaN histogram for short input, got %v", hist[4])
	}
}

func TestMACD_HistogramIsScaledDifference(t *testing.T) {
	closes := Closes(linearBars(100))
	dif, dea, hist := MACD(closes)
	last := len(closes) - 1
	if math.IsNaN(dif[last]) || math.IsNaN(dea[last]) {
		t.Fatal("expected defined MACD lines at the end of 100 bars")
	}
	if math.Abs(hist[last]-2*(dif[last]-dea[last])) > 1e-9 {
		t.Errorf("expected hist = 2*(dif-dea), got %v", hist[last])
	}
	if dif[last] <= 0 {
		t.Errorf("expected positive DIF for a rising series, got %v", dif[last])
	}
}

func TestKDJ_RisingSeriesIsOverbought(t *testing.T) {
	k, d, j := KDJ(linearBars(60))
	last := len(k) - 1
	if !math.IsNaN(k[0]) {
		t.Errorf("expected NaN K inside lookback, got %v", k[0])
	}
	if k[last] < 80 || d[last] < 80 {
		t.Errorf("expected K and D above 80 for a steady rise, got K=%v D=%v", k[last], d[last])
	}
	if math.Abs(j[last]-(3*k[last]-2*d[last])) > 1e-9 {
		t.Errorf("expected J = 3K - 2D, got %v", j[last])
	}
}
