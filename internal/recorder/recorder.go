package recorder

import (
	"context"
	"fmt"
	"math"
	"strings"

	"StockSentinel/internal/model"
)

// Table is the destination table of analysis rows.
const Table = "buy_sell"

// Sink persists analysis batches. InsertAll replaces the previous batch
// atomically.
type Sink interface {
	EnsureSchema(ctx context.Context) error
	InsertAll(ctx context.Context, rows []model.AnalysisResult) error
	RecordRun(ctx context.Context, run *model.RunSummary) error
	LoadAll(ctx context.Context) ([]model.AnalysisResult, error)
	// LatestRun returns nil when no run has been recorded.
	LatestRun(ctx context.Context) (*model.RunSummary, error)
	Close() error
}

// insertSQL builds an INSERT over every result column using placeholder(i)
// for the i-th (1-based) argument.
func insertSQL(placeholder func(i int) string) string {
	ph := make([]string, len(model.Columns))
	for i := range ph {
		ph[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		Table, strings.Join(model.Columns, ", "), strings.Join(ph, ", "))
}

func selectSQL() string {
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(model.Columns, ", "), Table)
}

// nullable maps NaN to nil so drivers without NaN support store NULL.
func nullable(v any) any {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return nil
	}
	return v
}
