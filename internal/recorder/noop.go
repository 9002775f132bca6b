package recorder

import (
	"context"

	"StockSentinel/internal/model"
)

// NoopSink discards everything; used for dry runs.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (n *NoopSink) EnsureSchema(context.Context) error                      { return nil }
func (n *NoopSink) InsertAll(context.Context, []model.AnalysisResult) error { return nil }
func (n *NoopSink) RecordRun(context.Context, *model.RunSummary) error      { return nil }
func (n *NoopSink) LoadAll(context.Context) ([]model.AnalysisResult, error) { return nil, nil }
func (n *NoopSink) LatestRun(context.Context) (*model.RunSummary, error)    { return nil, nil }
func (n *NoopSink) Close() error                                            { return nil }
