package model

import "time"

// RunSummary describes one batch run.
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Universe   int
	Succeeded  int
	Failed     int
}
