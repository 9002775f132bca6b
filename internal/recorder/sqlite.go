package recorder

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"StockSentinel/internal/model"
)

// SQLiteSink persists analysis rows to a SQLite database.
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteSink opens (or creates) the SQLite database.
func NewSQLiteSink(dbPath string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so readers are not blocked while a batch is written.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite sink opened")
	return &SQLiteSink{db: db}, nil
}

// EnsureSchema creates the result and run tables if they do not exist.
func (s *SQLiteSink) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS buy_sell (
			ticker_id     TEXT NOT NULL,
			name          TEXT,
			last_price    REAL,
			change_rate   REAL,
			ma20_trend    TEXT,
			close_vs_ma20 TEXT,
			bias_pct      REAL,
			bias_rank     REAL,
			boll_score    REAL,
			macd          TEXT,
			kdj           TEXT,
			volume        REAL
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id      TEXT PRIMARY KEY,
			started_at  INTEGER NOT NULL,
			finished_at INTEGER NOT NULL,
			universe    INTEGER,
			succeeded   INTEGER,
			failed      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_finished ON analysis_runs(finished_at)`,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// InsertAll replaces the stored batch with rows in a single transaction.
func (s *SQLiteSink) InsertAll(ctx context.Context, rows []model.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+Table); err != nil {
		return fmt.Errorf("delete previous rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL(func(int) string { return "?" }))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		vals := r.Values()
		for i := range vals {
			vals[i] = nullable(vals[i])
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			return fmt.Errorf("insert %s: %w", r.TickerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	log.Debug().Int("rows", len(rows)).Msg("sqlite batch saved")
	return nil
}

func (s *SQLiteSink) RecordRun(ctx context.Context, run *model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `INSERT INTO analysis_runs
		(run_id, started_at, finished_at, universe, succeeded, failed)
		VALUES (?,?,?,?,?,?)`,
		run.RunID, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Universe, run.Succeeded, run.Failed,
	)
	return err
}

// LoadAll returns the stored rows in insertion order.
func (s *SQLiteSink) LoadAll(ctx context.Context) ([]model.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, selectSQL()+" ORDER BY rowid")
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []model.AnalysisResult
	for rows.Next() {
		var (
			r                                    model.AnalysisResult
			name, trend, cross, macd, kdj        sql.NullString
			price, rate, pct, rank, boll, volume sql.NullFloat64
		)
		if err := rows.Scan(&r.TickerID, &name, &price, &rate, &trend, &cross,
			&pct, &rank, &boll, &macd, &kdj, &volume); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Name = name.String
		r.LastPrice, r.ChangeRate = orNaN(price), orNaN(rate)
		r.MA20Trend, r.CloseVsMA20 = model.Label(trend.String), model.Label(cross.String)
		r.BiasPct, r.BiasRank, r.BollScore = orNaN(pct), orNaN(rank), orNaN(boll)
		r.MACDLabel, r.KDJLabel = model.Label(macd.String), model.Label(kdj.String)
		r.Volume = orNaN(volume)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteSink) LatestRun(ctx context.Context) (*model.RunSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		run             model.RunSummary
		started, finish int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT run_id, started_at, finished_at, universe, succeeded, failed
		FROM analysis_runs ORDER BY finished_at DESC, rowid DESC LIMIT 1`).
		Scan(&run.RunID, &started, &finish, &run.Universe, &run.Succeeded, &run.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	run.StartedAt, run.FinishedAt = time.Unix(started, 0), time.Unix(finish, 0)
	return &run, nil
}

func (s *SQLiteSink) Close() error {
	log.Info().Msg("closing sqlite sink")
	return s.db.Close()
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
