package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"StockSentinel/internal/model"
)

// PostgresSink persists analysis rows to PostgreSQL. DOUBLE PRECISION keeps
// NaN natively, so undefined scores round-trip unchanged.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink connects to url and verifies the connection.
func NewPostgresSink(ctx context.Context, url string) (*PostgresSink, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = 4
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().
		Str("host", poolConfig.ConnConfig.Host).
		Str("database", poolConfig.ConnConfig.Database).
		Msg("postgres sink connected")
	return &PostgresSink{pool: pool}, nil
}

func (p *PostgresSink) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS buy_sell (
			ticker_id     TEXT NOT NULL,
			name          TEXT,
			last_price    DOUBLE PRECISION,
			change_rate   DOUBLE PRECISION,
			ma20_trend    TEXT,
			close_vs_ma20 TEXT,
			bias_pct      DOUBLE PRECISION,
			bias_rank     DOUBLE PRECISION,
			boll_score    DOUBLE PRECISION,
			macd          TEXT,
			kdj           TEXT,
			volume        DOUBLE PRECISION
		)`,
		`CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id      UUID PRIMARY KEY,
			started_at  TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			universe    INTEGER,
			succeeded   INTEGER,
			failed      INTEGER
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// InsertAll replaces the stored batch with rows in a single transaction,
// bulk-loading through COPY.
func (p *PostgresSink) InsertAll(ctx context.Context, rows []model.AnalysisResult) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "DELETE FROM "+Table); err != nil {
		return fmt.Errorf("delete previous rows: %w", err)
	}

	src := make([][]any, len(rows))
	for i, r := range rows {
		src[i] = r.Values()
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{Table}, model.Columns, pgx.CopyFromRows(src))
	if err != nil {
		return fmt.Errorf("copy rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	log.Debug().Int64("rows", n).Msg("postgres batch saved")
	return nil
}

func (p *PostgresSink) RecordRun(ctx context.Context, run *model.RunSummary) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO analysis_runs
		(run_id, started_at, finished_at, universe, succeeded, failed)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		run.RunID, run.StartedAt, run.FinishedAt, run.Universe, run.Succeeded, run.Failed,
	)
	return err
}

func (p *PostgresSink) LoadAll(ctx context.Context) ([]model.AnalysisResult, error) {
	rows, err := p.pool.Query(ctx, selectSQL()+" ORDER BY ctid")
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var out []model.AnalysisResult
	for rows.Next() {
		var (
			r                       model.AnalysisResult
			trend, cross, macd, kdj string
		)
		if err := rows.Scan(&r.TickerID, &r.Name, &r.LastPrice, &r.ChangeRate, &trend, &cross,
			&r.BiasPct, &r.BiasRank, &r.BollScore, &macd, &kdj, &r.Volume); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.MA20Trend, r.CloseVsMA20 = model.Label(trend), model.Label(cross)
		r.MACDLabel, r.KDJLabel = model.Label(macd), model.Label(kdj)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *PostgresSink) LatestRun(ctx context.Context) (*model.RunSummary, error) {
	var run model.RunSummary
	err := p.pool.QueryRow(ctx, `SELECT run_id::text, started_at, finished_at, universe, succeeded, failed
		FROM analysis_runs ORDER BY finished_at DESC LIMIT 1`).
		Scan(&run.RunID, &run.StartedAt, &run.FinishedAt, &run.Universe, &run.Succeeded, &run.Failed)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return &run, nil
}

func (p *PostgresSink) Close() error {
	log.Info().Msg("closing postgres sink")
	p.pool.Close()
	return nil
}
