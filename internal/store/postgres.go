package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/psantana5/factbench/internal/report"
	"github.com/psantana5/factbench/pkg/retry"
)

// PostgreSQLStore implements Store using PostgreSQL
type PostgreSQLStore struct {
	db *sql.DB
}

// NewPostgreSQLStore connects to cfg.DSN, retrying transient failures
func NewPostgreSQLStore(ctx context.Context, cfg Config) (*PostgreSQLStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("PostgreSQL DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(5)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	retryCfg := cfg.Retry
	if retryCfg.Multiplier == 0 {
		retryCfg = retry.DefaultConfig()
	}
	err = retry.Do(ctx, retryCfg, func() error {
		if err := db.PingContext(ctx); err != nil {
			if !retry.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgreSQLStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *PostgreSQLStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input BIGINT NOT NULL,
		result BIGINT NOT NULL,
		intermediates TEXT NOT NULL,
		start_ns BIGINT NOT NULL,
		end_ns BIGINT NOT NULL,
		duration_ns BIGINT NOT NULL,
		host TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_start ON runs(start_ns);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveRun upserts a run
func (s *PostgreSQLStore) SaveRun(ctx context.Context, r *report.Result) error {
	row, err := encodeRun(r)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, input, result, intermediates, start_ns, end_ns, duration_ns, host)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			input = EXCLUDED.input,
			result = EXCLUDED.result,
			intermediates = EXCLUDED.intermediates,
			start_ns = EXCLUDED.start_ns,
			end_ns = EXCLUDED.end_ns,
			duration_ns = EXCLUDED.duration_ns,
			host = EXCLUDED.host
	`, row.ID, row.Input, row.Result, row.Intermediates,
		row.StartNanos, row.EndNanos, row.DurationNanos, row.Host)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.RunID, err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *PostgreSQLStore) GetRun(ctx context.Context, id string) (*report.Result, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = $1", id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns runs newest first
func (s *PostgreSQLStore) ListRuns(ctx context.Context, limit int) ([]*report.Result, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY start_ns DESC, id"
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, query+" LIMIT $1", limit)
	} else {
		rows, err = s.db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return scanRuns(rows)
}

// HealthCheck pings the database
func (s *PostgreSQLStore) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database
func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}
