package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/psantana5/factbench/internal/report"
	"github.com/psantana5/factbench/pkg/retry"
)

// ErrRunNotFound is returned when a run ID is unknown
var ErrRunNotFound = errors.New("run not found")

// Store persists run results.
// Memory, SQLite and PostgreSQL implement this interface.
type Store interface {
	SaveRun(ctx context.Context, r *report.Result) error
	GetRun(ctx context.Context, id string) (*report.Result, error)
	// ListRuns returns at most limit runs, newest first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]*report.Result, error)

	HealthCheck(ctx context.Context) error
	Close() error
}

// Config selects and tunes a store
type Config struct {
	// DSN picks the backend by scheme:
	//   memory://            in-process ring buffer
	//   sqlite://<path>      SQLite file
	//   postgres://...       PostgreSQL (passed through to lib/pq)
	DSN string

	MemoryCapacity  int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	Retry           retry.Config
}

// Open returns the store named by cfg.DSN, or nil when the DSN is empty
func Open(ctx context.Context, cfg Config) (Store, error) {
	backend, target, err := parseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	switch backend {
	case "":
		return nil, nil
	case "memory":
		return NewMemoryStore(cfg.MemoryCapacity), nil
	case "sqlite":
		s, err := NewSQLiteStore(target)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgreSQLStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unsupported store backend %q", backend)
}

// parseDSN splits a DSN into backend name and backend-specific target
func parseDSN(dsn string) (backend, target string, err error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", "", nil
	}

	scheme, rest, found := strings.Cut(dsn, "://")
	if !found {
		if dsn == "memory" {
			return "memory", "", nil
		}
		return "", "", fmt.Errorf("store DSN %q has no scheme (expected memory://, sqlite:// or postgres://)", dsn)
	}

	switch strings.ToLower(scheme) {
	case "memory":
		return "memory", "", nil
	case "sqlite", "sqlite3":
		if rest == "" {
			return "", "", fmt.Errorf("sqlite DSN %q has no path", dsn)
		}
		return "sqlite", rest, nil
	case "postgres", "postgresql":
		return "postgres", dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported store scheme %q", scheme)
	}
}
