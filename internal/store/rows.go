package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/psantana5/factbench/internal/observe"
	"github.com/psantana5/factbench/internal/report"
	"github.com/psantana5/factbench/pkg/hostinfo"
)

// runRow is the column layout shared by the SQL backends.
// Timestamps are stored as Unix nanoseconds so both drivers agree.
type runRow struct {
	ID            string
	Input         int64
	Result        int64
	Intermediates string
	StartNanos    int64
	EndNanos      int64
	DurationNanos int64
	Host          string
}

// runColumns is the SELECT list matching scanRun
const runColumns = "id, input, result, intermediates, start_ns, end_ns, duration_ns, host"

func encodeRun(r *report.Result) (*runRow, error) {
	intermediates, err := json.Marshal(r.Intermediates)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intermediates: %w", err)
	}

	host := ""
	if r.Host != nil {
		data, err := json.Marshal(r.Host)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal host: %w", err)
		}
		host = string(data)
	}

	return &runRow{
		ID:            r.RunID,
		Input:         r.Input,
		Result:        r.Value,
		Intermediates: string(intermediates),
		StartNanos:    r.StartTime.UnixNano(),
		EndNanos:      r.EndTime.UnixNano(),
		DurationNanos: int64(r.Duration),
		Host:          host,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*report.Result, error) {
	var row runRow
	var host sql.NullString
	if err := s.Scan(&row.ID, &row.Input, &row.Result, &row.Intermediates,
		&row.StartNanos, &row.EndNanos, &row.DurationNanos, &host); err != nil {
		return nil, err
	}

	d := time.Duration(row.DurationNanos)
	r := &report.Result{
		RunID:           row.ID,
		Input:           row.Input,
		Value:           row.Result,
		StartTime:       time.Unix(0, row.StartNanos).UTC(),
		EndTime:         time.Unix(0, row.EndNanos).UTC(),
		Duration:        d,
		ExecutionMillis: observe.DurationMillis(d),
	}

	if row.Intermediates != "" && row.Intermediates != "null" {
		if err := json.Unmarshal([]byte(row.Intermediates), &r.Intermediates); err != nil {
			return nil, fmt.Errorf("failed to unmarshal intermediates of run %s: %w", row.ID, err)
		}
	}
	if host.Valid && host.String != "" {
		var info hostinfo.Info
		if err := json.Unmarshal([]byte(host.String), &info); err != nil {
			return nil, fmt.Errorf("failed to unmarshal host of run %s: %w", row.ID, err)
		}
		r.Host = &info
	}

	return r, nil
}

func scanRuns(rows *sql.Rows) ([]*report.Result, error) {
	defer rows.Close()

	var results []*report.Result
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
