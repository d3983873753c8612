package report

// A Result is frozen once built. Renderers, metrics and stores only read it.

import (
	"time"

	"github.com/psantana5/factbench/internal/observe"
	"github.com/psantana5/factbench/pkg/hostinfo"
	"github.com/psantana5/factbench/pkg/logging"
)

// Result is the record of one factorial run
type Result struct {
	// Identity
	RunID string `json:"run_id" yaml:"run_id"`

	// Computation
	Input         int64   `json:"input" yaml:"input"`
	Value         int64   `json:"result" yaml:"result"`
	Intermediates []int64 `json:"intermediates,omitempty" yaml:"intermediates,omitempty"`

	// Timing
	StartTime       time.Time     `json:"start_time" yaml:"start_time"`
	EndTime         time.Time     `json:"end_time" yaml:"end_time"`
	Duration        time.Duration `json:"-" yaml:"-"`
	ExecutionMillis float64       `json:"execution_time_ms" yaml:"execution_time_ms"`

	// Environment (optional)
	Host *hostinfo.Info `json:"host,omitempty" yaml:"host,omitempty"`
}

// NewResult builds a result from a completed timing
func NewResult(runID string, input, value int64, timing *observe.Timing) *Result {
	d := timing.Duration()
	return &Result{
		RunID:           runID,
		Input:           input,
		Value:           value,
		StartTime:       timing.StartedAt,
		EndTime:         timing.CompletedAt,
		Duration:        d,
		ExecutionMillis: observe.DurationMillis(d),
	}
}

// SetIntermediates attaches the products seen during the unwind
func (r *Result) SetIntermediates(values []int64) {
	r.Intermediates = append([]int64(nil), values...)
}

// SetHost attaches host details
func (r *Result) SetHost(info hostinfo.Info) {
	r.Host = &info
}

// LogSummary emits a human-readable one-line summary at INFO
func (r *Result) LogSummary(logger *logging.Logger) {
	logger.Info("RUN "+r.RunID+" | input="+formatInt(r.Input)+
		" | result="+formatInt(r.Value)+
		" | elapsed="+FormatMillis(r.ExecutionMillis)+"ms",
		map[string]interface{}{
			"intermediates": len(r.Intermediates),
		})
}
