package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/psantana5/factbench/internal/factorial"
	"github.com/psantana5/factbench/internal/observe"
	"github.com/psantana5/factbench/internal/report"
	"github.com/psantana5/factbench/internal/store"
	"github.com/psantana5/factbench/pkg/hostinfo"
	"github.com/psantana5/factbench/pkg/logging"
	"github.com/psantana5/factbench/pkg/tracing"
)

// Options wires a Runner. Only Logger is required; a nil Store disables
// history and an empty MetricsFile disables the textfile export.
type Options struct {
	Logger      *logging.Logger
	Tracer      *tracing.Provider
	Metrics     *report.Metrics
	Store       store.Store
	MetricsFile string
	CollectHost bool
}

// Runner executes measured runs of the entry routine
type Runner struct {
	logger      *logging.Logger
	tracer      *tracing.Provider
	metrics     *report.Metrics
	store       store.Store
	metricsFile string

	collectHost bool
	hostOnce    sync.Once
	host        hostinfo.Info

	newID func() string
}

// New creates a runner
func New(opts Options) *Runner {
	r := &Runner{
		logger:      opts.Logger,
		tracer:      opts.Tracer,
		metrics:     opts.Metrics,
		store:       opts.Store,
		metricsFile: opts.MetricsFile,
		collectHost: opts.CollectHost,
		newID:       func() string { return uuid.New().String() },
	}
	if r.logger == nil {
		r.logger = logging.Nop()
	}
	if r.metrics == nil {
		r.metrics = report.NewMetrics()
	}
	if r.tracer == nil {
		r.tracer = tracing.Noop("factbench")
	}
	return r
}

// Metrics returns the metrics the runner records into
func (r *Runner) Metrics() *report.Metrics {
	return r.metrics
}

// Store returns the configured history store, or nil
func (r *Runner) Store() store.Store {
	return r.store
}

// Run times one call of the entry routine. Intermediates stream to live
// (which may be nil) while the recursion unwinds and are also kept on the
// returned Result. The computation cannot fail; a non-nil error comes from
// publishing the result, in which case the Result is still returned.
func (r *Runner) Run(ctx context.Context, live factorial.Printer) (*report.Result, error) {
	ctx, span := r.tracer.StartSpan(ctx, "factbench.run",
		attribute.Int64("factorial.input", factorial.Input))
	defer span.End()

	collector := &factorial.Collector{}
	printer := factorial.Tee(live, collector)

	value, timing := observe.Measure(func() int64 {
		return factorial.Run(printer)
	})

	result := report.NewResult(r.newID(), factorial.Input, value, timing)
	result.SetIntermediates(collector.Values)
	if r.collectHost {
		r.hostOnce.Do(func() { r.host = hostinfo.Detect() })
		result.SetHost(r.host)
	}

	span.SetAttributes(
		attribute.String("factbench.run_id", result.RunID),
		attribute.Int64("factorial.result", result.Value),
		attribute.Float64("factbench.execution_ms", result.ExecutionMillis),
	)

	if err := r.publish(ctx, result); err != nil {
		tracing.SetError(ctx, err)
		r.logger.Error(err.Error(), map[string]interface{}{"run_id": result.RunID})
		return result, err
	}

	result.LogSummary(r.logger)
	return result, nil
}

// publish records metrics, then the textfile export, then history
func (r *Runner) publish(ctx context.Context, result *report.Result) error {
	r.metrics.RecordResult(result)

	if r.metricsFile != "" {
		if err := r.metrics.WriteFile(r.metricsFile); err != nil {
			return err
		}
		r.logger.Debug("Metrics written", map[string]interface{}{"path": r.metricsFile})
	}

	if r.store != nil {
		if err := r.store.SaveRun(ctx, result); err != nil {
			return fmt.Errorf("failed to record run history: %w", err)
		}
	}

	return nil
}
