package report

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Metrics are counters derived from Results only.
// Every sample must be explainable by looking at a single run record.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal     prometheus.Counter
	runDuration   prometheus.Histogram
	lastResult    prometheus.Gauge
	lastRunMillis prometheus.Gauge
	lastRunTime   prometheus.Gauge
}

// NewMetrics creates run metrics on a private registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factbench_runs_total",
			Help: "Total factorial runs completed",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "factbench_run_duration_seconds",
			Help:    "Wall-clock duration of the entry routine",
			Buckets: prometheus.ExponentialBuckets(0.000001, 10, 8),
		}),
		lastResult: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "factbench_last_result",
			Help: "Value returned by the most recent run",
		}),
		lastRunMillis: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "factbench_last_run_milliseconds",
			Help: "Execution time of the most recent run in milliseconds",
		}),
		lastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "factbench_last_run_timestamp_seconds",
			Help: "Unix time the most recent run completed",
		}),
	}

	m.registry.MustRegister(m.runsTotal)
	m.registry.MustRegister(m.runDuration)
	m.registry.MustRegister(m.lastResult)
	m.registry.MustRegister(m.lastRunMillis)
	m.registry.MustRegister(m.lastRunTime)

	return m
}

// RecordResult updates all series from a single Result.
// This is the ONLY way to update metrics.
func (m *Metrics) RecordResult(r *Result) {
	m.runsTotal.Inc()
	m.runDuration.Observe(r.Duration.Seconds())
	m.lastResult.Set(float64(r.Value))
	m.lastRunMillis.Set(r.ExecutionMillis)
	if !r.EndTime.IsZero() {
		m.lastRunTime.Set(float64(r.EndTime.UnixNano()) / 1e9)
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteText writes every metric family in text exposition format
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteFile writes the exposition to path atomically, in the layout the
// node_exporter textfile collector reads.
func (m *Metrics) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".factbench-metrics-*")
	if err != nil {
		return fmt.Errorf("failed to create metrics file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if err := m.WriteText(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod metrics file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close metrics file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
