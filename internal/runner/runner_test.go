package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/psantana5/factbench/internal/factorial"
	"github.com/psantana5/factbench/internal/report"
	"github.com/psantana5/factbench/internal/store"
	"github.com/psantana5/factbench/pkg/logging"
	"github.com/psantana5/factbench/pkg/tracing"
)

type failingStore struct {
	store.MemoryStore
}

func (f *failingStore) SaveRun(context.Context, *report.Result) error {
	return errors.New("disk full")
}

func TestRunStreamsAndCollects(t *testing.T) {
	var live bytes.Buffer
	r := New(Options{})

	res, err := r.Run(context.Background(), factorial.NewPrinter(&live))
	require.NoError(t, err)

	assert.Equal(t, int64(479001600), res.Value)
	assert.Equal(t, int64(12), res.Input)
	assert.Len(t, res.Intermediates, 11)
	assert.NotEmpty(t, res.RunID)
	assert.GreaterOrEqual(t, res.ExecutionMillis, 0.0)
	assert.False(t, res.EndTime.Before(res.StartTime))
	assert.Nil(t, res.Host)

	lines := strings.Fields(live.String())
	assert.Equal(t, "2", lines[0])
	assert.Equal(t, "479001600", lines[len(lines)-1])
}

func TestRunWithoutLivePrinter(t *testing.T) {
	r := New(Options{})

	res, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, res.Intermediates, 11)
}

func TestRunPublishes(t *testing.T) {
	ctx := context.Background()
	history := store.NewMemoryStore(10)
	metricsFile := filepath.Join(t.TempDir(), "factbench.prom")

	var logs bytes.Buffer
	logger := logging.NewLogger(logging.INFO, false)
	logger.SetOutput(&logs)

	r := New(Options{
		Logger:      logger,
		Store:       history,
		MetricsFile: metricsFile,
		CollectHost: true,
	})
	r.newID = func() string { return "fixed-id" }

	res, err := r.Run(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Host)

	saved, err := history.GetRun(ctx, "fixed-id")
	require.NoError(t, err)
	assert.Same(t, res, saved)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "factbench_runs_total 1")

	assert.Contains(t, logs.String(), "RUN fixed-id | input=12 | result=479001600")
	assert.Same(t, history, r.Store())
}

func TestRunRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := tracing.NewProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)), "factbench")
	r := New(Options{Tracer: tp})

	_, err := r.Run(context.Background(), nil)
	require.NoError(t, err)

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "factbench.run", ended[0].Name())

	attrs := map[string]interface{}{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(12), attrs["factorial.input"])
	assert.Equal(t, int64(479001600), attrs["factorial.result"])
}

func TestRunJoinsCallerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := tracing.NewProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)), "factbench")
	r := New(Options{Tracer: tp})

	ctx, parent := tp.Tracer().Start(context.Background(), "http.request")
	_, err := r.Run(ctx, nil)
	require.NoError(t, err)
	parent.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "factbench.run", ended[0].Name())
	assert.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())
	assert.Equal(t, parent.SpanContext().TraceID(), ended[0].SpanContext().TraceID())
}

func TestRunStoreFailure(t *testing.T) {
	r := New(Options{Store: &failingStore{}})

	res, err := r.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, res)
	assert.Equal(t, int64(479001600), res.Value)

	// metrics were recorded before the store failed
	var buf bytes.Buffer
	require.NoError(t, r.Metrics().WriteText(&buf))
	assert.Contains(t, buf.String(), "factbench_runs_total 1")
}
