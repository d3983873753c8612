package cmd

import (
	"context"
	"errors"
	"io"

	"github.com/psantana5/factbench/internal/config"
	"github.com/psantana5/factbench/internal/report"
	"github.com/psantana5/factbench/internal/runner"
	"github.com/psantana5/factbench/internal/store"
	"github.com/psantana5/factbench/pkg/logging"
	"github.com/psantana5/factbench/pkg/tracing"
)

// app holds everything one command invocation wires together
type app struct {
	logger *logging.Logger
	tracer *tracing.Provider
	store  store.Store
	runner *runner.Runner
}

func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer, collectHost bool) (*app, error) {
	logger := cfg.NewLogger()
	logger.SetOutput(logOut)

	tracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "factbench",
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		Enabled:        cfg.Tracing.Enabled,
	}, logger)
	if err != nil {
		return nil, err
	}

	history, err := store.Open(ctx, store.Config{
		DSN:            cfg.Store.DSN,
		MemoryCapacity: cfg.Store.MemoryCapacity,
	})
	if err != nil {
		tracer.Shutdown(ctx)
		return nil, err
	}
	if history != nil {
		logger.Debug("Run history enabled", map[string]interface{}{"dsn": cfg.Store.DSN})
	}

	return &app{
		logger: logger,
		tracer: tracer,
		store:  history,
		runner: runner.New(runner.Options{
			Logger:      logger,
			Tracer:      tracer,
			Metrics:     report.NewMetrics(),
			Store:       history,
			MetricsFile: cfg.MetricsFile,
			CollectHost: collectHost,
		}),
	}, nil
}

// Close flushes spans and closes history
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if err := a.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
