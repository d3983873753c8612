package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/psantana5/factbench/internal/server"
	"github.com/psantana5/factbench/pkg/ratelimit"
	"github.com/psantana5/factbench/pkg/shutdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve runs, history and metrics over HTTP",
	Long: `serve exposes the benchmark over HTTP:

  GET  /run         execute one run and return it as JSON
  GET  /runs        stored history (requires --store)
  GET  /runs/{id}   one stored run
  GET  /metrics     Prometheus metrics
  GET  /health

Example:
  factbench serve --addr :9464 --store sqlite:///var/lib/factbench/runs.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveFlagKeys = map[string]string{
	"addr":            "serve.addr",
	"rps":             "serve.rps",
	"burst":           "serve.burst",
	"trusted-proxies": "serve.trusted_proxies",
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":9464", "listen address")
	serveCmd.Flags().Float64("rps", 5, "per-client /run requests per second")
	serveCmd.Flags().Int("burst", 10, "per-client /run burst size")
	serveCmd.Flags().StringSlice("trusted-proxies", nil, "proxy IPs or CIDRs allowed to set X-Forwarded-For")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, serveFlagKeys)
	if err != nil {
		return err
	}

	app, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		app.Close(cmd.Context())
		return fmt.Errorf("failed to listen on %s: %w", cfg.Serve.Addr, err)
	}

	keyFunc, err := ratelimit.TrustedKeyFunc(cfg.Serve.TrustedProxies)
	if err != nil {
		ln.Close()
		app.Close(cmd.Context())
		return err
	}

	limiter := ratelimit.NewLimiter(cfg.Serve.RPS, cfg.Serve.Burst)
	handler := server.NewHandler(app.runner, limiter, app.logger)
	handler.SetKeyFunc(keyFunc)
	srv := &http.Server{
		Handler:      server.NewRouter(handler),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.CleanupOldLimiters(10 * time.Minute)
			}
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		app.logger.Info("HTTP server listening", map[string]interface{}{"addr": ln.Addr().String()})
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
		cancel()
	}()

	mgr := shutdown.New(cfg.Serve.ShutdownTimeout, app.logger)
	// steps run in reverse: http, tracing, then history
	if app.store != nil {
		mgr.Register("history", shutdown.CloseResource(app.store))
	}
	mgr.Register("tracing", app.tracer.Shutdown)
	mgr.Register("http", shutdown.StopHTTPServer(srv))

	mgr.WaitWithContext(ctx)
	shutdownErr := mgr.Shutdown()

	return errors.Join(<-serveErr, shutdownErr)
}
