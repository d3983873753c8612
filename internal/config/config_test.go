package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psantana5/factbench/internal/report"
	"github.com/psantana5/factbench/pkg/logging"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "text", cfg.Output)
	assert.Equal(t, report.FormatText, cfg.Format())
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "", cfg.Store.DSN)
	assert.Equal(t, 100, cfg.Store.MemoryCapacity)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Equal(t, ":9464", cfg.Serve.Addr)
	assert.Equal(t, 10*time.Second, cfg.Serve.ShutdownTimeout)
	assert.Equal(t, logging.WARN, cfg.NewLogger().Level())
}

func TestLoadHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".factbench")
	require.NoError(t, os.MkdirAll(dir, 0755))
	writeConfig(t, dir, "output: json\nstore:\n  dsn: memory://\n")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, report.FormatJSON, cfg.Format())
	assert.Equal(t, "memory://", cfg.Store.DSN)
}

func TestLoadExplicitFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, t.TempDir(), `
output: yaml
log_level: debug
log_format: json
metrics_file: /tmp/factbench.prom
tracing:
  enabled: true
  endpoint: collector:4318
serve:
  addr: 127.0.0.1:8080
  rps: 1.5
  burst: 3
  shutdown_timeout: 2s
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, report.FormatYAML, cfg.Format())
	assert.Equal(t, "/tmp/factbench.prom", cfg.MetricsFile)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, "collector:4318", cfg.Tracing.Endpoint)
	assert.Equal(t, "127.0.0.1:8080", cfg.Serve.Addr)
	assert.Equal(t, 1.5, cfg.Serve.RPS)
	assert.Equal(t, 3, cfg.Serve.Burst)
	assert.Equal(t, 2*time.Second, cfg.Serve.ShutdownTimeout)
	assert.Equal(t, logging.DEBUG, cfg.NewLogger().Level())
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, t.TempDir(), "output: json\nstore:\n  dsn: memory://\n")
	t.Setenv("FACTBENCH_OUTPUT", "table")
	t.Setenv("FACTBENCH_STORE_DSN", "sqlite:///tmp/runs.db")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, report.FormatTable, cfg.Format())
	assert.Equal(t, "sqlite:///tmp/runs.db", cfg.Store.DSN)
}

func TestTrustedProxiesFromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("FACTBENCH_SERVE_TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.10")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.10"}, cfg.Serve.TrustedProxies)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Output:    "text",
			LogLevel:  "info",
			LogFormat: "text",
			Serve:     ServeConfig{RPS: 1, Burst: 1},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"output", func(c *Config) { c.Output = "xml" }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "logfmt" }},
		{"rps", func(c *Config) { c.Serve.RPS = 0 }},
		{"burst", func(c *Config) { c.Serve.Burst = 0 }},
		{"trusted proxies", func(c *Config) { c.Serve.TrustedProxies = []string{"proxy.local"} }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
