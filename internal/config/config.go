package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/psantana5/factbench/internal/report"
	"github.com/psantana5/factbench/pkg/logging"
	"github.com/psantana5/factbench/pkg/ratelimit"
)

// EnvPrefix prefixes every environment variable, e.g. FACTBENCH_STORE_DSN
const EnvPrefix = "FACTBENCH"

// Config is the resolved configuration: defaults < config file < env < flags
type Config struct {
	Output      string        `mapstructure:"output"`
	LogLevel    string        `mapstructure:"log_level"`
	LogFormat   string        `mapstructure:"log_format"`
	MetricsFile string        `mapstructure:"metrics_file"`
	Store       StoreConfig   `mapstructure:"store"`
	Tracing     TracingConfig `mapstructure:"tracing"`
	Serve       ServeConfig   `mapstructure:"serve"`
}

// StoreConfig configures run history
type StoreConfig struct {
	DSN            string `mapstructure:"dsn"`
	MemoryCapacity int    `mapstructure:"memory_capacity"`
}

// TracingConfig configures OTLP span export
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

// ServeConfig configures the HTTP surface
type ServeConfig struct {
	Addr            string        `mapstructure:"addr"`
	RPS             float64       `mapstructure:"rps"`
	Burst           int           `mapstructure:"burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is believed
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

// SetDefaults registers every key so env binding and Unmarshal see it
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output", "text")
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
	v.SetDefault("metrics_file", "")

	v.SetDefault("store.dsn", "")
	v.SetDefault("store.memory_capacity", 100)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4318")
	v.SetDefault("tracing.insecure", true)

	v.SetDefault("serve.addr", ":9464")
	v.SetDefault("serve.rps", 5.0)
	v.SetDefault("serve.burst", 10)
	v.SetDefault("serve.shutdown_timeout", "10s")
	v.SetDefault("serve.trusted_proxies", []string{})
}

// Load reads configuration into v. An explicit cfgFile must exist; otherwise
// $HOME/.factbench/config.yaml is optional.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".factbench"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can act on
func (c *Config) Validate() error {
	if _, err := report.ParseFormat(c.Output); err != nil {
		return fmt.Errorf("invalid output: %w", err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (expected text or json)", c.LogFormat)
	}
	if c.Serve.RPS <= 0 {
		return fmt.Errorf("invalid serve.rps %v: must be positive", c.Serve.RPS)
	}
	if c.Serve.Burst < 1 {
		return fmt.Errorf("invalid serve.burst %d: must be at least 1", c.Serve.Burst)
	}
	if _, err := ratelimit.TrustedKeyFunc(c.Serve.TrustedProxies); err != nil {
		return fmt.Errorf("invalid serve.trusted_proxies: %w", err)
	}
	return nil
}

// Format returns the parsed output format
func (c *Config) Format() report.Format {
	f, _ := report.ParseFormat(c.Output)
	return f
}

// NewLogger builds the logger described by the config
func (c *Config) NewLogger() *logging.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.NewLogger(level, c.LogFormat == "json")
}
