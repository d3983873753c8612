package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/factbench/internal/config"
	"github.com/psantana5/factbench/internal/factorial"
	"github.com/psantana5/factbench/internal/report"
)

// version is overridden at build time with -ldflags "-X .../cmd.version=..."
var version = "dev"

var cfgFile string

// rootCmd computes 12! once and reports it
var rootCmd = &cobra.Command{
	Use:   "factbench",
	Short: "Recursive factorial benchmark",
	Long: `factbench computes 12! by plain recursion, printing every intermediate
product as the recursion unwinds, then reports the final result and the
wall-clock execution time in milliseconds.

With no flags the output is exactly the 11 intermediate products followed by
"Final result: 479001600" and "Execution time: <T> milliseconds".`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBench,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.factbench/config.yaml)")
	flags.StringP("output", "o", "text", "output format: text, json, yaml or table")
	flags.String("log-level", "warn", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	flags.String("store", "", "run history DSN: memory://, sqlite://<path> or postgres://...")
	flags.String("metrics-file", "", "write Prometheus text metrics to this file after each run")
	flags.Bool("trace", false, "export spans over OTLP/HTTP")
	flags.String("trace-endpoint", "localhost:4318", "OTLP/HTTP collector host:port")
}

// globalFlagKeys maps persistent flags to config keys
var globalFlagKeys = map[string]string{
	"output":         "output",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"store":          "store.dsn",
	"metrics-file":   "metrics_file",
	"trace":          "tracing.enabled",
	"trace-endpoint": "tracing.endpoint",
}

// loadConfig resolves configuration for cmd, binding its flags over
// file and environment values.
func loadConfig(cmd *cobra.Command, extra map[string]string) (*config.Config, error) {
	v := viper.New()

	bind := func(keys map[string]string) error {
		for flag, key := range keys {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				f = cmd.Root().PersistentFlags().Lookup(flag)
			}
			if f == nil {
				return fmt.Errorf("unknown flag %q", flag)
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", flag, err)
			}
		}
		return nil
	}
	if err := bind(globalFlagKeys); err != nil {
		return nil, err
	}
	if err := bind(extra); err != nil {
		return nil, err
	}

	return config.Load(v, cfgFile)
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	format := cfg.Format()
	app, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr(), !format.Streams() || cfg.Store.DSN != "")
	if err != nil {
		return err
	}
	defer app.Close(cmd.Context())

	out := cmd.OutOrStdout()
	var live factorial.Printer
	if format.Streams() {
		live = factorial.NewPrinter(out)
	}

	result, runErr := app.runner.Run(cmd.Context(), live)
	if result != nil {
		if err := report.Write(out, result, format); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return runErr
}
