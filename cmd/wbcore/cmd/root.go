// Package cmd implements the CLI commands for wbcore.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wbcore/internal/config"
	"github.com/jmylchreest/wbcore/internal/observability"
	"github.com/jmylchreest/wbcore/internal/version"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "wbcore",
	Short:   "A module-graph bundler core",
	Version: version.Short(),
	Long: `wbcore drives a build through the module graph, exports-info,
chunk graph, code generation, runtime-requirement and render phases and
emits the resulting assets.

It has no concrete resolver or parser of its own: "build"/"watch"/"graph"
load a source tree into an in-memory fixture filesystem and drive it
through the same regex-based parsers the test suite exercises, since
concrete language parsing is out of this core's scope. "config dump"
prints the resolved configuration.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./wbcore.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level, overrides config (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format, overrides config (json, text)")
}

// loadedConfig is populated by initConfig and read by each subcommand.
var loadedConfig *config.Config

// initConfig loads configuration via internal/config.Load (file +
// WBCORE_-prefixed environment variables + defaults), applies any
// --log-level/--log-format overrides on top, then wires the resulting
// LoggingConfig into the process-default slog logger before any
// subcommand's RunE runs.
func initConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if rootCmd.PersistentFlags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if rootCmd.PersistentFlags().Changed("log-format") {
		cfg.Logging.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating configuration: %w", err)
	}
	loadedConfig = cfg

	logger := observability.NewLogger(cfg.Logging)
	observability.SetDefault(logger)
	return nil
}

// splitNameValue splits a "name=value" flag argument, the shape --entry
// uses.
func splitNameValue(s string) (name, value string, ok bool) {
	idx := strings.IndexByte(s, '=')
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+1:], true
}
