package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"houdini-hq/houdini/pkg/cli"
	"houdini-hq/houdini/pkg/config"
	"houdini-hq/houdini/pkg/middleware"
	"houdini-hq/houdini/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "houdini",
	Short: "Houdini - telemetry collection and delivery for HTTP services",
	Long: `Houdini records traces, metrics, logs, exceptions and HTTP request
summaries from an HTTP service and delivers them to a collector endpoint.

Collection never blocks request handling: items are buffered, flushed in
batches and sent by a bounded pool of background workers.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (.yaml, .json or .jsonc); environment only when empty")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

// loadConfig resolves the configuration from --config and the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// setupLogging installs the process logger. Records logged with a request
// context carry its request ID and trace ID.
func setupLogging(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(cfg.Logging, logging.Options{
		Writer:  w,
		Secrets: logging.SecretsFrom(cfg),
		Extract: requestAttrs,
	})
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(logger)
	return logger, nil
}

func requestAttrs(ctx context.Context) []slog.Attr {
	scope := middleware.FromContext(ctx)
	if scope == nil {
		return nil
	}
	attrs := []slog.Attr{slog.String("request_id", scope.RequestID())}
	if span := scope.Span(); span != nil {
		attrs = append(attrs, slog.String("trace_id", span.TraceID()))
	}
	return attrs
}
