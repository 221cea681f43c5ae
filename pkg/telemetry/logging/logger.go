package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"houdini-hq/houdini/pkg/config"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON LogFormat = "json"
	// FormatText outputs logs in logfmt-style text.
	FormatText LogFormat = "text"
)

// Options tune New beyond what the configuration file carries.
type Options struct {
	// Writer is the output writer. Default: os.Stderr.
	Writer io.Writer

	// Secrets are literal values that must never appear in output, such as
	// the configured API key.
	Secrets []string

	// Extract adds request-scoped attributes from the record's context.
	Extract ContextExtractor
}

// New builds the process logger from the logging configuration. When
// cfg.Redact is set every record passes through a RedactingHandler.
func New(cfg config.LoggingConfig, opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("invalid log format: %w", err)
	}

	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = slog.NewTextHandler(writer, handlerOpts)
	default:
		handler = slog.NewJSONHandler(writer, handlerOpts)
	}

	if cfg.Redact {
		handler = NewRedactingHandler(handler, NewRedactor(opts.Secrets...))
	}
	// Context attributes are added outside the redactor so they are scrubbed too.
	handler = NewContextHandler(handler, opts.Extract)

	return slog.New(handler), nil
}

// SecretsFrom returns the credentials in cfg that must be kept out of logs:
// the API key and any password embedded in the DSN.
func SecretsFrom(cfg *config.Config) []string {
	var secrets []string
	if cfg.APIKey != "" {
		secrets = append(secrets, cfg.APIKey)
	}
	if pw := dsnPassword(cfg.DSN); pw != "" {
		secrets = append(secrets, pw)
	}
	return secrets
}

// ParseLevel parses a log level name into a slog.Level.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", levelStr)
	}
}

// ParseFormat parses a log format name.
func ParseFormat(formatStr string) (LogFormat, error) {
	switch strings.ToLower(formatStr) {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format: %s", formatStr)
	}
}
