package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "http_client.timeout").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// LogLevels is the set of application log levels accepted in logs.levels.
var LogLevels = map[string]bool{
	"debug":     true,
	"info":      true,
	"notice":    true,
	"warning":   true,
	"error":     true,
	"critical":  true,
	"alert":     true,
	"emergency": true,
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDSN(cfg.DSN)...)
	if cfg.APIKey != "" && cfg.APIKeyFile != "" {
		errs = append(errs, FieldError{
			Field:   "api_key_file",
			Message: "cannot be combined with api_key",
		})
	}
	errs = append(errs, validateCollection(cfg)...)
	errs = append(errs, validateHTTPClient(&cfg.HTTPClient)...)
	errs = append(errs, validateDelivery(&cfg.Delivery)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateSelfMetrics(&cfg.SelfMetrics)...)
	errs = append(errs, validateServer(&cfg.Server)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateDSN accepts an empty DSN (transmission disabled) or an absolute
// http(s) URL.
func validateDSN(dsn string) []FieldError {
	if dsn == "" {
		return nil
	}

	u, err := url.Parse(dsn)
	if err != nil {
		return []FieldError{{Field: "dsn", Message: fmt.Sprintf("invalid URL format: %v", err)}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return []FieldError{{Field: "dsn", Message: fmt.Sprintf("unsupported scheme %q: must be 'http' or 'https'", u.Scheme)}}
	}
	if u.Host == "" {
		return []FieldError{{Field: "dsn", Message: "URL must include a host"}}
	}
	return nil
}

func validateCollection(cfg *Config) []FieldError {
	var errs []FieldError

	if cfg.Traces.SampleRate < 0 || cfg.Traces.SampleRate > 1.0 {
		errs = append(errs, FieldError{
			Field:   "traces.sample_rate",
			Message: "sample rate must be between 0.0 and 1.0",
		})
	}

	if cfg.Metrics.ExportInterval < time.Second {
		errs = append(errs, FieldError{
			Field:   "metrics.export_interval",
			Message: "export interval must be at least 1s",
		})
	}

	for _, level := range cfg.Logs.Levels {
		if !LogLevels[level] {
			errs = append(errs, FieldError{
				Field:   "logs.levels",
				Message: fmt.Sprintf("unknown log level %q", level),
			})
		}
	}

	return errs
}

func validateHTTPClient(cfg *HTTPClientConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout < time.Second {
		errs = append(errs, FieldError{
			Field:   "http_client.timeout",
			Message: "timeout must be at least 1s (use a duration such as \"30s\")",
		})
	}

	if cfg.RetryAttempts < 0 {
		errs = append(errs, FieldError{
			Field:   "http_client.retry_attempts",
			Message: "retry attempts must be non-negative",
		})
	}

	validCompression := map[string]bool{"none": true, "gzip": true, "zstd": true}
	if !validCompression[cfg.Compression] {
		errs = append(errs, FieldError{
			Field:   "http_client.compression",
			Message: fmt.Sprintf("invalid compression %q: must be 'none', 'gzip', or 'zstd'", cfg.Compression),
		})
	}

	for name := range cfg.Headers {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, FieldError{
				Field:   "http_client.headers",
				Message: "header names must not be empty",
			})
			break
		}
	}

	cb := cfg.CircuitBreaker
	if cb.Enabled {
		if cb.MaxFailures < 1 {
			errs = append(errs, FieldError{
				Field:   "http_client.circuit_breaker.max_failures",
				Message: "max failures must be at least 1",
			})
		}
		if cb.RecoveryTime <= 0 {
			errs = append(errs, FieldError{
				Field:   "http_client.circuit_breaker.recovery_time",
				Message: "recovery time must be positive",
			})
		}
		if cb.HalfOpenMax < 1 {
			errs = append(errs, FieldError{
				Field:   "http_client.circuit_breaker.half_open_max",
				Message: "half-open probe count must be at least 1",
			})
		}
	}

	return errs
}

func validateDelivery(cfg *DeliveryConfig) []FieldError {
	var errs []FieldError

	if cfg.BatchSize < 1 {
		errs = append(errs, FieldError{Field: "delivery.batch_size", Message: "batch size must be at least 1"})
	}
	if cfg.QueueSize < 1 {
		errs = append(errs, FieldError{Field: "delivery.queue_size", Message: "queue size must be at least 1"})
	}
	if cfg.Workers < 1 {
		errs = append(errs, FieldError{Field: "delivery.workers", Message: "workers must be at least 1"})
	}
	if cfg.Workers > 256 {
		errs = append(errs, FieldError{Field: "delivery.workers", Message: "workers exceeds reasonable limit (256)"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "delivery.shutdown_timeout", Message: "shutdown timeout must be non-negative"})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Level] {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Format),
		})
	}

	return errs
}

func validateSelfMetrics(cfg *SelfMetricsConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "self_metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	} else if !strings.Contains(cfg.ListenAddress, ":") {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address must be in host:port format"})
	}

	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be non-negative"})
	}

	return errs
}
