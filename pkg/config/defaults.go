package config

import "time"

// Default values for configuration fields.
const (
	// DefaultSampleRate keeps every trace.
	DefaultSampleRate = 1.0

	// DefaultExportInterval is the periodic flush interval for batched delivery.
	DefaultExportInterval = 60 * time.Second

	// DefaultHTTPTimeout is the configured per-attempt timeout.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultRetryAttempts is the configured retry budget.
	DefaultRetryAttempts = 3

	// DefaultCompression disables request body compression.
	DefaultCompression = "none"

	// DefaultCircuitMaxFailures is the consecutive failure count that opens the circuit.
	DefaultCircuitMaxFailures = 10

	// DefaultCircuitRecoveryTime is how long an open circuit waits before probing.
	DefaultCircuitRecoveryTime = 30 * time.Second

	// DefaultCircuitHalfOpenMax is the number of probes allowed while half-open.
	DefaultCircuitHalfOpenMax = 1

	// DefaultBatchSize flushes on every recorded item.
	DefaultBatchSize = 1

	// DefaultQueueSize is the dispatcher backlog in batches.
	DefaultQueueSize = 256

	// DefaultWorkers is the number of delivery goroutines.
	DefaultWorkers = 4

	// DefaultDeliveryShutdownTimeout bounds the final drain.
	DefaultDeliveryShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "houdini"
	DefaultMetricsPath      = "/metrics"

	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// DefaultLogLevels returns the default set of accepted application log levels.
func DefaultLogLevels() []string {
	return []string{"error", "warning", "info"}
}

// Default returns a configuration with every field set to its default.
// Files are decoded on top of this value, so boolean switches that default
// to true stay true unless a file or environment variable turns them off.
func Default() *Config {
	cfg := &Config{
		Enabled: true,
		Traces: TracesConfig{
			Enabled:    true,
			SampleRate: DefaultSampleRate,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Logs: LogsConfig{
			Enabled: true,
		},
		HTTPClient: HTTPClientConfig{
			RetryAttempts: DefaultRetryAttempts,
		},
		Logging: LoggingConfig{
			Redact: true,
		},
		SelfMetrics: SelfMetricsConfig{
			Enabled: true,
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their default values.
// It does not touch booleans, traces.sample_rate or http_client.retry_attempts,
// whose zero values are meaningful; use Default for those.
func ApplyDefaults(cfg *Config) {
	// Metrics defaults
	if cfg.Metrics.ExportInterval == 0 {
		cfg.Metrics.ExportInterval = DefaultExportInterval
	}

	// Logs defaults
	if cfg.Logs.Levels == nil {
		cfg.Logs.Levels = DefaultLogLevels()
	}

	// HTTP client defaults
	if cfg.HTTPClient.Timeout == 0 {
		cfg.HTTPClient.Timeout = DefaultHTTPTimeout
	}
	if cfg.HTTPClient.Compression == "" {
		cfg.HTTPClient.Compression = DefaultCompression
	}
	if cfg.HTTPClient.CircuitBreaker.MaxFailures == 0 {
		cfg.HTTPClient.CircuitBreaker.MaxFailures = DefaultCircuitMaxFailures
	}
	if cfg.HTTPClient.CircuitBreaker.RecoveryTime == 0 {
		cfg.HTTPClient.CircuitBreaker.RecoveryTime = DefaultCircuitRecoveryTime
	}
	if cfg.HTTPClient.CircuitBreaker.HalfOpenMax == 0 {
		cfg.HTTPClient.CircuitBreaker.HalfOpenMax = DefaultCircuitHalfOpenMax
	}

	// Delivery defaults
	if cfg.Delivery.BatchSize == 0 {
		cfg.Delivery.BatchSize = DefaultBatchSize
	}
	if cfg.Delivery.QueueSize == 0 {
		cfg.Delivery.QueueSize = DefaultQueueSize
	}
	if cfg.Delivery.Workers == 0 {
		cfg.Delivery.Workers = DefaultWorkers
	}
	if cfg.Delivery.ShutdownTimeout == 0 {
		cfg.Delivery.ShutdownTimeout = DefaultDeliveryShutdownTimeout
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	// Self-metrics defaults
	if cfg.SelfMetrics.Namespace == "" {
		cfg.SelfMetrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.SelfMetrics.Path == "" {
		cfg.SelfMetrics.Path = DefaultMetricsPath
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}
