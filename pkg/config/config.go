package config

import "time"

// Config is the root configuration structure for Houdini.
// It is resolved once at startup and treated as immutable afterwards.
type Config struct {
	// DSN is the collector endpoint that receives POSTed telemetry items
	// (e.g., "https://telemetry.example.com/ingest"). An empty DSN disables
	// transmission; collection still works but every send is skipped.
	DSN string `yaml:"dsn"`

	// ProjectID identifies the project on the backend. May be empty.
	ProjectID string `yaml:"project_id"`

	// APIKey is sent as the X-Api-Key header when non-empty.
	APIKey string `yaml:"api_key"`

	// APIKeyFile is a file holding the API key, reloaded when it changes.
	// Mutually exclusive with APIKey.
	APIKeyFile string `yaml:"api_key_file"`

	// Enabled is the global kill switch. When false the collector records
	// nothing at all.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ServiceName and ServiceVersion are stamped on every item's metadata.
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"`

	// Traces controls span collection.
	Traces TracesConfig `yaml:"traces"`

	// Metrics controls metric collection.
	Metrics MetricsConfig `yaml:"metrics"`

	// Logs controls application log collection.
	Logs LogsConfig `yaml:"logs"`

	// HTTPClient controls delivery to the collector endpoint.
	HTTPClient HTTPClientConfig `yaml:"http_client"`

	// Delivery controls buffering and the background dispatcher.
	Delivery DeliveryConfig `yaml:"delivery"`

	// Logging configures Houdini's own diagnostic logger.
	Logging LoggingConfig `yaml:"logging"`

	// SelfMetrics configures the Prometheus metrics Houdini exposes about
	// its own pipeline.
	SelfMetrics SelfMetricsConfig `yaml:"self_metrics"`

	// Server configures the demo HTTP server started by "houdini serve".
	Server ServerConfig `yaml:"server"`
}

// TracesConfig contains configuration for span collection.
type TracesConfig struct {
	// Enabled gates StartTrace and FinishTrace.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// SampleRate is the probability (0.0 to 1.0) that a started trace is
	// kept. 0 keeps nothing.
	// Default: 1.0
	SampleRate float64 `yaml:"sample_rate"`
}

// MetricsConfig contains configuration for metric collection.
type MetricsConfig struct {
	// Enabled gates RecordMetric.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// ExportInterval is the period of the background flush used when
	// delivery.batch_size is greater than one. Minimum 1s.
	// Default: 60s
	ExportInterval time.Duration `yaml:"export_interval"`
}

// LogsConfig contains configuration for application log collection.
type LogsConfig struct {
	// Enabled gates RecordLog.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Levels is the set of accepted log levels. Records with any other
	// level are discarded.
	// Default: ["error", "warning", "info"]
	Levels []string `yaml:"levels"`
}

// HTTPClientConfig contains configuration for the outbound transport.
type HTTPClientConfig struct {
	// Timeout bounds a single delivery attempt. The transport caps the
	// effective wait at 5s regardless.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// RetryAttempts is the configured retry budget. At most one retry is
	// ever performed.
	// Default: 3
	RetryAttempts int `yaml:"retry_attempts"`

	// Headers are extra static headers added to every request.
	Headers map[string]string `yaml:"headers"`

	// Compression selects request body compression: "none", "gzip" or "zstd".
	// Default: "none"
	Compression string `yaml:"compression"`

	// CircuitBreaker stops delivery attempts while the backend is failing.
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig contains configuration for the transport circuit breaker.
type CircuitBreakerConfig struct {
	// Enabled turns the breaker on. While it is open, sends fail fast without
	// any attempt.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// MaxFailures is the number of consecutive failed sends that opens the
	// circuit.
	// Default: 10
	MaxFailures int `yaml:"max_failures"`

	// RecoveryTime is how long the circuit stays open before probing.
	// Default: 30s
	RecoveryTime time.Duration `yaml:"recovery_time"`

	// HalfOpenMax is the number of probe sends allowed while half-open.
	// Default: 1
	HalfOpenMax int `yaml:"half_open_max"`
}

// DeliveryConfig contains configuration for buffering and dispatch.
type DeliveryConfig struct {
	// BatchSize is the number of buffered items that triggers a flush.
	// With 1, every recorded item is flushed immediately.
	// Default: 1
	BatchSize int `yaml:"batch_size"`

	// QueueSize is the number of flushed batches that may wait for a
	// worker. Batches beyond this are dropped.
	// Default: 256
	QueueSize int `yaml:"queue_size"`

	// Workers is the number of concurrent delivery goroutines, which is
	// also the cap on in-flight deliveries.
	// Default: 4
	Workers int `yaml:"workers"`

	// ShutdownTimeout bounds the final drain on Close when the caller
	// supplies no deadline.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig contains configuration for Houdini's diagnostic logger.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes source file and line in log records.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks API keys, tokens and DSN credentials in log output.
	// Default: true
	Redact bool `yaml:"redact"`
}

// SelfMetricsConfig contains configuration for pipeline self-metrics.
type SelfMetricsConfig struct {
	// Enabled registers the houdini_* Prometheus collectors.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace prefixes every metric name.
	// Default: "houdini"
	Namespace string `yaml:"namespace"`

	// Path is where "houdini serve" exposes the metrics.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// ServerConfig contains configuration for the demo HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown, including the final
	// telemetry flush.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}
