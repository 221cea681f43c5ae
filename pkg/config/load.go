package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML or JSON file at the specified path.
// Files ending in .json or .jsonc may contain comments and trailing commas.
// The file is decoded on top of Default, then validated. Environment variables
// are not consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(path, data)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a file and applies
// environment variable overrides. Environment variables follow the naming
// convention HOUDINI_SECTION_FIELD (e.g., HOUDINI_HTTP_CLIENT_TIMEOUT), and
// always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Start from default values
// 2. Decode the file on top
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := parse(path, data)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv builds a configuration from defaults and HOUDINI_* environment
// variables only.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Load loads path with environment overrides, or the environment alone when
// path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv()
	}
	return LoadConfigWithEnvOverrides(path)
}

// parse decodes data on top of the defaults. JSON is valid YAML once comments
// and trailing commas are stripped, so both formats share the yaml tags.
func parse(path string, data []byte) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Malformed numeric, boolean or duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Top-level overrides
	if val := os.Getenv("HOUDINI_DSN"); val != "" {
		cfg.DSN = val
	}
	if val := os.Getenv("HOUDINI_PROJECT_ID"); val != "" {
		cfg.ProjectID = val
	}
	if val := os.Getenv("HOUDINI_API_KEY"); val != "" {
		cfg.APIKey = val
	}
	if val := os.Getenv("HOUDINI_API_KEY_FILE"); val != "" {
		cfg.APIKeyFile = val
	}
	if val := os.Getenv("HOUDINI_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Enabled = b
		}
	}
	if val := os.Getenv("HOUDINI_SERVICE_NAME"); val != "" {
		cfg.ServiceName = val
	}
	if val := os.Getenv("HOUDINI_SERVICE_VERSION"); val != "" {
		cfg.ServiceVersion = val
	}

	// Traces overrides
	if val := os.Getenv("HOUDINI_TRACES_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Traces.Enabled = b
		}
	}
	if val := os.Getenv("HOUDINI_TRACES_SAMPLE_RATE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Traces.SampleRate = f
		}
	}

	// Metrics overrides
	if val := os.Getenv("HOUDINI_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("HOUDINI_METRICS_EXPORT_INTERVAL"); val != "" {
		if d, ok := parseSeconds(val); ok {
			cfg.Metrics.ExportInterval = d
		}
	}

	// Logs overrides
	if val := os.Getenv("HOUDINI_LOGS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Logs.Enabled = b
		}
	}
	if val := os.Getenv("HOUDINI_LOGS_LEVELS"); val != "" {
		cfg.Logs.Levels = splitList(val)
	}

	// HTTP client overrides
	if val := os.Getenv("HOUDINI_HTTP_CLIENT_TIMEOUT"); val != "" {
		if d, ok := parseSeconds(val); ok {
			cfg.HTTPClient.Timeout = d
		}
	}
	if val := os.Getenv("HOUDINI_HTTP_CLIENT_RETRY_ATTEMPTS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.HTTPClient.RetryAttempts = i
		}
	}
	if val := os.Getenv("HOUDINI_HTTP_CLIENT_COMPRESSION"); val != "" {
		cfg.HTTPClient.Compression = val
	}
	if val := os.Getenv("HOUDINI_HTTP_CLIENT_CIRCUIT_BREAKER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.HTTPClient.CircuitBreaker.Enabled = b
		}
	}

	// Delivery overrides
	if val := os.Getenv("HOUDINI_DELIVERY_BATCH_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Delivery.BatchSize = i
		}
	}
	if val := os.Getenv("HOUDINI_DELIVERY_QUEUE_SIZE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Delivery.QueueSize = i
		}
	}
	if val := os.Getenv("HOUDINI_DELIVERY_WORKERS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Delivery.Workers = i
		}
	}

	// Logging overrides
	if val := os.Getenv("HOUDINI_LOGGING_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("HOUDINI_LOGGING_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}

	// Self-metrics overrides
	if val := os.Getenv("HOUDINI_SELF_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.SelfMetrics.Enabled = b
		}
	}

	// Server overrides
	if val := os.Getenv("HOUDINI_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
}

// parseSeconds accepts a Go duration ("30s") or a bare integer number of seconds.
func parseSeconds(val string) (time.Duration, bool) {
	if n, err := strconv.Atoi(val); err == nil {
		return time.Duration(n) * time.Second, true
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, false
	}
	return d, true
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
