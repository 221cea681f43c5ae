// Package config provides configuration management for Houdini.
//
// Configuration is resolved once at startup and is immutable for the life of
// the process. It can come from a YAML file, a JSON file (comments and
// trailing commas allowed), environment variables, or code.
//
// # Configuration Loading
//
//  1. From a file only:
//     cfg, err := config.LoadConfig("houdini.yaml")
//
//  2. From a file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("houdini.jsonc")
//
//  3. From the environment alone:
//     cfg, err := config.LoadFromEnv()
//
//  4. In code, starting from the defaults:
//     cfg := config.Default()
//     cfg.DSN = "https://telemetry.example.com/ingest"
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention HOUDINI_SECTION_FIELD:
//
//   - HOUDINI_DSN overrides dsn
//   - HOUDINI_API_KEY overrides api_key
//   - HOUDINI_TRACES_SAMPLE_RATE overrides traces.sample_rate
//   - HOUDINI_HTTP_CLIENT_TIMEOUT overrides http_client.timeout
//
// Durations in the environment accept Go syntax ("30s") or whole seconds ("30").
// Durations in files use Go syntax only.
//
// # Configuration Precedence
//
//  1. Default values (Default)
//  2. Values from the file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Example Configuration
//
//	dsn: "https://telemetry.example.com/ingest"
//	project_id: "checkout"
//	service_name: "orders-api"
//	service_version: "1.4.2"
//
//	traces:
//	  sample_rate: 0.25
//
//	logs:
//	  levels: ["error", "warning"]
//
//	http_client:
//	  timeout: 5s
//	  retry_attempts: 1
//	  compression: gzip
//
//	delivery:
//	  batch_size: 50
package config
