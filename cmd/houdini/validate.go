package main

import (
	"errors"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"houdini-hq/houdini/pkg/cli"
	"houdini-hq/houdini/pkg/collector"
)

var validateFlags struct {
	output string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration from --config and the HOUDINI_* environment,
apply defaults and report every validation error.

Examples:
  houdini validate --config houdini.yaml
  houdini validate --config houdini.jsonc --output json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateFlags.output, "output", "o", "text", "output format: text, json")
}

type validateResult struct {
	Source string   `json:"source"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`

	Enabled     bool   `json:"enabled"`
	Endpoint    string `json:"endpoint,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
	BatchSize   int    `json:"batch_size,omitempty"`
	Compression string `json:"compression,omitempty"`

	// Headers are the extra request headers with sensitive values redacted.
	Headers map[string]string `json:"headers,omitempty"`
}

func (r validateResult) Text() string {
	var sb strings.Builder
	if !r.Valid {
		fmt.Fprintf(&sb, "✗ Configuration %s is invalid\n", r.Source)
		for _, e := range r.Errors {
			fmt.Fprintf(&sb, "  - %s\n", e)
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "✓ Configuration %s is valid\n", r.Source)
	fmt.Fprintf(&sb, "  Enabled:     %t\n", r.Enabled)
	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = "(not configured, transmission disabled)"
	}
	fmt.Fprintf(&sb, "  Endpoint:    %s\n", endpoint)
	fmt.Fprintf(&sb, "  Service:     %s\n", r.ServiceName)
	fmt.Fprintf(&sb, "  Batch size:  %d\n", r.BatchSize)
	fmt.Fprintf(&sb, "  Compression: %s\n", r.Compression)
	if len(r.Headers) > 0 {
		sb.WriteString("  Headers:\n")
		for _, name := range slices.Sorted(maps.Keys(r.Headers)) {
			fmt.Fprintf(&sb, "    %s: %s\n", name, r.Headers[name])
		}
	}
	return sb.String()
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(validateFlags.output)
	if err != nil {
		return err
	}

	source := cfgFile
	if source == "" {
		source = "environment"
	}
	result := validateResult{Source: source}

	cfg, loadErr := loadConfig()
	if loadErr != nil {
		var ce *cli.ConfigError
		if errors.As(loadErr, &ce) && len(ce.Fields) > 0 {
			for _, f := range ce.Fields {
				result.Errors = append(result.Errors, f.Error())
			}
		} else {
			result.Errors = []string{loadErr.Error()}
		}
	} else {
		result.Valid = true
		result.Enabled = cfg.Enabled
		result.Endpoint = redactedDSN(cfg.DSN)
		result.ServiceName = cfg.ServiceName
		result.BatchSize = cfg.Delivery.BatchSize
		result.Compression = cfg.HTTPClient.Compression
		if len(cfg.HTTPClient.Headers) > 0 {
			result.Headers = collector.SanitizeHeaderMap(cfg.HTTPClient.Headers)
		}
	}

	if err := cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	return loadErr
}

// redactedDSN hides any password embedded in the endpoint URL.
func redactedDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return dsn
	}
	return u.Redacted()
}
