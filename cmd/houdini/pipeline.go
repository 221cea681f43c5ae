package main

import (
	"fmt"
	"log/slog"

	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/config"
	"houdini-hq/houdini/pkg/secrets"
	"houdini-hq/houdini/pkg/telemetry/metrics"
	"houdini-hq/houdini/pkg/transport"
)

// pipeline is the wired transport, collector and self-metrics.
type pipeline struct {
	transport *transport.Transport
	collector *collector.Collector
	metrics   *metrics.Collector
	apiKey    *secrets.FileSecret
}

// newPipeline builds the delivery pipeline. wrap, when non-nil, decorates
// the transport before it is handed to the collector.
func newPipeline(cfg *config.Config, logger *slog.Logger, wrap func(collector.Sender) collector.Sender) (*pipeline, error) {
	p := &pipeline{metrics: metrics.NewCollector(&cfg.SelfMetrics, nil)}

	opts := transport.OptionsFromConfig(cfg)
	opts.Metrics = p.metrics
	opts.Logger = logger.With("component", "transport")

	if cfg.APIKeyFile != "" {
		key, err := secrets.NewFileSecret(cfg.APIKeyFile, true, logger.With("component", "secrets"))
		if err != nil {
			return nil, fmt.Errorf("failed to load api_key_file: %w", err)
		}
		p.apiKey = key
		opts.APIKeyFunc = key.Value
	}

	tr, err := transport.New(opts)
	if err != nil {
		p.release()
		return nil, fmt.Errorf("failed to create transport: %w", err)
	}
	p.transport = tr
	if p.apiKey != nil {
		// A rotated key may cure the rejections that opened the circuit.
		p.apiKey.OnChange(tr.ResetCircuit)
	}

	var sender collector.Sender = tr
	if wrap != nil {
		sender = wrap(sender)
	}

	col, err := collector.New(cfg, sender,
		collector.WithLogger(logger.With("component", "collector")),
		collector.WithAppLogger(logger),
		collector.WithMetrics(p.metrics),
	)
	if err != nil {
		p.release()
		return nil, fmt.Errorf("failed to create collector: %w", err)
	}
	p.collector = col

	return p, nil
}

// release frees the transport and stops watching the key file. The
// collector must already be closed.
func (p *pipeline) release() {
	if p.transport != nil {
		p.transport.Close()
	}
	if p.apiKey != nil {
		_ = p.apiKey.Close()
	}
}
