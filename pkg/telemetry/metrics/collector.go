package metrics

import (
	"time"

	"houdini-hq/houdini/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the Prometheus metrics Houdini exposes about its own
// pipeline. A nil *Collector is valid and records nothing, so components can
// be built without self-metrics.
type Collector struct {
	config   *config.SelfMetricsConfig
	registry *prometheus.Registry

	pipeline *PipelineMetrics
	delivery *DeliveryMetrics
}

// NewCollector creates a collector and registers its metrics with registry.
// If registry is nil a fresh one is created. It returns nil when self-metrics
// are disabled.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.SelfMetrics, nil)
//	mux.Handle(cfg.SelfMetrics.Path, collector.Handler())
func NewCollector(cfg *config.SelfMetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	namespace := cfg.Namespace
	if namespace == "" {
		namespace = config.DefaultMetricsNamespace
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		pipeline: NewPipelineMetrics(namespace, registry),
		delivery: NewDeliveryMetrics(namespace, registry),
	}
}

// RecordItem counts one item accepted into the buffer.
func (c *Collector) RecordItem(kind string) {
	if c == nil {
		return
	}
	c.pipeline.itemsRecorded.WithLabelValues(kind).Inc()
}

// RecordDropped counts items dropped before delivery.
//
// Common reasons:
//   - "queue_full": the dispatcher backlog was full
//   - "closed": the collector was already closed
//   - "shutdown": delivery was cancelled while the collector drained
//   - "send_failed": delivery failed after all attempts
//   - "not_configured": no DSN is set
//   - "serialization": the item could not be encoded
//   - "circuit_open": the circuit breaker rejected the send
func (c *Collector) RecordDropped(reason string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.pipeline.itemsDropped.WithLabelValues(reason).Add(float64(n))
}

// RecordFlush counts one flushed batch and observes its size.
func (c *Collector) RecordFlush(trigger string, size int) {
	if c == nil {
		return
	}
	c.pipeline.flushes.WithLabelValues(trigger).Inc()
	c.pipeline.batchSize.Observe(float64(size))
}

// SetPending sets the number of items waiting in the buffer.
func (c *Collector) SetPending(n int) {
	if c == nil {
		return
	}
	c.pipeline.pending.Set(float64(n))
}

// SetQueueDepth sets the number of batches waiting for a worker.
func (c *Collector) SetQueueDepth(n int) {
	if c == nil {
		return
	}
	c.pipeline.queueDepth.Set(float64(n))
}

// RecordAttempt counts one HTTP attempt by outcome ("success", "rejected",
// "transport_error").
func (c *Collector) RecordAttempt(outcome string) {
	if c == nil {
		return
	}
	c.delivery.attempts.WithLabelValues(outcome).Inc()
}

// RecordSend records the final result of one Send call.
func (c *Collector) RecordSend(result string, duration time.Duration) {
	if c == nil {
		return
	}
	c.delivery.sends.WithLabelValues(result).Inc()
	c.delivery.duration.WithLabelValues(result).Observe(duration.Seconds())
}

// SetCircuitState publishes the circuit breaker state.
func (c *Collector) SetCircuitState(state string) {
	if c == nil {
		return
	}
	c.delivery.SetCircuitState(state)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
