package metrics

import "github.com/prometheus/client_golang/prometheus"

// PipelineMetrics tracks items between the record call and the dispatcher.
//
// Metrics:
//   - houdini_items_recorded_total: items accepted into the buffer, by kind
//   - houdini_items_dropped_total: items lost before or during delivery, by reason
//   - houdini_flushes_total: buffer flushes, by trigger
//   - houdini_flush_batch_size: items per flushed batch
//   - houdini_pending_items: items currently buffered
//   - houdini_dispatch_queue_depth: batches waiting for a worker
type PipelineMetrics struct {
	itemsRecorded *prometheus.CounterVec
	itemsDropped  *prometheus.CounterVec
	flushes       *prometheus.CounterVec
	batchSize     prometheus.Histogram
	pending       prometheus.Gauge
	queueDepth    prometheus.Gauge
}

// NewPipelineMetrics creates and registers pipeline metrics with the provided registry.
func NewPipelineMetrics(namespace string, registry *prometheus.Registry) *PipelineMetrics {
	pm := &PipelineMetrics{
		itemsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_recorded_total",
				Help:      "Total number of telemetry items accepted into the buffer",
			},
			[]string{"kind"},
		),

		itemsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_dropped_total",
				Help:      "Total number of telemetry items dropped without delivery",
			},
			[]string{"reason"},
		),

		flushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flushes_total",
				Help:      "Total number of buffer flushes",
			},
			[]string{"trigger"},
		),

		batchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "flush_batch_size",
				Help:      "Number of items per flushed batch",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
			},
		),

		pending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_items",
				Help:      "Number of telemetry items currently buffered",
			},
		),

		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dispatch_queue_depth",
				Help:      "Number of flushed batches waiting for a delivery worker",
			},
		),
	}

	registry.MustRegister(
		pm.itemsRecorded,
		pm.itemsDropped,
		pm.flushes,
		pm.batchSize,
		pm.pending,
		pm.queueDepth,
	)

	return pm
}
