package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeliveryMetrics tracks HTTP delivery to the collector endpoint.
//
// Metrics:
//   - houdini_send_attempts_total: HTTP attempts by outcome
//   - houdini_sends_total: Send calls by final result
//   - houdini_send_duration_seconds: Send latency including retries
//   - houdini_circuit_state: breaker state (0=closed, 1=half-open, 2=open)
type DeliveryMetrics struct {
	attempts *prometheus.CounterVec
	sends    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	circuit  prometheus.Gauge
}

// NewDeliveryMetrics creates and registers delivery metrics with the provided registry.
func NewDeliveryMetrics(namespace string, registry *prometheus.Registry) *DeliveryMetrics {
	dm := &DeliveryMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "send_attempts_total",
				Help:      "Total number of HTTP attempts to the collector endpoint",
			},
			[]string{"outcome"},
		),

		sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sends_total",
				Help:      "Total number of item sends by final result",
			},
			[]string{"result"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "send_duration_seconds",
				Help:      "Time spent delivering one item, including retries",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 12},
			},
			[]string{"result"},
		),

		circuit: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Transport circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
		),
	}

	registry.MustRegister(
		dm.attempts,
		dm.sends,
		dm.duration,
		dm.circuit,
	)

	return dm
}

// SetCircuitState maps a breaker state name onto the gauge.
func (dm *DeliveryMetrics) SetCircuitState(state string) {
	switch state {
	case "open":
		dm.circuit.Set(2)
	case "half-open":
		dm.circuit.Set(1)
	default:
		dm.circuit.Set(0)
	}
}
