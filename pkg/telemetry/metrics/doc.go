// Package metrics provides Prometheus self-metrics for the Houdini pipeline.
//
// These metrics describe Houdini itself (items recorded, dropped, flushed and
// delivered) and are separate from the application telemetry it forwards.
//
// # Metrics Categories
//
//   - Pipeline Metrics: items recorded by kind, drops by reason, flushes,
//     buffer and dispatcher depth
//   - Delivery Metrics: HTTP attempts, send results and latency, circuit
//     breaker state
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.SelfMetrics, nil)
//	collector.RecordItem("trace")
//	collector.RecordSend("success", 40*time.Millisecond)
//
//	mux.Handle(cfg.SelfMetrics.Path, collector.Handler())
//
// Every method is safe on a nil *Collector, which is what NewCollector
// returns when self-metrics are disabled.
package metrics
