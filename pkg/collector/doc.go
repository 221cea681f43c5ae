// Package collector builds telemetry items and hands them to a delivery
// backend without ever blocking the caller on network I/O.
//
// A Collector is created once per process from the resolved configuration and
// shared by every request. Items are buffered in memory and flushed to a
// bounded pool of delivery workers when the buffer reaches
// delivery.batch_size (every item with the default of 1) and, for larger
// batches, every metrics.export_interval. When the worker backlog is full the
// batch is dropped and counted rather than blocking the request path.
//
// Category flags gate what is recorded:
//
//   - traces.enabled gates StartTrace and FinishTrace; traces.sample_rate
//     decides which traces are kept
//   - metrics.enabled gates RecordMetric, including the error counters
//     emitted by CaptureError and CaptureErrorMessage
//   - logs.enabled and logs.levels gate RecordLog
//
// Exceptions, HTTP request summaries and manual captures are always recorded
// while the collector is enabled.
//
// # Usage
//
//	t, err := transport.New(transport.OptionsFromConfig(cfg))
//	if err != nil {
//		return err
//	}
//	c, err := collector.New(cfg, t, collector.WithMetrics(m))
//	if err != nil {
//		return err
//	}
//	defer c.Close(ctx)
//
//	span := c.StartTrace("checkout", item.Fields{"cart.size": 3})
//	defer c.FinishTrace(span, nil)
//
//	c.RecordMetric("orders.created", 1, item.Fields{"region": "eu"})
//
// Errors that should report the location where they were created rather than
// where they were captured can be wrapped with WithStack. Recovered panics are
// converted with NewPanicError.
package collector
