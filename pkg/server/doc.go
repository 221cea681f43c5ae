// Package server provides the instrumented HTTP server started by
// "houdini serve".
//
// The server mounts a small order API so the telemetry pipeline can be
// exercised end to end:
//
//	GET  /orders/{id}   look up an order (records a breadcrumb)
//	POST /orders        create an order (records a tag and a metric;
//	                    validation failures are reported as exceptions)
//	GET  /health        readiness: collector and transport checks
//	GET  /health/live   liveness
//	GET  /version       build information
//	GET  /metrics       Prometheus self-metrics, at self_metrics.path
//
// Health, version and metrics requests are not traced.
//
// # Shutdown
//
// Shutdown stops the HTTP server within server.shutdown_timeout, then closes
// the collector within delivery.shutdown_timeout so buffered telemetry is
// delivered, then releases the transport's idle connections.
//
//	srv := server.NewServer(cfg, col, tr, m, server.WithLogger(logger))
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
package server
