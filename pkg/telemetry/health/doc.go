// Package health serves liveness, readiness and version endpoints.
//
// Readiness aggregates component checks. CollectorCheck and TransportCheck
// cover the telemetry pipeline: the readiness probe fails when the collector
// has been closed, when no collector endpoint is configured, or while the
// transport's circuit breaker is open.
//
//	checker := health.New(2 * time.Second)
//	checker.Register("collector", health.CollectorCheck(c))
//	checker.Register("transport", health.TransportCheck(t))
//	mux.HandleFunc("GET /health", checker.ReadinessHandler())
package health
