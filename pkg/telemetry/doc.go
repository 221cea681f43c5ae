// Package telemetry groups Houdini's own observability: the things that
// describe the pipeline rather than the service it instruments.
//
// # Components
//
//   - logging: slog construction from logging.* config, with redaction of
//     API keys, bearer tokens and DSN credentials
//   - metrics: Prometheus self-metrics (items recorded and dropped, flushes,
//     queue depth, send attempts, circuit state)
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.New(cfg.Logging, logging.Options{
//	    Secrets: logging.SecretsFrom(cfg),
//	})
//	m := metrics.NewCollector(&cfg.SelfMetrics, nil)
//	mux.Handle(cfg.SelfMetrics.Path, m.Handler())
//
//	checker := health.New(2 * time.Second)
//	checker.Register("transport", health.TransportCheck(tr))
//	mux.HandleFunc("GET /health", checker.ReadinessHandler())
package telemetry
