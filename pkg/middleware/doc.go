// Package middleware adapts the HTTP request lifecycle to the telemetry
// collector.
//
// Telemetry is the lifecycle adapter. For every request it opens a span on
// start, and on completion finishes it and records an http_request item and an
// http.request.duration metric. Panics are recorded as exceptions with an
// errors.count metric and turned into 500 responses. Handlers that convert
// errors into responses themselves report them with ReportError.
//
// Per-request state lives in a *RequestScope stored in the request context,
// available to handlers through FromContext.
//
// Recommended chain, outermost first:
//
//	handler := middleware.RequestIDMiddleware(
//		middleware.Telemetry(c, middleware.WithMux(mux))(
//			middleware.LoggingMiddleware(logger)(mux),
//		),
//	)
//
// Route names come from the http.ServeMux pattern that matched the request
// ("GET /orders/{id}"), or "unknown" when no pattern is available.
package middleware
