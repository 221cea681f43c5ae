package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/item"
)

const unknownRoute = "unknown"

// propagator reads and writes W3C traceparent headers.
var propagator = propagation.TraceContext{}

// Option configures the Telemetry middleware.
type Option func(*options)

type options struct {
	mux    *http.ServeMux
	skip   func(*http.Request) bool
	logger *slog.Logger
}

// WithMux lets the middleware resolve the route pattern at request start
// when it wraps mux from the outside.
func WithMux(mux *http.ServeMux) Option {
	return func(o *options) {
		o.mux = mux
	}
}

// WithSkipper excludes requests, such as health probes, from telemetry.
func WithSkipper(skip func(*http.Request) bool) Option {
	return func(o *options) {
		o.skip = skip
	}
}

// WithLogger sets the logger for recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// SkipPaths returns a skipper matching exact URL paths.
func SkipPaths(paths ...string) func(*http.Request) bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(r *http.Request) bool {
		return set[r.URL.Path]
	}
}

// route returns the pattern that matched r, or "unknown".
func (o *options) route(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	if o.mux != nil {
		if _, pattern := o.mux.Handler(r); pattern != "" {
			return pattern
		}
	}
	return unknownRoute
}

// Telemetry instruments every request:
//
//   - on start, a span named "{METHOD} {PATH}" is opened, continuing an
//     inbound W3C trace context when one is present
//   - on completion, the span is finished with the status code, response size
//     and route, and an http_request item plus an http.request.duration metric
//     are recorded
//   - a panic is recorded as an exception with an errors.count metric and
//     answered with 500 Internal Server Error
//
// Example usage:
//
//	handler = Telemetry(c, WithMux(mux))(mux)
func Telemetry(c *collector.Collector, opts ...Option) func(http.Handler) http.Handler {
	o := &options{
		logger: slog.Default().With("component", "middleware.telemetry"),
	}
	for _, opt := range opts {
		opt(o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if o.skip != nil && o.skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := requestIDFor(r)
			w.Header().Set(RequestIDHeader, requestID)

			span := c.StartTrace(r.Method+" "+r.URL.Path, item.Fields{
				"http.method":      r.Method,
				"http.url":         requestURL(r),
				"http.route":       o.route(r),
				"http.user_agent":  r.UserAgent(),
				"http.remote_addr": clientIP(r),
				"http.request_id":  requestID,
			}, remoteParent(r)...)

			scope := &RequestScope{
				collector: c,
				resolve:   o.route,
				requestID: requestID,
				start:     start,
				span:      span,
			}
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = context.WithValue(ctx, scopeKey, scope)
			req := r.WithContext(ctx)
			scope.req = req

			rw := newResponseWriter(w)

			defer func() {
				if v := recover(); v != nil {
					if v == http.ErrAbortHandler {
						finishRequest(c, scope, rw)
						panic(v)
					}
					recoverPanic(o.logger, scope, rw, v)
				}
				finishRequest(c, scope, rw)
			}()

			next.ServeHTTP(rw, req)
		})
	}
}

// finishRequest records the completion of the request held by scope.
func finishRequest(c *collector.Collector, scope *RequestScope, rw *responseWriter) {
	req := scope.req
	status := rw.statusCode
	route := scope.Route()
	duration := time.Since(scope.start).Seconds()

	c.FinishTrace(scope.takeSpan(), item.Fields{
		"http.status_code":   status,
		"http.response_size": rw.size,
		"http.route":         route,
	})

	c.RecordHTTPRequest(req.Method, requestURL(req), status, duration, req.Header)

	c.RecordMetric("http.request.duration", duration, item.Fields{
		"method":      req.Method,
		"status_code": status,
		"route":       route,
	})
}

// remoteParent continues an inbound traceparent, if valid.
func remoteParent(r *http.Request) []collector.SpanOption {
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || !sc.IsRemote() {
		return nil
	}
	return []collector.SpanOption{
		collector.WithRemoteParent(sc.TraceID().String(), sc.SpanID().String()),
	}
}

// InjectTraceContext writes a traceparent header for the request span in
// ctx, so outbound calls continue the trace. It does nothing when the request
// is not traced.
func InjectTraceContext(ctx context.Context, header http.Header) {
	span := FromContext(ctx).Span()
	if span == nil {
		return
	}

	traceID, err := trace.TraceIDFromHex(span.TraceID())
	if err != nil {
		return
	}
	spanID, err := trace.SpanIDFromHex(span.SpanID())
	if err != nil {
		return
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	propagator.Inject(trace.ContextWithSpanContext(ctx, sc), propagation.HeaderCarrier(header))
}

// requestURL reconstructs the absolute URL of r.
func requestURL(r *http.Request) string {
	if r.URL.IsAbs() {
		return r.URL.String()
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// clientIP returns the host part of the peer address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
