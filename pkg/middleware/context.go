package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"houdini-hq/houdini/pkg/collector"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// RequestIDKey stores the request ID.
	RequestIDKey contextKey = "request_id"

	// scopeKey stores the *RequestScope of the telemetry middleware.
	scopeKey contextKey = "telemetry_scope"
)

// RequestScope carries the telemetry state of one request through the
// handler chain. It replaces any shared per-request registry: the span lives
// here and nowhere else.
type RequestScope struct {
	collector *collector.Collector
	resolve   func(*http.Request) string
	requestID string
	start     time.Time

	// req is the request handed to the next handler. ServeMux records the
	// matched pattern on it.
	req *http.Request

	mu   sync.Mutex
	span *collector.Span
}

// FromContext returns the request scope installed by Telemetry, or nil.
func FromContext(ctx context.Context) *RequestScope {
	scope, _ := ctx.Value(scopeKey).(*RequestScope)
	return scope
}

// RequestID returns the request ID.
func (s *RequestScope) RequestID() string {
	if s == nil {
		return ""
	}
	return s.requestID
}

// StartTime returns when the middleware saw the request.
func (s *RequestScope) StartTime() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.start
}

// Span returns the request span while the request is in flight. It is nil
// when tracing is disabled, the trace was sampled out, or the request has
// completed.
func (s *RequestScope) Span() *collector.Span {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.span
}

// Route returns the matched route pattern, or "unknown".
func (s *RequestScope) Route() string {
	if s == nil {
		return unknownRoute
	}
	return s.resolve(s.req)
}

// takeSpan removes the span from the scope so it is finished exactly once.
func (s *RequestScope) takeSpan() *collector.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	span := s.span
	s.span = nil
	return span
}
