package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/item"
)

// errorResponse is the body written for a recovered panic.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// recoverPanic records a handler panic and answers 500 when nothing has been
// written yet.
func recoverPanic(logger *slog.Logger, scope *RequestScope, rw *responseWriter, v any) {
	err := collector.NewPanicError(v)

	logger.ErrorContext(scope.req.Context(), "panic in handler",
		"error", err,
		"request_id", scope.requestID,
		"method", scope.req.Method,
		"path", scope.req.URL.Path,
	)

	recordException(scope, err)

	if rw.written {
		return
	}

	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(rw).Encode(errorResponse{
		Error:     "An internal error occurred. Please try again later.",
		RequestID: scope.requestID,
	})
}

// ReportError records err as an unhandled exception of the current request,
// for handlers that turn errors into responses themselves. The reported
// location is the caller of ReportError unless err already carries a stack.
// It does nothing outside the Telemetry middleware.
func ReportError(ctx context.Context, err error) {
	scope := FromContext(ctx)
	if scope == nil || err == nil {
		return
	}
	recordException(scope, collector.WithStackSkip(err, 1))
}

// recordException emits the exception item and the errors.count metric.
func recordException(scope *RequestScope, err error) {
	req := scope.req
	route := scope.Route()

	scope.collector.RecordException(err, item.Fields{
		"request_uri":    requestURL(req),
		"request_method": req.Method,
		"request_route":  route,
		"user_agent":     req.UserAgent(),
		"remote_addr":    clientIP(req),
	})

	scope.collector.RecordMetric("errors.count", 1.0, item.Fields{
		"exception_class": collector.ErrorClass(err),
		"request_method":  req.Method,
		"request_route":   route,
	})
}
