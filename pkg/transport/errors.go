package transport

import (
	"errors"
	"fmt"

	"houdini-hq/houdini/pkg/item"
)

// ErrNotConfigured is returned by Send when no collector endpoint is set.
// It is not fatal: transmission is simply disabled.
var ErrNotConfigured = errors.New("transport: collector endpoint is not configured")

// ErrCircuitOpen is returned by Send while the circuit breaker rejects
// deliveries after repeated failures.
var ErrCircuitOpen = errors.New("transport: circuit breaker is open")

// ErrInterrupted is returned by Send when the caller's context was cancelled
// before delivery succeeded. It wraps the last attempt's error and is not
// counted against the circuit breaker.
var ErrInterrupted = errors.New("transport: delivery interrupted")

// SerializationError represents an item that could not be encoded.
// The item is dropped and never retried.
type SerializationError struct {
	// Kind is the payload kind of the item that failed to encode.
	Kind item.Kind

	// Cause is the underlying encoding error.
	Cause error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("transport: failed to encode %s item: %v", e.Kind, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// TransportError represents a network-level failure: connection refused,
// DNS, TLS, or a timeout waiting for the backend.
type TransportError struct {
	// Endpoint is the URL the request was sent to.
	Endpoint string

	// Attempt is the 1-based attempt number that failed.
	Attempt int

	// Timeout reports whether the failure was a timeout.
	Timeout bool

	// Cause is the underlying error from the HTTP client.
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("transport: timeout sending to %s (attempt %d): %v", e.Endpoint, e.Attempt, e.Cause)
	}
	return fmt.Sprintf("transport: error sending to %s (attempt %d): %v", e.Endpoint, e.Attempt, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// BackendRejectionError represents a non-2xx response from the collector.
type BackendRejectionError struct {
	// StatusCode is the HTTP status code returned by the backend.
	StatusCode int

	// Body is the start of the response body, at most 500 characters.
	Body string
}

// Error implements the error interface.
func (e *BackendRejectionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("transport: backend rejected item (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("transport: backend rejected item (status %d): %s", e.StatusCode, e.Body)
}
