package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"houdini-hq/houdini/pkg/config"
	"houdini-hq/houdini/pkg/item"
	"houdini-hq/houdini/pkg/telemetry/metrics"
)

const (
	// MaxAttemptTimeout caps the configured timeout so a slow backend can
	// never hold a delivery worker for long.
	MaxAttemptTimeout = 5 * time.Second

	// DefaultRetryDelay is the fixed pause before the single retry.
	DefaultRetryDelay = time.Second

	// maxRetries is the retry ceiling regardless of configuration.
	maxRetries = 1

	// bodySnippetLimit bounds how much of a rejection body is read and logged.
	bodySnippetLimit = 500
)

// Options configures a Transport.
type Options struct {
	// Endpoint is the collector URL. Empty disables transmission.
	Endpoint string

	// APIKey is sent as X-Api-Key when non-empty.
	APIKey string

	// APIKeyFunc, when set, is consulted on every request instead of APIKey,
	// so a rotated key applies to the next send.
	APIKeyFunc func() string

	// Timeout bounds the wait for response headers on each attempt. It is
	// capped at MaxAttemptTimeout; the whole attempt is additionally bounded
	// by Timeout + 1s.
	Timeout time.Duration

	// RetryAttempts is the configured retry budget, capped at one retry.
	RetryAttempts int

	// RetryDelay is the pause before the retry. Default: 1s.
	RetryDelay time.Duration

	// Headers are extra static headers. They cannot override Content-Type,
	// Accept, Content-Encoding or X-Api-Key.
	Headers map[string]string

	// Compression is "none", "gzip" or "zstd".
	Compression string

	// CircuitBreaker configures fail-fast behavior against a failing backend.
	CircuitBreaker CircuitConfig

	// Client overrides the HTTP client. When nil a pooled client is built
	// with the response header timeout applied.
	Client *http.Client

	// Metrics receives delivery self-metrics. May be nil.
	Metrics *metrics.Collector

	// Logger receives diagnostics. Default: slog.Default() with component=transport.
	Logger *slog.Logger
}

// OptionsFromConfig maps the resolved configuration onto transport options.
func OptionsFromConfig(cfg *config.Config) Options {
	cb := cfg.HTTPClient.CircuitBreaker
	return Options{
		Endpoint:      cfg.DSN,
		APIKey:        cfg.APIKey,
		Timeout:       cfg.HTTPClient.Timeout,
		RetryAttempts: cfg.HTTPClient.RetryAttempts,
		Headers:       cfg.HTTPClient.Headers,
		Compression:   cfg.HTTPClient.Compression,
		CircuitBreaker: CircuitConfig{
			Enabled:      cb.Enabled,
			MaxFailures:  cb.MaxFailures,
			RecoveryTime: cb.RecoveryTime,
			HalfOpenMax:  cb.HalfOpenMax,
		},
	}
}

// Transport sends telemetry items to the collector endpoint, one HTTP POST
// per item. It is safe for concurrent use.
type Transport struct {
	endpoint    string
	headers     http.Header
	timeout     time.Duration
	retries     int
	retryDelay  time.Duration
	compression string

	apiKey  func() string
	client  *http.Client
	breaker *CircuitBreaker
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New creates a Transport. It returns an error only for invalid options.
func New(opts Options) (*Transport, error) {
	compression, err := parseCompression(opts.Compression)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default().With("component", "transport")
	}

	timeout := opts.Timeout
	if timeout <= 0 || timeout > MaxAttemptTimeout {
		timeout = MaxAttemptTimeout
	}

	retries := min(opts.RetryAttempts, maxRetries)
	if retries < 0 {
		retries = 0
	}

	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	client := opts.Client
	if client == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.ResponseHeaderTimeout = timeout
		base.MaxIdleConnsPerHost = 16
		client = &http.Client{Transport: base}
	}

	apiKey := opts.APIKey
	if opts.APIKeyFunc != nil {
		apiKey = ""
	}

	t := &Transport{
		endpoint:    opts.Endpoint,
		headers:     buildHeaders(opts.Headers, apiKey, compression),
		apiKey:      opts.APIKeyFunc,
		timeout:     timeout,
		retries:     retries,
		retryDelay:  retryDelay,
		compression: compression,
		client:      client,
		breaker:     NewCircuitBreaker(opts.CircuitBreaker, logger),
		metrics:     opts.Metrics,
		logger:      logger,
	}
	t.metrics.SetCircuitState(t.breaker.State())

	return t, nil
}

// buildHeaders assembles the static request headers. Extra headers go in
// first so the protocol headers always win.
func buildHeaders(extra map[string]string, apiKey, compression string) http.Header {
	h := make(http.Header, len(extra)+4)
	for k, v := range extra {
		h.Set(k, v)
	}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Del("Content-Encoding")
	h.Del("X-Api-Key")
	if compression != CompressionNone {
		h.Set("Content-Encoding", compression)
	}
	if apiKey != "" {
		h.Set("X-Api-Key", apiKey)
	}
	return h
}

// Configured reports whether an endpoint is set.
func (t *Transport) Configured() bool {
	return t.endpoint != ""
}

// Endpoint returns the configured collector URL.
func (t *Transport) Endpoint() string {
	return t.endpoint
}

// CircuitState returns the circuit breaker state.
func (t *Transport) CircuitState() string {
	return t.breaker.State()
}

// ResetCircuit closes the circuit breaker so the next send reaches the
// backend again. Used when the credentials change.
func (t *Transport) ResetCircuit() {
	if t.breaker == nil {
		return
	}
	t.breaker.Reset()
	t.metrics.SetCircuitState(t.breaker.State())
	t.logger.Info("circuit breaker reset")
}

// Send delivers one item. It makes at most two attempts: the initial one and
// a single retry after a fixed delay, for both network failures and non-2xx
// responses. Configuration and serialization failures are never retried.
//
// Send never panics; every failure is logged and returned as one of
// ErrNotConfigured, ErrCircuitOpen, *SerializationError, *TransportError or
// *BackendRejectionError. When ctx is cancelled mid-delivery the error also
// matches ErrInterrupted.
func (t *Transport) Send(ctx context.Context, it item.Item) error {
	start := time.Now()
	err := t.send(ctx, it)
	t.metrics.RecordSend(resultLabel(err), time.Since(start))
	return err
}

func (t *Transport) send(ctx context.Context, it item.Item) error {
	if t.endpoint == "" {
		t.logger.Warn("collector endpoint is not configured, skipping telemetry transmission",
			"type", it.Kind(),
		)
		return ErrNotConfigured
	}

	body, err := json.Marshal(it)
	if err != nil {
		serr := &SerializationError{Kind: it.Kind(), Cause: err}
		t.logger.Error("failed to encode telemetry item", "type", it.Kind(), "error", err)
		return serr
	}

	body, err = compress(t.compression, body)
	if err != nil {
		serr := &SerializationError{Kind: it.Kind(), Cause: err}
		t.logger.Error("failed to compress telemetry item", "type", it.Kind(), "error", err)
		return serr
	}

	if !t.breaker.Allow() {
		t.logger.Debug("circuit breaker open, dropping telemetry item", "type", it.Kind())
		t.metrics.SetCircuitState(t.breaker.State())
		return ErrCircuitOpen
	}

	attempts := 1 + t.retries
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			t.logger.Info("retrying telemetry delivery",
				"attempt", attempt,
				"delay", t.retryDelay,
			)

			if err := t.wait(ctx); err != nil {
				lastErr = &TransportError{Endpoint: t.endpoint, Attempt: attempt, Cause: err}
				break
			}
		}

		lastErr = t.attempt(ctx, body, attempt)
		if lastErr == nil {
			t.breaker.RecordSuccess()
			t.metrics.SetCircuitState(t.breaker.State())
			return nil
		}
		if ctx.Err() != nil {
			break
		}
	}

	// A cancelled caller says nothing about the backend.
	if ctx.Err() != nil {
		t.logger.Debug("telemetry delivery interrupted",
			"type", it.Kind(),
			"error", lastErr,
		)
		return fmt.Errorf("%w: %w", ErrInterrupted, lastErr)
	}

	t.breaker.RecordFailure()
	t.metrics.SetCircuitState(t.breaker.State())

	t.logger.Error("failed to send telemetry item after all attempts",
		"type", it.Kind(),
		"total_attempts", attempts,
		"error", lastErr,
	)
	return lastErr
}

func (t *Transport) wait(ctx context.Context) error {
	timer := time.NewTimer(t.retryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// attempt performs one POST bounded by timeout + 1s.
func (t *Transport) attempt(ctx context.Context, body []byte, n int) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout+time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		t.metrics.RecordAttempt("transport_error")
		return &TransportError{Endpoint: t.endpoint, Attempt: n, Cause: err}
	}
	req.Header = t.headers.Clone()
	if t.apiKey != nil {
		if key := t.apiKey(); key != "" {
			req.Header.Set("X-Api-Key", key)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.metrics.RecordAttempt("transport_error")
		terr := &TransportError{
			Endpoint: t.endpoint,
			Attempt:  n,
			Timeout:  isTimeout(err),
			Cause:    err,
		}
		t.logger.Error("transport error while sending telemetry item",
			"attempt", n,
			"timeout", terr.Timeout,
			"error", err,
		)
		return terr
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		t.metrics.RecordAttempt("success")
		t.logger.Debug("telemetry item sent",
			"status_code", resp.StatusCode,
			"attempt", n,
		)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
	t.metrics.RecordAttempt("rejected")

	rerr := &BackendRejectionError{
		StatusCode: resp.StatusCode,
		Body:       strings.ToValidUTF8(string(snippet), ""),
	}
	t.logger.Warn("backend returned non-success status code",
		"status_code", resp.StatusCode,
		"attempt", n,
		"body", rerr.Body,
	)
	return rerr
}

// Close releases idle connections.
func (t *Transport) Close() {
	t.client.CloseIdleConnections()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// resultLabel maps a Send error onto the sends_total result label.
func resultLabel(err error) string {
	var (
		serr *SerializationError
		terr *TransportError
		rerr *BackendRejectionError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrInterrupted):
		return "interrupted"
	case errors.As(err, &serr):
		return "serialization"
	case errors.As(err, &rerr):
		return "rejected"
	case errors.As(err, &terr):
		return "transport_error"
	default:
		return "error"
	}
}

// DropReason maps a Send error onto the items_dropped_total reason label.
func DropReason(err error) string {
	switch label := resultLabel(err); label {
	case "rejected", "transport_error":
		return "send_failed"
	case "interrupted":
		return "shutdown"
	default:
		return label
	}
}
