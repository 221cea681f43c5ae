package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"success", http.StatusOK, "level=INFO"},
		{"client error", http.StatusNotFound, "level=WARN"},
		{"server error", http.StatusBadGateway, "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "body")
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/path", nil))

			out := buf.String()
			for _, want := range []string{"request completed", tt.wantLevel, "status=" + strconv.Itoa(tt.status), "size=4", "path=/path"} {
				if !strings.Contains(out, want) {
					t.Errorf("log output missing %q:\n%s", want, out)
				}
			}
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestLoggingMiddleware_TraceID(t *testing.T) {
	c, _ := newTestCollector(t, testConfig())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var traceID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = FromContext(r.Context()).Span().TraceID()
	})
	handler := Telemetry(c)(LoggingMiddleware(logger)(inner))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if traceID == "" || !strings.Contains(buf.String(), "trace_id="+traceID) {
		t.Errorf("expected trace_id=%s in:\n%s", traceID, buf.String())
	}
}

func TestResponseWriter_CapturesStatusAndSize(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	_, _ = rw.Write([]byte("hello"))
	rw.WriteHeader(http.StatusTeapot)
	_, _ = rw.Write([]byte(" world"))

	if rw.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want implicit 200", rw.statusCode)
	}
	if rw.size != len("hello world") {
		t.Errorf("size = %d", rw.size)
	}
	if newResponseWriter(rw) != rw {
		t.Error("wrapping twice should reuse the writer")
	}
	if rw.Unwrap() != rec {
		t.Error("Unwrap should return the underlying writer")
	}
}
