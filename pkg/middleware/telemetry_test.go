package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/item"
	"houdini-hq/houdini/pkg/transport"
)

func TestTelemetry_EndToEnd(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []map[string]any
	)
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/ingest" {
			t.Errorf("unexpected backend request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, body)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer backend.Close()

	cfg := testConfig()
	cfg.DSN = backend.URL + "/ingest"
	cfg.Delivery.BatchSize = 1

	tr, err := transport.New(transport.OptionsFromConfig(cfg))
	if err != nil {
		t.Fatalf("transport.New() error = %v", err)
	}
	c, err := collector.New(cfg, tr)
	if err != nil {
		t.Fatalf("collector.New() error = %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(12 * time.Millisecond)
		_, _ = io.WriteString(w, `{"id":"`+r.PathValue("id")+`"}`)
	})
	handler := Telemetry(c, WithMux(mux))(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	drain(t, c)

	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 3 {
		t.Fatalf("backend received %d POSTs, want 3", len(bodies))
	}

	byType := make(map[string]map[string]any)
	for _, b := range bodies {
		data := b["telemetry_data"].(map[string]any)
		byType[data["type"].(string)] = data

		meta := b["metadata"].(map[string]any)
		if meta["service_name"] != "orders" {
			t.Errorf("service_name = %v", meta["service_name"])
		}
	}

	trace := byType["trace"]
	if trace == nil || trace["operation_name"] != "GET /orders/42" {
		t.Fatalf("trace item = %v", trace)
	}
	attrs := trace["attributes"].(map[string]any)
	if attrs["http.route"] != "GET /orders/{id}" || attrs["http.status_code"] != float64(200) {
		t.Errorf("trace attributes = %v", attrs)
	}

	req := byType["http_request"]
	if req == nil || req["status_code"] != float64(200) || req["method"] != "GET" {
		t.Fatalf("http_request item = %v", req)
	}

	metric := byType["metric"]
	if metric == nil || metric["name"] != "http.request.duration" {
		t.Fatalf("metric item = %v", metric)
	}
	value := metric["value"].(float64)
	if value < 0.012 || math.Abs(value-0.012) > 0.5 {
		t.Errorf("duration = %v, want about 0.012", value)
	}
}

func TestTelemetry_RecordsRequest(t *testing.T) {
	c, sender := newTestCollector(t, testConfig())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /carts/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "created")
	})
	handler := Telemetry(c)(mux)

	req := httptest.NewRequest(http.MethodPost, "/carts/7/items?src=web", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Errorf("response %s = %q", RequestIDHeader, got)
	}

	drain(t, c)

	traces := sender.byKind(item.KindTrace)
	if len(traces) != 1 {
		t.Fatalf("got %d traces, want 1", len(traces))
	}
	tr := traces[0].(item.Trace)
	want := item.Fields{
		"http.method":        "POST",
		"http.url":           "http://example.com/carts/7/items?src=web",
		"http.user_agent":    "test-agent",
		"http.remote_addr":   "192.0.2.1",
		"http.request_id":    "req-123",
		"http.status_code":   http.StatusCreated,
		"http.response_size": len("created"),
		"http.route":         "POST /carts/{id}/items",
	}
	for k, v := range want {
		if tr.Attributes[k] != v {
			t.Errorf("attribute %s = %v, want %v", k, tr.Attributes[k], v)
		}
	}

	reqs := sender.byKind(item.KindHTTPRequest)
	if len(reqs) != 1 {
		t.Fatalf("got %d http_request items, want 1", len(reqs))
	}
	hr := reqs[0].(item.HTTPRequest)
	if hr.StatusCode != http.StatusCreated || hr.Headers["Authorization"] != collector.Redacted {
		t.Errorf("unexpected http_request %+v", hr)
	}

	metrics := sender.byKind(item.KindMetric)
	if len(metrics) != 1 {
		t.Fatalf("got %d metrics, want 1", len(metrics))
	}
	m := metrics[0].(item.Metric)
	if m.Attributes["route"] != "POST /carts/{id}/items" || m.Attributes["status_code"] != http.StatusCreated || m.Attributes["method"] != "POST" {
		t.Errorf("metric attributes = %v", m.Attributes)
	}
}

func TestTelemetry_UnknownRoute(t *testing.T) {
	c, sender := newTestCollector(t, testConfig())

	handler := Telemetry(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := FromContext(r.Context()).Route(); got != unknownRoute {
			t.Errorf("Route() = %q, want unknown", got)
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/anything", nil))

	drain(t, c)
	tr := sender.byKind(item.KindTrace)[0].(item.Trace)
	if tr.Attributes["http.route"] != unknownRoute {
		t.Errorf("http.route = %v", tr.Attributes["http.route"])
	}
}

func TestTelemetry_RouteAtStartWithMux(t *testing.T) {
	c, _ := newTestCollector(t, testConfig())

	mux := http.NewServeMux()
	var startRoute string
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		startRoute = FromContext(r.Context()).Route()
	})

	Telemetry(c, WithMux(mux))(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/1", nil))

	if startRoute != "GET /users/{id}" {
		t.Errorf("Route() = %q", startRoute)
	}
}

func TestTelemetry_Panic(t *testing.T) {
	c, sender := newTestCollector(t, testConfig())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boom", func(w http.ResponseWriter, r *http.Request) {
		panic(errors.New("kaboom"))
	})
	handler := Telemetry(c)(mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("User-Agent", "probe")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal error") {
		t.Errorf("body = %q", rec.Body.String())
	}

	drain(t, c)

	exceptions := sender.byKind(item.KindException)
	if len(exceptions) != 1 {
		t.Fatalf("got %d exceptions, want 1", len(exceptions))
	}
	ex := exceptions[0].(item.Exception)
	if ex.Class != "*errors.errorString" || ex.Message != "panic: kaboom" {
		t.Errorf("unexpected exception %+v", ex)
	}
	if !strings.HasSuffix(ex.File, "telemetry_test.go") {
		t.Errorf("File = %q, want the panicking handler", ex.File)
	}
	wantCtx := item.Fields{
		"request_uri":    "http://example.com/boom",
		"request_method": "GET",
		"request_route":  "GET /boom",
		"user_agent":     "probe",
		"remote_addr":    "192.0.2.1",
	}
	for k, v := range wantCtx {
		if ex.Context[k] != v {
			t.Errorf("context %s = %v, want %v", k, ex.Context[k], v)
		}
	}

	var errorCount, duration int
	for _, p := range sender.byKind(item.KindMetric) {
		m := p.(item.Metric)
		switch m.Name {
		case "errors.count":
			errorCount++
			if m.Value != 1 || m.Attributes["exception_class"] != "*errors.errorString" || m.Attributes["request_route"] != "GET /boom" {
				t.Errorf("errors.count attributes = %v", m.Attributes)
			}
		case "http.request.duration":
			duration++
			if m.Attributes["status_code"] != http.StatusInternalServerError {
				t.Errorf("status_code = %v, want 500", m.Attributes["status_code"])
			}
		}
	}
	if errorCount != 1 || duration != 1 {
		t.Errorf("errors.count=%d http.request.duration=%d, want 1 each", errorCount, duration)
	}

	tr := sender.byKind(item.KindTrace)[0].(item.Trace)
	if tr.Attributes["http.status_code"] != http.StatusInternalServerError {
		t.Errorf("trace status = %v", tr.Attributes["http.status_code"])
	}
}

func TestTelemetry_PanicAfterWrite(t *testing.T) {
	c, _ := newTestCollector(t, testConfig())

	handler := Telemetry(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want the already written 202", rec.Code)
	}
}

func TestTelemetry_AbortHandlerRepanics(t *testing.T) {
	c, sender := newTestCollector(t, testConfig())

	handler := Telemetry(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	func() {
		defer func() {
			if v := recover(); v != http.ErrAbortHandler {
				t.Errorf("recovered %v, want http.ErrAbortHandler", v)
			}
		}()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}()

	drain(t, c)
	if n := len(sender.byKind(item.KindException)); n != 0 {
		t.Errorf("got %d exceptions, want 0", n)
	}
	if n := len(sender.byKind(item.KindTrace)); n != 1 {
		t.Errorf("got %d traces, want 1", n)
	}
}

func TestReportError(t *testing.T) {
	c, sender := newTestCollector(t, testConfig())

	var line int
	handler := Telemetry(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, line, _ = runtime.Caller(0)
		ReportError(r.Context(), errors.New("validation failed"))
		w.WriteHeader(http.StatusBadRequest)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders", nil))

	drain(t, c)

	exceptions := sender.byKind(item.KindException)
	if len(exceptions) != 1 {
		t.Fatalf("got %d exceptions, want 1", len(exceptions))
	}
	ex := exceptions[0].(item.Exception)
	if ex.Line != line+1 || !strings.HasSuffix(ex.File, "telemetry_test.go") {
		t.Errorf("location = %s:%d, want telemetry_test.go:%d", ex.File, ex.Line, line+1)
	}
	if ex.Class != "*errors.errorString" {
		t.Errorf("Class = %q", ex.Class)
	}
}

func TestReportError_OutsideMiddleware(t *testing.T) {
	// Must not panic.
	ReportError(context.Background(), errors.New("x"))
}

func TestTelemetry_RemoteParent(t *testing.T) {
	c, sender := newTestCollector(t, testConfig())

	handler := Telemetry(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	drain(t, c)
	tr := sender.byKind(item.KindTrace)[0].(item.Trace)
	if tr.TraceID != "4bf92f3577b34da6a3ce929d0e0e4736" || tr.ParentSpanID != "00f067aa0ba902b7" {
		t.Errorf("trace_id=%s parent=%s", tr.TraceID, tr.ParentSpanID)
	}
}

func TestInjectTraceContext(t *testing.T) {
	c, _ := newTestCollector(t, testConfig())

	var outbound http.Header
	var span *collector.Span
	handler := Telemetry(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outbound = http.Header{}
		InjectTraceContext(r.Context(), outbound)
		span = FromContext(r.Context()).Span()
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	want := "00-" + span.TraceID() + "-" + span.SpanID() + "-01"
	if got := outbound.Get("traceparent"); got != want {
		t.Errorf("traceparent = %q, want %q", got, want)
	}

	empty := http.Header{}
	InjectTraceContext(context.Background(), empty)
	if len(empty) != 0 {
		t.Errorf("expected no headers outside a traced request, got %v", empty)
	}
}

func TestTelemetry_Skipper(t *testing.T) {
	c, sender := newTestCollector(t, testConfig())

	handler := Telemetry(c, WithSkipper(SkipPaths("/health")))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) != nil {
			t.Error("skipped request should carry no scope")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	drain(t, c)
	if n := len(sender.Items()); n != 0 {
		t.Errorf("got %d items, want 0", n)
	}
}

func TestTelemetry_TracesDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Traces.Enabled = false
	c, sender := newTestCollector(t, cfg)

	handler := Telemetry(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).Span() != nil {
			t.Error("expected no span")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	drain(t, c)
	if n := len(sender.byKind(item.KindTrace)); n != 0 {
		t.Errorf("got %d traces, want 0", n)
	}
	if n := len(sender.byKind(item.KindHTTPRequest)); n != 1 {
		t.Errorf("got %d http_request items, want 1", n)
	}
	if n := len(sender.byKind(item.KindMetric)); n != 1 {
		t.Errorf("got %d metrics, want 1", n)
	}
}

func TestTelemetry_SpanConsumed(t *testing.T) {
	c, _ := newTestCollector(t, testConfig())

	var scope *RequestScope
	handler := Telemetry(c)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope = FromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if scope.Span() != nil {
		t.Error("span should be consumed when the request completes")
	}
	if scope.RequestID() == "" || scope.StartTime().IsZero() {
		t.Error("scope should keep the request identity")
	}
}
