package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/config"
	"houdini-hq/houdini/pkg/telemetry/metrics"
	"houdini-hq/houdini/pkg/transport"
)

// backend records the telemetry_data object of every POSTed item.
type backend struct {
	mu    sync.Mutex
	items []map[string]any
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data map[string]any `json:"telemetry_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	b.items = append(b.items, body.Data)
	b.mu.Unlock()
	w.WriteHeader(http.StatusAccepted)
}

func (b *backend) ofType(kind string) []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, it := range b.items {
		if it["type"] == kind {
			out = append(out, it)
		}
	}
	return out
}

func newTestServer(t *testing.T) (*Server, *backend) {
	t.Helper()

	be := &backend{}
	ts := httptest.NewServer(be)
	t.Cleanup(ts.Close)

	cfg := config.Default()
	cfg.DSN = ts.URL
	cfg.ServiceName = "orders"
	cfg.Server.ListenAddress = "127.0.0.1:0"
	cfg.Server.ShutdownTimeout = 5 * time.Second

	m := metrics.NewCollector(&cfg.SelfMetrics, nil)

	opts := transport.OptionsFromConfig(cfg)
	opts.Metrics = m
	tr, err := transport.New(opts)
	if err != nil {
		t.Fatalf("transport.New() error = %v", err)
	}

	col, err := collector.New(cfg, tr, collector.WithMetrics(m))
	if err != nil {
		t.Fatalf("collector.New() error = %v", err)
	}

	srv := NewServer(cfg, col, tr, m, WithVersion("1.2.3", "abc", "today"))
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, be
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, r))
	return rec
}

func TestServer_CreateAndGetOrder(t *testing.T) {
	srv, be := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/orders", `{"customer":"acme","total":12.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d, body %s", rec.Code, rec.Body)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}

	rec = do(t, h, http.MethodGet, "/orders/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", rec.Code)
	}
	var order Order
	if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
		t.Fatal(err)
	}
	if order.ID != 1 || order.Customer != "acme" {
		t.Errorf("order = %+v", order)
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if got := len(be.ofType("http_request")); got != 2 {
		t.Errorf("got %d http_request items, want 2", got)
	}
	traces := be.ofType("trace")
	if len(traces) != 2 {
		t.Fatalf("got %d traces, want 2", len(traces))
	}
	routes := map[any]bool{}
	for _, tr := range traces {
		routes[tr["attributes"].(map[string]any)["http.route"]] = true
	}
	if !routes["GET /orders/{id}"] || !routes["POST /orders"] {
		t.Errorf("trace routes = %v", routes)
	}

	if crumbs := be.ofType("breadcrumb"); len(crumbs) != 1 || crumbs[0]["category"] != "orders" {
		t.Errorf("breadcrumbs = %v", crumbs)
	}
	if tags := be.ofType("tag"); len(tags) != 1 || tags[0]["value"] != "acme" {
		t.Errorf("tags = %v", tags)
	}

	var created bool
	for _, m := range be.ofType("metric") {
		if m["name"] == "orders.created" && m["value"] == 12.5 {
			created = true
		}
	}
	if !created {
		t.Error("expected orders.created metric")
	}
}

func TestServer_InvalidOrderReported(t *testing.T) {
	srv, be := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/orders", `{"total":3}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	_ = srv.Shutdown(context.Background())

	exceptions := be.ofType("exception")
	if len(exceptions) != 1 {
		t.Fatalf("got %d exceptions, want 1", len(exceptions))
	}
	ex := exceptions[0]
	if ex["class"] != "*server.InvalidOrderError" {
		t.Errorf("class = %v", ex["class"])
	}
	if !strings.HasSuffix(ex["file"].(string), "orders.go") {
		t.Errorf("file = %v, want the handler's file", ex["file"])
	}
	if ctx := ex["context"].(map[string]any); ctx["request_route"] != "POST /orders" {
		t.Errorf("context = %v", ctx)
	}
}

func TestServer_OrderErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"unknown order", http.MethodGet, "/orders/99", "", http.StatusNotFound},
		{"bad id", http.MethodGet, "/orders/abc", "", http.StatusBadRequest},
		{"bad body", http.MethodPost, "/orders", "not json", http.StatusBadRequest},
		{"no route", http.MethodGet, "/nothing", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, tt.method, tt.target, tt.body); rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestServer_HealthNotTraced(t *testing.T) {
	srv, be := newTestServer(t)
	h := srv.Handler()

	if rec := do(t, h, http.MethodGet, HealthPath, ""); rec.Code != http.StatusOK {
		t.Errorf("health status = %d, body %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodGet, LivenessPath, ""); rec.Code != http.StatusOK {
		t.Errorf("liveness status = %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, VersionPath, "")
	if !strings.Contains(rec.Body.String(), `"version":"1.2.3"`) {
		t.Errorf("version body = %s", rec.Body)
	}

	_ = srv.Shutdown(context.Background())

	if got := len(be.ofType("http_request")); got != 0 {
		t.Errorf("got %d http_request items for health endpoints, want 0", got)
	}
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	do(t, h, http.MethodGet, "/orders/1", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "houdini_items_recorded_total") {
		t.Errorf("metrics output missing houdini_items_recorded_total:\n%s", rec.Body)
	}
}

func TestServer_StartAndShutdown(t *testing.T) {
	srv, be := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == nil || !srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post("http://"+srv.Addr().String()+"/orders", "application/json",
		strings.NewReader(`{"customer":"acme","total":1}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Start did not return after cancel")
	}

	if srv.IsRunning() {
		t.Error("server still running after shutdown")
	}
	if len(be.ofType("http_request")) != 1 {
		t.Error("expected the request's telemetry to be delivered during shutdown")
	}
}

func TestServer_StartTwice(t *testing.T) {
	srv, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for !srv.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := srv.Start(ctx); err == nil {
		t.Error("expected error starting a running server")
	}
}
