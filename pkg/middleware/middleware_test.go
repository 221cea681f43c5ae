package middleware

import (
	"context"
	"sync"
	"testing"
	"time"

	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/config"
	"houdini-hq/houdini/pkg/item"
)

// recordingSender stores every delivered item.
type recordingSender struct {
	mu    sync.Mutex
	items []item.Item
}

func (s *recordingSender) Send(_ context.Context, it item.Item) error {
	s.mu.Lock()
	s.items = append(s.items, it)
	s.mu.Unlock()
	return nil
}

func (s *recordingSender) Items() []item.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]item.Item(nil), s.items...)
}

// byKind returns the delivered payloads of kind k.
func (s *recordingSender) byKind(k item.Kind) []item.Payload {
	var out []item.Payload
	for _, it := range s.Items() {
		if it.Kind() == k {
			out = append(out, it.Data)
		}
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.DSN = "http://collector.test/ingest"
	cfg.ServiceName = "orders"
	cfg.ServiceVersion = "1.0.0"
	cfg.Delivery.BatchSize = 1000
	cfg.Metrics.ExportInterval = time.Hour
	return cfg
}

func newTestCollector(t *testing.T, cfg *config.Config) (*collector.Collector, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	c, err := collector.New(cfg, sender)
	if err != nil {
		t.Fatalf("collector.New() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, sender
}

// drain closes c so every recorded item reaches the sender.
func drain(t *testing.T, c *collector.Collector) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}
