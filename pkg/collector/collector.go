package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"houdini-hq/houdini/pkg/config"
	"houdini-hq/houdini/pkg/item"
	"houdini-hq/houdini/pkg/telemetry/metrics"
	"houdini-hq/houdini/pkg/transport"
)

// Sender delivers a single item to the backend. *transport.Transport
// implements it.
type Sender interface {
	Send(ctx context.Context, it item.Item) error
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger used for the collector's own diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithAppLogger sets the logger that CaptureMessage and CaptureError write
// the captured events to. Default: slog.Default().
func WithAppLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.appLogger = logger
		}
	}
}

// WithMetrics attaches self-metrics. A nil collector disables them.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}

// withRand replaces the sampling source. Tests only.
func withRand(f func() float64) Option {
	return func(c *Collector) {
		c.rand = f
	}
}

// Collector builds telemetry items, buffers them and hands flushed batches
// to a bounded pool of delivery workers. All methods are safe for concurrent
// use and never block on network I/O.
type Collector struct {
	enabled        bool
	projectID      string
	serviceName    string
	serviceVersion string

	tracesEnabled  bool
	sampleRate     float64
	metricsEnabled bool
	logsEnabled    bool
	levels         map[string]bool
	batchSize      int

	sender     Sender
	dispatcher *dispatcher
	scheduler  *flushScheduler
	metrics    *metrics.Collector
	logger     *slog.Logger
	appLogger  *slog.Logger
	rand       func() float64

	mu     sync.Mutex
	queue  []item.Item
	closed bool
}

// New creates a collector from the resolved configuration. When cfg.Enabled
// is false the collector is a no-op and starts no workers.
func New(cfg *config.Config, sender Sender, opts ...Option) (*Collector, error) {
	if cfg == nil {
		return nil, errors.New("collector: config is required")
	}

	c := &Collector{
		enabled:        cfg.Enabled,
		projectID:      cfg.ProjectID,
		serviceName:    cfg.ServiceName,
		serviceVersion: cfg.ServiceVersion,
		tracesEnabled:  cfg.Traces.Enabled,
		sampleRate:     cfg.Traces.SampleRate,
		metricsEnabled: cfg.Metrics.Enabled,
		logsEnabled:    cfg.Logs.Enabled,
		levels:         make(map[string]bool, len(cfg.Logs.Levels)),
		batchSize:      max(cfg.Delivery.BatchSize, 1),
		sender:         sender,
		logger:         slog.Default().With("component", "collector"),
		appLogger:      slog.Default(),
		rand:           rand.Float64,
	}
	for _, level := range cfg.Logs.Levels {
		c.levels[level] = true
	}
	for _, opt := range opts {
		opt(c)
	}

	if !c.enabled {
		c.logger.Info("telemetry disabled, collector is a no-op")
		return c, nil
	}
	if sender == nil {
		return nil, errors.New("collector: sender is required when telemetry is enabled")
	}

	c.dispatcher = newDispatcher(
		max(cfg.Delivery.Workers, 1),
		max(cfg.Delivery.QueueSize, 1),
		c.deliver,
		c.metrics,
		c.logger,
	)

	if c.batchSize > 1 {
		c.scheduler = newFlushScheduler(cfg.Metrics.ExportInterval, func() {
			c.flush("interval")
		}, c.logger)
		if err := c.scheduler.Start(); err != nil {
			_ = c.dispatcher.Close(context.Background())
			return nil, fmt.Errorf("collector: %w", err)
		}
	}

	c.logger.Debug("collector started",
		"batch_size", c.batchSize,
		"workers", max(cfg.Delivery.Workers, 1),
		"queue_size", max(cfg.Delivery.QueueSize, 1),
	)
	return c, nil
}

// Enabled reports whether the collector records anything at all.
func (c *Collector) Enabled() bool {
	return c.enabled
}

// Pending returns the number of buffered items not yet flushed.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Stats is a point-in-time view of the collector used by health checks.
type Stats struct {
	Enabled       bool       `json:"enabled"`
	Closed        bool       `json:"closed"`
	Pending       int        `json:"pending"`
	QueuedBatches int        `json:"queued_batches"`
	BatchSize     int        `json:"batch_size"`
	NextFlush     *time.Time `json:"next_flush,omitempty"`
}

// Stats returns the current collector state.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	s := Stats{
		Enabled:   c.enabled,
		Closed:    c.closed,
		Pending:   len(c.queue),
		BatchSize: c.batchSize,
	}
	c.mu.Unlock()

	if c.dispatcher != nil {
		s.QueuedBatches = c.dispatcher.Depth()
	}
	if c.scheduler != nil {
		s.NextFlush = c.scheduler.NextRun()
	}
	return s
}

// Flush hands every buffered item to the delivery workers without waiting
// for them to be sent. It always returns true: a batch the workers cannot
// take is dropped, logged and counted, never reported to the caller.
func (c *Collector) Flush() bool {
	c.flush("manual")
	return true
}

func (c *Collector) flush(trigger string) {
	c.mu.Lock()
	batch := c.queue
	c.queue = nil
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	c.metrics.SetPending(0)
	c.dispatch(batch, trigger)
}

// Close flushes the buffer, stops the periodic flush and waits for queued
// batches to be delivered until ctx expires. Items recorded after Close are
// dropped.
func (c *Collector) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	batch := c.queue
	c.queue = nil
	c.mu.Unlock()

	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if len(batch) > 0 {
		c.metrics.SetPending(0)
		c.dispatch(batch, "shutdown")
	}
	if c.dispatcher == nil {
		return nil
	}

	if err := c.dispatcher.Close(ctx); err != nil {
		return fmt.Errorf("collector: drain interrupted: %w", err)
	}
	c.logger.Debug("collector closed")
	return nil
}

// enqueue wraps p in an item and buffers it, flushing when the batch is full.
func (c *Collector) enqueue(now item.Timestamp, p item.Payload) {
	if !c.enabled {
		return
	}

	it := item.New(c.projectID, item.Metadata{
		ServiceName:    c.serviceName,
		ServiceVersion: c.serviceVersion,
		Timestamp:      now,
	}, p)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.metrics.RecordDropped("closed", 1)
		c.logger.Debug("collector closed, dropping telemetry item", "type", p.Kind())
		return
	}

	c.queue = append(c.queue, it)
	var batch []item.Item
	if len(c.queue) >= c.batchSize {
		batch = c.queue
		c.queue = nil
	}
	pending := len(c.queue)
	c.mu.Unlock()

	c.metrics.RecordItem(string(p.Kind()))
	c.metrics.SetPending(pending)

	if batch != nil {
		c.dispatch(batch, "size")
	}
}

// dispatch submits a batch, dropping it when the workers cannot take it.
func (c *Collector) dispatch(batch []item.Item, trigger string) {
	c.metrics.RecordFlush(trigger, len(batch))

	err := c.dispatcher.Submit(batch)
	switch {
	case err == nil:
	case errors.Is(err, errQueueFull):
		c.logger.Warn("telemetry dispatch queue full, dropping batch",
			"batch_size", len(batch),
			"trigger", trigger,
		)
		c.metrics.RecordDropped("queue_full", len(batch))
	default:
		c.logger.Debug("dispatcher closed, dropping batch", "batch_size", len(batch))
		c.metrics.RecordDropped("closed", len(batch))
	}
}

// deliver sends one item on a worker goroutine. Failures are already logged
// by the sender; here they are only counted.
func (c *Collector) deliver(ctx context.Context, it item.Item) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic while delivering telemetry item",
				"type", it.Kind(),
				"panic", r,
			)
			c.metrics.RecordDropped("send_failed", 1)
		}
	}()

	if err := c.sender.Send(ctx, it); err != nil {
		c.metrics.RecordDropped(transport.DropReason(err), 1)
	}
}

// sampled decides whether a new trace is kept.
func (c *Collector) sampled() bool {
	switch {
	case c.sampleRate >= 1:
		return true
	case c.sampleRate <= 0:
		return false
	default:
		return c.rand() < c.sampleRate
	}
}

// acceptsLevel reports whether level is in the configured log levels. The
// match is exact.
func (c *Collector) acceptsLevel(level string) bool {
	return c.levels[level]
}
