package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"houdini-hq/houdini/pkg/item"
	"houdini-hq/houdini/pkg/telemetry/metrics"
)

var (
	errQueueFull        = errors.New("dispatch queue full")
	errDispatcherClosed = errors.New("dispatcher closed")
)

// dispatcher owns flushed batches and delivers them on a fixed pool of
// workers. Submit never blocks: when the backlog is full the batch is
// rejected and the caller drops it.
type dispatcher struct {
	queue   chan []item.Item
	deliver func(context.Context, item.Item)
	group   errgroup.Group
	metrics *metrics.Collector
	logger  *slog.Logger

	// ctx is passed to every delivery and cancelled when Close gives up.
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func newDispatcher(workers, queueSize int, deliver func(context.Context, item.Item), m *metrics.Collector, logger *slog.Logger) *dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &dispatcher{
		queue:   make(chan []item.Item, queueSize),
		deliver: deliver,
		metrics: m,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < workers; i++ {
		d.group.Go(func() error {
			d.run()
			return nil
		})
	}

	return d
}

// Submit hands batch to the workers. It fails with errQueueFull when the
// backlog is at capacity and errDispatcherClosed after Close.
func (d *dispatcher) Submit(batch []item.Item) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return errDispatcherClosed
	}

	select {
	case d.queue <- batch:
		d.metrics.SetQueueDepth(len(d.queue))
		return nil
	default:
		return errQueueFull
	}
}

// Depth returns the number of batches waiting for a worker.
func (d *dispatcher) Depth() int {
	return len(d.queue)
}

func (d *dispatcher) run() {
	for batch := range d.queue {
		d.metrics.SetQueueDepth(len(d.queue))
		for i, it := range batch {
			if d.ctx.Err() != nil {
				d.metrics.RecordDropped("shutdown", len(batch)-i)
				break
			}
			d.deliver(d.ctx, it)
		}
	}
}

// Close stops accepting batches and waits for queued ones to be delivered.
// If ctx expires first, in-flight deliveries are cancelled, the remaining
// backlog is dropped, and ctx's error is returned.
func (d *dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.logger.Warn("telemetry drain interrupted, dropping remaining items",
			"queued_batches", len(d.queue),
		)
		d.cancel()
		<-done
		return ctx.Err()
	}
}
