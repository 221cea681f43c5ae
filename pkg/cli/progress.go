package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// DeliveryProgress redraws a single status line while telemetry items are
// being delivered. Report may be called from any goroutine.
type DeliveryProgress struct {
	mu      sync.Mutex
	w       io.Writer
	total   int64
	started time.Time
}

// NewDeliveryProgress returns a status line for total items written to w,
// or to os.Stderr when w is nil.
func NewDeliveryProgress(w io.Writer, total int64) *DeliveryProgress {
	if w == nil {
		w = os.Stderr
	}
	return &DeliveryProgress{w: w, total: total, started: time.Now()}
}

// Report redraws the line with the current outcome counts.
func (p *DeliveryProgress) Report(delivered, failed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draw(delivered, failed)
}

// Done draws the final counts and ends the line.
func (p *DeliveryProgress) Done(delivered, failed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draw(delivered, failed)
	fmt.Fprintf(p.w, " in %s\n", time.Since(p.started).Round(time.Millisecond))
}

func (p *DeliveryProgress) draw(delivered, failed int64) {
	if p.total <= 0 {
		return
	}
	pending := max(p.total-delivered-failed, 0)
	fmt.Fprintf(p.w, "\rdelivered %d/%d, failed %d, pending %d", delivered, p.total, failed, pending)
}
