package transport

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(maxFailures, halfOpenMax int) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cb := NewCircuitBreaker(CircuitConfig{
		Enabled:      true,
		MaxFailures:  maxFailures,
		RecoveryTime: 30 * time.Second,
		HalfOpenMax:  halfOpenMax,
	}, nil)
	cb.now = clock.Now
	return cb, clock
}

func TestCircuitBreaker_Disabled(t *testing.T) {
	cb := NewCircuitBreaker(CircuitConfig{Enabled: false}, nil)
	if cb != nil {
		t.Fatal("expected nil breaker when disabled")
	}
	if !cb.Allow() {
		t.Error("nil breaker must allow")
	}
	cb.RecordFailure()
	cb.RecordSuccess()
	if cb.State() != StateDisabled {
		t.Errorf("State() = %s, want disabled", cb.State())
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb, _ := newTestBreaker(3, 1)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess() // resets the streak
	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Fatalf("State() = %s, want closed after broken streak", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("State() = %s, want open", cb.State())
	}
	if cb.Allow() {
		t.Error("open circuit must reject")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(1, 2)
	cb.RecordFailure()

	clock.Advance(29 * time.Second)
	if cb.Allow() {
		t.Fatal("circuit must stay open before the recovery time")
	}

	clock.Advance(2 * time.Second)
	if !cb.Allow() {
		t.Fatal("expected first probe to be admitted")
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %s, want half-open", cb.State())
	}
	if !cb.Allow() {
		t.Fatal("expected second probe to be admitted")
	}
	if cb.Allow() {
		t.Fatal("expected probes beyond half_open_max to be rejected")
	}

	cb.RecordSuccess()
	if cb.State() != StateHalfOpen {
		t.Fatalf("State() = %s, want half-open after one success", cb.State())
	}
	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Fatalf("State() = %s, want closed", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(1, 1)
	cb.RecordFailure()
	clock.Advance(time.Minute)

	if !cb.Allow() {
		t.Fatal("expected probe to be admitted")
	}
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Fatalf("State() = %s, want open", cb.State())
	}
	if cb.Allow() {
		t.Error("reopened circuit must reject until the next recovery window")
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(1, 1)
	cb.RecordFailure()
	cb.Reset()

	if cb.State() != StateClosed {
		t.Errorf("State() = %s, want closed", cb.State())
	}
	if !cb.Allow() {
		t.Error("reset circuit must allow")
	}
}
