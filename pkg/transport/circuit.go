package transport

import (
	"log/slog"
	"sync"
	"time"
)

// Circuit breaker states as reported by CircuitBreaker.State.
const (
	StateClosed   = "closed"
	StateOpen     = "open"
	StateHalfOpen = "half-open"
	StateDisabled = "disabled"
)

// CircuitConfig configures the circuit breaker.
type CircuitConfig struct {
	Enabled      bool
	MaxFailures  int
	RecoveryTime time.Duration
	HalfOpenMax  int
}

// CircuitBreaker stops delivery attempts to a failing backend. After
// MaxFailures consecutive failed sends the circuit opens and every send is
// rejected until RecoveryTime has passed. The circuit then admits up to
// HalfOpenMax probes; that many successes close it, any failure reopens it.
//
// A nil *CircuitBreaker allows everything.
type CircuitBreaker struct {
	config CircuitConfig
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     string
	failures  int
	probes    int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker creates a circuit breaker, or returns nil when disabled.
func NewCircuitBreaker(config CircuitConfig, logger *slog.Logger) *CircuitBreaker {
	if !config.Enabled {
		return nil
	}

	if config.MaxFailures <= 0 {
		config.MaxFailures = 10
	}
	if config.RecoveryTime <= 0 {
		config.RecoveryTime = 30 * time.Second
	}
	if config.HalfOpenMax <= 0 {
		config.HalfOpenMax = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CircuitBreaker{
		config: config,
		logger: logger,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Allow reports whether a send may proceed.
func (cb *CircuitBreaker) Allow() bool {
	if cb == nil {
		return true
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.RecoveryTime {
			return false
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.successes = 0
		cb.logger.Info("circuit breaker half-open, probing backend",
			"recovery_time", cb.config.RecoveryTime,
			"max_probes", cb.config.HalfOpenMax,
		)
		fallthrough

	case StateHalfOpen:
		if cb.probes >= cb.config.HalfOpenMax {
			return false
		}
		cb.probes++
		return true

	default:
		return true
	}
}

// RecordSuccess records a successful send.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.HalfOpenMax {
			cb.state = StateClosed
			cb.failures = 0
			cb.logger.Info("circuit breaker closed, delivery resumed",
				"outage", cb.now().Sub(cb.openedAt),
			)
		}
	case StateClosed:
		cb.failures = 0
	}
}

// RecordFailure records a failed send.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateHalfOpen:
		cb.open()
	case StateClosed:
		cb.failures++
		if cb.failures >= cb.config.MaxFailures {
			cb.open()
		}
	}
}

// open must be called with mu held.
func (cb *CircuitBreaker) open() {
	previous := cb.state
	cb.state = StateOpen
	cb.openedAt = cb.now()
	cb.logger.Warn("circuit breaker opened, telemetry will be dropped",
		"previous_state", previous,
		"consecutive_failures", cb.failures,
		"recovery_time", cb.config.RecoveryTime,
	)
}

// State returns the current state name.
func (cb *CircuitBreaker) State() string {
	if cb == nil {
		return StateDisabled
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset closes the circuit and clears all counters.
func (cb *CircuitBreaker) Reset() {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0
	cb.successes = 0
	cb.openedAt = time.Time{}
}
