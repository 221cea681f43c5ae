package collector

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// flushScheduler triggers periodic flushes so a partially filled batch never
// waits longer than one export interval.
type flushScheduler struct {
	interval time.Duration
	flush    func()
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

func newFlushScheduler(interval time.Duration, flush func(), logger *slog.Logger) *flushScheduler {
	return &flushScheduler{
		interval: interval,
		flush:    flush,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the flush job and starts the cron runner.
func (s *flushScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.interval <= 0 {
		s.logger.Info("export interval not configured, skipping periodic flush")
		return nil
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.flush); err != nil {
		return fmt.Errorf("failed to schedule periodic flush: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Debug("periodic flush scheduled", "interval", s.interval)
	return nil
}

// Stop stops the scheduler and waits for a running flush to complete.
func (s *flushScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
	}
}

// NextRun returns the next scheduled flush time, or nil when not running.
func (s *flushScheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
