package health

import (
	"context"
	"errors"
	"fmt"

	"houdini-hq/houdini/pkg/collector"
	"houdini-hq/houdini/pkg/transport"
)

// CollectorCheck reports the collector's buffer and dispatch backlog. It is
// unhealthy once the collector has been closed.
func CollectorCheck(c *collector.Collector) CheckFunc {
	return func(context.Context) (any, error) {
		stats := c.Stats()
		if !stats.Enabled {
			return stats, nil
		}
		if stats.Closed {
			return stats, errors.New("collector closed")
		}
		return stats, nil
	}
}

// TransportStatus is the detail reported by TransportCheck.
type TransportStatus struct {
	Configured   bool   `json:"configured"`
	Endpoint     string `json:"endpoint,omitempty"`
	CircuitState string `json:"circuit_state"`
}

// TransportCheck is unhealthy when no collector endpoint is configured or
// the circuit breaker is open.
func TransportCheck(t *transport.Transport) CheckFunc {
	return func(context.Context) (any, error) {
		status := TransportStatus{
			Configured:   t.Configured(),
			Endpoint:     t.Endpoint(),
			CircuitState: t.CircuitState(),
		}
		switch {
		case !status.Configured:
			return status, transport.ErrNotConfigured
		case status.CircuitState == transport.StateOpen:
			return status, fmt.Errorf("%w: backend failing", transport.ErrCircuitOpen)
		}
		return status, nil
	}
}
