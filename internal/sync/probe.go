package sync

import (
	"context"
	"time"
)

// Probe reports whether the backend is currently reachable. The synchronizer
// consults it before attempting immediate delivery; the scheduler watches it
// for offline-to-online transitions.
type Probe interface {
	Online(ctx context.Context) bool
}

// healthPinger is the slice of the API client the probe needs.
type healthPinger interface {
	Health(ctx context.Context) error
}

// HealthProbe decides reachability by pinging the backend health endpoint.
type HealthProbe struct {
	pinger  healthPinger
	timeout time.Duration
}

// NewHealthProbe creates a probe with a per-ping timeout.
func NewHealthProbe(pinger healthPinger, timeout time.Duration) *HealthProbe {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthProbe{pinger: pinger, timeout: timeout}
}

// Online implements Probe.
func (p *HealthProbe) Online(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.pinger.Health(pingCtx) == nil
}
