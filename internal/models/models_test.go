package models

import (
	"testing"
	"time"
)

// TestQueueRequestAbandoned verifies the retry ceiling predicate.
func TestQueueRequestAbandoned(t *testing.T) {
	tests := []struct {
		name       string
		synced     bool
		retryCount int
		rejected   bool
		want       bool
	}{
		{"fresh request", false, 0, false, false},
		{"below ceiling", false, 4, false, false},
		{"at ceiling", false, 5, false, true},
		{"above ceiling", false, 7, false, true},
		{"synced at ceiling", true, 5, false, false},
		{"rejected below ceiling", false, 1, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &QueueRequest{Synced: tt.synced, RetryCount: tt.retryCount, Rejected: tt.rejected}
			if got := r.Abandoned(5); got != tt.want {
				t.Errorf("Abandoned(5) = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestQueueRequestInCoolDown verifies the cool-down window check.
func TestQueueRequestInCoolDown(t *testing.T) {
	now := time.Now()
	window := 10 * time.Second

	never := &QueueRequest{}
	if never.InCoolDown(now, window) {
		t.Error("request with no prior attempt should not be in cool-down")
	}

	recent := now.Add(-3 * time.Second)
	r := &QueueRequest{LastRetryAt: &recent}
	if !r.InCoolDown(now, window) {
		t.Error("attempt 3s ago should be inside a 10s cool-down")
	}

	old := now.Add(-15 * time.Second)
	r = &QueueRequest{LastRetryAt: &old}
	if r.InCoolDown(now, window) {
		t.Error("attempt 15s ago should be outside a 10s cool-down")
	}
}
