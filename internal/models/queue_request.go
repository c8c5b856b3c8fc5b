// Package models provides data model definitions for the CareQueue core.
package models

import "time"

// QueueRequest represents a locally-queued request to join a service queue.
// The synchronizer exclusively owns the persisted collection of these records.
type QueueRequest struct {
	ID          string     `json:"id"`
	ServiceID   int        `json:"service_id"`
	Priority    string     `json:"priority"`
	Symptoms    string     `json:"symptoms"`
	Timestamp   time.Time  `json:"timestamp"`
	Synced      bool       `json:"synced"`
	RetryCount  int        `json:"retry_count"`
	LastRetryAt *time.Time `json:"last_retry_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`

	// Rejected marks a definitive backend rejection (validation-class 4xx).
	// Such requests are abandoned immediately instead of burning the whole
	// retry budget against an unrecoverable error.
	Rejected bool `json:"rejected,omitempty"`
}

// Pending reports whether the request still awaits server acknowledgment.
func (r *QueueRequest) Pending() bool {
	return !r.Synced
}

// Abandoned reports whether the request is excluded from further automatic
// retries: it was definitively rejected, or it exhausted the retry budget.
// Abandoned requests stay in storage; they are never deleted automatically.
func (r *QueueRequest) Abandoned(retryCeiling int) bool {
	return !r.Synced && (r.Rejected || r.RetryCount >= retryCeiling)
}

// InCoolDown reports whether the most recent delivery attempt is closer to
// now than the cool-down window.
func (r *QueueRequest) InCoolDown(now time.Time, window time.Duration) bool {
	if r.LastRetryAt == nil {
		return false
	}
	return now.Sub(*r.LastRetryAt) < window
}
