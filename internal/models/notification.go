package models

// Notification kinds emitted by the core. The "joined" and "synced" kinds are
// deliberately distinct so the UI can tell an immediate confirmation from a
// background recovery.
const (
	NotifyQueueJoined    = "queue.joined"
	NotifyQueueSynced    = "queue.synced"
	NotifySyncFailed     = "queue.sync_failed"
	NotifySessionExpired = "session.expired"
	NotifyEmergencySent  = "emergency.sent"
)

// Notification is a user-visible alert pushed to the UI layer.
// Delivery is fire-and-forget; the core never waits on acknowledgment.
type Notification struct {
	Kind    string                 `json:"kind"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
