// Package sync owns offline durability and retry for queue-join requests.
//
// A join request is persisted locally before any network attempt, so a
// request made while offline (or during a backend outage) is never lost.
// Delivery failures are converted into retry bookkeeping on the stored
// record; nothing escapes to the caller as an error.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/careq/queuecore/internal/api"
	"github.com/careq/queuecore/internal/logging"
	"github.com/careq/queuecore/internal/metrics"
	"github.com/careq/queuecore/internal/models"
	"github.com/careq/queuecore/internal/notify"
	"github.com/careq/queuecore/internal/storage"
	"github.com/careq/queuecore/internal/uuid"
	"go.uber.org/zap"
)

// requestsKey is the single storage key holding the JSON array of queue
// requests. Every mutation is a full read-modify-write of the array, which
// is adequate at device scale (tens of records, not millions).
const requestsKey = "queue.requests"

// Status values returned by Enqueue.
const (
	StatusConfirmed = "confirmed"
	StatusPending   = "pending"
)

// QueueStatus is the caller-visible outcome of an enqueue.
type QueueStatus struct {
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	RequestID     string `json:"request_id"`
	QueueNumber   int    `json:"queue_number,omitempty"`
	Position      int    `json:"position,omitempty"`
	EstimatedWait int    `json:"estimated_wait,omitempty"`
}

// Stats summarizes the stored request collection. Pending excludes abandoned
// requests; Failed counts requests abandoned at the retry ceiling or by a
// definitive backend rejection.
type Stats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Synced  int `json:"synced"`
	Failed  int `json:"failed"`
}

// Outcome reports what one forced sync pass changed.
type Outcome struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Backend is the slice of the API client the synchronizer delivers through.
type Backend interface {
	JoinQueue(ctx context.Context, serviceID int, priority, symptoms string) (*api.JoinResult, error)
}

// Config carries the retry policy.
type Config struct {
	// CoolDown is the minimum gap between delivery attempts for one request.
	CoolDown time.Duration
	// RetryCeiling is the failed-attempt count at which a request is abandoned.
	RetryCeiling int
	// AttemptTimeout bounds each delivery attempt so a hung call cannot
	// stall a sync cycle.
	AttemptTimeout time.Duration
}

// DefaultConfig returns the production retry policy.
func DefaultConfig() Config {
	return Config{
		CoolDown:       10 * time.Second,
		RetryCeiling:   5,
		AttemptTimeout: 10 * time.Second,
	}
}

// Synchronizer owns the persisted collection of queue requests. All
// dependencies are injected; there is no package-level state.
type Synchronizer struct {
	store    storage.Store
	backend  Backend
	notifier notify.Emitter
	probe    Probe
	clock    Clock
	cfg      Config

	// mu guards every read-modify-write of the stored request list.
	mu sync.Mutex
	// syncMu keeps sync cycles from overlapping.
	syncMu sync.Mutex
}

// New creates a Synchronizer.
func New(store storage.Store, backend Backend, notifier notify.Emitter, probe Probe, clock Clock, cfg Config) *Synchronizer {
	if cfg.RetryCeiling <= 0 {
		cfg = DefaultConfig()
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Synchronizer{
		store:    store,
		backend:  backend,
		notifier: notifier,
		probe:    probe,
		clock:    clock,
		cfg:      cfg,
	}
}

// Enqueue records a join request durably and, when the backend looks
// reachable, attempts one immediate delivery. Delivery failure is never an
// error: the request stays stored for background retry and the returned
// status says so.
func (s *Synchronizer) Enqueue(ctx context.Context, serviceID int, priority, symptoms string) QueueStatus {
	req := models.QueueRequest{
		ID:        uuid.New(),
		ServiceID: serviceID,
		Priority:  priority,
		Symptoms:  symptoms,
		Timestamp: s.clock.Now(),
	}

	s.mu.Lock()
	list, err := s.loadRequests(ctx)
	if err != nil {
		// Storage is degraded; keep going so the delivery attempt can still
		// happen, but the durability guarantee is lost for this call.
		logging.Error("failed to load request list", zap.Error(err))
	}
	list = append(list, req)
	if err := s.saveRequests(ctx, list); err != nil {
		logging.Error("failed to persist request list", zap.Error(err))
	}
	s.mu.Unlock()

	metrics.SetPending(countPending(list))

	if s.probe == nil || !s.probe.Online(ctx) {
		return QueueStatus{
			Status:    StatusPending,
			Message:   "You are offline. Your request is saved and will be sent automatically.",
			RequestID: req.ID,
		}
	}

	result, err := s.deliver(ctx, req)
	if err != nil {
		message := "The hospital could not be reached. Your request is saved and will be retried."
		if api.IsPermanent(err) {
			message = "The hospital rejected this request. It will not be retried."
		}
		return QueueStatus{
			Status:    StatusPending,
			Message:   message,
			RequestID: req.ID,
		}
	}

	s.notifier.Notify(models.Notification{
		Kind:    models.NotifyQueueJoined,
		Title:   "Joined queue",
		Message: fmt.Sprintf("Your queue number is %d", result.QueueNumber),
		Data: map[string]interface{}{
			"queue_number":   result.QueueNumber,
			"position":       result.Position,
			"estimated_wait": result.EstimatedWait,
			"service_id":     serviceID,
		},
	})

	return QueueStatus{
		Status:        StatusConfirmed,
		RequestID:     req.ID,
		QueueNumber:   result.QueueNumber,
		Position:      result.Position,
		EstimatedWait: result.EstimatedWait,
	}
}

// deliver sends one request to the backend and records the outcome on the
// stored record. The error return tells the caller whether to report
// pending; retry policy is already applied to the record by the time it
// returns.
func (s *Synchronizer) deliver(ctx context.Context, req models.QueueRequest) (*api.JoinResult, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.cfg.AttemptTimeout)
	defer cancel()

	metrics.RecordAttempt()
	result, err := s.backend.JoinQueue(attemptCtx, req.ServiceID, req.Priority, req.Symptoms)
	now := s.clock.Now()

	if err != nil {
		permanent := api.IsPermanent(err)
		kind := "network"
		if permanent {
			kind = "rejected"
		}
		metrics.RecordFailure(kind)
		logging.Warn("delivery attempt failed",
			zap.String("request_id", req.ID),
			zap.Int("service_id", req.ServiceID),
			zap.Bool("permanent", permanent),
			zap.Error(err))

		s.mutateRequest(ctx, req.ID, func(r *models.QueueRequest) {
			r.RetryCount++
			r.LastRetryAt = &now
			r.LastError = err.Error()
			if permanent {
				r.Rejected = true
			}
		})
		return nil, err
	}

	metrics.RecordSuccess()
	s.mutateRequest(ctx, req.ID, func(r *models.QueueRequest) {
		r.Synced = true
		r.LastRetryAt = &now
		r.LastError = ""
	})

	logging.Info("request delivered",
		zap.String("request_id", req.ID),
		zap.Int("queue_number", result.QueueNumber))
	return result, nil
}

// SyncPending retries every eligible stored request. A request is skipped
// when it is synced, abandoned, or still inside the cool-down window. Runs
// at most once at a time; an overlapping call returns immediately.
func (s *Synchronizer) SyncPending(ctx context.Context) {
	if !s.syncMu.TryLock() {
		logging.Debug("sync already in progress, skipping")
		return
	}
	defer s.syncMu.Unlock()

	start := time.Now()
	defer func() {
		metrics.ObserveSyncCycle(time.Since(start).Seconds())
	}()

	s.mu.Lock()
	list, err := s.loadRequests(ctx)
	s.mu.Unlock()
	if err != nil {
		logging.Error("failed to load request list for sync", zap.Error(err))
		return
	}

	now := s.clock.Now()
	attempted, recovered := 0, 0

	for _, req := range list {
		if req.Synced || req.Abandoned(s.cfg.RetryCeiling) {
			continue
		}
		if req.InCoolDown(now, s.cfg.CoolDown) {
			continue
		}

		attempted++
		result, err := s.deliver(ctx, req)
		if err != nil {
			s.notifyIfAbandoned(ctx, req.ID)
			continue
		}

		recovered++
		s.notifier.Notify(models.Notification{
			Kind:    models.NotifyQueueSynced,
			Title:   "Queue request synced",
			Message: fmt.Sprintf("Your saved request was delivered. Queue number %d", result.QueueNumber),
			Data: map[string]interface{}{
				"queue_number":   result.QueueNumber,
				"position":       result.Position,
				"estimated_wait": result.EstimatedWait,
				"service_id":     req.ServiceID,
			},
		})
	}

	s.mu.Lock()
	list, loadErr := s.loadRequests(ctx)
	s.mu.Unlock()
	if loadErr == nil {
		metrics.SetPending(countPending(list))
	}

	if attempted > 0 {
		logging.Info("sync cycle finished",
			zap.Int("attempted", attempted),
			zap.Int("recovered", recovered))
	}
}

// notifyIfAbandoned emits a failure notification the moment a request
// transitions to abandoned. Ordinary failed retries stay silent to avoid
// notification spam.
func (s *Synchronizer) notifyIfAbandoned(ctx context.Context, id string) {
	s.mu.Lock()
	list, err := s.loadRequests(ctx)
	s.mu.Unlock()
	if err != nil {
		return
	}
	for _, r := range list {
		if r.ID != id || !r.Abandoned(s.cfg.RetryCeiling) {
			continue
		}
		// Only the attempt that crossed the boundary notifies: either the
		// definitive rejection or the attempt that reached the ceiling.
		if !r.Rejected && r.RetryCount != s.cfg.RetryCeiling {
			return
		}
		s.notifier.Notify(models.Notification{
			Kind:    models.NotifySyncFailed,
			Title:   "Queue request could not be sent",
			Message: "A saved queue request was abandoned after repeated failures.",
			Data: map[string]interface{}{
				"request_id": r.ID,
				"service_id": r.ServiceID,
				"last_error": r.LastError,
			},
		})
		return
	}
}

// ForceSync runs one sync pass now and reports what changed. Backs the
// user-facing "retry now" action.
func (s *Synchronizer) ForceSync(ctx context.Context) Outcome {
	before, err := s.GetStats(ctx)
	if err != nil {
		logging.Error("failed to read stats before forced sync", zap.Error(err))
	}

	s.SyncPending(ctx)

	after, err := s.GetStats(ctx)
	if err != nil {
		logging.Error("failed to read stats after forced sync", zap.Error(err))
		return Outcome{}
	}

	return Outcome{
		Synced: after.Synced - before.Synced,
		Failed: after.Failed - before.Failed,
		Total:  after.Total,
	}
}

// GetPendingRequests returns all unsynced requests in storage order,
// including abandoned ones.
func (s *Synchronizer) GetPendingRequests(ctx context.Context) ([]models.QueueRequest, error) {
	s.mu.Lock()
	list, err := s.loadRequests(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var pending []models.QueueRequest
	for _, r := range list {
		if !r.Synced {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// GetStats summarizes the stored collection.
func (s *Synchronizer) GetStats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	list, err := s.loadRequests(ctx)
	s.mu.Unlock()
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, r := range list {
		stats.Total++
		switch {
		case r.Synced:
			stats.Synced++
		case r.Abandoned(s.cfg.RetryCeiling):
			stats.Failed++
		default:
			stats.Pending++
		}
	}
	return stats, nil
}

// loadRequests reads the stored request array. Callers hold s.mu.
func (s *Synchronizer) loadRequests(ctx context.Context) ([]models.QueueRequest, error) {
	raw, err := s.store.Get(ctx, requestsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var list []models.QueueRequest
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("corrupt request list: %w", err)
	}
	return list, nil
}

// saveRequests rewrites the whole stored array. Callers hold s.mu.
func (s *Synchronizer) saveRequests(ctx context.Context, list []models.QueueRequest) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode request list: %w", err)
	}
	return s.store.Set(ctx, requestsKey, string(data))
}

// mutateRequest applies fn to the stored record with the given id and
// persists the result. A synced record is never mutated again. Storage
// failures are logged; the synchronizer stays up.
func (s *Synchronizer) mutateRequest(ctx context.Context, id string, fn func(*models.QueueRequest)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadRequests(ctx)
	if err != nil {
		logging.Error("failed to load request list for update", zap.Error(err))
		return
	}

	for i := range list {
		if list[i].ID != id {
			continue
		}
		if list[i].Synced {
			return
		}
		fn(&list[i])
		break
	}

	if err := s.saveRequests(ctx, list); err != nil {
		logging.Error("failed to persist request update", zap.Error(err))
	}
}

func countPending(list []models.QueueRequest) int {
	n := 0
	for _, r := range list {
		if !r.Synced {
			n++
		}
	}
	return n
}
