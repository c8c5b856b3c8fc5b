// Package scheduler drives background sync: a periodic retry pass plus a
// reachability watcher that triggers an immediate pass when the backend
// comes back.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/careq/queuecore/internal/logging"
	syncpkg "github.com/careq/queuecore/internal/sync"
	"go.uber.org/zap"
)

// Syncer is the slice of the synchronizer the scheduler drives.
type Syncer interface {
	SyncPending(ctx context.Context)
}

// Config holds scheduler intervals.
type Config struct {
	// SyncInterval is how often pending requests are retried.
	SyncInterval time.Duration
	// ProbeInterval is how often backend reachability is checked.
	ProbeInterval time.Duration
}

// DefaultConfig returns the production intervals.
func DefaultConfig() Config {
	return Config{
		SyncInterval:  30 * time.Second,
		ProbeInterval: 15 * time.Second,
	}
}

// Scheduler owns the background goroutines. Stop is graceful: loops drain
// via the stop channel, but an in-flight delivery attempt is not cancelled;
// a late result is simply processed normally.
type Scheduler struct {
	syncer Syncer
	probe  syncpkg.Probe
	cfg    Config

	stopCh chan struct{}
	wg     sync.WaitGroup

	mu        sync.RWMutex
	isRunning bool
	isOnline  bool
	lastSync  time.Time
}

// New creates a Scheduler.
func New(syncer Syncer, probe syncpkg.Probe, cfg Config) *Scheduler {
	if cfg.SyncInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Scheduler{
		syncer: syncer,
		probe:  probe,
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
}

// Start launches the sync and probe loops. Calling Start twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.syncLoop(ctx)
	go s.probeLoop(ctx)

	logging.Info("background sync scheduler started",
		zap.Duration("sync_interval", s.cfg.SyncInterval),
		zap.Duration("probe_interval", s.cfg.ProbeInterval))
}

// Stop stops the background loops and waits for them to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	logging.Info("background sync scheduler stopped")
}

// IsOnline returns the most recent probe verdict.
func (s *Scheduler) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isOnline
}

// IsRunning reports whether the loops are active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// LastSyncTime returns when the last sync pass started, zero before the first.
func (s *Scheduler) LastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

func (s *Scheduler) syncLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

func (s *Scheduler) probeLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			online := s.probe.Online(ctx)

			s.mu.Lock()
			wasOnline := s.isOnline
			s.isOnline = online
			s.mu.Unlock()

			if online == wasOnline {
				continue
			}
			logging.Info("backend reachability changed", zap.Bool("online", online))

			// Recovering connectivity flushes the queue immediately rather
			// than waiting for the next sync tick.
			if online {
				s.runSync(ctx)
			}
		}
	}
}

func (s *Scheduler) runSync(ctx context.Context) {
	s.mu.Lock()
	s.lastSync = time.Now()
	s.mu.Unlock()

	s.syncer.SyncPending(ctx)
}
