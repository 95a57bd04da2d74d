package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	syncdomain "jobtrack-backend/internal/sync/domain"
)

// Runner is the orchestrated-run entry point all triggers funnel into
type Runner interface {
	RunSync(ctx context.Context) *syncdomain.SyncRunSummary
}

// Status is the scheduler's view of the engine for the status endpoint
type Status struct {
	IsRunning   bool                       `json:"is_running"`
	LastRun     *time.Time                 `json:"last_run,omitempty"`
	LastSummary *syncdomain.SyncRunSummary `json:"last_summary,omitempty"`
}

// SyncScheduler owns the process-wide run state: the isRunning guard, the
// interval and daily triggers, and the last-run summary. All trigger sources
// funnel through tryRun, so at most one sync pass executes at a time.
type SyncScheduler struct {
	orchestrator Runner
	interval     time.Duration
	dailyHour    int
	stopChan     chan struct{}

	// isRunning is the single atomically-checked mutual exclusion flag
	isRunning atomic.Bool

	mu          sync.RWMutex
	lastRun     *time.Time
	lastSummary *syncdomain.SyncRunSummary
}

// NewSyncScheduler creates a new scheduler
func NewSyncScheduler(orchestrator Runner, interval time.Duration, dailyHour int) *SyncScheduler {
	return &SyncScheduler{
		orchestrator: orchestrator,
		interval:     interval,
		dailyHour:    dailyHour,
		stopChan:     make(chan struct{}),
	}
}

// Start begins both trigger loops: the fixed interval and the once-daily run
func (s *SyncScheduler) Start() {
	log.Printf("[SyncScheduler] Starting sync scheduler (interval: %s, daily at %02d:00)", s.interval, s.dailyHour)

	go func() {
		// Run immediately on start
		s.tryRun("startup")

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.tryRun("interval")
			case <-s.stopChan:
				log.Println("[SyncScheduler] Interval trigger stopped")
				return
			}
		}
	}()

	go func() {
		for {
			wait := untilNextDailyRun(time.Now(), s.dailyHour)
			select {
			case <-time.After(wait):
				s.tryRun("daily")
			case <-s.stopChan:
				log.Println("[SyncScheduler] Daily trigger stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler
func (s *SyncScheduler) Stop() {
	close(s.stopChan)
}

// TriggerManual requests a run on behalf of a user. Returns false immediately
// when a run is already in progress; the run itself proceeds in the
// background.
func (s *SyncScheduler) TriggerManual() bool {
	return s.tryRun("manual")
}

// GetStatus returns a snapshot for the status endpoint
func (s *SyncScheduler) GetStatus() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		IsRunning:   s.isRunning.Load(),
		LastRun:     s.lastRun,
		LastSummary: s.lastSummary,
	}
}

// tryRun is the single entry point for every trigger source. The
// CompareAndSwap is the mutual exclusion guarantee: losing the swap means a
// run is in flight and this trigger is a no-op.
func (s *SyncScheduler) tryRun(source string) bool {
	if !s.isRunning.CompareAndSwap(false, true) {
		log.Printf("[SyncScheduler] Sync already running, ignoring %s trigger", source)
		return false
	}

	log.Printf("[SyncScheduler] Starting sync run (trigger: %s)", source)

	go func() {
		defer s.isRunning.Store(false)

		summary := s.runGuarded()

		now := time.Now()
		s.mu.Lock()
		s.lastRun = &now
		s.lastSummary = summary
		s.mu.Unlock()
	}()

	return true
}

// runGuarded executes one orchestrated pass and converts any panic into a
// failed summary, so nothing from the engine can crash the hosting process
func (s *SyncScheduler) runGuarded() (summary *syncdomain.SyncRunSummary) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERROR] [SyncScheduler] Sync run panicked: %v", r)
			summary = &syncdomain.SyncRunSummary{
				StartedAt:  time.Now(),
				FinishedAt: time.Now(),
				Errors:     []string{fmt.Sprintf("sync run panicked: %v", r)},
			}
		}
	}()

	return s.orchestrator.RunSync(context.Background())
}

// untilNextDailyRun computes the wait until the next occurrence of the
// configured hour, local time
func untilNextDailyRun(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}
