/*
scheduler.go - Automated auto top-up scheduler

PURPOSE:
  Periodically applies pending auto top-up days so goals keep filling
  while no one is looking at the app. Catch-up is idempotent: a day is
  applied at most once regardless of how many times a run covers it,
  so overlapping or extra runs are harmless.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each run loads a fresh snapshot, applies catch-up, saves once
  - A run that changes nothing writes nothing

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 minute)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewTopUpScheduler(store, engine, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunCatchUp endpoint (manual trigger)
  - ledger/topup.go: Catch-up semantics
*/
package api

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/piggy-engine/ledger"
	"github.com/warp/piggy-engine/store"
)

// TopUpScheduler applies auto top-up catch-up on a fixed cadence.
type TopUpScheduler struct {
	Store         *store.SnapshotStore
	Engine        *ledger.Engine
	CheckInterval time.Duration
	Enabled       bool
	Metrics       *SchedulerMetrics

	log    zerolog.Logger
	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewTopUpScheduler creates a new scheduler.
func NewTopUpScheduler(st *store.SnapshotStore, engine *ledger.Engine, log zerolog.Logger) *TopUpScheduler {
	return &TopUpScheduler{
		Store:         st,
		Engine:        engine,
		CheckInterval: 1 * time.Minute,
		Enabled:       true,
		log:           log,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ts *TopUpScheduler) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.Enabled {
		ts.log.Info().Msg("scheduler disabled, not starting")
		return
	}

	ts.ticker = time.NewTicker(ts.CheckInterval)
	ts.wg.Add(1)

	go ts.run()

	ts.log.Info().Dur("interval", ts.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler.
func (ts *TopUpScheduler) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.ticker != nil {
		ts.ticker.Stop()
		ts.ticker = nil
		close(ts.stop)
		ts.wg.Wait()
		ts.log.Info().Msg("scheduler stopped")
	}
}

func (ts *TopUpScheduler) run() {
	defer ts.wg.Done()

	// Run immediately on start
	ts.checkAndProcess()

	for {
		select {
		case <-ts.ticker.C:
			ts.checkAndProcess()
		case <-ts.stop:
			return
		}
	}
}

func (ts *TopUpScheduler) checkAndProcess() {
	now := ts.Engine.Clock()

	var result ledger.CatchUpResult
	_, saved := ts.Store.Update(func(s ledger.Snapshot) (ledger.Snapshot, bool) {
		next, res := ts.Engine.ProcessAutoTopUpCatchUp(s, now)
		result = res
		return next, res.Changed
	})

	if ts.Metrics != nil {
		ts.Metrics.Runs.Inc()
	}

	if !result.Changed {
		return
	}
	if !saved {
		ts.log.Error().Msg("catch-up applied but save failed")
		return
	}

	for _, applied := range result.Applied {
		ts.log.Info().
			Str("goal", applied.GoalID).
			Str("name", applied.GoalName).
			Int64("amount", applied.Amount.Units()).
			Int("days", applied.Days).
			Msg("auto top-up applied")
		if ts.Metrics != nil {
			ts.Metrics.GoalsToppedUp.Inc()
		}
	}
}

// RunNow triggers an immediate check (for testing/admin).
func (ts *TopUpScheduler) RunNow() {
	ts.checkAndProcess()
}

// NextRunTime returns when the next scheduled check will occur.
func (ts *TopUpScheduler) NextRunTime() time.Time {
	return time.Now().Add(ts.CheckInterval)
}
