/*
scheduler_test.go - Auto top-up scheduler tests

Verifies that scheduled catch-up applies pending days, that repeat runs
stay idempotent, and that the start/stop lifecycle is clean.
*/
package api

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/piggy-engine/ledger"
)

func newTestScheduler(t *testing.T) (*TopUpScheduler, *testServer) {
	ts := newTestServer(t)
	sched := NewTopUpScheduler(ts.store, ts.engine, zerolog.Nop())
	return sched, ts
}

func scheduleOnGoal(t *testing.T, ts *testServer, id string, perDay int64, daysBack int) {
	_, ok := ts.store.Update(func(s ledger.Snapshot) (ledger.Snapshot, bool) {
		next := s.Clone()
		for i := range next.Goals {
			if next.Goals[i].ID == id {
				next.Goals[i].AutoTopUp = &ledger.AutoTopUp{
					AmountPerDay:   ledger.NewMoney(perDay),
					LastAppliedDay: ledger.DayKeyOf(testNow.AddDate(0, 0, -daysBack)),
				}
			}
		}
		return next, true
	})
	require.True(t, ok)
}

func TestScheduler_RunNowAppliesPendingDays(t *testing.T) {
	// GIVEN: A goal two days behind on its schedule
	// WHEN: The scheduler runs once
	// THEN: Both days apply and persist

	sched, ts := newTestScheduler(t)
	id := ts.createGoal(t, "child", "Bike", 0)
	scheduleOnGoal(t, ts, id, 100, 2)

	sched.RunNow()

	goal, _ := ts.store.Load().Goal(id)
	assert.Equal(t, int64(200), goal.CurrentAmount.Units())
	assert.Equal(t, ledger.DayKeyOf(testNow), goal.AutoTopUp.LastAppliedDay)
}

func TestScheduler_RepeatRunsAreIdempotent(t *testing.T) {
	// GIVEN: A scheduler that already caught up
	// WHEN: Running several more times at the same instant
	// THEN: No additional money moves

	sched, ts := newTestScheduler(t)
	id := ts.createGoal(t, "child", "Bike", 0)
	scheduleOnGoal(t, ts, id, 100, 2)

	sched.RunNow()
	sched.RunNow()
	sched.RunNow()

	goal, _ := ts.store.Load().Goal(id)
	assert.Equal(t, int64(200), goal.CurrentAmount.Units())
}

func TestScheduler_RunsImmediatelyOnStart(t *testing.T) {
	// GIVEN: A started scheduler with a long tick interval
	// THEN: The startup pass alone applies the pending days

	sched, ts := newTestScheduler(t)
	id := ts.createGoal(t, "child", "Bike", 0)
	scheduleOnGoal(t, ts, id, 50, 1)

	sched.CheckInterval = time.Hour
	sched.Start()
	defer sched.Stop()

	assert.Eventually(t, func() bool {
		goal, _ := ts.store.Load().Goal(id)
		return goal.CurrentAmount.Units() == 50
	}, time.Second, 5*time.Millisecond)
}

func TestScheduler_DisabledDoesNotRun(t *testing.T) {
	sched, ts := newTestScheduler(t)
	id := ts.createGoal(t, "child", "Bike", 0)
	scheduleOnGoal(t, ts, id, 50, 1)

	sched.Enabled = false
	sched.Start()
	defer sched.Stop()

	time.Sleep(20 * time.Millisecond)
	goal, _ := ts.store.Load().Goal(id)
	assert.True(t, goal.CurrentAmount.IsZero())
}

func TestScheduler_StopIsClean(t *testing.T) {
	sched, _ := newTestScheduler(t)
	sched.CheckInterval = 5 * time.Millisecond
	sched.Start()

	time.Sleep(15 * time.Millisecond)
	sched.Stop()
	// A second Stop must not panic on the closed channel.
	assert.NotPanics(t, func() { sched.Stop() })
}
