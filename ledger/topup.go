/*
topup.go - Auto top-up catch-up

PURPOSE:
  Applies scheduled daily deposits for every goal with an active auto
  top-up, including all calendar days missed while the application was not
  running.

CATCH-UP SEMANTICS:
  For each goal, the days strictly after LastAppliedDay up to and including
  "today" are due, in chronological order. An unset baseline means exactly
  one day (today) is due. Each day moves min(amountPerDay, remaining
  capacity, source balance) from the goal's source card; processing stops
  early once the target is reached or the source is exhausted.
  LastAppliedDay advances to the last day that actually moved money (even
  partially), so no day is ever double-applied.

IDEMPOTENCY:
  Running catch-up any number of times for the same "now" produces the same
  end state as running it once. The scheduler calls this at startup and on a
  fixed interval, and callers may invoke it at arbitrary extra times.

SOURCING:
  Family goals draw from the parent card, child goals from the child card
  (TopUpSource). An earlier revision drew everything from the child card;
  that behavior is superseded.
*/
package ledger

import (
	"fmt"
	"time"
)

// CatchUpApplied summarizes one goal's deposits within a catch-up run.
type CatchUpApplied struct {
	GoalID    string `json:"goalId"`
	GoalName  string `json:"goalName"`
	Amount    Money  `json:"amount"`
	Days      int    `json:"days"`
}

// CatchUpResult reports what a catch-up run changed.
type CatchUpResult struct {
	Changed bool             `json:"changed"`
	Applied []CatchUpApplied `json:"applied,omitempty"`
}

// ProcessAutoTopUpCatchUp applies all due auto top-up days as of now.
// Goals are processed in snapshot order; a shared source card is drained
// first-come-first-served. One spend-log entry is emitted per goal whose
// run deposited a non-zero total.
func (e *Engine) ProcessAutoTopUpCatchUp(s Snapshot, now time.Time) (Snapshot, CatchUpResult) {
	today := DayKeyOf(now)
	next := s.clone()
	result := CatchUpResult{}

	for i := range next.Goals {
		goal := next.Goals[i]

		auto := NormalizeAutoTopUp(goal.AutoTopUp)
		if auto == nil {
			// Drop a lingering non-positive schedule.
			if goal.AutoTopUp != nil {
				next.Goals[i].AutoTopUp = nil
				result.Changed = true
			}
			continue
		}

		source := TopUpSource(goal.Owner)
		deposited := Money{}
		days := 0
		last := auto.LastAppliedDay

		for _, day := range PendingDays(auto.LastAppliedDay, today) {
			remaining, capped := goal.RemainingCapacity()
			if capped && !remaining.IsPositive() {
				break
			}
			actual := auto.AmountPerDay.Min(next.Balance(source))
			if capped {
				actual = actual.Min(remaining)
			}
			if !actual.IsPositive() {
				break
			}

			next.debit(source, actual)
			goal.CurrentAmount = goal.CurrentAmount.Add(actual)
			deposited = deposited.Add(actual)
			days++
			last = day
		}

		goal.AutoTopUp = &AutoTopUp{AmountPerDay: auto.AmountPerDay, LastAppliedDay: last}
		if goal.AutoTopUp.LastAppliedDay != normalizedLast(next.Goals[i]) ||
			!goal.CurrentAmount.Equal(next.Goals[i].CurrentAmount) {
			result.Changed = true
		}
		next.Goals[i] = goal

		if deposited.IsPositive() {
			result.Applied = append(result.Applied, CatchUpApplied{
				GoalID:   goal.ID,
				GoalName: goal.Name,
				Amount:   deposited,
				Days:     days,
			})
			e.record(SpendEntry{
				Amount:   deposited,
				Category: SpendCategory,
				Note:     topUpNote(goal.Name, days),
				Date:     now,
			})
		}
	}

	return next, result
}

func normalizedLast(g Goal) DayKey {
	if a := NormalizeAutoTopUp(g.AutoTopUp); a != nil {
		return a.LastAppliedDay
	}
	return ""
}

func topUpNote(name string, days int) string {
	if days > 1 {
		return fmt.Sprintf("Auto top-up %q (%d days)", name, days)
	}
	return fmt.Sprintf("Auto top-up %q", name)
}
