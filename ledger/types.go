/*
Package ledger provides the core piggy ledger engine.

PURPOSE:
  This package contains the domain types and pure operations for managing a
  family's savings goals ("piggies"). Two card balances (child, parent) and a
  set of named goals form a single snapshot; every operation is a pure
  function from (snapshot, actor role, amount) to (next snapshot, outcome).

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: a non-negative integer quantity in the smallest currency unit
  - Snapshot: the complete ledger state (balances + goals), the only
    persisted aggregate
  - Goal: a named savings target with an optional cap and optional
    daily auto top-up
  - Role/Owner: who is acting vs. who a goal belongs to
  - Outcome: typed result of an operation (business rejections are
    outcomes, never errors)

DESIGN PRINCIPLES:
  1. Conservation: money only moves between balances and goals, it is
     never created or destroyed by an operation
  2. Totality: every operation accepts any snapshot and returns a valid one
  3. Precision: uses decimal.Decimal under the hood, clamped to integers
  4. Purity: no I/O, no ambient state; callers own persistence

SEE ALSO:
  - normalize.go: coercion of arbitrary input into canonical snapshots
  - engine.go: deposit/withdraw/create/delete operations
  - topup.go: auto top-up catch-up
  - overview.go: derived read-only aggregates
*/
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemaVersion is the current persisted snapshot schema.
const SchemaVersion = 4

// Seed balances for a fresh snapshot.
const (
	DefaultChildBalance  = 5000
	DefaultParentBalance = 100000
)

// MaxNameLen bounds goal names; longer input is truncated, never rejected
// (creation of an over-long name is rejected, edits are truncated).
const MaxNameLen = 60

// DefaultGoalName is used when a stored goal has an empty name.
const DefaultGoalName = "New goal"

// Cosmetic defaults.
const (
	DefaultColor      = "#7c3aed"
	DefaultBackground = "default"
)

// =============================================================================
// MONEY - Non-negative integer amount in the smallest currency unit
// =============================================================================

type Money struct {
	value decimal.Decimal
}

// NewMoney builds a Money from integer units, clamped at zero.
func NewMoney(units int64) Money {
	return moneyFromDecimal(decimal.NewFromInt(units))
}

// moneyFromDecimal rounds to a whole number of units and floors at zero.
func moneyFromDecimal(d decimal.Decimal) Money {
	d = d.Round(0)
	if d.IsNegative() {
		d = decimal.Zero
	}
	return Money{value: d}
}

func (m Money) Units() int64             { return m.value.IntPart() }
func (m Money) IsZero() bool             { return m.value.IsZero() }
func (m Money) IsPositive() bool         { return m.value.IsPositive() }
func (m Money) Equal(o Money) bool       { return m.value.Equal(o.value) }
func (m Money) GreaterThan(o Money) bool { return m.value.GreaterThan(o.value) }
func (m Money) LessThan(o Money) bool    { return m.value.LessThan(o.value) }
func (m Money) String() string           { return m.value.StringFixed(0) }

func (m Money) Add(o Money) Money { return moneyFromDecimal(m.value.Add(o.value)) }

// Sub floors at zero: balances and goal amounts are never negative.
func (m Money) Sub(o Money) Money { return moneyFromDecimal(m.value.Sub(o.value)) }

func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

// MarshalJSON encodes Money as a bare integer, matching the persisted
// snapshot record shape.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.StringFixed(0)), nil
}

// UnmarshalJSON accepts any JSON value and never fails: numbers and numeric
// strings are clamped to non-negative integers, everything else maps to zero.
// Malformed amounts degrade to zero instead of poisoning the whole snapshot.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		*m = Money{value: decimal.Zero}
		return nil
	}
	*m = moneyFromDecimal(d)
	return nil
}

// =============================================================================
// ROLES AND OWNERSHIP
// =============================================================================

// Role identifies who performs an operation. The engine is stateless with
// respect to role; it is supplied by the caller per operation.
type Role string

const (
	RoleChild  Role = "child"
	RoleParent Role = "parent"
)

// Owner identifies who a goal belongs to. Immutable after creation.
type Owner string

const (
	OwnerChild  Owner = "child"
	OwnerFamily Owner = "family"
)

// NormalizeOwner maps unrecognized values to the child owner, the historical
// default.
func NormalizeOwner(raw Owner) Owner {
	if raw == OwnerFamily {
		return OwnerFamily
	}
	return OwnerChild
}

// =============================================================================
// GOAL - A named savings target ("piggy")
// =============================================================================

// AutoTopUp configures a daily scheduled deposit into a goal.
// LastAppliedDay is the day key of the last calendar day the schedule
// processed; catch-up never re-processes a day at or before it.
type AutoTopUp struct {
	AmountPerDay   Money  `json:"amountPerDay"`
	LastAppliedDay DayKey `json:"lastAppliedDay,omitempty"`
}

type Goal struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Owner         Owner      `json:"owner"`
	TargetAmount  Money      `json:"targetAmount"`
	CurrentAmount Money      `json:"currentAmount"`
	Color         string     `json:"color"`
	Background    string     `json:"background"`
	CreatedAt     string     `json:"createdAt"`
	AutoTopUp     *AutoTopUp `json:"autoTopUp,omitempty"`
}

// RemainingCapacity returns how much the goal can still hold.
// Unbounded goals (target 0) report ok=false.
func (g Goal) RemainingCapacity() (remaining Money, capped bool) {
	if g.TargetAmount.IsZero() {
		return Money{}, false
	}
	return g.TargetAmount.Sub(g.CurrentAmount), true
}

// Completed reports whether a capped goal reached its target.
// This is derived state: reaching it does not freeze the goal.
func (g Goal) Completed() bool {
	return g.TargetAmount.IsPositive() && !g.CurrentAmount.LessThan(g.TargetAmount)
}

// =============================================================================
// SNAPSHOT - The complete persisted ledger state
// =============================================================================

type Snapshot struct {
	SchemaVersion     int    `json:"schemaVersion"`
	CardBalanceChild  Money  `json:"cardBalanceChild"`
	CardBalanceParent Money  `json:"cardBalanceParent"`
	Goals             []Goal `json:"goals"`
}

// DefaultSnapshot returns the seed state used on first load and on
// unrecoverable corruption.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		SchemaVersion:     SchemaVersion,
		CardBalanceChild:  NewMoney(DefaultChildBalance),
		CardBalanceParent: NewMoney(DefaultParentBalance),
		Goals:             []Goal{},
	}
}

// Goal returns the goal with the given id, if present.
func (s Snapshot) Goal(id string) (Goal, bool) {
	for _, g := range s.Goals {
		if g.ID == id {
			return g, true
		}
	}
	return Goal{}, false
}

// Clone returns a deep copy that shares nothing with the receiver.
func (s Snapshot) Clone() Snapshot { return s.clone() }

// clone returns a deep copy so operations never alias the caller's goals.
func (s Snapshot) clone() Snapshot {
	out := s
	out.Goals = make([]Goal, len(s.Goals))
	copy(out.Goals, s.Goals)
	for i := range out.Goals {
		if a := out.Goals[i].AutoTopUp; a != nil {
			cp := *a
			out.Goals[i].AutoTopUp = &cp
		}
	}
	return out
}

// replaceGoal swaps the goal with g.ID in place, preserving order.
func (s *Snapshot) replaceGoal(g Goal) {
	for i := range s.Goals {
		if s.Goals[i].ID == g.ID {
			s.Goals[i] = g
			return
		}
	}
}

// removeGoal drops the goal with the given id, preserving order.
func (s *Snapshot) removeGoal(id string) {
	out := s.Goals[:0]
	for _, g := range s.Goals {
		if g.ID != id {
			out = append(out, g)
		}
	}
	s.Goals = out
}

// Total returns the conserved sum: both card balances plus all goal amounts.
func (s Snapshot) Total() Money {
	total := s.CardBalanceChild.Add(s.CardBalanceParent)
	for _, g := range s.Goals {
		total = total.Add(g.CurrentAmount)
	}
	return total
}

// =============================================================================
// DAY KEY - Calendar day identifier ("YYYY-MM-DD", UTC)
// =============================================================================

type DayKey string

const dayKeyLayout = "2006-01-02"

// DayKeyOf truncates a time to its UTC calendar day.
func DayKeyOf(t time.Time) DayKey {
	return DayKey(t.UTC().Format(dayKeyLayout))
}

// Time parses the day key back into a UTC midnight time.
func (k DayKey) Time() (time.Time, bool) {
	t, err := time.Parse(dayKeyLayout, string(k))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// NormalizeDayKey maps anything that does not parse as a day to the empty
// key. Accepts full timestamps by truncation.
func NormalizeDayKey(raw DayKey) DayKey {
	if _, ok := raw.Time(); ok {
		return raw
	}
	if t, err := time.Parse(time.RFC3339, string(raw)); err == nil {
		return DayKeyOf(t)
	}
	return ""
}

// PendingDays enumerates the calendar days strictly after last, up to and
// including today, in chronological order. An empty last key means exactly
// one day is due: today.
func PendingDays(last, today DayKey) []DayKey {
	todayT, ok := today.Time()
	if !ok {
		return nil
	}
	lastT, ok := last.Time()
	if !ok {
		return []DayKey{today}
	}
	if !lastT.Before(todayT) {
		return nil
	}
	var days []DayKey
	for cursor := lastT.AddDate(0, 0, 1); !cursor.After(todayT); cursor = cursor.AddDate(0, 0, 1) {
		days = append(days, DayKeyOf(cursor))
	}
	return days
}

// =============================================================================
// OUTCOME - Typed operation result
// =============================================================================

type Status string

const (
	StatusSuccess      Status = "success"      // state changed
	StatusForbidden    Status = "forbidden"    // ownership gating rejected the actor
	StatusEmpty        Status = "empty"        // nothing to withdraw
	StatusFull         Status = "full"         // capacity exhausted
	StatusInsufficient Status = "insufficient" // source balance exhausted
	StatusMissing      Status = "missing"      // unknown goal id
	StatusDuplicate    Status = "duplicate"    // goal name already taken
	StatusInvalid      Status = "invalid"      // malformed input (empty name, amount <= 0)
)

// Outcome describes what an operation did. Amount is the amount actually
// moved, which may be less than requested (Capped) when a goal's remaining
// capacity or the source balance truncated the transfer.
type Outcome struct {
	Status Status `json:"status"`
	GoalID string `json:"goalId,omitempty"`
	Amount Money  `json:"amount"`
	Capped bool   `json:"capped,omitempty"`
}

func (o Outcome) OK() bool { return o.Status == StatusSuccess }

// =============================================================================
// SPEND LOG COLLABORATOR
// =============================================================================

// SpendEntry is the one-way notification emitted to the external spending
// history log on successful deposits and non-zero auto top-up cycles.
// The ledger never reads the log back.
type SpendEntry struct {
	Amount   Money
	Category string
	Note     string
	Date     time.Time
}

// SpendRecorder receives spend entries. Implementations must not call back
// into the ledger.
type SpendRecorder interface {
	Record(entry SpendEntry)
}
