/*
engine.go - Money-moving operations

PURPOSE:
  All ledger mutations, expressed as pure functions from (current snapshot,
  actor role, operation input) to (next snapshot, outcome). The engine holds
  no snapshot state of its own; callers load, apply, and persist.

AUTHORIZATION MODEL:
  The actor role is supplied per operation. Gating is by role x goal owner:
  - Withdraw/WithdrawAll: family goals by parent only, child goals by child
    only (a parent never withdraws from a child's personal goal)
  - Delete: family goals by parent only, child goals by child only
  - Edit: family goals by parent only, child goals by anyone
  - Auto top-up: parent always, child for non-family goals only
  - Create: owner is derived from the role, never chosen

OUTCOMES, NOT ERRORS:
  Business rejections (forbidden, insufficient, full, empty, missing,
  duplicate, invalid) are expected and frequent. They are returned as typed
  outcomes with the snapshot unchanged; the engine never panics or returns a
  Go error for them.

SPEND LOG:
  Successful deposits of at least MinLoggedDeposit emit one entry to the
  external spending-history recorder. The engine never reads that log back.

SEE ALSO:
  - accounts.go: funding/receiving account routing
  - topup.go: scheduled catch-up deposits
*/
package ledger

import (
	"fmt"
	"strings"
	"time"
)

// MinLoggedDeposit is the smallest successful deposit that is reported to
// the spend log.
const MinLoggedDeposit = 1

// SpendCategory tags ledger-originated entries in the spending history.
const SpendCategory = "other"

// Engine applies ledger operations. The zero value works; Recorder is
// optional, Now and NewID default to the wall clock and random UUIDs.
type Engine struct {
	Recorder SpendRecorder
	Now      func() time.Time
	NewID    func() string
}

func NewEngine(recorder SpendRecorder) *Engine {
	return &Engine{Recorder: recorder}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Clock exposes the engine's notion of now to callers that schedule work
// around it.
func (e *Engine) Clock() time.Time {
	return e.now()
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return NewGoalID()
}

func (e *Engine) record(entry SpendEntry) {
	if e.Recorder != nil {
		e.Recorder.Record(entry)
	}
}

// =============================================================================
// DEPOSIT / WITHDRAW
// =============================================================================

// Deposit moves up to amount from the actor's own card onto a goal, capped
// by the remaining capacity and the source balance. Excess is silently
// dropped, never queued.
func (e *Engine) Deposit(s Snapshot, goalID string, amount Money, role Role) (Snapshot, Outcome) {
	if !amount.IsPositive() {
		return s, Outcome{Status: StatusInvalid, GoalID: goalID}
	}
	goal, ok := s.Goal(goalID)
	if !ok {
		return s, Outcome{Status: StatusMissing, GoalID: goalID}
	}

	remaining, capped := goal.RemainingCapacity()
	if capped && !remaining.IsPositive() {
		return s, Outcome{Status: StatusFull, GoalID: goalID}
	}

	source := FundingAccount(role)
	actual := amount.Min(s.Balance(source))
	if capped {
		actual = actual.Min(remaining)
	}
	if !actual.IsPositive() {
		return s, Outcome{Status: StatusInsufficient, GoalID: goalID}
	}

	next := s.clone()
	next.debit(source, actual)
	goal.CurrentAmount = goal.CurrentAmount.Add(actual)
	next.replaceGoal(goal)

	if actual.Units() >= MinLoggedDeposit {
		e.record(SpendEntry{
			Amount:   actual,
			Category: SpendCategory,
			Note:     fmt.Sprintf("Piggy deposit %q", goal.Name),
			Date:     e.now(),
		})
	}

	return next, Outcome{
		Status: StatusSuccess,
		GoalID: goalID,
		Amount: actual,
		Capped: actual.LessThan(amount),
	}
}

// Withdraw moves up to amount from a goal back onto the withdrawing actor's
// own card, subject to ownership gating.
func (e *Engine) Withdraw(s Snapshot, goalID string, amount Money, role Role) (Snapshot, Outcome) {
	if !amount.IsPositive() {
		return s, Outcome{Status: StatusInvalid, GoalID: goalID}
	}
	goal, ok := s.Goal(goalID)
	if !ok {
		return s, Outcome{Status: StatusMissing, GoalID: goalID}
	}
	if !canWithdraw(role, goal.Owner) {
		return s, Outcome{Status: StatusForbidden, GoalID: goalID}
	}

	actual := amount.Min(goal.CurrentAmount)
	if !actual.IsPositive() {
		return s, Outcome{Status: StatusEmpty, GoalID: goalID}
	}

	next := s.clone()
	goal.CurrentAmount = goal.CurrentAmount.Sub(actual)
	next.replaceGoal(goal)
	next.credit(ReceivingAccount(role), actual)

	return next, Outcome{
		Status: StatusSuccess,
		GoalID: goalID,
		Amount: actual,
		Capped: actual.LessThan(amount),
	}
}

// WithdrawAll moves a goal's entire amount onto the actor's card and deletes
// the goal in the same logical transaction, even when the amount is zero.
func (e *Engine) WithdrawAll(s Snapshot, goalID string, role Role) (Snapshot, Outcome) {
	goal, ok := s.Goal(goalID)
	if !ok {
		return s, Outcome{Status: StatusMissing, GoalID: goalID}
	}
	if !canWithdraw(role, goal.Owner) {
		return s, Outcome{Status: StatusForbidden, GoalID: goalID}
	}

	next := s.clone()
	next.credit(ReceivingAccount(role), goal.CurrentAmount)
	next.removeGoal(goalID)

	return next, Outcome{Status: StatusSuccess, GoalID: goalID, Amount: goal.CurrentAmount}
}

// =============================================================================
// GOAL LIFECYCLE
// =============================================================================

// CreateGoalInput carries the caller-supplied fields of a new goal. The
// owner is always derived from the actor role.
type CreateGoalInput struct {
	Name         string
	TargetAmount Money
	Color        string
}

// CreateGoal appends a new goal owned by the acting party. Empty names,
// names beyond the bound, and names already taken (case-insensitive) are
// rejected.
func (e *Engine) CreateGoal(s Snapshot, input CreateGoalInput, role Role) (Snapshot, Outcome) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len([]rune(name)) > MaxNameLen {
		return s, Outcome{Status: StatusInvalid}
	}
	for _, g := range s.Goals {
		if strings.EqualFold(g.Name, name) {
			return s, Outcome{Status: StatusDuplicate, GoalID: g.ID}
		}
	}

	owner := OwnerChild
	if role == RoleParent {
		owner = OwnerFamily
	}

	goal := NormalizeGoalAt(Goal{
		ID:           e.newID(),
		Name:         name,
		Owner:        owner,
		TargetAmount: input.TargetAmount,
		Color:        input.Color,
		CreatedAt:    e.now().UTC().Format(time.RFC3339),
	}, e.now())

	next := s.clone()
	next.Goals = append(next.Goals, goal)
	return next, Outcome{Status: StatusSuccess, GoalID: goal.ID}
}

// DeleteGoal removes a goal and refunds its full amount to the deleting
// actor's own card. A parent may delete family goals but never the child's
// personal goals; a child deletes only their own.
func (e *Engine) DeleteGoal(s Snapshot, goalID string, role Role) (Snapshot, Outcome) {
	goal, ok := s.Goal(goalID)
	if !ok {
		return s, Outcome{Status: StatusMissing, GoalID: goalID}
	}
	if !canDelete(role, goal.Owner) {
		return s, Outcome{Status: StatusForbidden, GoalID: goalID}
	}

	next := s.clone()
	next.credit(ReceivingAccount(role), goal.CurrentAmount)
	next.removeGoal(goalID)

	return next, Outcome{Status: StatusSuccess, GoalID: goalID, Amount: goal.CurrentAmount}
}

// GoalPatch is a partial cosmetic/limit edit; nil fields are untouched.
type GoalPatch struct {
	Name         *string
	TargetAmount *Money
	Color        *string
	Background   *string
}

// EditGoal applies name/target/cosmetic edits. The goal's owner and money
// are never editable through this path.
func (e *Engine) EditGoal(s Snapshot, goalID string, patch GoalPatch, role Role) (Snapshot, Outcome) {
	goal, ok := s.Goal(goalID)
	if !ok {
		return s, Outcome{Status: StatusMissing, GoalID: goalID}
	}
	if !canEdit(role, goal.Owner) {
		return s, Outcome{Status: StatusForbidden, GoalID: goalID}
	}

	if patch.Name != nil {
		name := TruncateName(*patch.Name)
		if name == "" {
			name = DefaultGoalName
		}
		goal.Name = name
	}
	if patch.TargetAmount != nil {
		goal.TargetAmount = *patch.TargetAmount
	}
	if patch.Color != nil && strings.TrimSpace(*patch.Color) != "" {
		goal.Color = *patch.Color
	}
	if patch.Background != nil && strings.TrimSpace(*patch.Background) != "" {
		goal.Background = *patch.Background
	}

	next := s.clone()
	next.replaceGoal(goal)
	return next, Outcome{Status: StatusSuccess, GoalID: goalID}
}

// =============================================================================
// AUTO TOP-UP CONFIGURATION
// =============================================================================

// SetAutoTopUp installs or updates a goal's daily schedule. The last-applied
// baseline is seeded with "today" so the first catch-up run does not
// back-fill history; an existing baseline at or before today is kept.
func (e *Engine) SetAutoTopUp(s Snapshot, goalID string, amountPerDay Money, role Role) (Snapshot, Outcome) {
	if !amountPerDay.IsPositive() {
		return s, Outcome{Status: StatusInvalid, GoalID: goalID}
	}
	goal, ok := s.Goal(goalID)
	if !ok {
		return s, Outcome{Status: StatusMissing, GoalID: goalID}
	}
	if !canManageAutoTopUp(role, goal.Owner) {
		return s, Outcome{Status: StatusForbidden, GoalID: goalID}
	}

	today := DayKeyOf(e.now())
	last := today
	if goal.AutoTopUp != nil {
		if prev := NormalizeDayKey(goal.AutoTopUp.LastAppliedDay); prev != "" && prev <= today {
			last = prev
		}
	}

	goal.AutoTopUp = &AutoTopUp{AmountPerDay: amountPerDay, LastAppliedDay: last}
	next := s.clone()
	next.replaceGoal(goal)
	return next, Outcome{Status: StatusSuccess, GoalID: goalID, Amount: amountPerDay}
}

// DisableAutoTopUp removes a goal's schedule, subject to the same gating as
// SetAutoTopUp.
func (e *Engine) DisableAutoTopUp(s Snapshot, goalID string, role Role) (Snapshot, Outcome) {
	goal, ok := s.Goal(goalID)
	if !ok {
		return s, Outcome{Status: StatusMissing, GoalID: goalID}
	}
	if !canManageAutoTopUp(role, goal.Owner) {
		return s, Outcome{Status: StatusForbidden, GoalID: goalID}
	}

	goal.AutoTopUp = nil
	next := s.clone()
	next.replaceGoal(goal)
	return next, Outcome{Status: StatusSuccess, GoalID: goalID}
}

// =============================================================================
// CARD-TO-CARD TRANSFER
// =============================================================================

// TransferParentToChild moves amount from the parent card to the child card,
// all or nothing. Used for mission rewards paid out by the parent.
func (e *Engine) TransferParentToChild(s Snapshot, amount Money) (Snapshot, Outcome) {
	if !amount.IsPositive() {
		return s, Outcome{Status: StatusInvalid}
	}
	if s.CardBalanceParent.LessThan(amount) {
		return s, Outcome{Status: StatusInsufficient}
	}

	next := s.clone()
	next.debit(AccountParentCard, amount)
	next.credit(AccountChildCard, amount)
	return next, Outcome{Status: StatusSuccess, Amount: amount}
}

// =============================================================================
// COMPLETION TRANSITIONS
// =============================================================================

// CompletedTransitions returns the ids of goals that crossed from open to
// completed between two snapshots. Completion is derived, never stored; the
// UI uses this for its one-time celebration signal.
func CompletedTransitions(prev, next Snapshot) []string {
	var ids []string
	for _, g := range next.Goals {
		if !g.Completed() {
			continue
		}
		before := Money{}
		if p, ok := prev.Goal(g.ID); ok {
			before = p.CurrentAmount
		}
		if before.LessThan(g.TargetAmount) {
			ids = append(ids, g.ID)
		}
	}
	return ids
}

// =============================================================================
// GATING
// =============================================================================

func canWithdraw(role Role, owner Owner) bool {
	if NormalizeOwner(owner) == OwnerFamily {
		return role == RoleParent
	}
	return role != RoleParent
}

func canDelete(role Role, owner Owner) bool {
	// Same shape as withdrawal: you only delete what is yours.
	return canWithdraw(role, owner)
}

func canEdit(role Role, owner Owner) bool {
	if NormalizeOwner(owner) == OwnerFamily {
		return role == RoleParent
	}
	return true
}

func canManageAutoTopUp(role Role, owner Owner) bool {
	if role == RoleParent {
		return true
	}
	return NormalizeOwner(owner) != OwnerFamily
}
