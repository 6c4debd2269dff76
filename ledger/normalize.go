/*
normalize.go - Canonicalization of arbitrary snapshot input

PURPOSE:
  Pure functions that coerce arbitrary, partial or legacy input into the
  canonical, invariant-respecting Snapshot shape. Normalization never fails:
  every input, however malformed, maps to some valid snapshot.

GUARANTEES:
  - Numbers are clamped to non-negative integers (Money does this on decode)
  - Unknown owners fall back to "child"
  - Names are truncated to MaxNameLen, empty names get a placeholder
  - Missing ids are generated, missing timestamps default to "now"
  - Auto top-up with a non-positive daily amount is disabled outright
  - Idempotent: NormalizeAt(NormalizeAt(x, t), t) == NormalizeAt(x, t)

LEGACY FORMATS:
  DecodeSnapshot accepts the three prior persisted schemas:
  - v1: a bare JSON array of goals, no wrapper
  - v2/v3: wrapper objects that may lack the parent card balance
  Missing balances take the seed defaults; explicit zeros are kept.

SEE ALSO:
  - types.go: canonical shapes
  - store: persistence, which normalizes on every save and load
*/
package ledger

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// wireSnapshot is the permissive decode target: balance pointers distinguish
// "absent" (seed default applies) from an explicit zero.
type wireSnapshot struct {
	SchemaVersion int    `json:"schemaVersion"`
	ChildBalance  *Money `json:"cardBalanceChild"`
	ParentBalance *Money `json:"cardBalanceParent"`
	Goals         []Goal `json:"goals"`
}

// DecodeSnapshot parses a persisted payload in any supported schema version.
// Returns ok=false only when the payload is not valid JSON in any known
// shape; callers treat that as "absent".
func DecodeSnapshot(data []byte) (Snapshot, bool) {
	var w wireSnapshot
	if err := json.Unmarshal(data, &w); err == nil {
		s := Snapshot{
			SchemaVersion:     w.SchemaVersion,
			CardBalanceChild:  NewMoney(DefaultChildBalance),
			CardBalanceParent: NewMoney(DefaultParentBalance),
			Goals:             w.Goals,
		}
		if w.ChildBalance != nil {
			s.CardBalanceChild = *w.ChildBalance
		}
		if w.ParentBalance != nil {
			s.CardBalanceParent = *w.ParentBalance
		}
		return s, true
	}

	// v1 stored a bare array of goals with no wrapper.
	var goals []Goal
	if err := json.Unmarshal(data, &goals); err == nil {
		s := DefaultSnapshot()
		s.Goals = goals
		return s, true
	}

	return Snapshot{}, false
}

// Normalize canonicalizes a snapshot using the wall clock for defaulted
// timestamps. Prefer NormalizeAt in tests.
func Normalize(s Snapshot) Snapshot {
	return NormalizeAt(s, time.Now())
}

// NormalizeAt canonicalizes a snapshot: see the file header for the full
// contract.
func NormalizeAt(s Snapshot, now time.Time) Snapshot {
	out := Snapshot{
		SchemaVersion:     SchemaVersion,
		CardBalanceChild:  s.CardBalanceChild,
		CardBalanceParent: s.CardBalanceParent,
		Goals:             make([]Goal, 0, len(s.Goals)),
	}
	for _, g := range s.Goals {
		out.Goals = append(out.Goals, NormalizeGoalAt(g, now))
	}
	return out
}

// NormalizeGoalAt canonicalizes a single goal.
func NormalizeGoalAt(g Goal, now time.Time) Goal {
	out := g
	if out.ID == "" {
		out.ID = NewGoalID()
	}

	out.Name = TruncateName(out.Name)
	if out.Name == "" {
		out.Name = DefaultGoalName
	}

	out.Owner = NormalizeOwner(out.Owner)

	// Note: an over-full goal (current > target) is left alone. Clamping it
	// here would destroy money; the capacity invariant is enforced where
	// money moves, by capping deposits.

	if strings.TrimSpace(out.Color) == "" {
		out.Color = DefaultColor
	}
	if strings.TrimSpace(out.Background) == "" {
		out.Background = DefaultBackground
	}

	out.CreatedAt = normalizeTimestamp(out.CreatedAt, now)
	out.AutoTopUp = NormalizeAutoTopUp(out.AutoTopUp)
	return out
}

// NormalizeAutoTopUp disables schedules with a non-positive daily amount and
// canonicalizes the last-applied day key.
func NormalizeAutoTopUp(a *AutoTopUp) *AutoTopUp {
	if a == nil || !a.AmountPerDay.IsPositive() {
		return nil
	}
	return &AutoTopUp{
		AmountPerDay:   a.AmountPerDay,
		LastAppliedDay: NormalizeDayKey(a.LastAppliedDay),
	}
}

// TruncateName bounds a goal name without rejecting it.
func TruncateName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > MaxNameLen {
		return string(runes[:MaxNameLen])
	}
	return name
}

// NewGoalID generates an opaque unique goal identifier.
func NewGoalID() string {
	return uuid.NewString()
}

func normalizeTimestamp(raw string, now time.Time) string {
	if raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return now.UTC().Format(time.RFC3339)
}
