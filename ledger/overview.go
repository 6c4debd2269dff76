package ledger

// =============================================================================
// OVERVIEW - Derived read-only aggregates
// =============================================================================

// Overview is a pure projection over a snapshot: totals and counts by owner
// plus the two card balances. O(goals), cheap enough to recompute on every
// snapshot change.
type Overview struct {
	ChildTotal        Money `json:"childTotal"`
	FamilyTotal       Money `json:"familyTotal"`
	Total             Money `json:"total"`
	ChildCount        int   `json:"childCount"`
	FamilyCount       int   `json:"familyCount"`
	CardBalanceChild  Money `json:"cardBalanceChild"`
	CardBalanceParent Money `json:"cardBalanceParent"`
}

// BuildOverview computes the projection for a snapshot.
func BuildOverview(s Snapshot) Overview {
	o := Overview{
		CardBalanceChild:  s.CardBalanceChild,
		CardBalanceParent: s.CardBalanceParent,
	}
	for _, g := range s.Goals {
		if NormalizeOwner(g.Owner) == OwnerFamily {
			o.FamilyTotal = o.FamilyTotal.Add(g.CurrentAmount)
			o.FamilyCount++
		} else {
			o.ChildTotal = o.ChildTotal.Add(g.CurrentAmount)
			o.ChildCount++
		}
	}
	o.Total = o.ChildTotal.Add(o.FamilyTotal)
	return o
}
