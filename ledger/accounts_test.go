package ledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warp/piggy-engine/ledger"
)

// Account routing is deliberately total: every role and owner combination
// has a defined answer.

func TestFundingAndReceivingAccounts(t *testing.T) {
	// The acting party always pays from, and receives onto, their own card.
	assert.Equal(t, ledger.AccountChildCard, ledger.FundingAccount(ledger.RoleChild))
	assert.Equal(t, ledger.AccountParentCard, ledger.FundingAccount(ledger.RoleParent))
	assert.Equal(t, ledger.AccountChildCard, ledger.ReceivingAccount(ledger.RoleChild))
	assert.Equal(t, ledger.AccountParentCard, ledger.ReceivingAccount(ledger.RoleParent))
}

func TestTopUpSource(t *testing.T) {
	// Schedules have no acting party; the owner decides the source card.
	assert.Equal(t, ledger.AccountChildCard, ledger.TopUpSource(ledger.OwnerChild))
	assert.Equal(t, ledger.AccountParentCard, ledger.TopUpSource(ledger.OwnerFamily))
	assert.Equal(t, ledger.AccountChildCard, ledger.TopUpSource("unknown"),
		"unrecognized owners route like child goals")
}

func TestSnapshotBalance(t *testing.T) {
	s := ledger.DefaultSnapshot()
	assert.Equal(t, int64(ledger.DefaultChildBalance), s.Balance(ledger.AccountChildCard).Units())
	assert.Equal(t, int64(ledger.DefaultParentBalance), s.Balance(ledger.AccountParentCard).Units())
}

func TestBuildOverview(t *testing.T) {
	// GIVEN: Two child goals and one family goal
	// WHEN: Building the overview
	// THEN: Totals and counts split by owner, cards pass through

	s := testSnapshot(
		childGoal("g1", 100, 0),
		childGoal("g2", 250, 0),
		familyGoal("g3", 1000, 0),
	)

	o := ledger.BuildOverview(s)

	assert.Equal(t, int64(350), o.ChildTotal.Units())
	assert.Equal(t, int64(1000), o.FamilyTotal.Units())
	assert.Equal(t, int64(1350), o.Total.Units())
	assert.Equal(t, 2, o.ChildCount)
	assert.Equal(t, 1, o.FamilyCount)
	assert.Equal(t, int64(5000), o.CardBalanceChild.Units())
	assert.Equal(t, int64(100000), o.CardBalanceParent.Units())
}

func TestBuildOverview_Empty(t *testing.T) {
	o := ledger.BuildOverview(testSnapshot())
	assert.True(t, o.Total.IsZero())
	assert.Zero(t, o.ChildCount)
	assert.Zero(t, o.FamilyCount)
}
