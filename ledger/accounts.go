package ledger

// =============================================================================
// ACCOUNT ROUTING - Whose card pays, whose card receives
// =============================================================================
// The historical implementations inferred the funding and receiving card from
// scattered role/owner conditionals, with inconsistent results between
// versions. The routing is now three small total functions, unit-tested over
// every combination.

// Account identifies one of the two card balances in a snapshot.
type Account string

const (
	AccountChildCard  Account = "child_card"
	AccountParentCard Account = "parent_card"
)

// FundingAccount returns the card a deposit draws from. An actor always
// funds from their own card: a parent funds both family and child goals from
// the parent balance.
func FundingAccount(role Role) Account {
	if role == RoleParent {
		return AccountParentCard
	}
	return AccountChildCard
}

// ReceivingAccount returns the card a withdrawal or refund credits.
// Symmetric to FundingAccount: the acting party receives onto their own card.
func ReceivingAccount(role Role) Account {
	if role == RoleParent {
		return AccountParentCard
	}
	return AccountChildCard
}

// TopUpSource returns the card an auto top-up draws from. Unlike interactive
// deposits, the schedule has no acting party, so the goal's owner decides:
// family goals draw from the parent balance, child goals from the child's.
func TopUpSource(owner Owner) Account {
	if NormalizeOwner(owner) == OwnerFamily {
		return AccountParentCard
	}
	return AccountChildCard
}

// Balance reads the given account's card balance.
func (s Snapshot) Balance(a Account) Money {
	if a == AccountParentCard {
		return s.CardBalanceParent
	}
	return s.CardBalanceChild
}

func (s *Snapshot) credit(a Account, m Money) {
	if a == AccountParentCard {
		s.CardBalanceParent = s.CardBalanceParent.Add(m)
	} else {
		s.CardBalanceChild = s.CardBalanceChild.Add(m)
	}
}

func (s *Snapshot) debit(a Account, m Money) {
	if a == AccountParentCard {
		s.CardBalanceParent = s.CardBalanceParent.Sub(m)
	} else {
		s.CardBalanceChild = s.CardBalanceChild.Sub(m)
	}
}
