package calculator

import (
	"sort"

	"github.com/Zergity/splitter/internal/money"
)

// Settlement is one proposed payment that moves the group toward zero.
type Settlement struct {
	From     string      `json:"from"`
	FromName string      `json:"fromName"`
	To       string      `json:"to"`
	ToName   string      `json:"toName"`
	Amount   money.Cents `json:"amount"`
}

// PlanSettlements proposes payments that zero out the confirmed balances.
// Pending amounts are deliberately excluded: a settlement should never be
// suggested against money nobody has confirmed yet.
//
// Greedy largest-to-largest matching: debtors and creditors are sorted by
// descending magnitude (ties keep original member order) and walked with two
// pointers, each step transferring the smaller of the two remainders. This is
// a heuristic, not a minimum-transaction solver, but it is deterministic for
// a fixed balance snapshot. Residue below one cent is ignored as rounding
// slack.
func PlanSettlements(balances []Balance) []Settlement {
	type side struct {
		memberID  string
		name      string
		remaining money.Cents
	}

	var debtors, creditors []side
	for _, b := range balances {
		switch {
		case b.Confirmed < -money.Tolerance:
			debtors = append(debtors, side{b.MemberID, b.MemberName, -b.Confirmed})
		case b.Confirmed > money.Tolerance:
			creditors = append(creditors, side{b.MemberID, b.MemberName, b.Confirmed})
		}
	}

	sort.SliceStable(debtors, func(i, j int) bool {
		return debtors[i].remaining > debtors[j].remaining
	})
	sort.SliceStable(creditors, func(i, j int) bool {
		return creditors[i].remaining > creditors[j].remaining
	})

	var settlements []Settlement
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		amount := debtor.remaining
		if creditor.remaining < amount {
			amount = creditor.remaining
		}

		if amount > money.Tolerance {
			settlements = append(settlements, Settlement{
				From:     debtor.memberID,
				FromName: debtor.name,
				To:       creditor.memberID,
				ToName:   creditor.name,
				Amount:   amount,
			})
		}

		debtor.remaining -= amount
		creditor.remaining -= amount

		if debtor.remaining < money.Tolerance {
			i++
		}
		if creditor.remaining < money.Tolerance {
			j++
		}
	}

	return settlements
}
