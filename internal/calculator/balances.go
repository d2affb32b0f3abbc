package calculator

import (
	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
)

// Balance is one member's net position, split into the part backed by
// accepted splits and the part still awaiting acceptance. Positive means the
// member is owed money, negative means they owe.
type Balance struct {
	MemberID   string      `json:"memberId"`
	MemberName string      `json:"memberName"`
	Confirmed  money.Cents `json:"confirmed"`
	Pending    money.Cents `json:"pending"`
}

// Net is the displayed balance: confirmed plus pending.
func (b Balance) Net() money.Cents {
	return b.Confirmed + b.Pending
}

// CalculateBalances folds all expenses into per-member confirmed and pending
// balances. Soft-deleted expenses are excluded. Every group member gets a
// row, zero or not, in member-list order.
//
// Per expense and split: accepted splits route into the confirmed bucket,
// pending ones into pending. The payer is credited with the expense total
// minus their own share; everyone else is debited their share. When the
// payer has no split row at all (settlements, and item mode when their
// running total was dropped), they are instead credited with the sum of the
// accepted split amounts in confirmed and the pending ones in pending.
func CalculateBalances(expenses []*models.Expense, members []models.Member) []Balance {
	confirmed := make(map[string]money.Cents, len(members))
	pending := make(map[string]money.Cents, len(members))

	for _, e := range expenses {
		if e.Deleted() {
			continue
		}

		payerHasSplit := false
		var acceptedSum, pendingSum money.Cents
		for _, s := range e.Splits {
			bucket := pending
			if s.Accepted {
				bucket = confirmed
				acceptedSum += s.Amount
			} else {
				pendingSum += s.Amount
			}

			if s.MemberID == e.PaidBy {
				payerHasSplit = true
				bucket[s.MemberID] += e.Amount - s.Amount
			} else {
				bucket[s.MemberID] -= s.Amount
			}
		}

		if !payerHasSplit {
			confirmed[e.PaidBy] += acceptedSum
			pending[e.PaidBy] += pendingSum
		}
	}

	balances := make([]Balance, len(members))
	for i, m := range members {
		balances[i] = Balance{
			MemberID:   m.ID,
			MemberName: m.Name,
			Confirmed:  confirmed[m.ID],
			Pending:    pending[m.ID],
		}
	}
	return balances
}
