package calculator

import (
	"time"

	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
)

// Reconcile derives an expense's splits from its line items after a claim or
// unclaim. For every owned item the price accumulates into that member's
// total; whatever part of the expense total is not covered by owned items is
// the payer's remainder (negative when assigned items exceed the total).
// Members whose total nets to exactly zero and who are not the payer are
// dropped from the splits.
//
// The acting member and the payer are freshly accepted; every other member's
// prior acceptance state is carried over unchanged. The result follows exact
// split semantics regardless of the expense's stored manual strategy.
func Reconcile(e *models.Expense, actorID string, now time.Time) []models.Split {
	totals := make(map[string]money.Cents)
	var order []string

	add := func(memberID string, amount money.Cents) {
		if _, seen := totals[memberID]; !seen {
			order = append(order, memberID)
		}
		totals[memberID] += amount
	}

	var owned money.Cents
	for _, item := range e.Items {
		if item.OwnerID == "" {
			continue
		}
		add(item.OwnerID, item.Amount)
		owned += item.Amount
	}

	// The payer absorbs the cost of everything not claimed. This also
	// registers the payer even when the remainder is zero: the payer's row
	// is kept through the zero-total drop below.
	add(e.PaidBy, e.Amount-owned)

	splits := make([]models.Split, 0, len(order))
	for _, memberID := range order {
		amount := totals[memberID]
		if amount == 0 && memberID != e.PaidBy {
			continue
		}

		s := models.Split{
			MemberID: memberID,
			Value:    amount.Float(),
			Amount:   amount,
		}

		switch memberID {
		case actorID, e.PaidBy:
			s.Accepted = true
			at := now
			s.AcceptedAt = &at
		default:
			if prior := e.Split(memberID); prior != nil {
				s.Accepted = prior.Accepted
				s.AcceptedAt = prior.AcceptedAt
				s.PreviousAmount = prior.PreviousAmount
			}
		}
		splits = append(splits, s)
	}
	return splits
}
