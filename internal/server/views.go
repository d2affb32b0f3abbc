package server

import (
	"time"

	"github.com/samber/lo"

	"github.com/Zergity/splitter/internal/calculator"
	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
)

// Views are the JSON shapes of the API. Amounts go out twice: as major-unit
// numbers for arithmetic on the client and preformatted in the group currency
// for display.

type splitView struct {
	MemberID       string     `json:"memberId"`
	Value          float64    `json:"value"`
	Amount         float64    `json:"amount"`
	Accepted       bool       `json:"accepted"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty"`
	PreviousAmount *float64   `json:"previousAmount,omitempty"`
}

type itemView struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	OwnerID     string  `json:"ownerId,omitempty"`
}

type expenseView struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Amount      float64       `json:"amount"`
	Formatted   string        `json:"formatted"`
	PaidBy      string        `json:"paidBy"`
	CreatedBy   string        `json:"createdBy"`
	SplitType   string        `json:"splitType"`
	Status      models.Status `json:"status"`
	Splits      []splitView   `json:"splits"`
	Items       []itemView    `json:"items,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	ReceiptURL  string        `json:"receiptUrl,omitempty"`
	ReceiptDate string        `json:"receiptDate,omitempty"`
	DeletedAt   *time.Time    `json:"deletedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type balanceView struct {
	MemberID   string  `json:"memberId"`
	MemberName string  `json:"memberName"`
	Confirmed  float64 `json:"confirmed"`
	Pending    float64 `json:"pending"`
	Net        float64 `json:"net"`
	Formatted  string  `json:"formatted"`
}

type transferView struct {
	From      string  `json:"from"`
	FromName  string  `json:"fromName"`
	To        string  `json:"to"`
	ToName    string  `json:"toName"`
	Amount    float64 `json:"amount"`
	Formatted string  `json:"formatted"`
}

func toExpenseView(e *models.Expense, currency string) expenseView {
	return expenseView{
		ID:          e.ID,
		Description: e.Description,
		Amount:      e.Amount.Float(),
		Formatted:   money.Format(e.Amount, currency),
		PaidBy:      e.PaidBy,
		CreatedBy:   e.CreatedBy,
		SplitType:   string(e.SplitStrategy()),
		Status:      e.DeriveStatus(),
		Splits:      lo.Map(e.Splits, func(s models.Split, _ int) splitView { return toSplitView(s) }),
		Items:       lo.Map(e.Items, func(i models.LineItem, _ int) itemView { return toItemView(i) }),
		Tags:        e.Tags,
		ReceiptURL:  e.ReceiptURL,
		ReceiptDate: e.ReceiptDate,
		DeletedAt:   e.DeletedAt,
		CreatedAt:   e.CreatedAt,
	}
}

func toExpenseViews(expenses []*models.Expense, currency string) []expenseView {
	return lo.Map(expenses, func(e *models.Expense, _ int) expenseView {
		return toExpenseView(e, currency)
	})
}

func toSplitView(s models.Split) splitView {
	v := splitView{
		MemberID:   s.MemberID,
		Value:      s.Value,
		Amount:     s.Amount.Float(),
		Accepted:   s.Accepted,
		AcceptedAt: s.AcceptedAt,
	}
	if s.PreviousAmount != nil {
		prev := s.PreviousAmount.Float()
		v.PreviousAmount = &prev
	}
	return v
}

func toItemView(i models.LineItem) itemView {
	return itemView{
		ID:          i.ID,
		Description: i.Description,
		Amount:      i.Amount.Float(),
		OwnerID:     i.OwnerID,
	}
}

func toBalanceViews(balances []calculator.Balance, currency string) []balanceView {
	return lo.Map(balances, func(b calculator.Balance, _ int) balanceView {
		return balanceView{
			MemberID:   b.MemberID,
			MemberName: b.MemberName,
			Confirmed:  b.Confirmed.Float(),
			Pending:    b.Pending.Float(),
			Net:        b.Net().Float(),
			Formatted:  money.Format(b.Net(), currency),
		}
	})
}

func toTransferViews(plan []calculator.Settlement, currency string) []transferView {
	return lo.Map(plan, func(s calculator.Settlement, _ int) transferView {
		return transferView{
			From:      s.From,
			FromName:  s.FromName,
			To:        s.To,
			ToName:    s.ToName,
			Amount:    s.Amount.Float(),
			Formatted: money.Format(s.Amount, currency),
		}
	})
}
