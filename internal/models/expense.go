package models

import (
	"time"

	"github.com/Zergity/splitter/internal/money"
)

// SplitType identifies how an expense total is divided among participants.
type SplitType string

const (
	// SplitTypeEqual divides the total evenly among participants.
	SplitTypeEqual SplitType = "equal"
	// SplitTypeExact uses the supplied per-member amounts directly.
	SplitTypeExact SplitType = "exact"
	// SplitTypePercentage divides by per-member percentages summing to 100.
	SplitTypePercentage SplitType = "percentage"
	// SplitTypeShares divides proportionally to per-member share counts.
	SplitTypeShares SplitType = "shares"
	// SplitTypeSettlement is a direct payment between two members: a single
	// recipient split, the payer implicit.
	SplitTypeSettlement SplitType = "settlement"
)

// Status is the derived display state of an expense.
type Status string

const (
	// StatusDeleted: the expense is soft-deleted.
	StatusDeleted Status = "deleted"
	// StatusIncomplete: one or more line items are unclaimed, so the splits
	// are blocked on assignment rather than confirmation.
	StatusIncomplete Status = "incomplete"
	// StatusPending: at least one split awaits acceptance.
	StatusPending Status = "pending"
	// StatusAccepted: every split is accepted.
	StatusAccepted Status = "accepted"
)

// Split is one member's share of an expense.
type Split struct {
	// MemberID identifies the participating member.
	MemberID string `json:"memberId"`

	// Value is the raw strategy-specific input: the exact amount in major
	// units, a percentage, or a share count. Unused for equal splits.
	Value float64 `json:"value"`

	// Amount is the computed share in minor units. In item mode the payer's
	// remainder split may be negative when assigned items exceed the total.
	Amount money.Cents `json:"amount"`

	// Accepted is whether the member has confirmed this share.
	Accepted bool `json:"accepted"`

	// AcceptedAt is set iff Accepted.
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`

	// PreviousAmount holds the prior share after an edit changed Amount for
	// an already-accepted member, so the change can be shown as "X -> Y".
	// It is only meaningful while Accepted is false and is cleared the
	// moment the member accepts.
	PreviousAmount *money.Cents `json:"previousAmount,omitempty"`
}

// LineItem is a receipt line item. Unclaimed items (empty OwnerID) are
// absorbed by the payer until someone claims them.
type LineItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string `json:"id"`

	// Description is the item label from the receipt.
	Description string `json:"description"`

	// Amount is the item price in minor units.
	Amount money.Cents `json:"amount"`

	// OwnerID is the claiming member, or "" while unclaimed.
	OwnerID string `json:"ownerId,omitempty"`
}

// Expense is the atomic unit of the ledger: one recorded money movement,
// split among participants.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"groupId"`

	// Description is the human-readable label.
	Description string `json:"description"`

	// Amount is the positive total in minor units of the group currency.
	Amount money.Cents `json:"amount"`

	// PaidBy is the member who fronted the money.
	PaidBy string `json:"paidBy"`

	// CreatedBy is the member who recorded the expense.
	CreatedBy string `json:"createdBy"`

	// Strategy is the manually chosen split strategy. Use SplitStrategy()
	// for the effective one: expenses with items are always exact.
	Strategy SplitType `json:"splitType"`

	// Splits holds one entry per participating member, in input order.
	Splits []Split `json:"splits"`

	// Items is set only when the expense was built from item-level
	// assignment (receipt mode).
	Items []LineItem `json:"items,omitempty"`

	// Tags are free-form labels. Deletion is tracked by DeletedAt, never by
	// a tag.
	Tags []string `json:"tags,omitempty"`

	// DeletedAt marks a soft-deleted expense. Deleted expenses are hidden
	// from day-to-day lists and excluded from balances, but retained.
	DeletedAt *time.Time `json:"deletedAt,omitempty"`

	// ReceiptURL and ReceiptDate come from receipt extraction, if any.
	ReceiptURL  string `json:"receiptUrl,omitempty"`
	ReceiptDate string `json:"receiptDate,omitempty"`

	// CreatedAt is when the expense was recorded (UTC).
	CreatedAt time.Time `json:"createdAt"`
}

// SplitStrategy returns the effective strategy: exact whenever the expense
// carries line items, otherwise the stored manual strategy.
func (e *Expense) SplitStrategy() SplitType {
	if len(e.Items) > 0 {
		return SplitTypeExact
	}
	return e.Strategy
}

// Deleted reports whether the expense is soft-deleted.
func (e *Expense) Deleted() bool {
	return e.DeletedAt != nil
}

// Incomplete reports whether any line item is still unclaimed. Incomplete
// expenses block on assignment, not on confirmation.
func (e *Expense) Incomplete() bool {
	for _, item := range e.Items {
		if item.OwnerID == "" {
			return true
		}
	}
	return false
}

// FullyAccepted reports whether every split is accepted. For a settlement
// the single recipient split decides alone; the payer's role is implicit and
// always satisfied.
func (e *Expense) FullyAccepted() bool {
	for _, s := range e.Splits {
		if !s.Accepted {
			return false
		}
	}
	return true
}

// Split returns the split for the given member, or nil.
func (e *Expense) Split(memberID string) *Split {
	for i := range e.Splits {
		if e.Splits[i].MemberID == memberID {
			return &e.Splits[i]
		}
	}
	return nil
}

// Item returns the line item with the given ID, or nil.
func (e *Expense) Item(itemID string) *LineItem {
	for i := range e.Items {
		if e.Items[i].ID == itemID {
			return &e.Items[i]
		}
	}
	return nil
}

// DeriveStatus computes the display status label.
func (e *Expense) DeriveStatus() Status {
	switch {
	case e.Deleted():
		return StatusDeleted
	case e.Incomplete():
		return StatusIncomplete
	case e.FullyAccepted():
		return StatusAccepted
	default:
		return StatusPending
	}
}

// Clone returns a deep copy of the expense so mutations can be applied
// all-or-nothing against a snapshot.
func (e *Expense) Clone() *Expense {
	c := *e
	c.Splits = make([]Split, len(e.Splits))
	copy(c.Splits, e.Splits)
	for i, s := range e.Splits {
		if s.AcceptedAt != nil {
			at := *s.AcceptedAt
			c.Splits[i].AcceptedAt = &at
		}
		if s.PreviousAmount != nil {
			prev := *s.PreviousAmount
			c.Splits[i].PreviousAmount = &prev
		}
	}
	if e.Items != nil {
		c.Items = make([]LineItem, len(e.Items))
		copy(c.Items, e.Items)
	}
	if e.Tags != nil {
		c.Tags = make([]string, len(e.Tags))
		copy(c.Tags, e.Tags)
	}
	if e.DeletedAt != nil {
		at := *e.DeletedAt
		c.DeletedAt = &at
	}
	return &c
}
