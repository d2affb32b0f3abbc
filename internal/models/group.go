package models

import (
	"strings"
	"time"
)

// Member is one participant in the group.
type Member struct {
	// ID is the unique identifier for the member (UUID format).
	ID string `json:"id"`

	// Name is the display name, unique within the group case-insensitively.
	Name string `json:"name"`

	// Optional payout details so other members know where to send
	// settlements. Not semantically relevant to the ledger.
	BankName    string `json:"bankName,omitempty"`
	AccountName string `json:"accountName,omitempty"`
	AccountNo   string `json:"accountNo,omitempty"`
}

// Group is the expense group. Each deployment manages exactly one group, but
// the group ID is still threaded through every operation explicitly.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group.
	Name string `json:"name"`

	// Currency is the display unit for all amounts (e.g. "USD", "K").
	// The ledger never converts between currencies.
	Currency string `json:"currency"`

	// Members in insertion order. Order is display order only.
	Members []Member `json:"members"`

	// CreatedAt is when the group was created (UTC).
	CreatedAt time.Time `json:"createdAt"`
}

// Member returns the member with the given ID, or nil.
func (g *Group) Member(id string) *Member {
	for i := range g.Members {
		if g.Members[i].ID == id {
			return &g.Members[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the group.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = make([]Member, len(g.Members))
	copy(c.Members, g.Members)
	return &c
}

// MemberByName returns the member with the given name, compared
// case-insensitively, or nil.
func (g *Group) MemberByName(name string) *Member {
	for i := range g.Members {
		if strings.EqualFold(g.Members[i].Name, name) {
			return &g.Members[i]
		}
	}
	return nil
}
