// Package eventlog records an audit trail of ledger actions. Writes go
// through a buffered worker so request handling never blocks on the audit
// sink; acceptance overrides in particular must leave a durable record.
package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types recorded by the ledger.
const (
	TypeExpenseCreated = "expense_created"
	TypeExpenseUpdated = "expense_updated"
	TypeExpenseDeleted = "expense_deleted"
	TypeSplitAccepted  = "split_accepted"
	TypeForceAccepted  = "split_force_accepted"
	TypeItemClaimed    = "item_claimed"
	TypeMemberAdded    = "member_added"
	TypeMemberRemoved  = "member_removed"
)

// Event is one audit record.
type Event struct {
	ID        string            `json:"id"`
	GroupID   string            `json:"groupId"`
	Type      string            `json:"type"`
	ActorID   string            `json:"actorId"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// EventOption configures a new event.
type EventOption func(*Event)

// WithActor records who performed the action.
func WithActor(memberID string) EventOption {
	return func(e *Event) {
		e.ActorID = memberID
	}
}

// WithData attaches free-form detail fields.
func WithData(data map[string]string) EventOption {
	return func(e *Event) {
		e.Data = data
	}
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(groupID, eventType string, opts ...EventOption) Event {
	e := Event{
		ID:        uuid.New().String(),
		GroupID:   groupID,
		Type:      eventType,
		CreatedAt: time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Sink persists events. The SQLite store implements this.
type Sink interface {
	WriteEvent(ctx context.Context, e Event) error
}
