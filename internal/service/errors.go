package service

import "errors"

// State errors: the operation is refused outright, with no partial effect.
var (
	// ErrNotAllowed: the acting member lacks the role the operation
	// requires (e.g. only the payer may edit an expense).
	ErrNotAllowed = errors.New("member is not allowed to perform this action")

	// ErrGracePeriod: force-accept attempted before 7 days have elapsed
	// since the expense was created.
	ErrGracePeriod = errors.New("force-accept is only available 7 days after creation")

	// ErrSettlementForce: settlements can never be force-accepted.
	ErrSettlementForce = errors.New("settlement acceptance cannot be forced")

	// ErrMemberHasBalance: a member can only be removed once both their
	// confirmed and pending balances are zero.
	ErrMemberHasBalance = errors.New("member still has a nonzero balance")

	// ErrDuplicateName: member names are unique case-insensitively.
	ErrDuplicateName = errors.New("member name already exists")

	// ErrNotParticipant: the member has no split in the expense.
	ErrNotParticipant = errors.New("member is not a participant of this expense")
)
