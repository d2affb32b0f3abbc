package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zergity/splitter/internal/calculator"
	"github.com/Zergity/splitter/internal/eventlog"
	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
	"github.com/Zergity/splitter/internal/storage"
)

// ForceAcceptGracePeriod is how long every participant keeps an unforced say
// before the payer or creator may close out a stalled expense.
const ForceAcceptGracePeriod = 7 * 24 * time.Hour

// ExpenseInput is the caller-supplied description of an expense. Splits and
// Items are mutually exclusive: when Items are present the splits are derived
// by reconciliation and Splits is ignored.
type ExpenseInput struct {
	Description string
	Amount      money.Cents
	PaidBy      string
	Strategy    models.SplitType
	Splits      []calculator.SplitInput
	Items       []models.LineItem
	Tags        []string
	ReceiptURL  string
	ReceiptDate string
}

// LedgerService implements the expense lifecycle: recording, editing,
// acceptance, item claiming, soft deletion and the read-side aggregates.
type LedgerService struct {
	store storage.Store
	audit Auditor
	now   func() time.Time
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, audit Auditor) *LedgerService {
	if audit == nil {
		audit = noopAuditor{}
	}
	return &LedgerService{store: store, audit: audit, now: time.Now}
}

// CreateExpense records a new expense. The payer's split and the creator's
// split start accepted; everyone else starts pending.
func (s *LedgerService) CreateExpense(ctx context.Context, groupID, actorID string, input ExpenseInput) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.validateInput(group, input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expense := &models.Expense{
		GroupID:     groupID,
		Description: input.Description,
		Amount:      input.Amount,
		PaidBy:      input.PaidBy,
		CreatedBy:   actorID,
		Strategy:    input.Strategy,
		Items:       input.Items,
		Tags:        input.Tags,
		ReceiptURL:  input.ReceiptURL,
		ReceiptDate: input.ReceiptDate,
	}

	if len(input.Items) > 0 {
		expense.Strategy = models.SplitTypeExact
		expense.Splits = calculator.Reconcile(expense, actorID, now)
	} else {
		if err := calculator.ValidateSplits(input.Amount, input.Strategy, input.Splits); err != nil {
			return nil, err
		}
		expense.Splits = calculator.ComputeSplits(input.Amount, input.Strategy, input.Splits, input.PaidBy, now)
		acceptFor(expense, actorID, now)
	}

	if err := s.store.SaveExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.audit.Log(eventlog.NewEvent(groupID, eventlog.TypeExpenseCreated,
		eventlog.WithActor(actorID),
		eventlog.WithData(map[string]string{
			"expense_id":  expense.ID,
			"description": expense.Description,
			"amount":      fmt.Sprintf("%.2f", expense.Amount.Float()),
		})))
	slog.Info("Expense created",
		"group_id", groupID,
		"expense_id", expense.ID,
		"amount", expense.Amount.Float(),
		"strategy", expense.SplitStrategy(),
		"splits", len(expense.Splits))
	return expense, nil
}

// UpdateExpense replaces the editable fields of an expense and recomputes the
// splits. Only the payer may edit. Acceptance is carried over per member:
// unchanged shares keep their state, new or changed shares reset to pending
// with the prior amount recorded, and the payer is always accepted.
func (s *LedgerService) UpdateExpense(ctx context.Context, groupID, expenseID, actorID string, input ExpenseInput) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	existing, err := s.store.GetExpense(ctx, groupID, expenseID)
	if err != nil {
		return nil, err
	}
	if existing.PaidBy != actorID {
		return nil, fmt.Errorf("%w: only the payer may edit an expense", ErrNotAllowed)
	}
	if err := s.validateInput(group, input); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated := existing.Clone()
	updated.Description = input.Description
	updated.Amount = input.Amount
	updated.PaidBy = input.PaidBy
	updated.Strategy = input.Strategy
	updated.Items = input.Items
	updated.Tags = input.Tags
	updated.ReceiptURL = input.ReceiptURL
	updated.ReceiptDate = input.ReceiptDate

	if len(input.Items) > 0 {
		updated.Strategy = models.SplitTypeExact
		updated.Splits = calculator.Reconcile(updated, actorID, now)
	} else {
		if err := calculator.ValidateSplits(input.Amount, input.Strategy, input.Splits); err != nil {
			return nil, err
		}
		updated.Splits = calculator.ComputeSplits(input.Amount, input.Strategy, input.Splits, input.PaidBy, now)
		applyEditAcceptance(updated, existing, now)
	}

	if err := s.store.SaveExpense(ctx, updated); err != nil {
		return nil, err
	}

	s.audit.Log(eventlog.NewEvent(groupID, eventlog.TypeExpenseUpdated,
		eventlog.WithActor(actorID),
		eventlog.WithData(map[string]string{"expense_id": expenseID})))
	slog.Info("Expense updated", "group_id", groupID, "expense_id", expenseID)
	return updated, nil
}

// AcceptSplit marks the acting member's split as accepted. Accepting an
// already-accepted split is a no-op, so retries are safe.
func (s *LedgerService) AcceptSplit(ctx context.Context, groupID, expenseID, actorID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, groupID, expenseID)
	if err != nil {
		return nil, err
	}

	split := expense.Split(actorID)
	if split == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotParticipant, actorID)
	}
	if split.Accepted {
		return expense, nil
	}

	now := s.now().UTC()
	split.Accepted = true
	split.AcceptedAt = &now
	split.PreviousAmount = nil

	if err := s.store.SaveExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.audit.Log(eventlog.NewEvent(groupID, eventlog.TypeSplitAccepted,
		eventlog.WithActor(actorID),
		eventlog.WithData(map[string]string{"expense_id": expenseID})))
	slog.Info("Split accepted", "group_id", groupID, "expense_id", expenseID, "member_id", actorID)
	return expense, nil
}

// ForceAccept marks the target member's split as accepted on their behalf.
// Only the payer or the creator may force, never for a settlement, and only
// once the grace period since creation has fully elapsed. Forcing an
// already-accepted split is a no-op.
func (s *LedgerService) ForceAccept(ctx context.Context, groupID, expenseID, actorID, targetID string) (*models.Expense, error) {
	expense, err := s.store.GetExpense(ctx, groupID, expenseID)
	if err != nil {
		return nil, err
	}

	if actorID != expense.PaidBy && actorID != expense.CreatedBy {
		return nil, fmt.Errorf("%w: only the payer or creator may force acceptance", ErrNotAllowed)
	}
	if expense.SplitStrategy() == models.SplitTypeSettlement {
		return nil, ErrSettlementForce
	}

	split := expense.Split(targetID)
	if split == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotParticipant, targetID)
	}

	now := s.now().UTC()
	if now.Sub(expense.CreatedAt) < ForceAcceptGracePeriod {
		return nil, fmt.Errorf("%w (created %s)", ErrGracePeriod, expense.CreatedAt.Format(time.RFC3339))
	}

	if split.Accepted {
		return expense, nil
	}
	split.Accepted = true
	split.AcceptedAt = &now
	split.PreviousAmount = nil

	if err := s.store.SaveExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.audit.Log(eventlog.NewEvent(groupID, eventlog.TypeForceAccepted,
		eventlog.WithActor(actorID),
		eventlog.WithData(map[string]string{
			"expense_id": expenseID,
			"member_id":  targetID,
		})))
	slog.Info("Acceptance forced",
		"group_id", groupID, "expense_id", expenseID, "actor_id", actorID, "member_id", targetID)
	return expense, nil
}

// ClaimItem assigns a line item to a member (or back to unclaimed when
// ownerID is empty) and reconciles the splits from the new assignment.
func (s *LedgerService) ClaimItem(ctx context.Context, groupID, expenseID, itemID, ownerID, actorID string) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expense, err := s.store.GetExpense(ctx, groupID, expenseID)
	if err != nil {
		return nil, err
	}

	item := expense.Item(itemID)
	if item == nil {
		return nil, fmt.Errorf("item %s: %w", itemID, storage.ErrNotFound)
	}
	if ownerID != "" && group.Member(ownerID) == nil {
		return nil, fmt.Errorf("member %s: %w", ownerID, storage.ErrNotFound)
	}

	now := s.now().UTC()
	item.OwnerID = ownerID
	expense.Splits = calculator.Reconcile(expense, actorID, now)

	if err := s.store.SaveExpense(ctx, expense); err != nil {
		return nil, err
	}

	s.audit.Log(eventlog.NewEvent(groupID, eventlog.TypeItemClaimed,
		eventlog.WithActor(actorID),
		eventlog.WithData(map[string]string{
			"expense_id": expenseID,
			"item_id":    itemID,
			"owner_id":   ownerID,
		})))
	slog.Info("Item claimed",
		"group_id", groupID, "expense_id", expenseID, "item_id", itemID, "owner_id", ownerID)
	return expense, nil
}

// SoftDelete marks an expense deleted without erasing it. Deleting an
// already-deleted expense is a no-op; acceptance state is left untouched so
// an undelete restores the expense exactly as it was.
func (s *LedgerService) SoftDelete(ctx context.Context, groupID, expenseID, actorID string) error {
	expense, err := s.store.GetExpense(ctx, groupID, expenseID)
	if err != nil {
		return err
	}
	if expense.Deleted() {
		return nil
	}

	now := s.now().UTC()
	expense.DeletedAt = &now

	if err := s.store.SaveExpense(ctx, expense); err != nil {
		return err
	}

	s.audit.Log(eventlog.NewEvent(groupID, eventlog.TypeExpenseDeleted,
		eventlog.WithActor(actorID),
		eventlog.WithData(map[string]string{"expense_id": expenseID})))
	slog.Info("Expense deleted", "group_id", groupID, "expense_id", expenseID)
	return nil
}

// RecordSettlement records a direct payment from one member to another as a
// settlement expense. The recipient's single split starts pending; the payer
// is implicit.
func (s *LedgerService) RecordSettlement(ctx context.Context, groupID, actorID, fromID, toID string, amount money.Cents) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	from := group.Member(fromID)
	to := group.Member(toID)
	if from == nil {
		return nil, fmt.Errorf("member %s: %w", fromID, storage.ErrNotFound)
	}
	if to == nil {
		return nil, fmt.Errorf("member %s: %w", toID, storage.ErrNotFound)
	}

	input := ExpenseInput{
		Description: fmt.Sprintf("%s paid %s", from.Name, to.Name),
		Amount:      amount,
		PaidBy:      fromID,
		Strategy:    models.SplitTypeSettlement,
		Splits:      []calculator.SplitInput{{MemberID: toID, Value: amount.Float()}},
	}
	return s.CreateExpense(ctx, groupID, actorID, input)
}

// ListExpenses retrieves the group's expenses in creation order. Soft-deleted
// expenses are excluded unless includeDeleted is set.
func (s *LedgerService) ListExpenses(ctx context.Context, groupID string, includeDeleted bool) ([]*models.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if includeDeleted {
		return expenses, nil
	}

	visible := make([]*models.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !e.Deleted() {
			visible = append(visible, e)
		}
	}
	return visible, nil
}

// GetExpense retrieves one expense by ID, deleted or not.
func (s *LedgerService) GetExpense(ctx context.Context, groupID, expenseID string) (*models.Expense, error) {
	return s.store.GetExpense(ctx, groupID, expenseID)
}

// Balances aggregates the group's net positions, confirmed and pending
// tracked separately. Soft-deleted expenses contribute nothing.
func (s *LedgerService) Balances(ctx context.Context, groupID string) ([]calculator.Balance, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.CalculateBalances(expenses, group.Members), nil
}

// SettlementPlan computes the minimal set of transfers that zeroes the
// confirmed balances. Pending amounts are ignored until accepted.
func (s *LedgerService) SettlementPlan(ctx context.Context, groupID string) ([]calculator.Settlement, error) {
	balances, err := s.Balances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return calculator.PlanSettlements(balances), nil
}

// validateInput checks the parts of an ExpenseInput that need the group:
// every referenced member must exist.
func (s *LedgerService) validateInput(group *models.Group, input ExpenseInput) error {
	if input.Amount <= 0 {
		return calculator.ErrNonPositiveAmount
	}
	if group.Member(input.PaidBy) == nil {
		return fmt.Errorf("payer %s: %w", input.PaidBy, storage.ErrNotFound)
	}
	for _, in := range input.Splits {
		if group.Member(in.MemberID) == nil {
			return fmt.Errorf("member %s: %w", in.MemberID, storage.ErrNotFound)
		}
	}
	for _, item := range input.Items {
		if item.OwnerID != "" && group.Member(item.OwnerID) == nil {
			return fmt.Errorf("member %s: %w", item.OwnerID, storage.ErrNotFound)
		}
	}
	return nil
}

// acceptFor marks the given member's split accepted, if they have one.
func acceptFor(expense *models.Expense, memberID string, now time.Time) {
	if split := expense.Split(memberID); split != nil && !split.Accepted {
		at := now
		split.Accepted = true
		split.AcceptedAt = &at
		split.PreviousAmount = nil
	}
}

// applyEditAcceptance carries per-member acceptance from the pre-edit splits
// onto the freshly computed ones. A member whose share is unchanged (within
// tolerance) keeps their state; a new or changed share resets to pending with
// the prior amount recorded for display. The payer is always accepted.
func applyEditAcceptance(updated, existing *models.Expense, now time.Time) {
	for i := range updated.Splits {
		split := &updated.Splits[i]
		if split.MemberID == updated.PaidBy {
			at := now
			split.Accepted = true
			split.AcceptedAt = &at
			split.PreviousAmount = nil
			continue
		}

		prior := existing.Split(split.MemberID)
		if prior == nil {
			// New participant: pending with nothing to compare against.
			split.Accepted = false
			split.AcceptedAt = nil
			split.PreviousAmount = nil
			continue
		}

		if split.Amount.Equal(prior.Amount) {
			split.Accepted = prior.Accepted
			split.AcceptedAt = prior.AcceptedAt
			split.PreviousAmount = prior.PreviousAmount
			continue
		}

		split.Accepted = false
		split.AcceptedAt = nil
		if prior.Accepted {
			prev := prior.Amount
			split.PreviousAmount = &prev
		} else {
			// Still pending: keep showing the oldest accepted amount if any.
			split.PreviousAmount = prior.PreviousAmount
		}
	}
}
