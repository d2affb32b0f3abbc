package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Zergity/splitter/internal/calculator"
	"github.com/Zergity/splitter/internal/eventlog"
	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/storage"
)

// Auditor receives audit events from the services. *eventlog.Worker
// implements it; a nil auditor disables auditing.
type Auditor interface {
	Log(event eventlog.Event)
}

type noopAuditor struct{}

func (noopAuditor) Log(eventlog.Event) {}

// GroupService manages the group record and its member list.
type GroupService struct {
	store storage.Store
	audit Auditor
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, audit Auditor) *GroupService {
	if audit == nil {
		audit = noopAuditor{}
	}
	return &GroupService{store: store, audit: audit}
}

// Ensure returns the deployment's group, creating it with the given defaults
// when the store is empty.
func (s *GroupService) Ensure(ctx context.Context, name, currency string) (*models.Group, error) {
	group, err := s.store.FindDefaultGroup(ctx)
	if err == nil {
		return group, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	group = &models.Group{
		Name:     name,
		Currency: currency,
		Members:  []models.Member{},
	}
	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, err
	}
	slog.Info("Group created", "group_id", group.ID, "name", group.Name)
	return group, nil
}

// Get retrieves the group by ID.
func (s *GroupService) Get(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// UpdateSettings changes the group's display name and currency.
func (s *GroupService) UpdateSettings(ctx context.Context, groupID, name, currency string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		group.Name = name
	}
	if currency != "" {
		group.Currency = currency
	}

	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, err
	}
	slog.Info("Group settings updated", "group_id", groupID, "name", group.Name, "currency", group.Currency)
	return group, nil
}

// AddMember appends a member to the group. Names are unique within the group
// case-insensitively; a duplicate is refused, never deduplicated silently.
func (s *GroupService) AddMember(ctx context.Context, groupID, name string) (*models.Member, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("member name is required")
	}
	if group.MemberByName(name) != nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	member := models.Member{
		ID:   uuid.New().String(),
		Name: name,
	}
	group.Members = append(group.Members, member)

	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, err
	}

	s.audit.Log(eventlog.NewEvent(groupID, eventlog.TypeMemberAdded,
		eventlog.WithData(map[string]string{"member_id": member.ID, "name": member.Name})))
	slog.Info("Member added", "group_id", groupID, "member_id", member.ID, "name", member.Name)
	return &member, nil
}

// UpdateMember replaces a member's display name and payout details. The new
// name must not collide with another member's, case-insensitively.
func (s *GroupService) UpdateMember(ctx context.Context, groupID string, updated models.Member) (*models.Member, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	member := group.Member(updated.ID)
	if member == nil {
		return nil, fmt.Errorf("member %s: %w", updated.ID, storage.ErrNotFound)
	}

	updated.Name = strings.TrimSpace(updated.Name)
	if updated.Name == "" {
		return nil, fmt.Errorf("member name is required")
	}
	if existing := group.MemberByName(updated.Name); existing != nil && existing.ID != updated.ID {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, updated.Name)
	}

	*member = updated
	if err := s.store.SaveGroup(ctx, group); err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember deletes a member from the group. It is refused while the
// member's confirmed or pending balance is nonzero, so ledger history never
// dangles against money still in motion.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, memberID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	member := group.Member(memberID)
	if member == nil {
		return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}

	expenses, err := s.store.ListExpenses(ctx, groupID)
	if err != nil {
		return err
	}
	for _, b := range calculator.CalculateBalances(expenses, group.Members) {
		if b.MemberID != memberID {
			continue
		}
		if !b.Confirmed.IsZero() || !b.Pending.IsZero() {
			return fmt.Errorf("%w: confirmed %.2f, pending %.2f",
				ErrMemberHasBalance, b.Confirmed.Float(), b.Pending.Float())
		}
	}

	members := make([]models.Member, 0, len(group.Members)-1)
	for _, m := range group.Members {
		if m.ID != memberID {
			members = append(members, m)
		}
	}
	group.Members = members

	if err := s.store.SaveGroup(ctx, group); err != nil {
		return err
	}

	s.audit.Log(eventlog.NewEvent(groupID, eventlog.TypeMemberRemoved,
		eventlog.WithData(map[string]string{"member_id": memberID})))
	slog.Info("Member removed", "group_id", groupID, "member_id", memberID)
	return nil
}
