package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Zergity/splitter/internal/models"
)

func TestEnsure(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewGroupService(store, nil)

	created, err := svc.Ensure(ctx, "Flat 4B", "USD")
	if err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("created group has no ID")
	}

	again, err := svc.Ensure(ctx, "Other Name", "EUR")
	if err != nil {
		t.Fatalf("second Ensure() error = %v", err)
	}
	if again.ID != created.ID {
		t.Errorf("second Ensure created a new group: %s != %s", again.ID, created.ID)
	}
	if again.Name != "Flat 4B" {
		t.Errorf("second Ensure overwrote the name: %q", again.Name)
	}
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*GroupService, string) {
		t.Helper()
		store := newFakeStore()
		svc := NewGroupService(store, nil)
		group, err := svc.Ensure(ctx, "Flat 4B", "USD")
		if err != nil {
			t.Fatalf("Ensure() error = %v", err)
		}
		return svc, group.ID
	}

	t.Run("adds with a fresh id", func(t *testing.T) {
		svc, groupID := setup(t)
		member, err := svc.AddMember(ctx, groupID, "  Alice  ")
		if err != nil {
			t.Fatalf("AddMember() error = %v", err)
		}
		if member.ID == "" {
			t.Error("member has no ID")
		}
		if member.Name != "Alice" {
			t.Errorf("name = %q, want trimmed %q", member.Name, "Alice")
		}
	})

	t.Run("duplicate name refused case-insensitively", func(t *testing.T) {
		svc, groupID := setup(t)
		if _, err := svc.AddMember(ctx, groupID, "Alice"); err != nil {
			t.Fatalf("AddMember() error = %v", err)
		}
		if _, err := svc.AddMember(ctx, groupID, "alice"); !errors.Is(err, ErrDuplicateName) {
			t.Errorf("error = %v, want ErrDuplicateName", err)
		}
	})

	t.Run("blank name refused", func(t *testing.T) {
		svc, groupID := setup(t)
		if _, err := svc.AddMember(ctx, groupID, "   "); err == nil {
			t.Error("blank name accepted")
		}
	})
}

func TestUpdateMember(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewGroupService(store, nil)
	group, _ := svc.Ensure(ctx, "Flat 4B", "USD")
	alice, _ := svc.AddMember(ctx, group.ID, "Alice")
	bob, _ := svc.AddMember(ctx, group.ID, "Bob")

	t.Run("updates payout details", func(t *testing.T) {
		updated, err := svc.UpdateMember(ctx, group.ID, models.Member{
			ID: alice.ID, Name: "Alice", BankName: "ACME Bank", AccountNo: "12345",
		})
		if err != nil {
			t.Fatalf("UpdateMember() error = %v", err)
		}
		if updated.BankName != "ACME Bank" || updated.AccountNo != "12345" {
			t.Errorf("payout details not saved: %+v", updated)
		}
	})

	t.Run("rename onto another member refused", func(t *testing.T) {
		_, err := svc.UpdateMember(ctx, group.ID, models.Member{ID: bob.ID, Name: "ALICE"})
		if !errors.Is(err, ErrDuplicateName) {
			t.Errorf("error = %v, want ErrDuplicateName", err)
		}
	})

	t.Run("keeping your own name is fine", func(t *testing.T) {
		if _, err := svc.UpdateMember(ctx, group.ID, models.Member{ID: bob.ID, Name: "bob"}); err != nil {
			t.Errorf("UpdateMember() error = %v", err)
		}
	})
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()

	t.Run("removes a settled member", func(t *testing.T) {
		store := newFakeStore()
		svc := NewGroupService(store, nil)
		group, _ := svc.Ensure(ctx, "Flat 4B", "USD")
		member, _ := svc.AddMember(ctx, group.ID, "Alice")

		if err := svc.RemoveMember(ctx, group.ID, member.ID); err != nil {
			t.Fatalf("RemoveMember() error = %v", err)
		}
		got, _ := svc.Get(ctx, group.ID)
		if got.Member(member.ID) != nil {
			t.Error("member still present after removal")
		}
	})

	t.Run("refused while a balance is outstanding", func(t *testing.T) {
		store := newFakeStore()
		groups := NewGroupService(store, nil)
		ledger := NewLedgerService(store, nil)
		ledger.now = func() time.Time { return testNow }

		group, _ := groups.Ensure(ctx, "Flat 4B", "USD")
		alice, _ := groups.AddMember(ctx, group.ID, "Alice")
		bob, _ := groups.AddMember(ctx, group.ID, "Bob")

		if _, err := ledger.CreateExpense(ctx, group.ID, alice.ID, equalInput(10000, alice.ID, alice.ID, bob.ID)); err != nil {
			t.Fatalf("CreateExpense() error = %v", err)
		}

		if err := groups.RemoveMember(ctx, group.ID, bob.ID); !errors.Is(err, ErrMemberHasBalance) {
			t.Errorf("error = %v, want ErrMemberHasBalance", err)
		}
	})
}
