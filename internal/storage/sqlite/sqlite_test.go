package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Zergity/splitter/internal/eventlog"
	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
	"github.com/Zergity/splitter/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("SaveGroup generates ID and CreatedAt", func(t *testing.T) {
		group := &models.Group{
			Name:     "Flat 4B",
			Currency: "USD",
			Members:  []models.Member{{ID: "m1", Name: "Alice"}},
		}
		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}
		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt.IsZero() {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetGroup round trips members", func(t *testing.T) {
		group := &models.Group{
			Name:     "Trip",
			Currency: "EUR",
			Members: []models.Member{
				{ID: "m1", Name: "Alice", BankName: "ACME"},
				{ID: "m2", Name: "Bob"},
			},
		}
		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if len(got.Members) != 2 || got.Members[0].BankName != "ACME" {
			t.Errorf("members not round-tripped: %+v", got.Members)
		}
	})

	t.Run("SaveGroup replaces on conflict", func(t *testing.T) {
		group := &models.Group{Name: "Before", Currency: "USD", Members: []models.Member{}}
		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		group.Name = "After"
		group.Members = append(group.Members, models.Member{ID: "m9", Name: "Carol"})
		if err := store.SaveGroup(ctx, group); err != nil {
			t.Fatalf("second SaveGroup failed: %v", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "After" || len(got.Members) != 1 {
			t.Errorf("update not applied: %+v", got)
		}
	})

	t.Run("missing group returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetGroup(ctx, "no-such-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("FindDefaultGroup on empty store returns ErrNotFound", func(t *testing.T) {
		empty := newTestStore(t)
		if _, err := empty.FindDefaultGroup(ctx); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreExpenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{Name: "Flat", Currency: "USD", Members: []models.Member{}}
	if err := store.SaveGroup(ctx, group); err != nil {
		t.Fatalf("SaveGroup failed: %v", err)
	}

	acceptedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prev := money.Cents(5000)

	t.Run("SaveExpense round trips the whole record", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Dinner",
			Amount:      15000,
			PaidBy:      "m1",
			CreatedBy:   "m1",
			Strategy:    models.SplitTypeExact,
			Splits: []models.Split{
				{MemberID: "m1", Value: 100, Amount: 10000, Accepted: true, AcceptedAt: &acceptedAt},
				{MemberID: "m2", Value: 50, Amount: 5000, PreviousAmount: &prev},
			},
			Items: []models.LineItem{
				{ID: "i1", Description: "Pizza", Amount: 10000, OwnerID: "m1"},
			},
			Tags:        []string{"food", "shared"},
			ReceiptURL:  "https://example.com/r.jpg",
			ReceiptDate: "2025-06-01",
		}
		if err := store.SaveExpense(ctx, expense); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}
		if expense.ID == "" {
			t.Fatal("Expected expense ID to be generated")
		}

		got, err := store.GetExpense(ctx, group.ID, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Amount != 15000 || len(got.Splits) != 2 || len(got.Items) != 1 || len(got.Tags) != 2 {
			t.Errorf("record not round-tripped: %+v", got)
		}
		if !got.Splits[0].Accepted || got.Splits[0].AcceptedAt == nil {
			t.Errorf("acceptance state lost: %+v", got.Splits[0])
		}
		if got.Splits[1].PreviousAmount == nil || *got.Splits[1].PreviousAmount != prev {
			t.Errorf("PreviousAmount lost: %+v", got.Splits[1])
		}
	})

	t.Run("soft delete round trips", func(t *testing.T) {
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Old",
			Amount:      1000,
			PaidBy:      "m1",
			Strategy:    models.SplitTypeEqual,
			Splits:      []models.Split{{MemberID: "m1", Amount: 1000, Accepted: true}},
		}
		if err := store.SaveExpense(ctx, expense); err != nil {
			t.Fatalf("SaveExpense failed: %v", err)
		}

		deletedAt := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
		expense.DeletedAt = &deletedAt
		if err := store.SaveExpense(ctx, expense); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		got, err := store.GetExpense(ctx, group.ID, expense.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.DeletedAt == nil || !got.DeletedAt.Equal(deletedAt) {
			t.Errorf("DeletedAt = %v, want %v", got.DeletedAt, deletedAt)
		}
	})

	t.Run("ListExpenses orders by creation time", func(t *testing.T) {
		other := newTestStore(t)
		g := &models.Group{Name: "Order", Currency: "USD", Members: []models.Member{}}
		if err := other.SaveGroup(ctx, g); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		for i, desc := range []string{"first", "second", "third"} {
			e := &models.Expense{
				GroupID:     g.ID,
				Description: desc,
				Amount:      1000,
				PaidBy:      "m1",
				Strategy:    models.SplitTypeEqual,
				Splits:      []models.Split{{MemberID: "m1", Amount: 1000}},
				CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			}
			if err := other.SaveExpense(ctx, e); err != nil {
				t.Fatalf("SaveExpense failed: %v", err)
			}
		}

		got, err := other.ListExpenses(ctx, g.ID)
		if err != nil {
			t.Fatalf("ListExpenses failed: %v", err)
		}
		if len(got) != 3 || got[0].Description != "first" || got[2].Description != "third" {
			t.Errorf("order wrong: %+v", got)
		}
	})

	t.Run("missing expense returns ErrNotFound", func(t *testing.T) {
		if _, err := store.GetExpense(ctx, group.ID, "no-such-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStoreEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{Name: "Flat", Currency: "USD", Members: []models.Member{}}
	if err := store.SaveGroup(ctx, group); err != nil {
		t.Fatalf("SaveGroup failed: %v", err)
	}

	events := []eventlog.Event{
		eventlog.NewEvent(group.ID, eventlog.TypeExpenseCreated,
			eventlog.WithActor("m1"),
			eventlog.WithData(map[string]string{"expense_id": "e1"})),
		eventlog.NewEvent(group.ID, eventlog.TypeForceAccepted,
			eventlog.WithActor("m1")),
	}
	for _, e := range events {
		if err := store.WriteEvent(ctx, e); err != nil {
			t.Fatalf("WriteEvent failed: %v", err)
		}
	}

	got, err := store.ListEvents(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	for _, e := range got {
		if e.ActorID != "m1" {
			t.Errorf("actor = %q, want m1", e.ActorID)
		}
	}
}
