// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/Zergity/splitter/internal/models"
)

// ErrNotFound is returned when a group or expense id is absent from the
// store. The engine never creates records implicitly on a miss.
var ErrNotFound = errors.New("not found")

// Store is the persistence contract of the ledger engine. Expenses are
// written whole: every mutation is a read-modify-write of the full record,
// never a partial field update. Last writer wins at entry granularity;
// callers needing stronger guarantees must add a version check here.
type Store interface {
	// GetGroup retrieves the group by ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// FindDefaultGroup retrieves the deployment's single group (the oldest
	// row, in case more than one exists). Returns ErrNotFound when the
	// store is empty; used at startup to bootstrap the singleton.
	FindDefaultGroup(ctx context.Context) (*models.Group, error)

	// SaveGroup inserts or replaces the whole group record. ID and
	// CreatedAt are assigned if unset.
	SaveGroup(ctx context.Context, group *models.Group) error

	// ListExpenses retrieves every expense of the group, soft-deleted ones
	// included, ordered by creation time.
	ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error)

	// GetExpense retrieves one expense by ID.
	GetExpense(ctx context.Context, groupID, expenseID string) (*models.Expense, error)

	// SaveExpense inserts or replaces the whole expense record. ID and
	// CreatedAt are assigned if unset.
	SaveExpense(ctx context.Context, expense *models.Expense) error

	// Close releases any resources held by the store.
	Close() error
}
