// Package sqlite provides a SQLite-backed implementation of the
// storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/money"
	"github.com/Zergity/splitter/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path. It creates the
// parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetGroup retrieves the group by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	var (
		group       models.Group
		membersJSON string
		createdAt   int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, members, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &membersJSON, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if err := json.Unmarshal([]byte(membersJSON), &group.Members); err != nil {
		return nil, fmt.Errorf("failed to decode members: %w", err)
	}
	group.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &group, nil
}

// FindDefaultGroup retrieves the deployment's single group: the oldest row.
func (s *SQLiteStore) FindDefaultGroup(ctx context.Context) (*models.Group, error) {
	var groupID string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM groups ORDER BY created_at, id LIMIT 1",
	).Scan(&groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no group: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find default group: %w", err)
	}
	return s.GetGroup(ctx, groupID)
}

// SaveGroup inserts or replaces the whole group record.
func (s *SQLiteStore) SaveGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt.IsZero() {
		group.CreatedAt = time.Now().UTC()
	}
	if group.Members == nil {
		group.Members = []models.Member{}
	}

	membersJSON, err := json.Marshal(group.Members)
	if err != nil {
		return fmt.Errorf("failed to encode members: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO groups (id, name, currency, members, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   currency = excluded.currency,
		   members = excluded.members`,
		group.ID, group.Name, group.Currency, string(membersJSON), group.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}
	return nil
}

// ListExpenses retrieves every expense of the group ordered by creation
// time, soft-deleted ones included.
func (s *SQLiteStore) ListExpenses(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, created_by, strategy,
		        splits, items, tags, deleted_at, receipt_url, receipt_date, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense retrieves one expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, groupID, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, created_by, strategy,
		        splits, items, tags, deleted_at, receipt_url, receipt_date, created_at
		 FROM expenses WHERE group_id = ? AND id = ?`,
		groupID, expenseID,
	)
	expense, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return expense, err
}

// SaveExpense inserts or replaces the whole expense record.
func (s *SQLiteStore) SaveExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}

	splitsJSON, err := json.Marshal(expense.Splits)
	if err != nil {
		return fmt.Errorf("failed to encode splits: %w", err)
	}
	itemsJSON, err := marshalNullable(expense.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	tagsJSON, err := marshalNullable(expense.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	var deletedAt interface{}
	if expense.DeletedAt != nil {
		deletedAt = expense.DeletedAt.Unix()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, description, amount, paid_by, created_by,
		                       strategy, splits, items, tags, deleted_at,
		                       receipt_url, receipt_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   description = excluded.description,
		   amount = excluded.amount,
		   paid_by = excluded.paid_by,
		   created_by = excluded.created_by,
		   strategy = excluded.strategy,
		   splits = excluded.splits,
		   items = excluded.items,
		   tags = excluded.tags,
		   deleted_at = excluded.deleted_at,
		   receipt_url = excluded.receipt_url,
		   receipt_date = excluded.receipt_date`,
		expense.ID, expense.GroupID, expense.Description, int64(expense.Amount),
		expense.PaidBy, expense.CreatedBy, string(expense.Strategy),
		string(splitsJSON), itemsJSON, tagsJSON, deletedAt,
		expense.ReceiptURL, expense.ReceiptDate, expense.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save expense: %w", err)
	}
	return nil
}

// scanExpense decodes one expense row from either a *sql.Row or *sql.Rows.
func scanExpense(scan func(dest ...interface{}) error) (*models.Expense, error) {
	var (
		expense     models.Expense
		amount      int64
		strategy    string
		splitsJSON  string
		itemsJSON   sql.NullString
		tagsJSON    sql.NullString
		deletedAt   sql.NullInt64
		receiptURL  sql.NullString
		receiptDate sql.NullString
		createdAt   int64
	)

	err := scan(&expense.ID, &expense.GroupID, &expense.Description, &amount,
		&expense.PaidBy, &expense.CreatedBy, &strategy,
		&splitsJSON, &itemsJSON, &tagsJSON, &deletedAt,
		&receiptURL, &receiptDate, &createdAt)
	if err != nil {
		return nil, err
	}

	expense.Amount = money.Cents(amount)
	expense.Strategy = models.SplitType(strategy)
	if err := json.Unmarshal([]byte(splitsJSON), &expense.Splits); err != nil {
		return nil, fmt.Errorf("failed to decode splits: %w", err)
	}
	if itemsJSON.Valid && itemsJSON.String != "" {
		if err := json.Unmarshal([]byte(itemsJSON.String), &expense.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &expense.Tags); err != nil {
			return nil, fmt.Errorf("failed to decode tags: %w", err)
		}
	}
	if deletedAt.Valid {
		at := time.Unix(deletedAt.Int64, 0).UTC()
		expense.DeletedAt = &at
	}
	expense.ReceiptURL = receiptURL.String
	expense.ReceiptDate = receiptDate.String
	expense.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &expense, nil
}

// marshalNullable encodes a slice as JSON, mapping empty to SQL NULL.
func marshalNullable[T any](v []T) (interface{}, error) {
	if len(v) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
