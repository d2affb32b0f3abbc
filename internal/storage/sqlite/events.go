package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Zergity/splitter/internal/eventlog"
)

// Ensure SQLiteStore implements the audit sink.
var _ eventlog.Sink = (*SQLiteStore)(nil)

// WriteEvent appends one audit event.
func (s *SQLiteStore) WriteEvent(ctx context.Context, e eventlog.Event) error {
	data, err := marshalEventData(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, group_id, type, actor_id, data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Type, e.ActorID, data, e.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// ListEvents retrieves the audit trail of a group, newest first.
func (s *SQLiteStore) ListEvents(ctx context.Context, groupID string) ([]eventlog.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, type, actor_id, data, created_at
		 FROM events WHERE group_id = ? ORDER BY created_at DESC, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]eventlog.Event, 0)
	for rows.Next() {
		var (
			e         eventlog.Event
			data      []byte
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.GroupID, &e.Type, &e.ActorID, &data, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("failed to decode event data: %w", err)
			}
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func marshalEventData(data map[string]string) (interface{}, error) {
	if len(data) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
