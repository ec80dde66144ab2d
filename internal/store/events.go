package store

import (
	"context"
	"database/sql"
	"time"
)

// Event is an audit log entry.
type Event struct {
	ID         int64
	Level      string
	Category   string
	Message    string
	UserID     sql.NullInt64
	IPAddress  string
	RequestURL string
	Metadata   string
	CreatedAt  time.Time
}

// CreateEventParams holds the columns of a new event.
type CreateEventParams struct {
	Level      string
	Category   string
	Message    string
	UserID     sql.NullInt64
	IPAddress  string
	RequestURL string
	Metadata   string
	CreatedAt  time.Time
}

// CreateEvent appends an event to the audit log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (int64, error) {
	return q.insertReturningID(ctx, `
		INSERT INTO events (level, category, message, user_id, ip_address, request_url, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.IPAddress, arg.RequestURL, arg.Metadata, arg.CreatedAt)
}

// ListRecentEvents returns up to limit events in category, newest first.
// An empty category returns all categories.
func (q *Queries) ListRecentEvents(ctx context.Context, category string, limit int64) ([]Event, error) {
	query := `SELECT id, level, category, message, user_id, ip_address, request_url, metadata, created_at FROM events`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	events := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Level, &e.Category, &e.Message, &e.UserID, &e.IPAddress,
			&e.RequestURL, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// DeleteEventsBefore prunes events older than cutoff.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
