// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// NewsletterSubscriber is a mailing list entry.
type NewsletterSubscriber struct {
	ID             int64
	Email          string
	Name           string
	Status         string
	Source         string
	IPAddress      string
	SubscribedAt   time.Time
	UnsubscribedAt sql.NullTime
}

const subscriberColumns = `id, email, name, status, source, ip_address, subscribed_at, unsubscribed_at`

func scanSubscriber(row interface{ Scan(...any) error }) (NewsletterSubscriber, error) {
	var s NewsletterSubscriber
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.Status, &s.Source, &s.IPAddress,
		&s.SubscribedAt, &s.UnsubscribedAt)
	return s, err
}

// GetSubscriberByEmail returns the subscriber with email.
func (q *Queries) GetSubscriberByEmail(ctx context.Context, email string) (NewsletterSubscriber, error) {
	return scanSubscriber(q.db.QueryRowContext(ctx,
		`SELECT `+subscriberColumns+` FROM newsletter_subscribers WHERE email = ?`, email))
}

// CreateSubscriberParams holds the columns of a new subscriber.
type CreateSubscriberParams struct {
	Email        string
	Name         string
	Source       string
	IPAddress    string
	SubscribedAt time.Time
}

// CreateSubscriber inserts an active subscriber and returns its id.
func (q *Queries) CreateSubscriber(ctx context.Context, arg CreateSubscriberParams) (int64, error) {
	return q.insertReturningID(ctx, `
		INSERT INTO newsletter_subscribers (email, name, status, source, ip_address, subscribed_at)
		VALUES (?, ?, 'active', ?, ?, ?)`,
		arg.Email, arg.Name, arg.Source, arg.IPAddress, arg.SubscribedAt)
}

// ReactivateSubscriber moves an unsubscribed entry back to active.
// Returns sql.ErrNoRows when email is not currently unsubscribed.
func (q *Queries) ReactivateSubscriber(ctx context.Context, arg CreateSubscriberParams) error {
	return q.execAffectingOne(ctx, `
		UPDATE newsletter_subscribers
		SET status = 'active', name = ?, source = ?, ip_address = ?, subscribed_at = ?, unsubscribed_at = NULL
		WHERE email = ? AND status = 'unsubscribed'`,
		arg.Name, arg.Source, arg.IPAddress, arg.SubscribedAt, arg.Email)
}

// UnsubscribeSubscriber marks an active entry unsubscribed.
// Returns sql.ErrNoRows when email is not currently active.
func (q *Queries) UnsubscribeSubscriber(ctx context.Context, email string, at time.Time) error {
	return q.execAffectingOne(ctx, `
		UPDATE newsletter_subscribers SET status = 'unsubscribed', unsubscribed_at = ?
		WHERE email = ? AND status = 'active'`, at, email)
}

// ListSubscribersByStatus returns subscribers with status, most recent first.
func (q *Queries) ListSubscribersByStatus(ctx context.Context, status string) ([]NewsletterSubscriber, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+subscriberColumns+` FROM newsletter_subscribers
		WHERE status = ? ORDER BY subscribed_at DESC, id DESC`, status)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	subscribers := []NewsletterSubscriber{}
	for rows.Next() {
		s, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}
