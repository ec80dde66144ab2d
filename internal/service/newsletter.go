// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
)

// Subscription sources.
const (
	SourceAPI            = "api"
	SourceFormSubmission = "form_submission"
)

// Subscriber is the API view of a newsletter entry.
type Subscriber struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	Name           string     `json:"name"`
	Status         string     `json:"status"`
	Source         string     `json:"source"`
	SubscribedAt   time.Time  `json:"subscribed_at"`
	UnsubscribedAt *time.Time `json:"unsubscribed_at"`
}

// NewsletterService manages the mailing list.
type NewsletterService struct {
	queries *store.Queries
	events  *EventService
	now     Clock
}

// NewNewsletterService creates a new NewsletterService.
func NewNewsletterService(db *sql.DB, events *EventService) *NewsletterService {
	return &NewsletterService{
		queries: store.New(db),
		events:  events,
		now:     SystemClock,
	}
}

// Subscribe adds email to the list or reactivates it. An address that is
// already active yields ErrAlreadySubscribed.
func (s *NewsletterService) Subscribe(ctx context.Context, email, name, source, ip string) (Subscriber, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Subscriber{}, validationError("email", "Email is required")
	}
	if !isEmail(email) {
		return Subscriber{}, validationError("email", "Invalid email address")
	}
	if source = strings.TrimSpace(source); source == "" {
		source = SourceAPI
	}

	arg := store.CreateSubscriberParams{
		Email:        email,
		Name:         strings.TrimSpace(name),
		Source:       source,
		IPAddress:    ip,
		SubscribedAt: s.now(),
	}

	existing, err := s.queries.GetSubscriberByEmail(ctx, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.queries.CreateSubscriber(ctx, arg); err != nil {
			if store.IsUniqueViolation(err) {
				return Subscriber{}, ErrAlreadySubscribed
			}
			return Subscriber{}, fmt.Errorf("creating subscriber: %w", err)
		}
	case err != nil:
		return Subscriber{}, fmt.Errorf("loading subscriber: %w", err)
	case existing.Status == model.SubscriberStatusActive:
		return Subscriber{}, ErrAlreadySubscribed
	default:
		if err := s.queries.ReactivateSubscriber(ctx, arg); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Reactivated by a concurrent request.
				return Subscriber{}, ErrAlreadySubscribed
			}
			return Subscriber{}, fmt.Errorf("reactivating subscriber: %w", err)
		}
	}

	row, err := s.queries.GetSubscriberByEmail(ctx, email)
	if err != nil {
		return Subscriber{}, notFound(err, "subscriber")
	}
	return subscriberView(row), nil
}

// Unsubscribe marks an active address unsubscribed. Editor or admin.
func (s *NewsletterService) Unsubscribe(ctx context.Context, id auth.Identity, email string) error {
	if err := authorize(id, auth.CapSubscribersManage, s.now()); err != nil {
		return err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return validationError("email", "Email is required")
	}
	if err := s.queries.UnsubscribeSubscriber(ctx, email, s.now()); err != nil {
		return notFound(err, "active subscriber")
	}
	if s.events != nil {
		_ = s.events.LogSubmissionEvent(ctx, "Subscriber unsubscribed", id.UserID, map[string]any{"email": email})
	}
	return nil
}

// List returns subscribers with status, newest first. Status defaults to
// active. Editor or admin.
func (s *NewsletterService) List(ctx context.Context, id auth.Identity, status string) ([]Subscriber, error) {
	if err := authorize(id, auth.CapSubscribersRead, s.now()); err != nil {
		return nil, err
	}
	if status = strings.TrimSpace(status); status == "" {
		status = model.SubscriberStatusActive
	}
	if !model.IsValidSubscriberStatus(status) {
		return nil, fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}

	rows, err := s.queries.ListSubscribersByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	out := make([]Subscriber, len(rows))
	for i, row := range rows {
		out[i] = subscriberView(row)
	}
	return out, nil
}

func subscriberView(row store.NewsletterSubscriber) Subscriber {
	sub := Subscriber{
		ID:           row.ID,
		Email:        row.Email,
		Name:         row.Name,
		Status:       row.Status,
		Source:       row.Source,
		SubscribedAt: row.SubscribedAt,
	}
	if row.UnsubscribedAt.Valid {
		t := row.UnsubscribedAt.Time
		sub.UnsubscribedAt = &t
	}
	return sub
}
