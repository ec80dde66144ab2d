// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// FormSubmission is a stored form post.
type FormSubmission struct {
	ID        int64
	FormType  string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	FormData  model.FormData
	Status    string
	IPAddress string
	UserAgent string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubmissionFilter narrows a submission listing. Zero values do not filter.
// CreatedFrom is inclusive and CreatedBefore exclusive.
type SubmissionFilter struct {
	FormType      string
	Status        string
	Search        string
	CreatedFrom   time.Time
	CreatedBefore time.Time
	Limit         int64
	Offset        int64
}

func (f SubmissionFilter) where() *whereBuilder {
	w := &whereBuilder{}
	if f.FormType != "" {
		w.add("form_type = ?", f.FormType)
	}
	if f.Status != "" {
		w.add("status = ?", f.Status)
	}
	w.addSearch(f.Search, "name", "email", "subject", "message")
	if !f.CreatedFrom.IsZero() {
		w.add("created_at >= ?", f.CreatedFrom)
	}
	if !f.CreatedBefore.IsZero() {
		w.add("created_at < ?", f.CreatedBefore)
	}
	return w
}

const submissionColumns = `id, form_type, name, email, phone, subject, message, form_data, status,
	ip_address, user_agent, created_at, updated_at`

func scanFormSubmission(row interface{ Scan(...any) error }) (FormSubmission, error) {
	var s FormSubmission
	err := row.Scan(&s.ID, &s.FormType, &s.Name, &s.Email, &s.Phone, &s.Subject, &s.Message,
		&s.FormData, &s.Status, &s.IPAddress, &s.UserAgent, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// CreateFormSubmissionParams holds the columns of a new submission.
type CreateFormSubmissionParams struct {
	FormType  string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	FormData  model.FormData
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// CreateFormSubmission stores a submission with status "new" and returns its id.
func (q *Queries) CreateFormSubmission(ctx context.Context, arg CreateFormSubmissionParams) (int64, error) {
	return q.insertReturningID(ctx, `
		INSERT INTO form_submissions (form_type, name, email, phone, subject, message, form_data, status,
			ip_address, user_agent, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'new', ?, ?, ?, ?)`,
		arg.FormType, arg.Name, arg.Email, arg.Phone, arg.Subject, arg.Message, arg.FormData,
		arg.IPAddress, arg.UserAgent, arg.CreatedAt, arg.CreatedAt)
}

// GetFormSubmission returns the submission with id.
func (q *Queries) GetFormSubmission(ctx context.Context, id int64) (FormSubmission, error) {
	return scanFormSubmission(q.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM form_submissions WHERE id = ?`, id))
}

// ListFormSubmissions returns submissions matching filter, newest first.
func (q *Queries) ListFormSubmissions(ctx context.Context, filter SubmissionFilter) ([]FormSubmission, error) {
	w := filter.where()
	limit, args := limitClause(filter.Limit, filter.Offset, w.args)

	rows, err := q.db.QueryContext(ctx, `SELECT `+submissionColumns+` FROM form_submissions`+w.clause()+
		` ORDER BY created_at DESC, id DESC`+limit, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	submissions := []FormSubmission{}
	for rows.Next() {
		s, err := scanFormSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

// CountFormSubmissions counts submissions matching filter.
func (q *Queries) CountFormSubmissions(ctx context.Context, filter SubmissionFilter) (int64, error) {
	w := filter.where()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM form_submissions`+w.clause(), w.args...).Scan(&n)
	return n, err
}

// UpdateFormSubmissionStatus sets the status of submission id.
func (q *Queries) UpdateFormSubmissionStatus(ctx context.Context, id int64, status string, now time.Time) error {
	return q.execAffectingOne(ctx,
		`UPDATE form_submissions SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
}

// DeleteFormSubmission removes submission id.
func (q *Queries) DeleteFormSubmission(ctx context.Context, id int64) error {
	return q.execAffectingOne(ctx, `DELETE FROM form_submissions WHERE id = ?`, id)
}
