// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mileusna/useragent"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/notify"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

// Payload limits.
const (
	maxFormFields    = 50
	maxFieldKeyLen   = 100
	maxFieldValueLen = 10000
	maxFormTypeLen   = 50
	maxUserAgentLen  = 500
)

// Submission is the API view of a stored form post.
type Submission struct {
	ID        int64          `json:"id"`
	FormType  string         `json:"form_type"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	Subject   string         `json:"subject"`
	Message   string         `json:"message"`
	FormData  model.FormData `json:"form_data"`
	Status    string         `json:"status"`
	IPAddress string         `json:"ip_address"`
	UserAgent string         `json:"user_agent"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SubmissionListParams filters a submission listing. Dates are YYYY-MM-DD
// and both ends are inclusive.
type SubmissionListParams struct {
	FormType string
	Status   string
	Search   string
	DateFrom string
	DateTo   string
	Paging
}

// SubmissionService stores form posts and runs their side effects.
type SubmissionService struct {
	queries    *store.Queries
	events     *EventService
	notifier   notify.Notifier
	newsletter *NewsletterService
	operator   string
	exportsDir string
	now        Clock
}

// SubmissionConfig wires the collaborators of a SubmissionService.
type SubmissionConfig struct {
	Notifier      notify.Notifier
	Newsletter    *NewsletterService
	OperatorEmail string
	ExportsDir    string
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(db *sql.DB, events *EventService, cfg SubmissionConfig) *SubmissionService {
	return &SubmissionService{
		queries:    store.New(db),
		events:     events,
		notifier:   cfg.Notifier,
		newsletter: cfg.Newsletter,
		operator:   cfg.OperatorEmail,
		exportsDir: cfg.ExportsDir,
		now:        SystemClock,
	}
}

// formTypeKey is the payload key that carries the form type. It stays in the
// stored payload.
const formTypeKey = "form_type"

// Submit validates and stores a form post, then notifies the operator and
// runs the type hook. Neither side effect can fail the submission.
func (s *SubmissionService) Submit(ctx context.Context, formType string, data model.FormData, client ClientInfo) (int64, error) {
	formType = strings.TrimSpace(formType)
	if err := validateSubmission(formType, data); err != nil {
		return 0, err
	}

	name := field(data, "name")
	if name == "" {
		name = strings.TrimSpace(field(data, "first_name") + " " + field(data, "last_name"))
	}

	id, err := s.queries.CreateFormSubmission(ctx, store.CreateFormSubmissionParams{
		FormType:  formType,
		Name:      name,
		Email:     field(data, "email"),
		Phone:     field(data, "phone"),
		Subject:   field(data, "subject"),
		Message:   field(data, "message"),
		FormData:  data,
		IPAddress: client.IP,
		UserAgent: util.TruncateString(client.UserAgent, maxUserAgentLen),
		CreatedAt: s.now(),
	})
	if err != nil {
		return 0, fmt.Errorf("storing submission: %w", err)
	}

	s.notify(ctx, id, formType, data, client)
	s.runHook(ctx, formType, data, client)

	slog.Info("form submitted", "submission_id", id, "form_type", formType)
	return id, nil
}

// validateSubmission checks the form type, payload limits, required fields
// and every email-like value.
func validateSubmission(formType string, data model.FormData) error {
	if formType == "" {
		return validationError("form_type", "Form type is required")
	}
	if len(formType) > maxFormTypeLen {
		return validationError("form_type", "Form type is too long")
	}
	if len(data) == 0 || (len(data) == 1 && data[0].Key == formTypeKey) {
		return validationError("", "Form data is required")
	}
	if len(data) > maxFormFields {
		return validationError("", fmt.Sprintf("Too many fields (max %d)", maxFormFields))
	}

	for _, f := range data {
		if f.Key == "" || len(f.Key) > maxFieldKeyLen {
			return validationError(f.Key, "Invalid field name")
		}
		switch f.Value.(type) {
		case string, bool, json.Number:
		default:
			return validationError(f.Key, model.ErrUnsupportedFormValue.Error())
		}
		if len(model.FormatFormValue(f.Value)) > maxFieldValueLen {
			return validationError(f.Key, "Value is too long")
		}
	}

	for _, key := range model.RequiredFormFields[formType] {
		if field(data, key) == "" {
			return validationError(key, humanize(key)+" is required")
		}
	}

	for _, f := range data {
		if f.Key != "email" && !strings.HasSuffix(f.Key, "_email") {
			continue
		}
		v := strings.TrimSpace(model.FormatFormValue(f.Value))
		if v != "" && !isEmail(v) {
			return validationError(f.Key, "Invalid email format")
		}
	}
	return nil
}

// notify sends the operator summary. Failures are only logged.
func (s *SubmissionService) notify(ctx context.Context, id int64, formType string, data model.FormData, client ClientInfo) {
	if s.notifier == nil || s.operator == "" {
		return
	}
	subject := fmt.Sprintf("New %s form submission", formType)
	if err := s.notifier.Send(ctx, s.operator, subject, notificationBody(id, formType, data, client)); err != nil {
		slog.Error("failed to send submission notification", "error", err, "submission_id", id)
	}
}

func notificationBody(id int64, formType string, data model.FormData, client ClientInfo) string {
	var b strings.Builder
	b.WriteString("New form submission received:\n\n")
	b.WriteString("Form Type: " + formType + "\n")
	b.WriteString("Submission ID: " + strconv.FormatInt(id, 10) + "\n")
	if client.UserAgent != "" {
		ua := useragent.Parse(client.UserAgent)
		b.WriteString("Client: " + describeClient(ua) + "\n")
	}
	b.WriteString("\n")
	for _, f := range data {
		if f.Key == formTypeKey {
			continue
		}
		b.WriteString(humanize(f.Key) + ": " + model.FormatFormValue(f.Value) + "\n")
	}
	return b.String()
}

func describeClient(ua useragent.UserAgent) string {
	browser := strings.TrimSpace(ua.Name + " " + ua.Version)
	if browser == "" {
		browser = "Unknown browser"
	}
	platform := strings.TrimSpace(ua.OS + " " + ua.OSVersion)
	if platform == "" {
		return browser
	}
	return browser + " on " + platform
}

// runHook applies per-type follow-ups. Errors are logged and swallowed.
func (s *SubmissionService) runHook(ctx context.Context, formType string, data model.FormData, client ClientInfo) {
	switch formType {
	case model.FormTypeNewsletter:
		if s.newsletter == nil {
			return
		}
		_, err := s.newsletter.Subscribe(ctx, field(data, "email"), field(data, "name"), SourceFormSubmission, client.IP)
		if err != nil && !errors.Is(err, ErrAlreadySubscribed) {
			slog.Warn("newsletter hook failed", "error", err)
		}
	}
}

// List returns submissions matching params, newest first. Editor or admin.
func (s *SubmissionService) List(ctx context.Context, id auth.Identity, params SubmissionListParams) ([]Submission, ListMeta, error) {
	if err := authorize(id, auth.CapSubmissionsRead, s.now()); err != nil {
		return nil, ListMeta{}, err
	}

	filter, paging, err := s.filter(params)
	if err != nil {
		return nil, ListMeta{}, err
	}

	rows, err := s.queries.ListFormSubmissions(ctx, filter)
	if err != nil {
		return nil, ListMeta{}, fmt.Errorf("listing submissions: %w", err)
	}

	total := int64(len(rows))
	if paging.PerPage > 0 {
		if total, err = s.queries.CountFormSubmissions(ctx, filter); err != nil {
			return nil, ListMeta{}, fmt.Errorf("counting submissions: %w", err)
		}
	}

	out := make([]Submission, len(rows))
	for i, row := range rows {
		out[i] = submissionView(row)
	}
	return out, paging.meta(total), nil
}

// Get returns submission n. Editor or admin.
func (s *SubmissionService) Get(ctx context.Context, id auth.Identity, n int64) (Submission, error) {
	if err := authorize(id, auth.CapSubmissionsRead, s.now()); err != nil {
		return Submission{}, err
	}
	row, err := s.queries.GetFormSubmission(ctx, n)
	if err != nil {
		return Submission{}, notFound(err, "submission")
	}
	return submissionView(row), nil
}

// UpdateStatus moves submission n to status. Editor or admin.
func (s *SubmissionService) UpdateStatus(ctx context.Context, id auth.Identity, n int64, status string) error {
	if err := authorize(id, auth.CapSubmissionsManage, s.now()); err != nil {
		return err
	}
	if !model.IsValidSubmissionStatus(status) {
		return fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	if err := s.queries.UpdateFormSubmissionStatus(ctx, n, status, s.now()); err != nil {
		return notFound(err, "submission")
	}
	if s.events != nil {
		_ = s.events.LogSubmissionEvent(ctx, "Submission status updated", id.UserID, map[string]any{
			"submission_id": n,
			"status":        status,
		})
	}
	return nil
}

// Delete removes submission n permanently. Admin only.
func (s *SubmissionService) Delete(ctx context.Context, id auth.Identity, n int64) error {
	if err := authorize(id, auth.CapSubmissionsDelete, s.now()); err != nil {
		return err
	}
	if err := s.queries.DeleteFormSubmission(ctx, n); err != nil {
		return notFound(err, "submission")
	}
	if s.events != nil {
		_ = s.events.LogSubmissionEvent(ctx, "Submission deleted", id.UserID, map[string]any{"submission_id": n})
	}
	return nil
}

// filter validates list params. DateTo is extended to the end of its day.
func (s *SubmissionService) filter(p SubmissionListParams) (store.SubmissionFilter, Paging, error) {
	paging, limit, offset := p.Paging.normalize()
	f := store.SubmissionFilter{
		FormType: strings.TrimSpace(p.FormType),
		Status:   strings.TrimSpace(p.Status),
		Search:   strings.TrimSpace(p.Search),
		Limit:    limit,
		Offset:   offset,
	}
	if f.Status != "" && !model.IsValidSubmissionStatus(f.Status) {
		return f, paging, fmt.Errorf("%w %q", ErrInvalidStatus, f.Status)
	}
	if p.DateFrom != "" {
		from, err := parseDate("date_from", p.DateFrom)
		if err != nil {
			return f, paging, err
		}
		f.CreatedFrom = from
	}
	if p.DateTo != "" {
		to, err := parseDate("date_to", p.DateTo)
		if err != nil {
			return f, paging, err
		}
		f.CreatedBefore = to.AddDate(0, 0, 1)
	}
	if !f.CreatedFrom.IsZero() && !f.CreatedBefore.IsZero() && !f.CreatedFrom.Before(f.CreatedBefore) {
		return f, paging, validationError("date_from", "Start date must not be after end date")
	}
	return f, paging, nil
}

func submissionView(row store.FormSubmission) Submission {
	return Submission{
		ID:        row.ID,
		FormType:  row.FormType,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Subject:   row.Subject,
		Message:   row.Message,
		FormData:  row.FormData,
		Status:    row.Status,
		IPAddress: row.IPAddress,
		UserAgent: row.UserAgent,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// field returns the trimmed string form of key, or "".
func field(data model.FormData, key string) string {
	v, _ := data.Get(key)
	return strings.TrimSpace(v)
}

// humanize turns a payload key into a label: "first_name" -> "First name".
func humanize(key string) string {
	label := strings.ReplaceAll(key, "_", " ")
	r, size := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return label
	}
	return string(unicode.ToUpper(r)) + label[size:]
}
