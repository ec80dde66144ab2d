// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
)

type sentMessage struct {
	to, subject, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{to, subject, body})
	return n.err
}

func newSubmissionService(t *testing.T, f *fixture, n *recordingNotifier) *SubmissionService {
	t.Helper()
	cfg := SubmissionConfig{
		Newsletter:    NewNewsletterService(f.db, f.events),
		OperatorEmail: "ops@example.com",
		ExportsDir:    filepath.Join(t.TempDir(), "exports"),
	}
	if n != nil {
		cfg.Notifier = n
	}
	return NewSubmissionService(f.db, f.events, cfg)
}

func formData(t *testing.T, raw string) model.FormData {
	t.Helper()
	var d model.FormData
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return d
}

const firefoxUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0"

func TestSubmitContact(t *testing.T) {
	f := newFixture(t)
	n := &recordingNotifier{}
	svc := newSubmissionService(t, f, n)
	ctx := context.Background()

	data := formData(t, `{"name":"Ann","email":"ann@example.com","message":"Hi there","first_name":"Ann","budget":1500,"agree":true}`)
	id, err := svc.Submit(ctx, "contact", data, ClientInfo{IP: "192.0.2.7", UserAgent: firefoxUA})
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := svc.Get(ctx, f.editor, id)
	require.NoError(t, err)
	assert.Equal(t, "contact", got.FormType)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, "ann@example.com", got.Email)
	assert.Equal(t, model.SubmissionStatusNew, got.Status)
	assert.Equal(t, "192.0.2.7", got.IPAddress)
	assert.Equal(t, []string{"name", "email", "message", "first_name", "budget", "agree"}, got.FormData.Keys())

	require.Len(t, n.sent, 1)
	msg := n.sent[0]
	assert.Equal(t, "ops@example.com", msg.to)
	assert.Equal(t, "New contact form submission", msg.subject)
	assert.Contains(t, msg.body, "Form Type: contact\n")
	assert.Contains(t, msg.body, "First name: Ann\n")
	assert.Contains(t, msg.body, "Budget: 1500\n")
	assert.Contains(t, msg.body, "Agree: true\n")
	assert.Contains(t, msg.body, "Firefox")
	assert.Contains(t, msg.body, "Windows")
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	svc := newSubmissionService(t, f, &recordingNotifier{})
	ctx := context.Background()

	tests := []struct {
		name     string
		formType string
		raw      string
		field    string
	}{
		{"missing form type", "", `{"email":"a@example.com"}`, "form_type"},
		{"contact without message", "contact", `{"name":"A","email":"a@example.com"}`, "message"},
		{"blank required value", "lead_magnet", `{"name":"  ","email":"a@example.com"}`, "name"},
		{"bad email", "pricing_estimator", `{"email":"not-an-email"}`, "email"},
		{"bad secondary email", "custom", `{"contact_email":"nope"}`, "contact_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(ctx, tt.formType, formData(t, tt.raw), ClientInfo{})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// Unknown form types skip the required-field table.
	_, err := svc.Submit(ctx, "quote_request", formData(t, `{"budget":"5k"}`), ClientInfo{})
	assert.NoError(t, err)
}

func TestSubmitSurvivesNotifierFailure(t *testing.T) {
	f := newFixture(t)
	n := &recordingNotifier{err: errors.New("smtp down")}
	svc := newSubmissionService(t, f, n)

	id, err := svc.Submit(context.Background(), "newsletter", formData(t, `{"email":"reader@example.com","name":"Reader"}`), ClientInfo{IP: "198.51.100.1"})
	require.NoError(t, err)
	assert.Positive(t, id)
	assert.Len(t, n.sent, 1)

	// The newsletter hook subscribed the address.
	subs, err := svc.newsletter.List(context.Background(), f.editor, "")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "reader@example.com", subs[0].Email)
	assert.Equal(t, SourceFormSubmission, subs[0].Source)

	// A second newsletter submission for the same address still succeeds.
	_, err = svc.Submit(context.Background(), "newsletter", formData(t, `{"email":"reader@example.com"}`), ClientInfo{})
	assert.NoError(t, err)
}

func TestSubmissionManagement(t *testing.T) {
	f := newFixture(t)
	svc := newSubmissionService(t, f, &recordingNotifier{})
	ctx := context.Background()

	id, err := svc.Submit(ctx, "contact", formData(t, `{"name":"A","email":"a@example.com","message":"m"}`), ClientInfo{})
	require.NoError(t, err)

	_, err = svc.Get(ctx, auth.Anonymous(), id)
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.ErrorIs(t, svc.UpdateStatus(ctx, f.editor, id, "spam"), ErrInvalidStatus)
	assert.ErrorIs(t, svc.UpdateStatus(ctx, f.editor, 9999, model.SubmissionStatusRead), ErrNotFound)
	require.NoError(t, svc.UpdateStatus(ctx, f.editor, id, model.SubmissionStatusReplied))

	got, err := svc.Get(ctx, f.editor, id)
	require.NoError(t, err)
	assert.Equal(t, model.SubmissionStatusReplied, got.Status)

	assert.ErrorIs(t, svc.Delete(ctx, f.editor, id), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, f.admin, id))
	assert.ErrorIs(t, svc.Delete(ctx, f.admin, id), ErrNotFound)
}

func TestListSubmissionsFilters(t *testing.T) {
	f := newFixture(t)
	svc := newSubmissionService(t, f, nil)
	ctx := context.Background()

	days := []time.Time{
		time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 5, 2, 23, 59, 0, 0, time.UTC),
		time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC),
	}
	for i, day := range days {
		svc.now = func() time.Time { return day }
		formType := "contact"
		if i == 2 {
			formType = "lead_magnet"
		}
		_, err := svc.Submit(ctx, formType, formData(t, `{"name":"N","email":"n@example.com","message":"hello"}`), ClientInfo{})
		require.NoError(t, err)
	}
	svc.now = SystemClock

	tests := []struct {
		name   string
		params SubmissionListParams
		want   int
	}{
		{"all", SubmissionListParams{}, 3},
		{"single day inclusive", SubmissionListParams{DateFrom: "2026-05-02", DateTo: "2026-05-02"}, 1},
		{"open end", SubmissionListParams{DateFrom: "2026-05-02"}, 2},
		{"form type", SubmissionListParams{FormType: "lead_magnet"}, 1},
		{"status", SubmissionListParams{Status: "archived"}, 0},
		{"search", SubmissionListParams{Search: "hello"}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, meta, err := svc.List(ctx, f.editor, tt.params)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
			assert.Equal(t, int64(tt.want), meta.Total)
		})
	}

	got, _, err := svc.List(ctx, f.editor, SubmissionListParams{})
	require.NoError(t, err)
	assert.Equal(t, "lead_magnet", got[0].FormType, "newest first")

	_, _, err = svc.List(ctx, f.editor, SubmissionListParams{DateFrom: "2026-05-03", DateTo: "2026-05-01"})
	assert.True(t, IsValidation(err))
	_, _, err = svc.List(ctx, f.editor, SubmissionListParams{DateTo: "yesterday"})
	assert.True(t, IsValidation(err))
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	svc := newSubmissionService(t, f, nil)
	ctx := context.Background()

	empty, err := svc.Export(ctx, f.editor, SubmissionListParams{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Rows)
	assert.Regexp(t, exportNamePattern, empty.Filename)

	_, err = svc.Submit(ctx, "contact", formData(t, `{"name":"=HYPERLINK(\"x\")","email":"a@example.com","phone":"+44 20 7946 0958","message":"line1\nline2"}`), ClientInfo{IP: "203.0.113.9"})
	require.NoError(t, err)

	file, err := svc.Export(ctx, f.editor, SubmissionListParams{FormType: "contact"})
	require.NoError(t, err)
	assert.Equal(t, 1, file.Rows)
	assert.NotEqual(t, empty.Filename, file.Filename)

	fh, err := svc.OpenExport(ctx, f.editor, file.Filename)
	require.NoError(t, err)
	defer func() { _ = fh.Close() }()

	records, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, "'=HYPERLINK(\"x\")", records[1][2])
	assert.Equal(t, "+44 20 7946 0958", records[1][4])
	assert.Equal(t, "line1\nline2", records[1][6])
	assert.Equal(t, "203.0.113.9", records[1][8])

	emptyFile, err := svc.OpenExport(ctx, f.editor, empty.Filename)
	require.NoError(t, err)
	records, err = csv.NewReader(emptyFile).ReadAll()
	_ = emptyFile.Close()
	require.NoError(t, err)
	assert.Len(t, records, 1, "zero rows still writes the header")
}

func TestOpenExportRejectsForeignNames(t *testing.T) {
	f := newFixture(t)
	svc := newSubmissionService(t, f, nil)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(svc.exportsDir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(svc.exportsDir, "secrets.csv"), []byte("x"), 0o600))

	for _, name := range []string{"secrets.csv", "../folio.db", "form_submissions_2026-01-01_00-00-00_deadbeef.csv"} {
		_, err := svc.OpenExport(ctx, f.editor, name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}

	_, err := svc.OpenExport(ctx, auth.Anonymous(), "form_submissions_2026-01-01_00-00-00_deadbeef.csv")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPhoneCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+44 20 7946 0958", "+44 20 7946 0958"},
		{"+1 (555) 010-9999", "+1 (555) 010-9999"},
		{"+49.30.123456", "+49.30.123456"},
		{"555 0100", "555 0100"},
		{"+SUM(A1:A9)", "'+SUM(A1:A9)"},
		{"+1|cmd", "'+1|cmd"},
		{"=1+1", "'=1+1"},
		{"-12", "'-12"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := phoneCell(tt.in); got != tt.want {
			t.Errorf("phoneCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestHumanize(t *testing.T) {
	tests := map[string]string{
		"email":       "Email",
		"first_name":  "First name",
		"project_url": "Project url",
		"":            "",
	}
	for in, want := range tests {
		if got := humanize(in); got != want {
			t.Errorf("humanize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCSVCell(t *testing.T) {
	for in, want := range map[string]string{
		"=1+1":  "'=1+1",
		"+49":   "'+49",
		"-x":    "'-x",
		"@cmd":  "'@cmd",
		"plain": "plain",
		"":      "",
	} {
		if got := csvCell(in); got != want {
			t.Errorf("csvCell(%q) = %q, want %q", in, got, want)
		}
	}
	if !strings.HasPrefix(exportFilename(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)), "form_submissions_2026-01-02_03-04-05_") {
		t.Error("exportFilename() has unexpected prefix")
	}
}
