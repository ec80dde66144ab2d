package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/testutil"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool { return &b }
func int64Ptr(n int64) *int64 { return &n }
func floatPtr(f float64) *float64 { return &f }

// fixture holds a migrated database with one admin and one editor.
type fixture struct {
	db     *sql.DB
	admin  auth.Identity
	editor auth.Identity
	events *EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	return &fixture{
		db:     db,
		admin:  testutil.Identity(testutil.CreateUser(t, db, "admin@example.com", "admin-password", model.RoleAdmin)),
		editor: testutil.Identity(testutil.CreateUser(t, db, "editor@example.com", "editor-password", model.RoleEditor)),
		events: NewEventService(db),
	}
}

// expired returns id with a login older than the session lifetime.
func expired(id auth.Identity) auth.Identity {
	id.LoginAt = time.Now().UTC().Add(-auth.SessionLifetime - time.Second)
	return id
}

type fakeMedia map[int64]MediaRef

func (m fakeMedia) Resolve(_ context.Context, id int64) (MediaRef, error) {
	ref, ok := m[id]
	if !ok {
		return MediaRef{}, ErrNotFound
	}
	return ref, nil
}
