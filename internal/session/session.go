// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie session manager and maps the
// caller identity to and from session data.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/folio-go/internal/auth"
)

// Session data keys.
const (
	KeyUserID      = "user_id"
	KeyUsername    = "username"
	KeyEmail       = "email"
	KeyRole        = "role"
	KeyDisplayName = "display_name"
	// KeyLoginAt holds Unix nanoseconds. The gob codec only encodes
	// unregistered interface values of builtin types.
	KeyLoginAt     = "login_at"
	KeyCSRFToken   = "csrf_token"
)

// New creates a session manager backed by the sessions table.
// Lifetime is absolute and matches auth.SessionLifetime; there is no idle
// timeout, so activity never extends a session.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.New(db)

	sm.Lifetime = auth.SessionLifetime
	sm.Cookie.Name = "folio_session"
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	if !isDev {
		// __Host- prefix pins the cookie to this origin over HTTPS.
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// SaveIdentity renews the session token and stores id in the session.
func SaveIdentity(ctx context.Context, sm *scs.SessionManager, id auth.Identity) error {
	if err := sm.RenewToken(ctx); err != nil {
		return fmt.Errorf("renewing session token: %w", err)
	}

	sm.Put(ctx, KeyUserID, id.UserID)
	sm.Put(ctx, KeyUsername, id.Username)
	sm.Put(ctx, KeyEmail, id.Email)
	sm.Put(ctx, KeyRole, id.Role)
	sm.Put(ctx, KeyDisplayName, id.DisplayName)
	sm.Put(ctx, KeyLoginAt, id.LoginAt.UnixNano())
	sm.Put(ctx, KeyCSRFToken, id.CSRFToken)
	return nil
}

// LoadIdentity reads the stored identity. ok is false when the session holds
// no login. Expiry is not evaluated here.
func LoadIdentity(ctx context.Context, sm *scs.SessionManager) (id auth.Identity, ok bool) {
	userID := sm.GetInt64(ctx, KeyUserID)
	if userID == 0 {
		return auth.Anonymous(), false
	}

	return auth.Identity{
		UserID:      userID,
		Username:    sm.GetString(ctx, KeyUsername),
		Email:       sm.GetString(ctx, KeyEmail),
		Role:        sm.GetString(ctx, KeyRole),
		DisplayName: sm.GetString(ctx, KeyDisplayName),
		LoginAt:     time.Unix(0, sm.GetInt64(ctx, KeyLoginAt)).UTC(),
		CSRFToken:   sm.GetString(ctx, KeyCSRFToken),
	}, true
}

// SetCSRFToken replaces the session CSRF token.
func SetCSRFToken(ctx context.Context, sm *scs.SessionManager, token string) {
	sm.Put(ctx, KeyCSRFToken, token)
}

// Destroy removes the session and its cookie.
func Destroy(ctx context.Context, sm *scs.SessionManager) error {
	if err := sm.Destroy(ctx); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}
	return nil
}
