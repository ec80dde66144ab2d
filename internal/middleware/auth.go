// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyIdentity   ContextKey = "identity"
	ContextKeyRequestURL ContextKey = "request_url"
)

// errorBody is the failure envelope shared with the API handlers.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteError writes a JSON failure envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Success: false, Message: message})
}

// LoadIdentity builds the caller identity once per request and stores it in
// the context. A session whose login is older than the session lifetime is
// destroyed and the request continues anonymously.
func LoadIdentity(sm *scs.SessionManager, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := session.LoadIdentity(r.Context(), sm)
			if ok && !id.IsAuthenticated(now()) {
				slog.Debug("session expired", "user_id", id.UserID, "login_at", id.LoginAt)
				if err := session.Destroy(r.Context(), sm); err != nil {
					slog.Error("failed to destroy expired session", "error", err)
				}
				id = auth.Anonymous()
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, id)
			ctx = context.WithValue(ctx, ContextKeyRequestURL, r.URL.RequestURI())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the caller identity from the request context, or the
// anonymous identity when none was loaded.
func GetIdentity(r *http.Request) auth.Identity {
	return IdentityFromContext(r.Context())
}

// IdentityFromContext returns the caller identity stored in ctx.
func IdentityFromContext(ctx context.Context) auth.Identity {
	if id, ok := ctx.Value(ContextKeyIdentity).(auth.Identity); ok {
		return id
	}
	return auth.Anonymous()
}

// GetRequestURL returns the request URI recorded by LoadIdentity.
func GetRequestURL(ctx context.Context) string {
	if u, ok := ctx.Value(ContextKeyRequestURL).(string); ok {
		return u
	}
	return ""
}

// RequireAuth rejects requests without a valid login with 401.
func RequireAuth(now func() time.Time) func(http.Handler) http.Handler {
	return RequireRole("", now)
}

// RequireRole rejects callers whose capabilities do not contain those of
// role with 403, and callers without a valid login with 401. An empty role
// only requires a login.
func RequireRole(role string, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetIdentity(r)
			if !id.IsAuthenticated(now()) {
				WriteError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if role != "" && !id.HasRole(role) {
				slog.Warn("access denied",
					"user_id", id.UserID,
					"role", id.Role,
					"required", role,
					"path", r.URL.Path,
				)
				WriteError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
