// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/session"
)

// SessionResponse is returned by login and me.
type SessionResponse struct {
	User      service.UserProfile `json:"user"`
	CSRFToken string              `json:"csrf_token"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// CheckResponse is returned by check.
type CheckResponse struct {
	Authenticated bool                 `json:"authenticated"`
	User          *service.UserProfile `json:"user"`
}

// CSRFTokenResponse is returned by csrf-token.
type CSRFTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// ChangePasswordRequest is the body of change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	payload, err := readPayload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	email, _ := payload.Get("email")
	password, _ := payload.Get("password")
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		WriteError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	if locked, remaining := h.loginProtection.IsAccountLocked(email); locked {
		writeLocked(w, remaining)
		return
	}

	client := clientInfo(r)
	id, err := h.svc.Auth.Login(r.Context(), email, password, client)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			if nowLocked, lockout := h.loginProtection.RecordFailedAttempt(email); nowLocked {
				slog.Warn("account locked after failed logins", "email", email, "ip", client.IP, "lockout", lockout)
				writeLocked(w, lockout)
				return
			}
		}
		h.fail(w, r, err)
		return
	}

	if err := session.SaveIdentity(r.Context(), h.sm, id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.loginProtection.RecordSuccessfulLogin(email)

	profile, err := h.svc.Auth.CurrentUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Login successful",
		Data: SessionResponse{
			User:      profile,
			CSRFToken: id.CSRFToken,
			ExpiresAt: id.ExpiresAt(),
		},
	})
}

func writeLocked(w http.ResponseWriter, remaining time.Duration) {
	minutes := int(math.Ceil(remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
	WriteError(w, http.StatusTooManyRequests,
		fmt.Sprintf("Too many failed login attempts. Try again in %d minute(s).", minutes))
}

// Logout handles POST /api/auth/logout. It succeeds for anonymous callers too.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Auth.Logout(r.Context(), middleware.GetIdentity(r), clientInfo(r))

	if err := session.Destroy(r.Context(), h.sm); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteMessage(w, "Logged out successfully")
}

// ChangePassword handles POST /api/auth/change-password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	if !id.IsAuthenticated(h.now()) {
		h.fail(w, r, service.ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		WriteError(w, http.StatusBadRequest, "Current password and new password are required")
		return
	}

	if err := h.svc.Auth.ChangePassword(r.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteMessage(w, "Password changed successfully")
}

// CreateUser handles POST /api/auth/create-user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.svc.Auth.CreateUser(r.Context(), middleware.GetIdentity(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteCreated(w, profile, "User created successfully")
}

// Me handles GET /api/auth/me. A session without a CSRF token gets one.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	profile, err := h.svc.Auth.CurrentUser(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if id.CSRFToken == "" {
		if id.CSRFToken, err = h.issueCSRFToken(r); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	WriteSuccess(w, SessionResponse{
		User:      profile,
		CSRFToken: id.CSRFToken,
		ExpiresAt: id.ExpiresAt(),
	}, nil)
}

// RotateCSRFToken handles POST /api/auth/csrf-token. The new token replaces
// the old one immediately.
func (h *Handler) RotateCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.issueCSRFToken(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, CSRFTokenResponse{CSRFToken: token}, nil)
}

func (h *Handler) issueCSRFToken(r *http.Request) (string, error) {
	token, err := auth.NewCSRFToken()
	if err != nil {
		return "", fmt.Errorf("generating CSRF token: %w", err)
	}
	session.SetCSRFToken(r.Context(), h.sm, token)
	return token, nil
}

// Check handles GET /api/auth/check. It never fails for anonymous callers.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	id := middleware.GetIdentity(r)
	resp := CheckResponse{}
	if id.IsAuthenticated(h.now()) {
		profile, err := h.svc.Auth.CurrentUser(r.Context(), id)
		if err == nil {
			resp.Authenticated = true
			resp.User = &profile
		}
	}
	WriteSuccess(w, resp, nil)
}
