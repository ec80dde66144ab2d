// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON handlers behind /api.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/util"
)

// Services bundles the business services the handlers call.
type Services struct {
	Auth        *service.AuthService
	Portfolio   *service.PortfolioService
	Blog        *service.BlogService
	Catalog     *service.CatalogService
	Submissions *service.SubmissionService
	Newsletter  *service.NewsletterService
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	sm              *scs.SessionManager
	svc             Services
	loginProtection *middleware.LoginProtection
	formLimiter     *middleware.IPRateLimiter
	now             func() time.Time
}

// Config wires a Handler.
type Config struct {
	Sessions        *scs.SessionManager
	Services        Services
	LoginProtection *middleware.LoginProtection
	// FormLimiter throttles anonymous submit and subscribe calls. Nil disables it.
	FormLimiter *middleware.IPRateLimiter
	Now         func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	now := cfg.Now
	if now == nil {
		now = service.SystemClock
	}
	lp := cfg.LoginProtection
	if lp == nil {
		lp = middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	}
	return &Handler{
		sm:              cfg.Sessions,
		svc:             cfg.Services,
		loginProtection: lp,
		formLimiter:     cfg.FormLimiter,
		now:             now,
	}
}

// Response is the envelope of every API response.
type Response struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Meta    *service.ListMeta `json:"meta,omitempty"`
}

// WriteJSON writes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteSuccess writes a 200 envelope.
func WriteSuccess(w http.ResponseWriter, data any, meta *service.ListMeta) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: data, Meta: meta})
}

// WriteCreated writes a 201 envelope.
func WriteCreated(w http.ResponseWriter, data any, message string) {
	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: data, Message: message})
}

// WriteMessage writes a 200 envelope carrying only a message.
func WriteMessage(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, Response{Success: true, Message: message})
}

// WriteError writes a failure envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	middleware.WriteError(w, status, message)
}

// fail maps a service error to a status and a message safe to show.
// Anything unrecognized is logged and reported as a bare 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, model.ErrUnsupportedFormValue):
		WriteError(w, http.StatusBadRequest, "Form values must be strings, numbers or booleans")
	case errors.Is(err, errInvalidBody):
		WriteError(w, http.StatusBadRequest, "Invalid request body")
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrWrongPassword):
		WriteError(w, http.StatusBadRequest, sentence(err))
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "Insufficient permissions")
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, sentence(err))
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrAlreadySubscribed):
		WriteError(w, http.StatusConflict, sentence(err))
	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", middleware.GetIdentity(r).UserID,
		)
		WriteError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

// sentence capitalizes a service error for display.
func sentence(err error) string {
	msg := err.Error()
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}

// clientInfo captures the caller address and user agent.
func clientInfo(r *http.Request) service.ClientInfo {
	return service.ClientInfo{
		IP:        util.ClientIP(r),
		UserAgent: strings.TrimSpace(r.UserAgent()),
	}
}
