// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
)

// UserProfile is the API view of an account.
type UserProfile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	IsActive    bool   `json:"is_active"`
}

// CreateUserInput holds the fields of a new account.
type CreateUserInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// AuthService verifies credentials and manages accounts.
type AuthService struct {
	queries *store.Queries
	events  *EventService
	now     Clock
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sql.DB, events *EventService) *AuthService {
	return &AuthService{
		queries: store.New(db),
		events:  events,
		now:     SystemClock,
	}
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// equalizeTiming spends one password verification so unknown emails take
// as long as wrong passwords.
func equalizeTiming(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("folio-timing-placeholder")
	})
	_, _ = auth.CheckPassword(password, dummyHash)
}

// Login verifies email and password against active accounts and returns the
// new identity. Every failure is ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string, client ClientInfo) (auth.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return auth.Identity{}, ErrInvalidCredentials
	}

	user, err := s.queries.GetActiveUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("database error during login", "error", err)
			return auth.Identity{}, fmt.Errorf("loading user: %w", err)
		}
		equalizeTiming(password)
		slog.Debug("login attempt for unknown or inactive user", "email", email)
		s.logAuth(ctx, model.EventLevelWarning, "Login failed: user not found", 0, client, map[string]any{"email": email})
		return auth.Identity{}, ErrInvalidCredentials
	}

	valid, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		slog.Error("password check error", "error", err, "user_id", user.ID)
		return auth.Identity{}, ErrInvalidCredentials
	}
	if !valid {
		slog.Debug("invalid password attempt", "email", email)
		s.logAuth(ctx, model.EventLevelWarning, "Login failed: invalid password", user.ID, client, map[string]any{"email": email})
		return auth.Identity{}, ErrInvalidCredentials
	}

	now := s.now()
	if auth.NeedsRehash(user.PasswordHash) {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateUserPassword(ctx, user.ID, hash, now); err != nil {
				slog.Error("failed to upgrade password hash", "error", err, "user_id", user.ID)
			}
		}
	}
	if err := s.queries.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		slog.Error("failed to update last login", "error", err, "user_id", user.ID)
	}

	token, err := auth.NewCSRFToken()
	if err != nil {
		return auth.Identity{}, err
	}

	s.logAuth(ctx, model.EventLevelInfo, "User logged in", user.ID, client, map[string]any{"email": email})
	return auth.Identity{
		UserID:      user.ID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		DisplayName: user.DisplayName(),
		LoginAt:     now,
		CSRFToken:   token,
	}, nil
}

// Logout records the end of a session. Session state is destroyed by the caller.
func (s *AuthService) Logout(ctx context.Context, id auth.Identity, client ClientInfo) {
	if id.UserID == 0 {
		return
	}
	s.logAuth(ctx, model.EventLevelInfo, "User logged out", id.UserID, client, nil)
}

// ChangePassword replaces the caller's password after re-checking current.
func (s *AuthService) ChangePassword(ctx context.Context, id auth.Identity, current, next string) error {
	now := s.now()
	if !id.IsAuthenticated(now) {
		return ErrUnauthorized
	}
	if current == "" || next == "" {
		return validationError("password", "Current and new password are required")
	}
	if len(next) < auth.MinPasswordLength {
		return validationError("new_password", fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}

	user, err := s.queries.GetUserByID(ctx, id.UserID)
	if err != nil {
		return notFound(err, "user")
	}
	valid, err := auth.CheckPassword(current, user.PasswordHash)
	if err != nil || !valid {
		return ErrWrongPassword
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.queries.UpdateUserPassword(ctx, user.ID, hash, now); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	if s.events != nil {
		_ = s.events.LogUserEvent(ctx, "Password changed", user.ID, nil)
	}
	return nil
}

// CreateUser adds an account. Admin only.
func (s *AuthService) CreateUser(ctx context.Context, id auth.Identity, in CreateUserInput) (UserProfile, error) {
	now := s.now()
	if err := authorize(id, auth.CapUsersCreate, now); err != nil {
		return UserProfile{}, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Role = strings.TrimSpace(in.Role)

	required := []struct{ field, value string }{
		{"username", in.Username},
		{"email", in.Email},
		{"password", in.Password},
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
	}
	for _, r := range required {
		if r.value == "" {
			return UserProfile{}, validationError(r.field, "This field is required")
		}
	}
	if !isEmail(in.Email) {
		return UserProfile{}, validationError("email", "Invalid email address")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return UserProfile{}, validationError("password", fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
	}
	if in.Role == "" {
		in.Role = model.RoleEditor
	}
	if !model.IsValidRole(in.Role) {
		return UserProfile{}, validationError("role", "Role must be admin or editor")
	}

	n, err := s.queries.CountUsersByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return UserProfile{}, fmt.Errorf("checking existing users: %w", err)
	}
	if n > 0 {
		return UserProfile{}, fmt.Errorf("user with this email or username %w", ErrConflict)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return UserProfile{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		CreatedAt:    now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return UserProfile{}, fmt.Errorf("user with this email or username %w", ErrConflict)
		}
		return UserProfile{}, fmt.Errorf("creating user: %w", err)
	}

	if s.events != nil {
		_ = s.events.LogUserEvent(ctx, "User created", id.UserID, map[string]any{
			"user_id": user.ID,
			"email":   user.Email,
			"role":    user.Role,
		})
	}
	return profileOf(user), nil
}

// CurrentUser returns the caller's account.
func (s *AuthService) CurrentUser(ctx context.Context, id auth.Identity) (UserProfile, error) {
	if !id.IsAuthenticated(s.now()) {
		return UserProfile{}, ErrUnauthorized
	}
	user, err := s.queries.GetUserByID(ctx, id.UserID)
	if err != nil {
		return UserProfile{}, notFound(err, "user")
	}
	return profileOf(user), nil
}

func (s *AuthService) logAuth(ctx context.Context, level, message string, userID int64, client ClientInfo, metadata map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.LogAuthEvent(ctx, level, message, userID, client.IP, metadata)
}

func profileOf(u store.User) UserProfile {
	return UserProfile{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
		Role:        u.Role,
		IsActive:    u.IsActive,
	}
}

// isEmail accepts a bare address only, rejecting display-name forms.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}
