// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
)

// Default admin account, used when no credentials are configured.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme1234"
)

// SeedConfig controls initial data creation.
type SeedConfig struct {
	AdminEmail    string
	AdminPassword string
	// Demo adds sample services, portfolio items and posts to an empty database.
	Demo bool
}

// Seed creates the first admin account when the users table is empty.
func Seed(ctx context.Context, db *sql.DB, cfg SeedConfig) error {
	queries := New(db)

	count, err := queries.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}

	if count == 0 {
		if err := seedAdmin(ctx, queries, cfg); err != nil {
			return err
		}
	} else {
		slog.Info("users exist, skipping admin seed", "count", count)
	}

	if cfg.Demo {
		return SeedDemo(ctx, db)
	}
	return nil
}

func seedAdmin(ctx context.Context, queries *Queries, cfg SeedConfig) error {
	email := cfg.AdminEmail
	if email == "" {
		email = DefaultAdminEmail
	}
	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		password = DefaultAdminPassword
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     DefaultAdminUsername,
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    "Site",
		LastName:     "Administrator",
		Role:         model.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	if generated {
		slog.Warn("created default admin user, change the password",
			"id", user.ID,
			"email", user.Email,
			"category", model.EventCategoryUser,
		)
		return nil
	}
	slog.Info("created admin user", "id", user.ID, "email", user.Email)
	return nil
}
