// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and value types shared by the
// store, service and handler layers: roles, statuses, JSON list columns and
// ordered form payloads.
package model

// User roles.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// IsValidRole reports whether role is one a user account may hold.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEditor
}
