// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "time"

// SessionLifetime is the fixed authentication window measured from login.
// Activity does not extend it.
const SessionLifetime = 24 * time.Hour

// Identity is the caller of a single request. It is built once when the
// request enters and passed explicitly to every service call. The zero value
// is an anonymous caller.
type Identity struct {
	UserID      int64
	Username    string
	Email       string
	Role        string
	DisplayName string
	LoginAt     time.Time
	CSRFToken   string
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous() Identity {
	return Identity{}
}

// IsAuthenticated reports whether the identity holds a login that is still
// inside SessionLifetime at now.
func (id Identity) IsAuthenticated(now time.Time) bool {
	if id.UserID == 0 || id.LoginAt.IsZero() {
		return false
	}
	return now.Sub(id.LoginAt) < SessionLifetime
}

// ExpiresAt is the instant the login stops being valid.
func (id Identity) ExpiresAt() time.Time {
	return id.LoginAt.Add(SessionLifetime)
}

// HasRole reports whether the identity's capabilities contain those of
// required. Admin satisfies every role; anonymous satisfies none.
func (id Identity) HasRole(required string) bool {
	if id.UserID == 0 {
		return false
	}
	return RoleSatisfies(id.Role, required)
}

// Can reports whether the identity holds capability c.
func (id Identity) Can(c Capability) bool {
	if id.UserID == 0 {
		return false
	}
	return CapabilitiesFor(id.Role).Has(c)
}
