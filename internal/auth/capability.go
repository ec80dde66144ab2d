// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import "github.com/olegiv/folio-go/internal/model"

// Capability is a single permitted action.
type Capability string

// Capabilities granted to staff roles.
const (
	CapContentWrite      Capability = "content.write"
	CapContentDelete     Capability = "content.delete"
	CapSubmissionsRead   Capability = "submissions.read"
	CapSubmissionsManage Capability = "submissions.manage"
	CapSubmissionsDelete Capability = "submissions.delete"
	CapSubscribersRead   Capability = "subscribers.read"
	CapSubscribersManage Capability = "subscribers.manage"
	CapUsersCreate       Capability = "users.create"
)

// CapabilitySet is an unordered set of capabilities.
type CapabilitySet map[Capability]struct{}

func newCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func (s CapabilitySet) union(other CapabilitySet) CapabilitySet {
	out := make(CapabilitySet, len(s)+len(other))
	for c := range s {
		out[c] = struct{}{}
	}
	for c := range other {
		out[c] = struct{}{}
	}
	return out
}

// Has reports whether c is in the set.
func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Contains reports whether every capability of other is in s.
func (s CapabilitySet) Contains(other CapabilitySet) bool {
	for c := range other {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

var editorCapabilities = newCapabilitySet(
	CapContentWrite,
	CapSubmissionsRead,
	CapSubmissionsManage,
	CapSubscribersRead,
	CapSubscribersManage,
)

var roleCapabilities = map[string]CapabilitySet{
	model.RoleEditor: editorCapabilities,
	model.RoleAdmin: editorCapabilities.union(newCapabilitySet(
		CapContentDelete,
		CapSubmissionsDelete,
		CapUsersCreate,
	)),
}

// CapabilitiesFor returns the capability set of role. Unknown roles, including
// the empty anonymous role, get an empty set.
func CapabilitiesFor(role string) CapabilitySet {
	if s, ok := roleCapabilities[role]; ok {
		return s
	}
	return CapabilitySet{}
}

// RoleSatisfies reports whether a holder of role may act wherever required is
// demanded. An unknown required role is never satisfied.
func RoleSatisfies(role, required string) bool {
	need, ok := roleCapabilities[required]
	if !ok {
		return false
	}
	return CapabilitiesFor(role).Contains(need)
}
