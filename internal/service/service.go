// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the business operations: authentication,
// the slugged content repositories and the submission pipeline. Every
// operation receives the caller identity explicitly.
package service

import (
	"strings"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
)

// Clock returns the current time. Services default to UTC wall time.
type Clock func() time.Time

// SystemClock is the production clock.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// ClientInfo describes the remote caller of a request.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Pagination defaults.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// ListMeta describes a paginated result.
type ListMeta struct {
	Total   int64 `json:"total"`
	Page    int   `json:"page,omitempty"`
	PerPage int   `json:"per_page,omitempty"`
	Pages   int   `json:"pages,omitempty"`
}

// Paging selects a page. PerPage zero returns every row.
type Paging struct {
	Page    int
	PerPage int
}

// normalize clamps paging values and returns limit and offset for the store.
func (p Paging) normalize() (Paging, int64, int64) {
	if p.PerPage <= 0 {
		return Paging{}, 0, 0
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	return p, int64(p.PerPage), int64((p.Page - 1) * p.PerPage)
}

func (p Paging) meta(total int64) ListMeta {
	m := ListMeta{Total: total}
	if p.PerPage > 0 {
		m.Page = p.Page
		m.PerPage = p.PerPage
		m.Pages = int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	}
	return m
}

// authorize checks that id holds an unexpired login with capability c.
func authorize(id auth.Identity, c auth.Capability, now time.Time) error {
	if !id.IsAuthenticated(now) {
		return ErrUnauthorized
	}
	if !id.Can(c) {
		return ErrForbidden
	}
	return nil
}

// assign copies *src into *dst when src is set.
func assign[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
