// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

// maxSlugAttempts bounds the retries after a concurrent insert took the
// slug chosen by the probe.
const maxSlugAttempts = 5

// fallbackSlug is used when a title has no slug-safe characters.
const fallbackSlug = "item"

// ContentListParams filters a content listing. Nil flags do not filter.
type ContentListParams struct {
	Category    string
	IsFeatured  *bool
	IsPublished *bool
	AuthorID    int64
	Search      string
	Paging
}

// contentRepo holds the behavior shared by every slugged content kind.
type contentRepo struct {
	queries *store.Queries
	table   store.ContentTable
	entity  string
	events  *EventService
	now     Clock
}

// filter converts list params into a store filter. Callers without a valid
// login only ever see published rows.
func (c *contentRepo) filter(id auth.Identity, p ContentListParams) (store.ContentFilter, Paging) {
	paging, limit, offset := p.Paging.normalize()
	f := store.ContentFilter{
		Category:    p.Category,
		IsFeatured:  p.IsFeatured,
		IsPublished: p.IsPublished,
		AuthorID:    p.AuthorID,
		Search:      p.Search,
		Limit:       limit,
		Offset:      offset,
	}
	if !id.IsAuthenticated(c.now()) {
		published := true
		f.IsPublished = &published
	}
	return f, paging
}

// count returns the total for a filter ignoring its page window.
func (c *contentRepo) count(ctx context.Context, f store.ContentFilter) (int64, error) {
	n, err := c.queries.CountContent(ctx, c.table, f)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", c.entity, err)
	}
	return n, nil
}

// visible hides unpublished rows from callers without a valid login.
func (c *contentRepo) visible(id auth.Identity, published bool) error {
	if published || id.IsAuthenticated(c.now()) {
		return nil
	}
	return fmt.Errorf("%s %w", c.entity, ErrNotFound)
}

// countView increments the view counter for anonymous reads and reports
// whether it did. Staff previews are not counted.
func (c *contentRepo) countView(ctx context.Context, id auth.Identity, rowID int64) bool {
	if id.IsAuthenticated(c.now()) {
		return false
	}
	if err := c.queries.IncrementViews(ctx, c.table, rowID); err != nil {
		slog.Error("failed to increment views", "error", err, "entity", c.entity, "id", rowID)
		return false
	}
	return true
}

// Categories returns distinct non-empty categories, ascending.
func (c *contentRepo) Categories(ctx context.Context) ([]string, error) {
	cats, err := c.queries.ListCategories(ctx, c.table)
	if err != nil {
		return nil, fmt.Errorf("listing %s categories: %w", c.entity, err)
	}
	return cats, nil
}

// uniqueSlug probes base, base-1, base-2, ... until one is unused by rows
// other than excludeID.
func (c *contentRepo) uniqueSlug(ctx context.Context, base string, excludeID int64) (string, error) {
	for n := 0; ; n++ {
		candidate := util.SlugCandidate(base, n)
		exists, err := c.queries.SlugExists(ctx, c.table, candidate, excludeID)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

// slugRequest describes how a write wants its slug chosen.
type slugRequest struct {
	Requested *string // explicit slug from the caller, nil when omitted
	Title     string
	Current   string // slug already stored, empty on create
	ExcludeID int64
}

// saveWithSlug picks a slug and calls save with it. Derived slugs are
// re-probed when save hits the UNIQUE constraint; an explicit slug that
// collides fails with ErrConflict.
func (c *contentRepo) saveWithSlug(ctx context.Context, req slugRequest, save func(slug string) error) (string, error) {
	explicit := req.Requested != nil && trimmed(req.Requested) != ""

	var base string
	switch {
	case explicit:
		base = util.Slugify(*req.Requested)
		if base == "" {
			return "", validationError("slug", "Slug must contain letters or digits")
		}
	case req.Current != "":
		// Updates without a slug keep the stored one.
		if err := save(req.Current); err != nil {
			return "", referenceError(err)
		}
		return req.Current, nil
	default:
		base = util.Slugify(req.Title)
		if base == "" {
			base = fallbackSlug
		}
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug := base
		if explicit {
			if slug != req.Current {
				exists, err := c.queries.SlugExists(ctx, c.table, slug, req.ExcludeID)
				if err != nil {
					return "", fmt.Errorf("checking slug %q: %w", slug, err)
				}
				if exists {
					return "", fmt.Errorf("slug %q %w", slug, ErrConflict)
				}
			}
		} else {
			var err error
			if slug, err = c.uniqueSlug(ctx, base, req.ExcludeID); err != nil {
				return "", err
			}
		}

		err := save(slug)
		if err == nil {
			return slug, nil
		}
		if !store.IsUniqueViolation(err) {
			return "", referenceError(err)
		}
		if explicit {
			return "", fmt.Errorf("slug %q %w", slug, ErrConflict)
		}
		slog.Debug("slug taken concurrently, retrying", "entity", c.entity, "slug", slug, "attempt", attempt+1)
	}

	return "", fmt.Errorf("slug %q %w after %d attempts", base, ErrConflict, maxSlugAttempts)
}

// referenceError reports a dangling media or author id as a validation
// failure and passes other errors through.
func referenceError(err error) error {
	if store.IsForeignKeyViolation(err) {
		return validationError("", "Referenced media or author does not exist")
	}
	return err
}

// delete removes row id. Admin only.
func (c *contentRepo) delete(ctx context.Context, id auth.Identity, rowID int64) error {
	if err := authorize(id, auth.CapContentDelete, c.now()); err != nil {
		return err
	}
	if err := c.queries.DeleteContent(ctx, c.table, rowID); err != nil {
		return notFound(err, c.entity)
	}
	c.logChange(ctx, id, "deleted", rowID)
	return nil
}

func (c *contentRepo) logChange(ctx context.Context, id auth.Identity, action string, rowID int64) {
	if c.events == nil {
		return
	}
	_ = c.events.LogContentEvent(ctx, c.entity+" "+action, id.UserID, map[string]any{
		"entity": c.entity,
		"id":     rowID,
	})
}

// parseDate validates an optional YYYY-MM-DD value.
func parseDate(field, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, validationError(field, "Date must be in YYYY-MM-DD format")
	}
	return t, nil
}
