// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
)

// ContentTable names a slugged content table. Only the constants below are
// valid; the value is interpolated into SQL.
type ContentTable string

// Content tables.
const (
	TablePortfolio ContentTable = "portfolio_items"
	TableBlog      ContentTable = "blog_posts"
	TableServices  ContentTable = "services"
)

func (t ContentTable) valid() error {
	switch t {
	case TablePortfolio, TableBlog, TableServices:
		return nil
	}
	return fmt.Errorf("unknown content table %q", string(t))
}

// ContentFilter narrows a content listing. Zero values do not filter.
type ContentFilter struct {
	Category    string
	IsFeatured  *bool
	IsPublished *bool
	AuthorID    int64
	Search      string
	Limit       int64
	Offset      int64
}

// where builds the WHERE clause for t. alias prefixes column names.
func (f ContentFilter) where(t ContentTable, alias string) *whereBuilder {
	w := &whereBuilder{}
	if f.Category != "" {
		w.add(alias+"category = ?", f.Category)
	}
	if f.IsFeatured != nil {
		w.add(alias+"is_featured = ?", boolToInt(*f.IsFeatured))
	}
	if f.IsPublished != nil {
		w.add(alias+"is_published = ?", boolToInt(*f.IsPublished))
	}
	if f.AuthorID > 0 && t == TableBlog {
		w.add(alias+"author_id = ?", f.AuthorID)
	}

	switch t {
	case TableBlog:
		w.addSearch(f.Search, alias+"title", alias+"excerpt", alias+"content")
	default:
		w.addSearch(f.Search, alias+"title", alias+"description")
	}
	return w
}

// CountContent counts rows of t matching filter.
func (q *Queries) CountContent(ctx context.Context, t ContentTable, filter ContentFilter) (int64, error) {
	if err := t.valid(); err != nil {
		return 0, err
	}
	w := filter.where(t, "")
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+string(t)+w.clause(), w.args...).Scan(&n)
	return n, err
}

// SlugExists reports whether slug is used in t by a row other than excludeID.
func (q *Queries) SlugExists(ctx context.Context, t ContentTable, slug string, excludeID int64) (bool, error) {
	if err := t.valid(); err != nil {
		return false, err
	}
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+string(t)+` WHERE slug = ? AND id != ?`, slug, excludeID).Scan(&n)
	return n > 0, err
}

// IncrementViews atomically adds one to the view counter of a row in t.
func (q *Queries) IncrementViews(ctx context.Context, t ContentTable, id int64) error {
	if err := t.valid(); err != nil {
		return err
	}
	return q.execAffectingOne(ctx, `UPDATE `+string(t)+` SET views = views + 1 WHERE id = ?`, id)
}

// ListCategories returns distinct non-empty categories in t, ascending.
func (q *Queries) ListCategories(ctx context.Context, t ContentTable) ([]string, error) {
	if err := t.valid(); err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx,
		`SELECT DISTINCT category FROM `+string(t)+` WHERE category != '' ORDER BY category ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// DeleteContent removes the row with id from t.
func (q *Queries) DeleteContent(ctx context.Context, t ContentTable, id int64) error {
	if err := t.valid(); err != nil {
		return err
	}
	return q.execAffectingOne(ctx, `DELETE FROM `+string(t)+` WHERE id = ?`, id)
}
