// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// PortfolioItem is a showcased project.
type PortfolioItem struct {
	ID             int64
	Title          string
	Slug           string
	Description    string
	Content        string
	FeaturedImage  sql.NullInt64
	GalleryImages  model.StringList
	Category       string
	Tags           model.StringList
	ClientName     string
	ProjectURL     string
	CompletionDate sql.NullString
	IsPublished    bool
	IsFeatured     bool
	SortOrder      int64
	Views          int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const portfolioColumns = `id, title, slug, description, content, featured_image, gallery_images, category, tags,
	client_name, project_url, completion_date, is_published, is_featured, sort_order, views, created_at, updated_at`

func scanPortfolioItem(row interface{ Scan(...any) error }) (PortfolioItem, error) {
	var p PortfolioItem
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Description, &p.Content, &p.FeaturedImage,
		&p.GalleryImages, &p.Category, &p.Tags, &p.ClientName, &p.ProjectURL, &p.CompletionDate,
		&p.IsPublished, &p.IsFeatured, &p.SortOrder, &p.Views, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// GetPortfolioItemByID returns the portfolio item with id.
func (q *Queries) GetPortfolioItemByID(ctx context.Context, id int64) (PortfolioItem, error) {
	return scanPortfolioItem(q.db.QueryRowContext(ctx,
		`SELECT `+portfolioColumns+` FROM portfolio_items WHERE id = ?`, id))
}

// GetPortfolioItemBySlug returns the portfolio item with slug.
func (q *Queries) GetPortfolioItemBySlug(ctx context.Context, slug string) (PortfolioItem, error) {
	return scanPortfolioItem(q.db.QueryRowContext(ctx,
		`SELECT `+portfolioColumns+` FROM portfolio_items WHERE slug = ?`, slug))
}

// ListPortfolioItems returns items matching filter ordered for display.
func (q *Queries) ListPortfolioItems(ctx context.Context, filter ContentFilter) ([]PortfolioItem, error) {
	w := filter.where(TablePortfolio, "")
	limit, args := limitClause(filter.Limit, filter.Offset, w.args)

	rows, err := q.db.QueryContext(ctx, `SELECT `+portfolioColumns+` FROM portfolio_items`+w.clause()+
		` ORDER BY sort_order ASC, created_at DESC, id DESC`+limit, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []PortfolioItem{}
	for rows.Next() {
		p, err := scanPortfolioItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// PortfolioItemParams holds the writable columns of a portfolio item.
type PortfolioItemParams struct {
	Title          string
	Slug           string
	Description    string
	Content        string
	FeaturedImage  sql.NullInt64
	GalleryImages  model.StringList
	Category       string
	Tags           model.StringList
	ClientName     string
	ProjectURL     string
	CompletionDate sql.NullString
	IsPublished    bool
	IsFeatured     bool
	SortOrder      int64
}

// CreatePortfolioItem inserts an item and returns its id.
func (q *Queries) CreatePortfolioItem(ctx context.Context, arg PortfolioItemParams, now time.Time) (int64, error) {
	return q.insertReturningID(ctx, `
		INSERT INTO portfolio_items (title, slug, description, content, featured_image, gallery_images, category, tags,
			client_name, project_url, completion_date, is_published, is_featured, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Description, arg.Content, arg.FeaturedImage, arg.GalleryImages,
		arg.Category, arg.Tags, arg.ClientName, arg.ProjectURL, arg.CompletionDate,
		boolToInt(arg.IsPublished), boolToInt(arg.IsFeatured), arg.SortOrder, now, now)
}

// UpdatePortfolioItem overwrites the writable columns of item id.
func (q *Queries) UpdatePortfolioItem(ctx context.Context, id int64, arg PortfolioItemParams, now time.Time) error {
	return q.execAffectingOne(ctx, `
		UPDATE portfolio_items SET title = ?, slug = ?, description = ?, content = ?, featured_image = ?,
			gallery_images = ?, category = ?, tags = ?, client_name = ?, project_url = ?, completion_date = ?,
			is_published = ?, is_featured = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		arg.Title, arg.Slug, arg.Description, arg.Content, arg.FeaturedImage, arg.GalleryImages,
		arg.Category, arg.Tags, arg.ClientName, arg.ProjectURL, arg.CompletionDate,
		boolToInt(arg.IsPublished), boolToInt(arg.IsFeatured), arg.SortOrder, now, id)
}
