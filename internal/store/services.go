// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// Service is an offered service. IsPublished is the public "active" flag.
type Service struct {
	ID            int64
	Title         string
	Slug          string
	Description   string
	Icon          string
	FeaturedImage sql.NullInt64
	Category      string
	Tags          model.StringList
	BasePrice     sql.NullFloat64
	Features      model.StringList
	IsPublished   bool
	IsFeatured    bool
	IsPopular     bool
	SortOrder     int64
	Views         int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const serviceColumns = `id, title, slug, description, icon, featured_image, category, tags, base_price, features,
	is_published, is_featured, is_popular, sort_order, views, created_at, updated_at`

func scanService(row interface{ Scan(...any) error }) (Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.Title, &s.Slug, &s.Description, &s.Icon, &s.FeaturedImage, &s.Category,
		&s.Tags, &s.BasePrice, &s.Features, &s.IsPublished, &s.IsFeatured, &s.IsPopular, &s.SortOrder,
		&s.Views, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// GetServiceByID returns the service with id.
func (q *Queries) GetServiceByID(ctx context.Context, id int64) (Service, error) {
	return scanService(q.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id))
}

// GetServiceBySlug returns the service with slug.
func (q *Queries) GetServiceBySlug(ctx context.Context, slug string) (Service, error) {
	return scanService(q.db.QueryRowContext(ctx, `SELECT `+serviceColumns+` FROM services WHERE slug = ?`, slug))
}

// ListServices returns services matching filter in display order.
func (q *Queries) ListServices(ctx context.Context, filter ContentFilter) ([]Service, error) {
	w := filter.where(TableServices, "")
	limit, args := limitClause(filter.Limit, filter.Offset, w.args)

	rows, err := q.db.QueryContext(ctx, `SELECT `+serviceColumns+` FROM services`+w.clause()+
		` ORDER BY sort_order ASC, title ASC, id ASC`+limit, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	services := []Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

// ServiceParams holds the writable columns of a service.
type ServiceParams struct {
	Title         string
	Slug          string
	Description   string
	Icon          string
	FeaturedImage sql.NullInt64
	Category      string
	Tags          model.StringList
	BasePrice     sql.NullFloat64
	Features      model.StringList
	IsPublished   bool
	IsFeatured    bool
	IsPopular     bool
	SortOrder     int64
}

// CreateService inserts a service and returns its id.
func (q *Queries) CreateService(ctx context.Context, arg ServiceParams, now time.Time) (int64, error) {
	return q.insertReturningID(ctx, `
		INSERT INTO services (title, slug, description, icon, featured_image, category, tags, base_price, features,
			is_published, is_featured, is_popular, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Description, arg.Icon, arg.FeaturedImage, arg.Category, arg.Tags,
		arg.BasePrice, arg.Features, boolToInt(arg.IsPublished), boolToInt(arg.IsFeatured),
		boolToInt(arg.IsPopular), arg.SortOrder, now, now)
}

// UpdateService overwrites the writable columns of service id.
func (q *Queries) UpdateService(ctx context.Context, id int64, arg ServiceParams, now time.Time) error {
	return q.execAffectingOne(ctx, `
		UPDATE services SET title = ?, slug = ?, description = ?, icon = ?, featured_image = ?, category = ?,
			tags = ?, base_price = ?, features = ?, is_published = ?, is_featured = ?, is_popular = ?,
			sort_order = ?, updated_at = ?
		WHERE id = ?`,
		arg.Title, arg.Slug, arg.Description, arg.Icon, arg.FeaturedImage, arg.Category, arg.Tags,
		arg.BasePrice, arg.Features, boolToInt(arg.IsPublished), boolToInt(arg.IsFeatured),
		boolToInt(arg.IsPopular), arg.SortOrder, now, id)
}
