// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// SeedDemo fills an empty content database with a sample catalog.
// It does nothing once any service exists.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	existing, err := queries.CountContent(ctx, TableServices, ContentFilter{})
	if err != nil {
		return fmt.Errorf("counting services: %w", err)
	}
	if existing > 0 {
		return nil
	}

	slog.Info("seeding demo content")
	now := time.Now().UTC()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting demo seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	qtx := queries.WithTx(tx)

	serviceID, err := qtx.CreateService(ctx, ServiceParams{
		Title:       "Web Development",
		Slug:        "web-development",
		Description: "Custom websites and web applications.",
		Icon:        "code",
		Category:    "development",
		Tags:        model.StringList{"go", "web"},
		BasePrice:   sql.NullFloat64{Float64: 1500, Valid: true},
		Features:    model.StringList{"Responsive design", "SEO basics", "Analytics setup"},
		IsPublished: true,
		IsFeatured:  true,
	}, now)
	if err != nil {
		return fmt.Errorf("creating demo service: %w", err)
	}

	tiers := []ServicePackageParams{
		{Name: "Starter", Price: 1500, Features: model.StringList{"5 pages", "Contact form"}, DeliveryTime: "2 weeks", Revisions: 2},
		{Name: "Business", Price: 3500, Features: model.StringList{"15 pages", "Blog", "Newsletter"}, DeliveryTime: "4 weeks", Revisions: 4, IsPopular: true, SortOrder: 1},
	}
	for _, tier := range tiers {
		if _, err := qtx.CreateServicePackage(ctx, serviceID, tier, now); err != nil {
			return fmt.Errorf("creating demo package %q: %w", tier.Name, err)
		}
	}

	if _, err := qtx.CreatePortfolioItem(ctx, PortfolioItemParams{
		Title:         "Agency Landing Page",
		Slug:          "agency-landing-page",
		Description:   "Marketing site for a design studio.",
		Category:      "web",
		Tags:          model.StringList{"landing", "design"},
		GalleryImages: model.StringList{},
		ClientName:    "Studio North",
		IsPublished:   true,
		IsFeatured:    true,
	}, now); err != nil {
		return fmt.Errorf("creating demo portfolio item: %w", err)
	}

	if _, err := qtx.CreateBlogPost(ctx, BlogPostParams{
		Title:       "Hello World",
		Slug:        "hello-world",
		Excerpt:     "First post on the new site.",
		Content:     "Welcome to the new site. More posts soon.",
		Category:    "news",
		Tags:        model.StringList{"news"},
		ReadingTime: 1,
		IsPublished: true,
		PublishedAt: sql.NullTime{Time: now, Valid: true},
	}, now); err != nil {
		return fmt.Errorf("creating demo post: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing demo seed: %w", err)
	}
	return nil
}
