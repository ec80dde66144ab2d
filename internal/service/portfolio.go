// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

// PortfolioItem is the API view of a portfolio entry.
type PortfolioItem struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	Content          string           `json:"content"`
	FeaturedImage    *int64           `json:"featured_image"`
	FeaturedImageURL string           `json:"featured_image_url,omitempty"`
	FeaturedImageAlt string           `json:"featured_image_alt,omitempty"`
	GalleryImages    model.StringList `json:"gallery_images"`
	Category         string           `json:"category"`
	Tags             model.StringList `json:"tags"`
	ClientName       string           `json:"client_name"`
	ProjectURL       string           `json:"project_url"`
	CompletionDate   *string          `json:"completion_date"`
	IsPublished      bool             `json:"is_published"`
	IsFeatured       bool             `json:"is_featured"`
	SortOrder        int64            `json:"sort_order"`
	Views            int64            `json:"views"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// PortfolioInput carries create and update fields. Nil fields are left
// unchanged on update and defaulted on create.
type PortfolioInput struct {
	Title          *string   `json:"title"`
	Slug           *string   `json:"slug"`
	Description    *string   `json:"description"`
	Content        *string   `json:"content"`
	FeaturedImage  *int64    `json:"featured_image"`
	GalleryImages  *[]string `json:"gallery_images"`
	Category       *string   `json:"category"`
	Tags           *[]string `json:"tags"`
	ClientName     *string   `json:"client_name"`
	ProjectURL     *string   `json:"project_url"`
	CompletionDate *string   `json:"completion_date"`
	IsPublished    *bool     `json:"is_published"`
	IsFeatured     *bool     `json:"is_featured"`
	SortOrder      *int64    `json:"sort_order"`
}

// PortfolioService manages portfolio items.
type PortfolioService struct {
	contentRepo
	media MediaStore
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(db *sql.DB, media MediaStore, events *EventService) *PortfolioService {
	return &PortfolioService{
		contentRepo: contentRepo{
			queries: store.New(db),
			table:   store.TablePortfolio,
			entity:  "portfolio item",
			events:  events,
			now:     SystemClock,
		},
		media: media,
	}
}

// List returns portfolio items matching params.
func (s *PortfolioService) List(ctx context.Context, id auth.Identity, params ContentListParams) ([]PortfolioItem, ListMeta, error) {
	filter, paging := s.filter(id, params)

	rows, err := s.queries.ListPortfolioItems(ctx, filter)
	if err != nil {
		return nil, ListMeta{}, fmt.Errorf("listing portfolio items: %w", err)
	}

	total := int64(len(rows))
	if paging.PerPage > 0 {
		if total, err = s.count(ctx, filter); err != nil {
			return nil, ListMeta{}, err
		}
	}

	items := make([]PortfolioItem, len(rows))
	for i, row := range rows {
		items[i] = s.view(ctx, row)
	}
	return items, paging.meta(total), nil
}

// GetByID returns item itemID, counting a view for anonymous callers.
func (s *PortfolioService) GetByID(ctx context.Context, id auth.Identity, itemID int64) (PortfolioItem, error) {
	row, err := s.queries.GetPortfolioItemByID(ctx, itemID)
	if err != nil {
		return PortfolioItem{}, notFound(err, s.entity)
	}
	return s.read(ctx, id, row)
}

// GetBySlug returns the item with slug, counting a view for anonymous callers.
func (s *PortfolioService) GetBySlug(ctx context.Context, id auth.Identity, slug string) (PortfolioItem, error) {
	row, err := s.queries.GetPortfolioItemBySlug(ctx, slug)
	if err != nil {
		return PortfolioItem{}, notFound(err, s.entity)
	}
	return s.read(ctx, id, row)
}

func (s *PortfolioService) read(ctx context.Context, id auth.Identity, row store.PortfolioItem) (PortfolioItem, error) {
	if err := s.visible(id, row.IsPublished); err != nil {
		return PortfolioItem{}, err
	}
	if s.countView(ctx, id, row.ID) {
		row.Views++
	}
	return s.view(ctx, row), nil
}

// Create adds a portfolio item. Editor or admin.
func (s *PortfolioService) Create(ctx context.Context, id auth.Identity, in PortfolioInput) (PortfolioItem, error) {
	if err := authorize(id, auth.CapContentWrite, s.now()); err != nil {
		return PortfolioItem{}, err
	}
	if trimmed(in.Title) == "" {
		return PortfolioItem{}, validationError("title", "Title is required")
	}

	params := store.PortfolioItemParams{GalleryImages: model.StringList{}, Tags: model.StringList{}}
	if err := in.apply(&params); err != nil {
		return PortfolioItem{}, err
	}

	var newID int64
	_, err := s.saveWithSlug(ctx, slugRequest{Requested: in.Slug, Title: params.Title}, func(slug string) error {
		params.Slug = slug
		var err error
		newID, err = s.queries.CreatePortfolioItem(ctx, params, s.now())
		return err
	})
	if err != nil {
		return PortfolioItem{}, wrapWrite(err, "creating portfolio item")
	}

	s.logChange(ctx, id, "created", newID)
	return s.fetch(ctx, newID)
}

// Update changes the fields set in in. Editor or admin.
func (s *PortfolioService) Update(ctx context.Context, id auth.Identity, itemID int64, in PortfolioInput) (PortfolioItem, error) {
	if err := authorize(id, auth.CapContentWrite, s.now()); err != nil {
		return PortfolioItem{}, err
	}
	if in.Title != nil && trimmed(in.Title) == "" {
		return PortfolioItem{}, validationError("title", "Title cannot be empty")
	}

	existing, err := s.queries.GetPortfolioItemByID(ctx, itemID)
	if err != nil {
		return PortfolioItem{}, notFound(err, s.entity)
	}

	params := store.PortfolioItemParams{
		Title:          existing.Title,
		Description:    existing.Description,
		Content:        existing.Content,
		FeaturedImage:  existing.FeaturedImage,
		GalleryImages:  existing.GalleryImages,
		Category:       existing.Category,
		Tags:           existing.Tags,
		ClientName:     existing.ClientName,
		ProjectURL:     existing.ProjectURL,
		CompletionDate: existing.CompletionDate,
		IsPublished:    existing.IsPublished,
		IsFeatured:     existing.IsFeatured,
		SortOrder:      existing.SortOrder,
	}
	if err := in.apply(&params); err != nil {
		return PortfolioItem{}, err
	}

	req := slugRequest{Requested: in.Slug, Title: params.Title, Current: existing.Slug, ExcludeID: itemID}
	_, err = s.saveWithSlug(ctx, req, func(slug string) error {
		params.Slug = slug
		return s.queries.UpdatePortfolioItem(ctx, itemID, params, s.now())
	})
	if err != nil {
		return PortfolioItem{}, wrapWrite(err, fmt.Sprintf("updating portfolio item %d", itemID))
	}

	s.logChange(ctx, id, "updated", itemID)
	return s.fetch(ctx, itemID)
}

// Delete removes item itemID. Admin only.
func (s *PortfolioService) Delete(ctx context.Context, id auth.Identity, itemID int64) error {
	return s.delete(ctx, id, itemID)
}

func (s *PortfolioService) fetch(ctx context.Context, itemID int64) (PortfolioItem, error) {
	row, err := s.queries.GetPortfolioItemByID(ctx, itemID)
	if err != nil {
		return PortfolioItem{}, notFound(err, s.entity)
	}
	return s.view(ctx, row), nil
}

func (s *PortfolioService) view(ctx context.Context, row store.PortfolioItem) PortfolioItem {
	media := resolveMedia(ctx, s.media, row.FeaturedImage)
	return PortfolioItem{
		ID:               row.ID,
		Title:            row.Title,
		Slug:             row.Slug,
		Description:      row.Description,
		Content:          row.Content,
		FeaturedImage:    util.Int64Ptr(row.FeaturedImage),
		FeaturedImageURL: media.URL,
		FeaturedImageAlt: media.Alt,
		GalleryImages:    row.GalleryImages,
		Category:         row.Category,
		Tags:             row.Tags,
		ClientName:       row.ClientName,
		ProjectURL:       row.ProjectURL,
		CompletionDate:   util.StringPtr(row.CompletionDate),
		IsPublished:      row.IsPublished,
		IsFeatured:       row.IsFeatured,
		SortOrder:        row.SortOrder,
		Views:            row.Views,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func (in PortfolioInput) apply(p *store.PortfolioItemParams) error {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	assign(&p.Description, in.Description)
	assign(&p.Content, in.Content)
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	assign(&p.ClientName, in.ClientName)
	assign(&p.IsPublished, in.IsPublished)
	assign(&p.IsFeatured, in.IsFeatured)
	assign(&p.SortOrder, in.SortOrder)

	if in.FeaturedImage != nil {
		p.FeaturedImage = util.NullInt64FromPtr(in.FeaturedImage)
	}
	if in.GalleryImages != nil {
		p.GalleryImages = cleanList(*in.GalleryImages)
	}
	if in.Tags != nil {
		p.Tags = cleanList(*in.Tags)
	}
	if in.ProjectURL != nil {
		u := strings.TrimSpace(*in.ProjectURL)
		if u != "" && !isHTTPURL(u) {
			return validationError("project_url", "Project URL must be an http or https URL")
		}
		p.ProjectURL = u
	}
	if in.CompletionDate != nil {
		d := strings.TrimSpace(*in.CompletionDate)
		if d != "" {
			if _, err := parseDate("completion_date", d); err != nil {
				return err
			}
		}
		p.CompletionDate = util.NullStringFromValue(d)
	}
	return nil
}

// cleanList trims entries and drops empty ones, keeping order.
func cleanList(items []string) model.StringList {
	out := make(model.StringList, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
