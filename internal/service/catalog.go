// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

// Service is the API view of an offered service.
type Service struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	Icon             string           `json:"icon"`
	FeaturedImage    *int64           `json:"featured_image"`
	FeaturedImageURL string           `json:"featured_image_url,omitempty"`
	FeaturedImageAlt string           `json:"featured_image_alt,omitempty"`
	Category         string           `json:"category"`
	Tags             model.StringList `json:"tags"`
	BasePrice        *float64         `json:"base_price"`
	Features         model.StringList `json:"features"`
	IsPublished      bool             `json:"is_published"`
	IsFeatured       bool             `json:"is_featured"`
	IsPopular        bool             `json:"is_popular"`
	SortOrder        int64            `json:"sort_order"`
	Views            int64            `json:"views"`
	Packages         []ServicePackage `json:"packages,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// ServicePackage is the API view of a pricing tier.
type ServicePackage struct {
	ID           int64            `json:"id"`
	ServiceID    int64            `json:"service_id"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Price        float64          `json:"price"`
	Features     model.StringList `json:"features"`
	DeliveryTime string           `json:"delivery_time"`
	Revisions    int64            `json:"revisions"`
	IsPopular    bool             `json:"is_popular"`
	SortOrder    int64            `json:"sort_order"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ServiceInput carries create and update fields for a service.
type ServiceInput struct {
	Title         *string   `json:"title"`
	Slug          *string   `json:"slug"`
	Description   *string   `json:"description"`
	Icon          *string   `json:"icon"`
	FeaturedImage *int64    `json:"featured_image"`
	Category      *string   `json:"category"`
	Tags          *[]string `json:"tags"`
	BasePrice     *float64  `json:"base_price"`
	Features      *[]string `json:"features"`
	IsPublished   *bool     `json:"is_published"`
	IsFeatured    *bool     `json:"is_featured"`
	IsPopular     *bool     `json:"is_popular"`
	SortOrder     *int64    `json:"sort_order"`
}

// PackageInput carries create and update fields for a package.
type PackageInput struct {
	Name         *string   `json:"name"`
	Description  *string   `json:"description"`
	Price        *float64  `json:"price"`
	Features     *[]string `json:"features"`
	DeliveryTime *string   `json:"delivery_time"`
	Revisions    *int64    `json:"revisions"`
	IsPopular    *bool     `json:"is_popular"`
	SortOrder    *int64    `json:"sort_order"`
}

// ServiceListParams adds package embedding to the content filters.
type ServiceListParams struct {
	ContentListParams
	IncludePackages bool
}

// CatalogService manages services and their packages.
type CatalogService struct {
	contentRepo
	db    *sql.DB
	media MediaStore
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(db *sql.DB, media MediaStore, events *EventService) *CatalogService {
	return &CatalogService{
		contentRepo: contentRepo{
			queries: store.New(db),
			table:   store.TableServices,
			entity:  "service",
			events:  events,
			now:     SystemClock,
		},
		db:    db,
		media: media,
	}
}

// List returns services matching params, with packages when requested.
func (s *CatalogService) List(ctx context.Context, id auth.Identity, params ServiceListParams) ([]Service, ListMeta, error) {
	filter, paging := s.filter(id, params.ContentListParams)

	rows, err := s.queries.ListServices(ctx, filter)
	if err != nil {
		return nil, ListMeta{}, fmt.Errorf("listing services: %w", err)
	}

	total := int64(len(rows))
	if paging.PerPage > 0 {
		if total, err = s.count(ctx, filter); err != nil {
			return nil, ListMeta{}, err
		}
	}

	services := make([]Service, len(rows))
	for i, row := range rows {
		services[i] = s.view(ctx, row)
		if params.IncludePackages {
			if services[i].Packages, err = s.packages(ctx, row.ID); err != nil {
				return nil, ListMeta{}, err
			}
		}
	}
	return services, paging.meta(total), nil
}

// GetByID returns service serviceID with its packages.
func (s *CatalogService) GetByID(ctx context.Context, id auth.Identity, serviceID int64) (Service, error) {
	row, err := s.queries.GetServiceByID(ctx, serviceID)
	if err != nil {
		return Service{}, notFound(err, s.entity)
	}
	return s.read(ctx, id, row)
}

// GetBySlug returns the service with slug and its packages.
func (s *CatalogService) GetBySlug(ctx context.Context, id auth.Identity, slug string) (Service, error) {
	row, err := s.queries.GetServiceBySlug(ctx, slug)
	if err != nil {
		return Service{}, notFound(err, s.entity)
	}
	return s.read(ctx, id, row)
}

func (s *CatalogService) read(ctx context.Context, id auth.Identity, row store.Service) (Service, error) {
	if err := s.visible(id, row.IsPublished); err != nil {
		return Service{}, err
	}
	if s.countView(ctx, id, row.ID) {
		row.Views++
	}
	svc := s.view(ctx, row)
	var err error
	if svc.Packages, err = s.packages(ctx, row.ID); err != nil {
		return Service{}, err
	}
	return svc, nil
}

// Create adds a service. Editor or admin.
func (s *CatalogService) Create(ctx context.Context, id auth.Identity, in ServiceInput) (Service, error) {
	if err := authorize(id, auth.CapContentWrite, s.now()); err != nil {
		return Service{}, err
	}
	if trimmed(in.Title) == "" {
		return Service{}, validationError("title", "Title is required")
	}

	params := store.ServiceParams{Tags: model.StringList{}, Features: model.StringList{}, IsPublished: true}
	if err := in.apply(&params); err != nil {
		return Service{}, err
	}

	var newID int64
	_, err := s.saveWithSlug(ctx, slugRequest{Requested: in.Slug, Title: params.Title}, func(slug string) error {
		params.Slug = slug
		var err error
		newID, err = s.queries.CreateService(ctx, params, s.now())
		return err
	})
	if err != nil {
		return Service{}, wrapWrite(err, "creating service")
	}

	s.logChange(ctx, id, "created", newID)
	return s.fetch(ctx, newID)
}

// Update changes the fields set in in. Editor or admin.
func (s *CatalogService) Update(ctx context.Context, id auth.Identity, serviceID int64, in ServiceInput) (Service, error) {
	if err := authorize(id, auth.CapContentWrite, s.now()); err != nil {
		return Service{}, err
	}
	if in.Title != nil && trimmed(in.Title) == "" {
		return Service{}, validationError("title", "Title cannot be empty")
	}

	existing, err := s.queries.GetServiceByID(ctx, serviceID)
	if err != nil {
		return Service{}, notFound(err, s.entity)
	}

	params := store.ServiceParams{
		Title:         existing.Title,
		Description:   existing.Description,
		Icon:          existing.Icon,
		FeaturedImage: existing.FeaturedImage,
		Category:      existing.Category,
		Tags:          existing.Tags,
		BasePrice:     existing.BasePrice,
		Features:      existing.Features,
		IsPublished:   existing.IsPublished,
		IsFeatured:    existing.IsFeatured,
		IsPopular:     existing.IsPopular,
		SortOrder:     existing.SortOrder,
	}
	if err := in.apply(&params); err != nil {
		return Service{}, err
	}

	req := slugRequest{Requested: in.Slug, Title: params.Title, Current: existing.Slug, ExcludeID: serviceID}
	_, err = s.saveWithSlug(ctx, req, func(slug string) error {
		params.Slug = slug
		return s.queries.UpdateService(ctx, serviceID, params, s.now())
	})
	if err != nil {
		return Service{}, wrapWrite(err, fmt.Sprintf("updating service %d", serviceID))
	}

	s.logChange(ctx, id, "updated", serviceID)
	return s.fetch(ctx, serviceID)
}

// Delete removes a service and its packages in one transaction. Admin only.
func (s *CatalogService) Delete(ctx context.Context, id auth.Identity, serviceID int64) error {
	if err := authorize(id, auth.CapContentDelete, s.now()); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	if err := qtx.DeleteServicePackages(ctx, serviceID); err != nil {
		return fmt.Errorf("deleting packages of service %d: %w", serviceID, err)
	}
	if err := qtx.DeleteContent(ctx, s.table, serviceID); err != nil {
		return notFound(err, s.entity)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing service delete: %w", err)
	}

	s.logChange(ctx, id, "deleted", serviceID)
	return nil
}

// ListPackages returns the packages of serviceID.
func (s *CatalogService) ListPackages(ctx context.Context, id auth.Identity, serviceID int64) ([]ServicePackage, error) {
	if err := s.serviceVisible(ctx, id, serviceID); err != nil {
		return nil, err
	}
	return s.packages(ctx, serviceID)
}

// GetPackage returns package packageID of serviceID.
func (s *CatalogService) GetPackage(ctx context.Context, id auth.Identity, serviceID, packageID int64) (ServicePackage, error) {
	if err := s.serviceVisible(ctx, id, serviceID); err != nil {
		return ServicePackage{}, err
	}
	row, err := s.queries.GetServicePackage(ctx, serviceID, packageID)
	if err != nil {
		return ServicePackage{}, notFound(err, "package")
	}
	return packageView(row), nil
}

// CreatePackage adds a package to serviceID. Editor or admin.
func (s *CatalogService) CreatePackage(ctx context.Context, id auth.Identity, serviceID int64, in PackageInput) (ServicePackage, error) {
	if err := authorize(id, auth.CapContentWrite, s.now()); err != nil {
		return ServicePackage{}, err
	}
	if trimmed(in.Name) == "" {
		return ServicePackage{}, validationError("name", "Name is required")
	}
	if in.Price == nil {
		return ServicePackage{}, validationError("price", "Price is required")
	}
	if _, err := s.queries.GetServiceByID(ctx, serviceID); err != nil {
		return ServicePackage{}, notFound(err, s.entity)
	}

	params := store.ServicePackageParams{Features: model.StringList{}}
	if err := in.apply(&params); err != nil {
		return ServicePackage{}, err
	}

	pkgID, err := s.queries.CreateServicePackage(ctx, serviceID, params, s.now())
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return ServicePackage{}, fmt.Errorf("%s %w", s.entity, ErrNotFound)
		}
		return ServicePackage{}, fmt.Errorf("creating package: %w", err)
	}

	s.logChange(ctx, id, "package created", pkgID)
	return s.fetchPackage(ctx, serviceID, pkgID)
}

// UpdatePackage changes the fields set in in. Editor or admin.
func (s *CatalogService) UpdatePackage(ctx context.Context, id auth.Identity, serviceID, packageID int64, in PackageInput) (ServicePackage, error) {
	if err := authorize(id, auth.CapContentWrite, s.now()); err != nil {
		return ServicePackage{}, err
	}
	if in.Name != nil && trimmed(in.Name) == "" {
		return ServicePackage{}, validationError("name", "Name cannot be empty")
	}

	existing, err := s.queries.GetServicePackage(ctx, serviceID, packageID)
	if err != nil {
		return ServicePackage{}, notFound(err, "package")
	}

	params := store.ServicePackageParams{
		Name:         existing.Name,
		Description:  existing.Description,
		Price:        existing.Price,
		Features:     existing.Features,
		DeliveryTime: existing.DeliveryTime,
		Revisions:    existing.Revisions,
		IsPopular:    existing.IsPopular,
		SortOrder:    existing.SortOrder,
	}
	if err := in.apply(&params); err != nil {
		return ServicePackage{}, err
	}

	if err := s.queries.UpdateServicePackage(ctx, serviceID, packageID, params, s.now()); err != nil {
		return ServicePackage{}, notFound(err, "package")
	}

	s.logChange(ctx, id, "package updated", packageID)
	return s.fetchPackage(ctx, serviceID, packageID)
}

// DeletePackage removes package packageID of serviceID. Admin only.
func (s *CatalogService) DeletePackage(ctx context.Context, id auth.Identity, serviceID, packageID int64) error {
	if err := authorize(id, auth.CapContentDelete, s.now()); err != nil {
		return err
	}
	if err := s.queries.DeleteServicePackage(ctx, serviceID, packageID); err != nil {
		return notFound(err, "package")
	}
	s.logChange(ctx, id, "package deleted", packageID)
	return nil
}

// serviceVisible reports NotFound for missing services and for inactive
// ones when the caller is anonymous.
func (s *CatalogService) serviceVisible(ctx context.Context, id auth.Identity, serviceID int64) error {
	row, err := s.queries.GetServiceByID(ctx, serviceID)
	if err != nil {
		return notFound(err, s.entity)
	}
	return s.visible(id, row.IsPublished)
}

func (s *CatalogService) packages(ctx context.Context, serviceID int64) ([]ServicePackage, error) {
	rows, err := s.queries.ListServicePackages(ctx, serviceID)
	if err != nil {
		return nil, fmt.Errorf("listing packages of service %d: %w", serviceID, err)
	}
	out := make([]ServicePackage, len(rows))
	for i, row := range rows {
		out[i] = packageView(row)
	}
	return out, nil
}

func (s *CatalogService) fetch(ctx context.Context, serviceID int64) (Service, error) {
	row, err := s.queries.GetServiceByID(ctx, serviceID)
	if err != nil {
		return Service{}, notFound(err, s.entity)
	}
	svc := s.view(ctx, row)
	if svc.Packages, err = s.packages(ctx, serviceID); err != nil {
		return Service{}, err
	}
	return svc, nil
}

func (s *CatalogService) fetchPackage(ctx context.Context, serviceID, packageID int64) (ServicePackage, error) {
	row, err := s.queries.GetServicePackage(ctx, serviceID, packageID)
	if err != nil {
		return ServicePackage{}, notFound(err, "package")
	}
	return packageView(row), nil
}

func (s *CatalogService) view(ctx context.Context, row store.Service) Service {
	media := resolveMedia(ctx, s.media, row.FeaturedImage)
	return Service{
		ID:               row.ID,
		Title:            row.Title,
		Slug:             row.Slug,
		Description:      row.Description,
		Icon:             row.Icon,
		FeaturedImage:    util.Int64Ptr(row.FeaturedImage),
		FeaturedImageURL: media.URL,
		FeaturedImageAlt: media.Alt,
		Category:         row.Category,
		Tags:             row.Tags,
		BasePrice:        util.Float64Ptr(row.BasePrice),
		Features:         row.Features,
		IsPublished:      row.IsPublished,
		IsFeatured:       row.IsFeatured,
		IsPopular:        row.IsPopular,
		SortOrder:        row.SortOrder,
		Views:            row.Views,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func packageView(row store.ServicePackage) ServicePackage {
	return ServicePackage{
		ID:           row.ID,
		ServiceID:    row.ServiceID,
		Name:         row.Name,
		Description:  row.Description,
		Price:        row.Price,
		Features:     row.Features,
		DeliveryTime: row.DeliveryTime,
		Revisions:    row.Revisions,
		IsPopular:    row.IsPopular,
		SortOrder:    row.SortOrder,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (in ServiceInput) apply(p *store.ServiceParams) error {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	assign(&p.Description, in.Description)
	assign(&p.Icon, in.Icon)
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	assign(&p.IsPublished, in.IsPublished)
	assign(&p.IsFeatured, in.IsFeatured)
	assign(&p.IsPopular, in.IsPopular)
	assign(&p.SortOrder, in.SortOrder)

	if in.FeaturedImage != nil {
		p.FeaturedImage = util.NullInt64FromPtr(in.FeaturedImage)
	}
	if in.Tags != nil {
		p.Tags = cleanList(*in.Tags)
	}
	if in.Features != nil {
		p.Features = cleanList(*in.Features)
	}
	if in.BasePrice != nil {
		if *in.BasePrice < 0 {
			return validationError("base_price", "Base price cannot be negative")
		}
		p.BasePrice = util.NullFloat64FromPtr(in.BasePrice)
	}
	return nil
}

func (in PackageInput) apply(p *store.ServicePackageParams) error {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	assign(&p.Description, in.Description)
	assign(&p.DeliveryTime, in.DeliveryTime)
	assign(&p.IsPopular, in.IsPopular)
	assign(&p.SortOrder, in.SortOrder)

	if in.Price != nil {
		if *in.Price <= 0 {
			return validationError("price", "Price must be greater than zero")
		}
		p.Price = *in.Price
	}
	if in.Revisions != nil {
		if *in.Revisions < 0 {
			return validationError("revisions", "Revisions cannot be negative")
		}
		p.Revisions = *in.Revisions
	}
	if in.Features != nil {
		p.Features = cleanList(*in.Features)
	}
	return nil
}
