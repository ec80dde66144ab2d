// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/util"
)

// contentService is the surface shared by the portfolio, blog and service
// repositories. T is the API view and In the create/update input.
type contentService[T, In any] interface {
	GetByID(ctx context.Context, id auth.Identity, rowID int64) (T, error)
	GetBySlug(ctx context.Context, id auth.Identity, slug string) (T, error)
	Create(ctx context.Context, id auth.Identity, in In) (T, error)
	Update(ctx context.Context, id auth.Identity, rowID int64, in In) (T, error)
	Delete(ctx context.Context, id auth.Identity, rowID int64) error
	Categories(ctx context.Context) ([]string, error)
}

// listFunc runs a listing for one resource kind.
type listFunc[T any] func(ctx context.Context, id auth.Identity, r *http.Request) ([]T, service.ListMeta, error)

// resource serves the CRUD routes of one content kind.
type resource[T, In any] struct {
	h     *Handler
	label string // e.g. "Portfolio item", used in messages
	svc   contentService[T, In]
	list  listFunc[T]
}

func (res resource[T, In]) routes(r chi.Router) {
	r.Get("/", res.List)
	r.Get("/categories", res.Categories)
	r.Get("/{id}", res.Get)
	r.Post("/", res.Create)
	r.Put("/{id}", res.Update)
	r.Delete("/{id}", res.Delete)
}

// List handles GET /. Anonymous callers only ever see published rows.
func (res resource[T, In]) List(w http.ResponseWriter, r *http.Request) {
	items, meta, err := res.list(r.Context(), middleware.GetIdentity(r), r)
	if err != nil {
		res.h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	if meta.PerPage > 0 {
		WriteSuccess(w, items, &meta)
		return
	}
	WriteSuccess(w, items, nil)
}

// Categories handles GET /categories.
func (res resource[T, In]) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := res.svc.Categories(r.Context())
	if err != nil {
		res.h.fail(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	WriteSuccess(w, categories, nil)
}

// Get handles GET /{id}: an all-digit segment is an id, anything else a
// slug.
func (res resource[T, In]) Get(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "id"))
	id := middleware.GetIdentity(r)

	var item T
	var err error
	if n, ok := util.IsNumericID(key); ok {
		item, err = res.svc.GetByID(r.Context(), id, n)
	} else {
		item, err = res.svc.GetBySlug(r.Context(), id, key)
	}
	if err != nil {
		res.h.fail(w, r, err)
		return
	}
	WriteSuccess(w, item, nil)
}

// Create handles POST /.
func (res resource[T, In]) Create(w http.ResponseWriter, r *http.Request) {
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		res.h.fail(w, r, err)
		return
	}
	item, err := res.svc.Create(r.Context(), middleware.GetIdentity(r), in)
	if err != nil {
		res.h.fail(w, r, err)
		return
	}
	WriteCreated(w, item, res.label+" created")
}

// Update handles PUT /{id}. Omitted fields keep their stored values.
func (res resource[T, In]) Update(w http.ResponseWriter, r *http.Request) {
	rowID, ok := pathID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid "+strings.ToLower(res.label)+" ID")
		return
	}
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		res.h.fail(w, r, err)
		return
	}
	item, err := res.svc.Update(r.Context(), middleware.GetIdentity(r), rowID, in)
	if err != nil {
		res.h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: item, Message: res.label + " updated"})
}

// Delete handles DELETE /{id}.
func (res resource[T, In]) Delete(w http.ResponseWriter, r *http.Request) {
	rowID, ok := pathID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid "+strings.ToLower(res.label)+" ID")
		return
	}
	if err := res.svc.Delete(r.Context(), middleware.GetIdentity(r), rowID); err != nil {
		res.h.fail(w, r, err)
		return
	}
	WriteMessage(w, res.label+" deleted")
}

func (h *Handler) portfolio() resource[service.PortfolioItem, service.PortfolioInput] {
	return resource[service.PortfolioItem, service.PortfolioInput]{
		h:     h,
		label: "Portfolio item",
		svc:   h.svc.Portfolio,
		list: func(ctx context.Context, id auth.Identity, r *http.Request) ([]service.PortfolioItem, service.ListMeta, error) {
			params, err := contentParams(r)
			if err != nil {
				return nil, service.ListMeta{}, err
			}
			return h.svc.Portfolio.List(ctx, id, params)
		},
	}
}

func (h *Handler) blog() resource[service.BlogPost, service.BlogInput] {
	return resource[service.BlogPost, service.BlogInput]{
		h:     h,
		label: "Blog post",
		svc:   h.svc.Blog,
		list: func(ctx context.Context, id auth.Identity, r *http.Request) ([]service.BlogPost, service.ListMeta, error) {
			params, err := contentParams(r)
			if err != nil {
				return nil, service.ListMeta{}, err
			}
			return h.svc.Blog.List(ctx, id, params)
		},
	}
}

func (h *Handler) services() resource[service.Service, service.ServiceInput] {
	return resource[service.Service, service.ServiceInput]{
		h:     h,
		label: "Service",
		svc:   h.svc.Catalog,
		list: func(ctx context.Context, id auth.Identity, r *http.Request) ([]service.Service, service.ListMeta, error) {
			params, err := contentParams(r)
			if err != nil {
				return nil, service.ListMeta{}, err
			}
			include := true
			if raw := r.URL.Query().Get("include_packages"); raw != "" {
				if include, err = strconv.ParseBool(raw); err != nil {
					return nil, service.ListMeta{}, &service.ValidationError{Field: "include_packages", Message: "Invalid value for include_packages"}
				}
			}
			return h.svc.Catalog.List(ctx, id, service.ServiceListParams{
				ContentListParams: params,
				IncludePackages:   include,
			})
		},
	}
}
