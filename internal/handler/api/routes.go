// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
)

// Routes mounts the JSON API on r. The caller is expected to have already
// applied session loading, identity loading and CSRF checks.
func (h *Handler) Routes(r chi.Router) {
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route("/auth", func(r chi.Router) {
		r.With(h.loginProtection.Middleware()).Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/check", h.Check)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.now))
			r.Get("/me", h.Me)
			r.Post("/csrf-token", h.RotateCSRFToken)
			r.Post("/change-password", h.ChangePassword)
			r.With(middleware.RequireRole(model.RoleAdmin, h.now)).Post("/create-user", h.CreateUser)
		})
	})

	r.Route("/portfolio", h.portfolio().routes)
	r.Route("/blog", h.blog().routes)
	r.Route("/services", func(r chi.Router) {
		h.services().routes(r)
		r.Get("/{id}/packages", h.ListPackages)
		r.Post("/{id}/packages", h.CreatePackage)
		r.Get("/{id}/packages/{packageID}", h.GetPackage)
		r.Put("/{id}/packages/{packageID}", h.UpdatePackage)
		r.Delete("/{id}/packages/{packageID}", h.DeletePackage)
	})

	r.Route("/forms", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.formLimiter != nil {
				r.Use(h.formLimiter.Middleware())
			}
			r.Post("/submit", h.Submit)
			r.Post("/newsletter", h.Subscribe)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.now))
			r.Get("/submissions", h.ListSubmissions)
			r.Get("/submissions/{id}", h.GetSubmission)
			r.Put("/submissions/{id}/status", h.UpdateSubmissionStatus)
			r.Delete("/submissions/{id}", h.DeleteSubmission)
			r.Get("/export", h.Export)
			r.Get("/exports/{filename}", h.DownloadExport)
			r.Get("/subscribers", h.ListSubscribers)
			r.Post("/subscribers/unsubscribe", h.Unsubscribe)
		})
	})
}
