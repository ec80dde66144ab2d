// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/service"
)

// ListPackages handles GET /api/services/{id}/packages.
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := pathID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}
	pkgs, err := h.svc.Catalog.ListPackages(r.Context(), middleware.GetIdentity(r), serviceID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if pkgs == nil {
		pkgs = []service.ServicePackage{}
	}
	WriteSuccess(w, pkgs, nil)
}

// GetPackage handles GET /api/services/{id}/packages/{packageID}.
func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	serviceID, packageID, ok := packagePath(w, r)
	if !ok {
		return
	}
	pkg, err := h.svc.Catalog.GetPackage(r.Context(), middleware.GetIdentity(r), serviceID, packageID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, pkg, nil)
}

// CreatePackage handles POST /api/services/{id}/packages.
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	serviceID, ok := pathID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}
	var in service.PackageInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	pkg, err := h.svc.Catalog.CreatePackage(r.Context(), middleware.GetIdentity(r), serviceID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteCreated(w, pkg, "Package created")
}

// UpdatePackage handles PUT /api/services/{id}/packages/{packageID}.
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	serviceID, packageID, ok := packagePath(w, r)
	if !ok {
		return
	}
	var in service.PackageInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	pkg, err := h.svc.Catalog.UpdatePackage(r.Context(), middleware.GetIdentity(r), serviceID, packageID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, Response{Success: true, Data: pkg, Message: "Package updated"})
}

// DeletePackage handles DELETE /api/services/{id}/packages/{packageID}.
func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	serviceID, packageID, ok := packagePath(w, r)
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeletePackage(r.Context(), middleware.GetIdentity(r), serviceID, packageID); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteMessage(w, "Package deleted")
}

func packagePath(w http.ResponseWriter, r *http.Request) (serviceID, packageID int64, ok bool) {
	if serviceID, ok = pathID(r, "id"); !ok {
		WriteError(w, http.StatusBadRequest, "Invalid service ID")
		return 0, 0, false
	}
	if packageID, ok = pathID(r, "packageID"); !ok {
		WriteError(w, http.StatusBadRequest, "Invalid package ID")
		return 0, 0, false
	}
	return serviceID, packageID, true
}
