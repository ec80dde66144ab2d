// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/service"
)

// SubmitResponse is returned by a successful submit.
type SubmitResponse struct {
	ID int64 `json:"id"`
}

// StatusRequest is the body of a status update.
type StatusRequest struct {
	Status string `json:"status"`
}

// UnsubscribeRequest is the body of an unsubscribe call.
type UnsubscribeRequest struct {
	Email string `json:"email"`
}

// Submit handles POST /api/forms/submit. The body is the flat form payload
// with its type under form_type. The whole payload is stored as sent.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	data, err := readPayload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	formType, _ := data.Get("form_type")
	formType = strings.TrimSpace(formType)
	if formType == "" {
		WriteError(w, http.StatusBadRequest, "Form type is required")
		return
	}

	id, err := h.svc.Submissions.Submit(r.Context(), formType, data, clientInfo(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteCreated(w, SubmitResponse{ID: id}, "Thank you! Your submission has been received.")
}

// Subscribe handles POST /api/forms/newsletter.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	data, err := readPayload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	email, _ := data.Get("email")
	if strings.TrimSpace(email) == "" {
		WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}
	name, _ := data.Get("name")
	source, _ := data.Get("source")
	if strings.TrimSpace(source) == "" {
		source = service.SourceAPI
	}

	sub, err := h.svc.Newsletter.Subscribe(r.Context(), email, name, source, clientInfo(r).IP)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteCreated(w, sub, "Successfully subscribed to newsletter")
}

// ListSubmissions handles GET /api/forms/submissions.
func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	params, err := submissionParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	subs, meta, err := h.svc.Submissions.List(r.Context(), middleware.GetIdentity(r), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if subs == nil {
		subs = []service.Submission{}
	}
	if meta.PerPage > 0 {
		WriteSuccess(w, subs, &meta)
		return
	}
	WriteSuccess(w, subs, nil)
}

// GetSubmission handles GET /api/forms/submissions/{id}.
func (h *Handler) GetSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid submission ID")
		return
	}
	sub, err := h.svc.Submissions.Get(r.Context(), middleware.GetIdentity(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, sub, nil)
}

// UpdateSubmissionStatus handles PUT /api/forms/submissions/{id}/status.
func (h *Handler) UpdateSubmissionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid submission ID")
		return
	}
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Status) == "" {
		WriteError(w, http.StatusBadRequest, "Status is required")
		return
	}
	if err := h.svc.Submissions.UpdateStatus(r.Context(), middleware.GetIdentity(r), id, strings.TrimSpace(req.Status)); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteMessage(w, "Status updated")
}

// DeleteSubmission handles DELETE /api/forms/submissions/{id}.
func (h *Handler) DeleteSubmission(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		WriteError(w, http.StatusBadRequest, "Invalid submission ID")
		return
	}
	if err := h.svc.Submissions.Delete(r.Context(), middleware.GetIdentity(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteMessage(w, "Submission deleted")
}

// Export handles GET /api/forms/export. The response points at the
// download route; the file itself is never served statically.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	params, err := submissionParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	file, err := h.svc.Submissions.Export(r.Context(), middleware.GetIdentity(r), params)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	WriteSuccess(w, file, nil)
}

// DownloadExport handles GET /api/forms/exports/{filename}.
func (h *Handler) DownloadExport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, err := h.svc.Submissions.OpenExport(r.Context(), middleware.GetIdentity(r), name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// ListSubscribers handles GET /api/forms/subscribers. Status defaults to active.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.Newsletter.List(r.Context(), middleware.GetIdentity(r), strings.TrimSpace(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if subs == nil {
		subs = []service.Subscriber{}
	}
	WriteSuccess(w, subs, nil)
}

// Unsubscribe handles POST /api/forms/subscribers/unsubscribe.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var req UnsubscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		WriteError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if err := h.svc.Newsletter.Unsubscribe(r.Context(), middleware.GetIdentity(r), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	WriteMessage(w, "Subscriber unsubscribed")
}

