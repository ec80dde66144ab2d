// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/service"
)

func TestPortfolioCRUD(t *testing.T) {
	srv := newTestServer(t)
	editor := srv.login(t, editorEmail, editorPassword)
	admin := srv.login(t, adminEmail, adminPassword)
	anon := srv.anonymous(t)

	resp, body := editor.do(http.MethodPost, "/api/portfolio", map[string]any{
		"title":        "Brand Refresh",
		"category":     "Branding",
		"tags":         []string{"logo", " ", "identity"},
		"is_published": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
	assert.Equal(t, "Portfolio item created", decode(t, body).Message)
	item := decodeData[service.PortfolioItem](t, body)
	assert.Equal(t, "brand-refresh", item.Slug)
	assert.Equal(t, []string{"logo", "identity"}, []string(item.Tags))

	resp, body = editor.do(http.MethodPost, "/api/portfolio", map[string]any{"title": "Secret Draft"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	draft := decodeData[service.PortfolioItem](t, body)
	assert.False(t, draft.IsPublished)

	t.Run("anonymous list hides drafts", func(t *testing.T) {
		resp, body := anon.do(http.MethodGet, "/api/portfolio", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		items := decodeData[[]service.PortfolioItem](t, body)
		require.Len(t, items, 1)
		assert.Equal(t, item.ID, items[0].ID)
		assert.Nil(t, decode(t, body).Meta)
	})

	t.Run("editor list includes drafts", func(t *testing.T) {
		_, body := editor.do(http.MethodGet, "/api/portfolio", nil)
		assert.Len(t, decodeData[[]service.PortfolioItem](t, body), 2)
	})

	t.Run("paged list carries meta", func(t *testing.T) {
		_, body := editor.do(http.MethodGet, "/api/portfolio?per_page=1&page=2", nil)
		env := decode(t, body)
		require.NotNil(t, env.Meta)
		assert.Equal(t, int64(2), env.Meta.Total)
		assert.Equal(t, 2, env.Meta.Pages)
		assert.Len(t, decodeData[[]service.PortfolioItem](t, body), 1)
	})

	t.Run("anonymous draft lookup is not found", func(t *testing.T) {
		resp, body := anon.do(http.MethodGet, fmt.Sprintf("/api/portfolio/%d", draft.ID), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Portfolio item not found", decode(t, body).Message)
	})

	t.Run("slug lookup counts anonymous views", func(t *testing.T) {
		resp, body := anon.do(http.MethodGet, "/api/portfolio/brand-refresh", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(1), decodeData[service.PortfolioItem](t, body).Views)

		_, body = editor.do(http.MethodGet, fmt.Sprintf("/api/portfolio/%d", item.ID), nil)
		assert.Equal(t, int64(1), decodeData[service.PortfolioItem](t, body).Views)
	})

	t.Run("categories", func(t *testing.T) {
		_, body := anon.do(http.MethodGet, "/api/portfolio/categories", nil)
		assert.Equal(t, []string{"Branding"}, decodeData[[]string](t, body))
	})

	t.Run("update", func(t *testing.T) {
		resp, body := editor.do(http.MethodPut, fmt.Sprintf("/api/portfolio/%d", item.ID), map[string]any{
			"client_name": "Acme",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)
		updated := decodeData[service.PortfolioItem](t, body)
		assert.Equal(t, "Acme", updated.ClientName)
		assert.Equal(t, "Brand Refresh", updated.Title)
	})

	t.Run("explicit slug conflict", func(t *testing.T) {
		resp, body := editor.do(http.MethodPut, fmt.Sprintf("/api/portfolio/%d", draft.ID), map[string]any{
			"slug": "brand-refresh",
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, `Slug "brand-refresh" already exists`, decode(t, body).Message)
	})

	t.Run("editor cannot delete", func(t *testing.T) {
		resp, _ := editor.do(http.MethodDelete, fmt.Sprintf("/api/portfolio/%d", draft.ID), nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin deletes", func(t *testing.T) {
		resp, body := admin.do(http.MethodDelete, fmt.Sprintf("/api/portfolio/%d", draft.ID), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Portfolio item deleted", decode(t, body).Message)

		resp, _ = admin.do(http.MethodDelete, fmt.Sprintf("/api/portfolio/%d", draft.ID), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestContentWriteErrors(t *testing.T) {
	srv := newTestServer(t)
	editor := srv.login(t, editorEmail, editorPassword)

	tests := []struct {
		name    string
		c       *client
		method  string
		path    string
		body    any
		status  int
		message string
	}{
		{"anonymous create", srv.anonymous(t), http.MethodPost, "/api/blog", map[string]any{"title": "x"}, http.StatusUnauthorized, "Authentication required"},
		{"missing title", editor, http.MethodPost, "/api/portfolio", map[string]any{"content": "x"}, http.StatusBadRequest, "Title is required"},
		{"bad project url", editor, http.MethodPost, "/api/portfolio", map[string]any{"title": "x", "project_url": "ftp://x"}, http.StatusBadRequest, "Project URL must be an http or https URL"},
		{"invalid id", editor, http.MethodPut, "/api/portfolio/abc", map[string]any{"title": "x"}, http.StatusBadRequest, "Invalid portfolio item ID"},
		{"unknown id", editor, http.MethodPut, "/api/services/999", map[string]any{"title": "x"}, http.StatusNotFound, "Service not found"},
		{"bad query", editor, http.MethodGet, "/api/blog?is_featured=maybe", nil, http.StatusBadRequest, ""},
		{"method not allowed", editor, http.MethodPatch, "/api/portfolio", nil, http.StatusMethodNotAllowed, "Method not allowed"},
		{"unknown route", editor, http.MethodGet, "/api/nowhere", nil, http.StatusNotFound, "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := tt.c.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, "body: %s", body)
			env := decode(t, body)
			assert.False(t, env.Success)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)
	c := srv.login(t, editorEmail, editorPassword)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/portfolio", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", c.csrf)

	resp, body := c.send(req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request body", decode(t, body).Message)
}

func TestServicesWithPackages(t *testing.T) {
	srv := newTestServer(t)
	editor := srv.login(t, editorEmail, editorPassword)
	admin := srv.login(t, adminEmail, adminPassword)
	anon := srv.anonymous(t)

	resp, body := editor.do(http.MethodPost, "/api/services", map[string]any{
		"title":        "Web Design",
		"features":     []string{"Responsive", "SEO"},
		"is_published": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
	svc := decodeData[service.Service](t, body)
	base := fmt.Sprintf("/api/services/%d/packages", svc.ID)

	resp, body = editor.do(http.MethodPost, base, map[string]any{"name": "Basic"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Price is required", decode(t, body).Message)

	resp, body = editor.do(http.MethodPost, base, map[string]any{
		"name":      "Basic",
		"price":     499.0,
		"revisions": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", body)
	pkg := decodeData[service.ServicePackage](t, body)
	assert.Equal(t, svc.ID, pkg.ServiceID)

	t.Run("list embeds packages", func(t *testing.T) {
		_, body := anon.do(http.MethodGet, "/api/services", nil)
		list := decodeData[[]service.Service](t, body)
		require.Len(t, list, 1)
		require.Len(t, list[0].Packages, 1)
		assert.Equal(t, "Basic", list[0].Packages[0].Name)

		_, body = anon.do(http.MethodGet, "/api/services?include_packages=false", nil)
		list = decodeData[[]service.Service](t, body)
		require.Len(t, list, 1)
		assert.Empty(t, list[0].Packages)
	})

	t.Run("package routes", func(t *testing.T) {
		resp, body := anon.do(http.MethodGet, base, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeData[[]service.ServicePackage](t, body), 1)

		path := fmt.Sprintf("%s/%d", base, pkg.ID)
		resp, body = editor.do(http.MethodPut, path, map[string]any{"price": 599.0})
		require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", body)
		assert.InDelta(t, 599.0, decodeData[service.ServicePackage](t, body).Price, 0.001)

		resp, _ = anon.do(http.MethodGet, fmt.Sprintf("/api/services/%d/packages/%d", svc.ID+1, pkg.ID), nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		resp, _ = admin.do(http.MethodDelete, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp, _ = anon.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
