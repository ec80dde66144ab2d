// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/notify"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/session"
	"github.com/olegiv/folio-go/internal/testutil"
)

const (
	adminEmail     = "admin@example.com"
	adminPassword  = "admin-password"
	editorEmail    = "editor@example.com"
	editorPassword = "editor-password"
)

// testServer runs the API behind the same session, identity and CSRF
// layers the binary uses.
type testServer struct {
	*httptest.Server
	exportsDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	testutil.CreateUser(t, db, adminEmail, adminPassword, model.RoleAdmin)
	testutil.CreateUser(t, db, editorEmail, editorPassword, model.RoleEditor)

	exportsDir := filepath.Join(t.TempDir(), "exports")
	events := service.NewEventService(db)
	media := service.NewDBMediaStore(db)
	newsletter := service.NewNewsletterService(db, events)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 3,
		LockoutDuration:   15 * time.Minute,
		AttemptWindow:     15 * time.Minute,
	})
	t.Cleanup(lp.Stop)

	sm := session.New(db, true)
	h := NewHandler(Config{
		Sessions: sm,
		Services: Services{
			Auth:      service.NewAuthService(db, events),
			Portfolio: service.NewPortfolioService(db, media, events),
			Blog:      service.NewBlogService(db, media, events),
			Catalog:   service.NewCatalogService(db, media, events),
			Submissions: service.NewSubmissionService(db, events, service.SubmissionConfig{
				Notifier:      notify.LogNotifier{Logger: testutil.TestLogger()},
				Newsletter:    newsletter,
				OperatorEmail: "owner@example.com",
				ExportsDir:    exportsDir,
			}),
			Newsletter: newsletter,
		},
		LoginProtection: lp,
	})

	r := chi.NewRouter()
	r.Use(sm.LoadAndSave)
	r.Use(middleware.LoadIdentity(sm, nil))
	r.Use(middleware.RequireCSRFToken(nil, "/api/auth/login", "/api/auth/logout"))
	r.Route("/api", h.Routes)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, exportsDir: exportsDir}
}

// client is a cookie-carrying API caller.
type client struct {
	t    *testing.T
	srv  *testServer
	http *http.Client
	csrf string
}

func (s *testServer) anonymous(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, srv: s, http: &http.Client{Jar: jar}}
}

// login returns a client holding a session for email and its CSRF token.
func (s *testServer) login(t *testing.T, email, password string) *client {
	t.Helper()
	c := s.anonymous(t)
	resp, body := c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "login: %s", body)

	var env struct {
		Data SessionResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	require.NotEmpty(t, env.Data.CSRFToken)
	c.csrf = env.Data.CSRFToken
	return c
}

// do sends body as JSON and returns the response with its body read.
func (c *client) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, rd)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set(middleware.CSRFHeader, c.csrf)
	}
	return c.send(req)
}

func (c *client) send(req *http.Request) (*http.Response, []byte) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, b
}

// envelope is the decoded form of Response with Data left raw.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Meta    *service.ListMeta `json:"meta"`
}

func decode(t *testing.T, body []byte) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}

func decodeData[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(decode(t, body).Data, &v))
	return v
}
