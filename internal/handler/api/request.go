// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/service"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// decodeJSON reads a JSON object body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: body is empty", errInvalidBody)
		}
		return fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return nil
}

// readPayload reads a flat key/value body sent either as JSON or as an
// urlencoded/multipart form. Keys keep the order they appear in the body.
// A repeated form key keeps its first position and its last value. File
// parts are ignored.
func readPayload(w http.ResponseWriter, r *http.Request) (model.FormData, error) {
	if !isForm(r) {
		var data model.FormData
		if err := decodeJSON(w, r, &data); err != nil {
			return nil, err
		}
		return data, nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var (
		data model.FormData
		err  error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		data, err = readMultipartFields(r)
	} else {
		data, err = readURLEncodedFields(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidBody, err)
	}
	return data, nil
}

func readURLEncodedFields(r *http.Request) (model.FormData, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	data := model.FormData{}
	for _, pair := range strings.Split(string(body), "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, err
		}
		if key != "" {
			data.Set(key, value)
		}
	}
	return data, nil
}

func readMultipartFields(r *http.Request) (model.FormData, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, err
	}

	data := model.FormData{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return data, nil
		}
		if err != nil {
			return nil, err
		}
		name := part.FormName()
		if name == "" || part.FileName() != "" {
			_ = part.Close()
			continue
		}
		value, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		data.Set(name, string(value))
	}
}

func isForm(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/x-www-form-urlencoded" || mt == "multipart/form-data"
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryBool parses an optional boolean filter. Absent or empty means no filter.
func queryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &service.ValidationError{Field: key, Message: "Invalid value for " + key}
	}
	return &v, nil
}

// paging reads page and per_page. Without per_page every row is returned.
func paging(r *http.Request) (service.Paging, error) {
	q := r.URL.Query()
	var p service.Paging

	if raw := q.Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, &service.ValidationError{Field: "per_page", Message: "Invalid per_page"}
		}
		p.PerPage = n
	}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, &service.ValidationError{Field: "page", Message: "Invalid page"}
		}
		p.Page = n
		if p.PerPage == 0 {
			p.PerPage = service.DefaultPerPage
		}
	}
	return p, nil
}

// contentParams reads the shared content list filters.
func contentParams(r *http.Request) (service.ContentListParams, error) {
	q := r.URL.Query()
	params := service.ContentListParams{
		Category: strings.TrimSpace(q.Get("category")),
		Search:   strings.TrimSpace(q.Get("search")),
	}

	var err error
	if params.IsFeatured, err = queryBool(r, "is_featured"); err != nil {
		return params, err
	}
	if params.IsPublished, err = queryBool(r, "is_published"); err != nil {
		return params, err
	}
	if raw := q.Get("author_id"); raw != "" {
		n, convErr := strconv.ParseInt(raw, 10, 64)
		if convErr != nil || n < 1 {
			return params, &service.ValidationError{Field: "author_id", Message: "Invalid author_id"}
		}
		params.AuthorID = n
	}
	if params.Paging, err = paging(r); err != nil {
		return params, err
	}
	return params, nil
}

// submissionParams reads the submission list and export filters.
func submissionParams(r *http.Request) (service.SubmissionListParams, error) {
	q := r.URL.Query()
	params := service.SubmissionListParams{
		FormType: strings.TrimSpace(q.Get("form_type")),
		Status:   strings.TrimSpace(q.Get("status")),
		Search:   strings.TrimSpace(q.Get("search")),
		DateFrom: strings.TrimSpace(q.Get("date_from")),
		DateTo:   strings.TrimSpace(q.Get("date_to")),
	}
	var err error
	params.Paging, err = paging(r)
	return params, err
}
