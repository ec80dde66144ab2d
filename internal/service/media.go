// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"

	"github.com/olegiv/folio-go/internal/store"
)

// MediaRef is a resolved featured image.
type MediaRef struct {
	URL string
	Alt string
}

// MediaStore resolves media references to display data.
type MediaStore interface {
	Resolve(ctx context.Context, id int64) (MediaRef, error)
}

// DBMediaStore resolves media from the media table.
type DBMediaStore struct {
	queries *store.Queries
}

// NewDBMediaStore creates a media resolver over db.
func NewDBMediaStore(db *sql.DB) *DBMediaStore {
	return &DBMediaStore{queries: store.New(db)}
}

// Resolve returns the URL and alt text of media id.
func (m *DBMediaStore) Resolve(ctx context.Context, id int64) (MediaRef, error) {
	media, err := m.queries.GetMedia(ctx, id)
	if err != nil {
		return MediaRef{}, notFound(err, "media")
	}
	return MediaRef{URL: media.FileURL, Alt: media.AltText}, nil
}

// resolveMedia looks up a featured image, returning an empty ref for NULL,
// missing or unresolvable references. A broken image never fails a read.
func resolveMedia(ctx context.Context, media MediaStore, ref sql.NullInt64) MediaRef {
	if media == nil || !ref.Valid {
		return MediaRef{}
	}
	resolved, err := media.Resolve(ctx, ref.Int64)
	if err != nil {
		return MediaRef{}
	}
	return resolved
}
