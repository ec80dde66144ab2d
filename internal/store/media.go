package store

import (
	"context"
	"time"
)

// Media is an uploaded file reference. Uploads are handled elsewhere; this
// service only resolves references.
type Media struct {
	ID        int64
	Filename  string
	FileURL   string
	AltText   string
	MimeType  string
	CreatedAt time.Time
}

// GetMedia returns the media row with id.
func (q *Queries) GetMedia(ctx context.Context, id int64) (Media, error) {
	var m Media
	err := q.db.QueryRowContext(ctx,
		`SELECT id, filename, file_url, alt_text, mime_type, created_at FROM media WHERE id = ?`, id).
		Scan(&m.ID, &m.Filename, &m.FileURL, &m.AltText, &m.MimeType, &m.CreatedAt)
	return m, err
}

// CreateMediaParams holds the columns for a media row.
type CreateMediaParams struct {
	Filename  string
	FileURL   string
	AltText   string
	MimeType  string
	CreatedAt time.Time
}

// CreateMedia registers a media reference and returns its id.
func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (int64, error) {
	return q.insertReturningID(ctx,
		`INSERT INTO media (filename, file_url, alt_text, mime_type, created_at) VALUES (?, ?, ?, ?, ?)`,
		arg.Filename, arg.FileURL, arg.AltText, arg.MimeType, arg.CreatedAt)
}
