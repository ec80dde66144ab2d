// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// BlogPost is an article. AuthorName is joined from users on read.
type BlogPost struct {
	ID              int64
	Title           string
	Slug            string
	Excerpt         string
	Content         string
	FeaturedImage   sql.NullInt64
	Category        string
	Tags            model.StringList
	AuthorID        sql.NullInt64
	AuthorName      string
	ReadingTime     int64
	MetaDescription string
	MetaKeywords    string
	IsPublished     bool
	IsFeatured      bool
	SortOrder       int64
	Views           int64
	PublishedAt     sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const blogSelect = `SELECT b.id, b.title, b.slug, b.excerpt, b.content, b.featured_image, b.category, b.tags,
	b.author_id, COALESCE(TRIM(u.first_name || ' ' || u.last_name), ''), b.reading_time, b.meta_description,
	b.meta_keywords, b.is_published, b.is_featured, b.sort_order, b.views, b.published_at, b.created_at, b.updated_at
	FROM blog_posts b LEFT JOIN users u ON u.id = b.author_id`

func scanBlogPost(row interface{ Scan(...any) error }) (BlogPost, error) {
	var b BlogPost
	err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Excerpt, &b.Content, &b.FeaturedImage, &b.Category,
		&b.Tags, &b.AuthorID, &b.AuthorName, &b.ReadingTime, &b.MetaDescription, &b.MetaKeywords,
		&b.IsPublished, &b.IsFeatured, &b.SortOrder, &b.Views, &b.PublishedAt, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// GetBlogPostByID returns the post with id.
func (q *Queries) GetBlogPostByID(ctx context.Context, id int64) (BlogPost, error) {
	return scanBlogPost(q.db.QueryRowContext(ctx, blogSelect+` WHERE b.id = ?`, id))
}

// GetBlogPostBySlug returns the post with slug.
func (q *Queries) GetBlogPostBySlug(ctx context.Context, slug string) (BlogPost, error) {
	return scanBlogPost(q.db.QueryRowContext(ctx, blogSelect+` WHERE b.slug = ?`, slug))
}

// ListBlogPosts returns posts matching filter, newest publication first.
func (q *Queries) ListBlogPosts(ctx context.Context, filter ContentFilter) ([]BlogPost, error) {
	w := filter.where(TableBlog, "b.")
	limit, args := limitClause(filter.Limit, filter.Offset, w.args)

	rows, err := q.db.QueryContext(ctx, blogSelect+w.clause()+
		` ORDER BY b.sort_order ASC, COALESCE(b.published_at, b.created_at) DESC, b.id DESC`+limit, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	posts := []BlogPost{}
	for rows.Next() {
		b, err := scanBlogPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, b)
	}
	return posts, rows.Err()
}

// BlogPostParams holds the writable columns of a post.
type BlogPostParams struct {
	Title           string
	Slug            string
	Excerpt         string
	Content         string
	FeaturedImage   sql.NullInt64
	Category        string
	Tags            model.StringList
	AuthorID        sql.NullInt64
	ReadingTime     int64
	MetaDescription string
	MetaKeywords    string
	IsPublished     bool
	IsFeatured      bool
	SortOrder       int64
	PublishedAt     sql.NullTime
}

// CreateBlogPost inserts a post and returns its id.
func (q *Queries) CreateBlogPost(ctx context.Context, arg BlogPostParams, now time.Time) (int64, error) {
	return q.insertReturningID(ctx, `
		INSERT INTO blog_posts (title, slug, excerpt, content, featured_image, category, tags, author_id,
			reading_time, meta_description, meta_keywords, is_published, is_featured, sort_order, published_at,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Slug, arg.Excerpt, arg.Content, arg.FeaturedImage, arg.Category, arg.Tags,
		arg.AuthorID, arg.ReadingTime, arg.MetaDescription, arg.MetaKeywords,
		boolToInt(arg.IsPublished), boolToInt(arg.IsFeatured), arg.SortOrder, arg.PublishedAt, now, now)
}

// UpdateBlogPost overwrites the writable columns of post id. published_at is
// only written when the stored value is NULL.
func (q *Queries) UpdateBlogPost(ctx context.Context, id int64, arg BlogPostParams, now time.Time) error {
	return q.execAffectingOne(ctx, `
		UPDATE blog_posts SET title = ?, slug = ?, excerpt = ?, content = ?, featured_image = ?, category = ?,
			tags = ?, author_id = ?, reading_time = ?, meta_description = ?, meta_keywords = ?, is_published = ?,
			is_featured = ?, sort_order = ?, published_at = COALESCE(published_at, ?), updated_at = ?
		WHERE id = ?`,
		arg.Title, arg.Slug, arg.Excerpt, arg.Content, arg.FeaturedImage, arg.Category, arg.Tags,
		arg.AuthorID, arg.ReadingTime, arg.MetaDescription, arg.MetaKeywords,
		boolToInt(arg.IsPublished), boolToInt(arg.IsFeatured), arg.SortOrder, arg.PublishedAt, now, id)
}
