// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

// BlogPost is the API view of an article.
type BlogPost struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Excerpt          string           `json:"excerpt"`
	Content          string           `json:"content"`
	FeaturedImage    *int64           `json:"featured_image"`
	FeaturedImageURL string           `json:"featured_image_url,omitempty"`
	FeaturedImageAlt string           `json:"featured_image_alt,omitempty"`
	Category         string           `json:"category"`
	Tags             model.StringList `json:"tags"`
	AuthorID         *int64           `json:"author_id"`
	AuthorName       string           `json:"author_name,omitempty"`
	ReadingTime      int64            `json:"reading_time"`
	MetaDescription  string           `json:"meta_description"`
	MetaKeywords     string           `json:"meta_keywords"`
	IsPublished      bool             `json:"is_published"`
	IsFeatured       bool             `json:"is_featured"`
	SortOrder        int64            `json:"sort_order"`
	Views            int64            `json:"views"`
	PublishedAt      *time.Time       `json:"published_at"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// BlogInput carries create and update fields for a post.
type BlogInput struct {
	Title           *string   `json:"title"`
	Slug            *string   `json:"slug"`
	Excerpt         *string   `json:"excerpt"`
	Content         *string   `json:"content"`
	FeaturedImage   *int64    `json:"featured_image"`
	Category        *string   `json:"category"`
	Tags            *[]string `json:"tags"`
	AuthorID        *int64    `json:"author_id"`
	MetaDescription *string   `json:"meta_description"`
	MetaKeywords    *string   `json:"meta_keywords"`
	IsPublished     *bool     `json:"is_published"`
	IsFeatured      *bool     `json:"is_featured"`
	SortOrder       *int64    `json:"sort_order"`
}

// BlogService manages blog posts.
type BlogService struct {
	contentRepo
	media MediaStore
}

// NewBlogService creates a new BlogService.
func NewBlogService(db *sql.DB, media MediaStore, events *EventService) *BlogService {
	return &BlogService{
		contentRepo: contentRepo{
			queries: store.New(db),
			table:   store.TableBlog,
			entity:  "blog post",
			events:  events,
			now:     SystemClock,
		},
		media: media,
	}
}

// List returns posts matching params.
func (s *BlogService) List(ctx context.Context, id auth.Identity, params ContentListParams) ([]BlogPost, ListMeta, error) {
	filter, paging := s.filter(id, params)

	rows, err := s.queries.ListBlogPosts(ctx, filter)
	if err != nil {
		return nil, ListMeta{}, fmt.Errorf("listing blog posts: %w", err)
	}

	total := int64(len(rows))
	if paging.PerPage > 0 {
		if total, err = s.count(ctx, filter); err != nil {
			return nil, ListMeta{}, err
		}
	}

	posts := make([]BlogPost, len(rows))
	for i, row := range rows {
		posts[i] = s.view(ctx, row)
	}
	return posts, paging.meta(total), nil
}

// GetByID returns post postID.
func (s *BlogService) GetByID(ctx context.Context, id auth.Identity, postID int64) (BlogPost, error) {
	row, err := s.queries.GetBlogPostByID(ctx, postID)
	if err != nil {
		return BlogPost{}, notFound(err, s.entity)
	}
	return s.read(ctx, id, row)
}

// GetBySlug returns the post with slug.
func (s *BlogService) GetBySlug(ctx context.Context, id auth.Identity, slug string) (BlogPost, error) {
	row, err := s.queries.GetBlogPostBySlug(ctx, slug)
	if err != nil {
		return BlogPost{}, notFound(err, s.entity)
	}
	return s.read(ctx, id, row)
}

func (s *BlogService) read(ctx context.Context, id auth.Identity, row store.BlogPost) (BlogPost, error) {
	if err := s.visible(id, row.IsPublished); err != nil {
		return BlogPost{}, err
	}
	if s.countView(ctx, id, row.ID) {
		row.Views++
	}
	return s.view(ctx, row), nil
}

// Create adds a post authored by the caller unless author_id is given.
func (s *BlogService) Create(ctx context.Context, id auth.Identity, in BlogInput) (BlogPost, error) {
	now := s.now()
	if err := authorize(id, auth.CapContentWrite, now); err != nil {
		return BlogPost{}, err
	}
	if trimmed(in.Title) == "" {
		return BlogPost{}, validationError("title", "Title is required")
	}
	if trimmed(in.Content) == "" {
		return BlogPost{}, validationError("content", "Content is required")
	}

	params := store.BlogPostParams{
		Tags:     model.StringList{},
		AuthorID: sql.NullInt64{Int64: id.UserID, Valid: id.UserID > 0},
	}
	in.apply(&params)
	params.ReadingTime = readingTime(params.Content)
	if params.Excerpt == "" {
		params.Excerpt = deriveExcerpt(params.Content)
	}
	if params.IsPublished {
		params.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}

	var newID int64
	_, err := s.saveWithSlug(ctx, slugRequest{Requested: in.Slug, Title: params.Title}, func(slug string) error {
		params.Slug = slug
		var err error
		newID, err = s.queries.CreateBlogPost(ctx, params, now)
		return err
	})
	if err != nil {
		return BlogPost{}, wrapWrite(err, "creating blog post")
	}

	s.logChange(ctx, id, "created", newID)
	return s.fetch(ctx, newID)
}

// Update changes the fields set in in. Reading time follows the content and
// published_at is stamped on first publication only.
func (s *BlogService) Update(ctx context.Context, id auth.Identity, postID int64, in BlogInput) (BlogPost, error) {
	now := s.now()
	if err := authorize(id, auth.CapContentWrite, now); err != nil {
		return BlogPost{}, err
	}
	if in.Title != nil && trimmed(in.Title) == "" {
		return BlogPost{}, validationError("title", "Title cannot be empty")
	}
	if in.Content != nil && trimmed(in.Content) == "" {
		return BlogPost{}, validationError("content", "Content cannot be empty")
	}

	existing, err := s.queries.GetBlogPostByID(ctx, postID)
	if err != nil {
		return BlogPost{}, notFound(err, s.entity)
	}

	params := store.BlogPostParams{
		Title:           existing.Title,
		Excerpt:         existing.Excerpt,
		Content:         existing.Content,
		FeaturedImage:   existing.FeaturedImage,
		Category:        existing.Category,
		Tags:            existing.Tags,
		AuthorID:        existing.AuthorID,
		ReadingTime:     existing.ReadingTime,
		MetaDescription: existing.MetaDescription,
		MetaKeywords:    existing.MetaKeywords,
		IsPublished:     existing.IsPublished,
		IsFeatured:      existing.IsFeatured,
		SortOrder:       existing.SortOrder,
	}
	in.apply(&params)
	if in.Content != nil {
		params.ReadingTime = readingTime(params.Content)
	}
	if params.Excerpt == "" {
		params.Excerpt = deriveExcerpt(params.Content)
	}
	if params.IsPublished {
		// Only lands when the stored value is NULL.
		params.PublishedAt = sql.NullTime{Time: now, Valid: true}
	}

	req := slugRequest{Requested: in.Slug, Title: params.Title, Current: existing.Slug, ExcludeID: postID}
	_, err = s.saveWithSlug(ctx, req, func(slug string) error {
		params.Slug = slug
		return s.queries.UpdateBlogPost(ctx, postID, params, now)
	})
	if err != nil {
		return BlogPost{}, wrapWrite(err, fmt.Sprintf("updating blog post %d", postID))
	}

	s.logChange(ctx, id, "updated", postID)
	return s.fetch(ctx, postID)
}

// Delete removes post postID. Admin only.
func (s *BlogService) Delete(ctx context.Context, id auth.Identity, postID int64) error {
	return s.delete(ctx, id, postID)
}

func (s *BlogService) fetch(ctx context.Context, postID int64) (BlogPost, error) {
	row, err := s.queries.GetBlogPostByID(ctx, postID)
	if err != nil {
		return BlogPost{}, notFound(err, s.entity)
	}
	return s.view(ctx, row), nil
}

func (s *BlogService) view(ctx context.Context, row store.BlogPost) BlogPost {
	media := resolveMedia(ctx, s.media, row.FeaturedImage)
	post := BlogPost{
		ID:               row.ID,
		Title:            row.Title,
		Slug:             row.Slug,
		Excerpt:          row.Excerpt,
		Content:          row.Content,
		FeaturedImage:    util.Int64Ptr(row.FeaturedImage),
		FeaturedImageURL: media.URL,
		FeaturedImageAlt: media.Alt,
		Category:         row.Category,
		Tags:             row.Tags,
		AuthorID:         util.Int64Ptr(row.AuthorID),
		AuthorName:       row.AuthorName,
		ReadingTime:      row.ReadingTime,
		MetaDescription:  row.MetaDescription,
		MetaKeywords:     row.MetaKeywords,
		IsPublished:      row.IsPublished,
		IsFeatured:       row.IsFeatured,
		SortOrder:        row.SortOrder,
		Views:            row.Views,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.PublishedAt.Valid {
		t := row.PublishedAt.Time
		post.PublishedAt = &t
	}
	return post
}

func (in BlogInput) apply(p *store.BlogPostParams) {
	if in.Title != nil {
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Excerpt != nil {
		p.Excerpt = strings.TrimSpace(*in.Excerpt)
	}
	assign(&p.Content, in.Content)
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	assign(&p.MetaDescription, in.MetaDescription)
	assign(&p.MetaKeywords, in.MetaKeywords)
	assign(&p.IsPublished, in.IsPublished)
	assign(&p.IsFeatured, in.IsFeatured)
	assign(&p.SortOrder, in.SortOrder)

	if in.FeaturedImage != nil {
		p.FeaturedImage = util.NullInt64FromPtr(in.FeaturedImage)
	}
	if in.AuthorID != nil {
		p.AuthorID = util.NullInt64FromPtr(in.AuthorID)
	}
	if in.Tags != nil {
		p.Tags = cleanList(*in.Tags)
	}
}
