// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

func TestPortfolioSlugDerivation(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)
	ctx := context.Background()

	first, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Hello World")})
	require.NoError(t, err)
	assert.Equal(t, "hello-world", first.Slug)

	second, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Hello, World!")})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", second.Slug)

	third, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Hello World")})
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", third.Slug)

	symbols, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("!!!")})
	require.NoError(t, err)
	assert.Equal(t, "item", symbols.Slug)

	custom, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Other"), Slug: strPtr("My Custom Slug")})
	require.NoError(t, err)
	assert.Equal(t, "my-custom-slug", custom.Slug)

	_, err = svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Clash"), Slug: strPtr("hello-world")})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestBlogSlugSequence(t *testing.T) {
	f := newFixture(t)
	svc := NewBlogService(f.db, nil, f.events)
	ctx := context.Background()

	want := []string{"my-great-project", "my-great-project-1", "my-great-project-2"}
	for i, slug := range want {
		post, err := svc.Create(ctx, f.editor, BlogInput{
			Title:   strPtr("My Great Project!"),
			Content: strPtr("Body"),
		})
		require.NoError(t, err)
		assert.Equal(t, slug, post.Slug, "post %d", i+1)
	}
}

func TestConcurrentCreateSameTitle(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)

	// Each lost insert means another worker committed, so no worker can run
	// out of attempts.
	const workers = maxSlugAttempts
	slugs := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item, err := svc.Create(context.Background(), f.editor, PortfolioInput{Title: strPtr("Race")})
			slugs[i], errs[i] = item.Slug, err
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, workers)
	for i := range workers {
		require.NoError(t, errs[i], "worker %d", i)
		assert.False(t, seen[slugs[i]], "slug %q issued twice", slugs[i])
		seen[slugs[i]] = true
	}
	for i := range workers {
		assert.True(t, seen[util.SlugCandidate("race", i)], "missing slug %q", util.SlugCandidate("race", i))
	}
}

func TestPortfolioUpdateSlug(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)
	ctx := context.Background()

	a, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Alpha")})
	require.NoError(t, err)
	b, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Beta")})
	require.NoError(t, err)

	// A title change without a slug keeps the stored slug.
	updated, err := svc.Update(ctx, f.editor, a.ID, PortfolioInput{Title: strPtr("Alpha Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "alpha", updated.Slug)
	assert.Equal(t, "Alpha Renamed", updated.Title)

	// Re-sending the own slug is not a conflict.
	_, err = svc.Update(ctx, f.editor, a.ID, PortfolioInput{Slug: strPtr("alpha")})
	assert.NoError(t, err)

	_, err = svc.Update(ctx, f.editor, a.ID, PortfolioInput{Slug: strPtr(b.Slug)})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Update(ctx, f.editor, 9999, PortfolioInput{Title: strPtr("Missing")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPortfolioValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)
	ctx := context.Background()

	tests := []struct {
		name  string
		input PortfolioInput
		field string
	}{
		{"missing title", PortfolioInput{}, "title"},
		{"blank title", PortfolioInput{Title: strPtr("   ")}, "title"},
		{"bad url", PortfolioInput{Title: strPtr("X"), ProjectURL: strPtr("javascript:alert(1)")}, "project_url"},
		{"bad date", PortfolioInput{Title: strPtr("X"), CompletionDate: strPtr("05/01/2025")}, "completion_date"},
		{"slug without letters", PortfolioInput{Title: strPtr("X"), Slug: strPtr("***")}, "slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, f.editor, tt.input)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestContentAuthorization(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)
	ctx := context.Background()

	_, err := svc.Create(ctx, auth.Anonymous(), PortfolioInput{Title: strPtr("Nope")})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Create(ctx, expired(f.editor), PortfolioInput{Title: strPtr("Nope")})
	assert.ErrorIs(t, err, ErrUnauthorized)

	item, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Mine")})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, f.editor, item.ID), ErrForbidden)
	assert.NoError(t, svc.Delete(ctx, f.admin, item.ID))
	assert.ErrorIs(t, svc.Delete(ctx, f.admin, item.ID), ErrNotFound)
}

func TestAnonymousVisibility(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)
	ctx := context.Background()

	pub, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Public"), IsPublished: boolPtr(true)})
	require.NoError(t, err)
	draft, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Draft")})
	require.NoError(t, err)

	// Asking for drafts explicitly still yields published rows only.
	items, meta, err := svc.List(ctx, auth.Anonymous(), ContentListParams{IsPublished: boolPtr(false)})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, pub.ID, items[0].ID)
	assert.Equal(t, int64(1), meta.Total)

	items, _, err = svc.List(ctx, f.editor, ContentListParams{})
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = svc.GetBySlug(ctx, auth.Anonymous(), draft.Slug)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.GetByID(ctx, auth.Anonymous(), draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetByID(ctx, f.editor, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", got.Title)
}

func TestViewCounting(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)
	ctx := context.Background()

	item, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Counted"), IsPublished: boolPtr(true)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), item.Views)

	got, err := svc.GetBySlug(ctx, auth.Anonymous(), item.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	got, err = svc.GetByID(ctx, auth.Anonymous(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)

	// Staff previews are not counted.
	got, err = svc.GetBySlug(ctx, f.editor, item.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Views)
}

func TestContentPaging(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)
	ctx := context.Background()

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr(title), Category: strPtr("web")})
		require.NoError(t, err)
	}

	items, meta, err := svc.List(ctx, f.editor, ContentListParams{Paging: Paging{Page: 2, PerPage: 2}})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, ListMeta{Total: 3, Page: 2, PerPage: 2, Pages: 2}, meta)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"web"}, cats)
}

func TestFeaturedImageResolution(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mediaID, err := store.New(f.db).CreateMedia(ctx, store.CreateMediaParams{
		Filename:  "cover.jpg",
		FileURL:   "/uploads/cover.jpg",
		AltText:   "Cover",
		MimeType:  "image/jpeg",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	svc := NewPortfolioService(f.db, NewDBMediaStore(f.db), f.events)
	item, err := svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("With image"), FeaturedImage: int64Ptr(mediaID)})
	require.NoError(t, err)
	assert.Equal(t, "/uploads/cover.jpg", item.FeaturedImageURL)
	assert.Equal(t, "Cover", item.FeaturedImageAlt)

	// Zero clears the reference.
	item, err = svc.Update(ctx, f.editor, item.ID, PortfolioInput{FeaturedImage: int64Ptr(0)})
	require.NoError(t, err)
	assert.Nil(t, item.FeaturedImage)
	assert.Empty(t, item.FeaturedImageURL)

	_, err = svc.Create(ctx, f.editor, PortfolioInput{Title: strPtr("Dangling"), FeaturedImage: int64Ptr(4242)})
	assert.True(t, IsValidation(err), "dangling media id should be a validation error, got %v", err)
}

func TestBlogDerivedFields(t *testing.T) {
	f := newFixture(t)
	svc := NewBlogService(f.db, fakeMedia{}, f.events)
	ctx := context.Background()

	content := strings.Repeat("word ", 450)
	post, err := svc.Create(ctx, f.editor, BlogInput{Title: strPtr("Long read"), Content: strPtr(content)})
	require.NoError(t, err)

	assert.Equal(t, int64(3), post.ReadingTime)
	require.NotNil(t, post.AuthorID)
	assert.Equal(t, f.editor.UserID, *post.AuthorID)
	assert.Equal(t, "Test editor", post.AuthorName)
	assert.True(t, strings.HasSuffix(post.Excerpt, "…"))
	assert.LessOrEqual(t, len(post.Excerpt), excerptLength+len("…"))
	assert.Nil(t, post.PublishedAt)

	post, err = svc.Update(ctx, f.editor, post.ID, BlogInput{Content: strPtr("# Short\n\nJust a <b>few</b> words.")})
	require.NoError(t, err)
	assert.Equal(t, int64(1), post.ReadingTime)

	_, err = svc.Create(ctx, f.editor, BlogInput{Title: strPtr("No body")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "content", verr.Field)
}

func TestBlogPublishedAtNeverCleared(t *testing.T) {
	f := newFixture(t)
	svc := NewBlogService(f.db, nil, f.events)
	ctx := context.Background()

	post, err := svc.Create(ctx, f.editor, BlogInput{
		Title:       strPtr("Announcement"),
		Content:     strPtr("Hello there"),
		IsPublished: boolPtr(true),
	})
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt)
	first := *post.PublishedAt

	post, err = svc.Update(ctx, f.editor, post.ID, BlogInput{IsPublished: boolPtr(false)})
	require.NoError(t, err)
	require.NotNil(t, post.PublishedAt, "unpublishing must keep published_at")
	assert.True(t, first.Equal(*post.PublishedAt))

	post, err = svc.Update(ctx, f.editor, post.ID, BlogInput{IsPublished: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, first.Equal(*post.PublishedAt), "republishing must not move published_at")
}

func TestBlogSearchAndAuthorFilter(t *testing.T) {
	f := newFixture(t)
	svc := NewBlogService(f.db, nil, f.events)
	ctx := context.Background()

	_, err := svc.Create(ctx, f.editor, BlogInput{Title: strPtr("Go tips"), Content: strPtr("channels and goroutines")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, f.admin, BlogInput{Title: strPtr("Design"), Content: strPtr("typography 100% matters")})
	require.NoError(t, err)

	posts, _, err := svc.List(ctx, f.editor, ContentListParams{Search: "goroutines"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Go tips", posts[0].Title)

	// LIKE wildcards in the term match literally.
	posts, _, err = svc.List(ctx, f.editor, ContentListParams{Search: "100%"})
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	posts, _, err = svc.List(ctx, f.editor, ContentListParams{AuthorID: f.admin.UserID})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Design", posts[0].Title)
}

func TestCatalogPackages(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db, nil, f.events)
	ctx := context.Background()

	web, err := svc.Create(ctx, f.editor, ServiceInput{Title: strPtr("Web Design"), BasePrice: floatPtr(500)})
	require.NoError(t, err)
	seo, err := svc.Create(ctx, f.editor, ServiceInput{Title: strPtr("SEO")})
	require.NoError(t, err)
	assert.True(t, web.IsPublished, "services are active by default")

	_, err = svc.CreatePackage(ctx, f.editor, web.ID, PackageInput{Name: strPtr("Free"), Price: floatPtr(0)})
	assert.True(t, IsValidation(err))
	_, err = svc.CreatePackage(ctx, f.editor, web.ID, PackageInput{Name: strPtr("No price")})
	assert.True(t, IsValidation(err))
	_, err = svc.CreatePackage(ctx, f.editor, 9999, PackageInput{Name: strPtr("Orphan"), Price: floatPtr(10)})
	assert.ErrorIs(t, err, ErrNotFound)

	basic, err := svc.CreatePackage(ctx, f.editor, web.ID, PackageInput{
		Name:     strPtr("Basic"),
		Price:    floatPtr(499),
		Features: &[]string{"5 pages", " ", "Contact form"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"5 pages", "Contact form"}, []string(basic.Features))

	got, err := svc.GetByID(ctx, auth.Anonymous(), web.ID)
	require.NoError(t, err)
	require.Len(t, got.Packages, 1)
	assert.Equal(t, "Basic", got.Packages[0].Name)

	_, err = svc.GetPackage(ctx, f.editor, seo.ID, basic.ID)
	assert.ErrorIs(t, err, ErrNotFound, "package must belong to the service in the path")

	updated, err := svc.UpdatePackage(ctx, f.editor, web.ID, basic.ID, PackageInput{Price: floatPtr(549)})
	require.NoError(t, err)
	assert.Equal(t, 549.0, updated.Price)
	assert.Equal(t, "Basic", updated.Name)

	list, _, err := svc.List(ctx, auth.Anonymous(), ServiceListParams{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, s := range list {
		assert.Nil(t, s.Packages)
	}

	assert.ErrorIs(t, svc.DeletePackage(ctx, f.editor, web.ID, basic.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, f.admin, web.ID))

	pkgs, err := store.New(f.db).ListServicePackages(ctx, web.ID)
	require.NoError(t, err)
	assert.Empty(t, pkgs)

	_, err = svc.ListPackages(ctx, f.editor, web.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogInactiveServiceHidden(t *testing.T) {
	f := newFixture(t)
	svc := NewCatalogService(f.db, nil, f.events)
	ctx := context.Background()

	hidden, err := svc.Create(ctx, f.editor, ServiceInput{Title: strPtr("Retired"), IsPublished: boolPtr(false)})
	require.NoError(t, err)
	_, err = svc.CreatePackage(ctx, f.editor, hidden.ID, PackageInput{Name: strPtr("Old"), Price: floatPtr(1)})
	require.NoError(t, err)

	_, err = svc.ListPackages(ctx, auth.Anonymous(), hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	pkgs, err := svc.ListPackages(ctx, f.editor, hidden.ID)
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

func TestSaveWithSlugRetriesOnRace(t *testing.T) {
	f := newFixture(t)
	svc := NewPortfolioService(f.db, nil, f.events)
	ctx := context.Background()

	calls := 0
	slug, err := svc.saveWithSlug(ctx, slugRequest{Title: "Race"}, func(slug string) error {
		calls++
		if calls < 3 {
			return errors.New("UNIQUE constraint failed: portfolio_items.slug")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "race", slug)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = svc.saveWithSlug(ctx, slugRequest{Title: "Race"}, func(string) error {
		calls++
		return errors.New("UNIQUE constraint failed: portfolio_items.slug")
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, maxSlugAttempts, calls)
}
