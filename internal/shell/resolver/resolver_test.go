package resolver

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbilisoft/carwise/internal/core/domain"
	"github.com/tbilisoft/carwise/internal/shell/store"
)

func setupResolver(t *testing.T) (*Resolver, store.Store) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return New(s, nil), s
}

func insertListing(t *testing.T, s store.Store, kind domain.Kind, name, slug string) *domain.Listing {
	t.Helper()
	listing, err := domain.NewListing(kind, name)
	require.NoError(t, err)
	listing.Slug = slug
	require.NoError(t, s.CreateListing(context.Background(), listing))
	return listing
}

func TestFindBySlug_ExactMatch(t *testing.T) {
	r, s := setupResolver(t)

	created := insertListing(t, s, domain.KindMechanic, "Gio Service", "gio-service")

	got, err := r.FindBySlug(context.Background(), domain.KindMechanic, "gio-service")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestFindBySlug_RoundTrip(t *testing.T) {
	r, s := setupResolver(t)
	ctx := context.Background()

	listings := []*domain.Listing{
		insertListing(t, s, domain.KindMechanic, "Shop A", "shop-a"),
		insertListing(t, s, domain.KindCarwash, "Wash B", "wash-b"),
		insertListing(t, s, domain.KindPost, "Post C", "post-c"),
	}

	for _, l := range listings {
		got, err := r.FindBySlug(ctx, l.Kind, l.Slug)
		require.NoError(t, err)
		assert.Equal(t, l.ID, got.ID)
	}
}

func TestFindBySlug_NumericFallback(t *testing.T) {
	r, s := setupResolver(t)

	created := insertListing(t, s, domain.KindEvacuator, "Fast Tow", "fast-tow")

	got, err := r.FindBySlug(context.Background(), domain.KindEvacuator, strconv.FormatInt(created.ID, 10))
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestFindBySlug_NumericSlugPreferredOverID(t *testing.T) {
	r, s := setupResolver(t)
	ctx := context.Background()

	insertListing(t, s, domain.KindPost, "First", "first")
	numeric := insertListing(t, s, domain.KindPost, "Year Review", "2025")

	// A listing whose slug happens to be numeric wins over the id fallback.
	got, err := r.FindBySlug(ctx, domain.KindPost, "2025")
	require.NoError(t, err)
	assert.Equal(t, numeric.ID, got.ID)
}

func TestFindBySlug_IDFallbackScopedToKind(t *testing.T) {
	r, s := setupResolver(t)

	post := insertListing(t, s, domain.KindPost, "Some Post", "some-post")

	_, err := r.FindBySlug(context.Background(), domain.KindMechanic, strconv.FormatInt(post.ID, 10))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindBySlug_NotFound(t *testing.T) {
	r, _ := setupResolver(t)
	ctx := context.Background()

	_, err := r.FindBySlug(ctx, domain.KindMechanic, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindBySlug(ctx, domain.KindMechanic, "404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.FindBySlug(ctx, domain.KindMechanic, "-5")
	assert.ErrorIs(t, err, ErrNotFound)
}
