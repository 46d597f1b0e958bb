package sitemap

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbilisoft/carwise/internal/core/domain"
)

func testListing(kind domain.Kind, slug string, published bool) domain.Listing {
	return domain.Listing{
		Kind:        kind,
		DisplayName: slug,
		Slug:        slug,
		Published:   published,
		UpdatedAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuild_RequiresBaseURL(t *testing.T) {
	_, _, err := Build("", nil, time.Now())
	assert.ErrorIs(t, err, ErrBaseURLRequired)
}

func TestBuild_StaticOnly(t *testing.T) {
	now := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	body, stats, err := Build("https://carwise.ge/", nil, now)
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, `<?xml`)
	assert.Contains(t, s, "<loc>https://carwise.ge/</loc>")
	assert.Contains(t, s, "<loc>https://carwise.ge/services</loc>")
	assert.Contains(t, s, "<loc>https://carwise.ge/fuel-prices</loc>")
	assert.Contains(t, s, "<loc>https://carwise.ge/blog</loc>")
	assert.Contains(t, s, "<priority>1.0</priority>")

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 4, stats.Static)
	assert.False(t, stats.Truncated)
	assert.Equal(t, now, stats.GeneratedAt)
}

func TestBuild_ListingURLsAndStats(t *testing.T) {
	listings := []domain.Listing{
		testListing(domain.KindPost, "winter-tires", true),
		testListing(domain.KindMechanic, "gio-service", true),
		testListing(domain.KindMechanic, "avto-master", true),
		testListing(domain.KindCarwash, "vake-wash", true),
		testListing(domain.KindMechanic, "draft-shop", false), // unpublished
		testListing(domain.KindEvacuator, "", true),           // no slug yet
	}

	body, stats, err := Build("https://carwise.ge", listings, time.Now())
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, "<loc>https://carwise.ge/mechanic/gio-service</loc>")
	assert.Contains(t, s, "<loc>https://carwise.ge/carwash/vake-wash</loc>")
	assert.Contains(t, s, "<loc>https://carwise.ge/post/winter-tires</loc>")
	assert.NotContains(t, s, "draft-shop")

	assert.Equal(t, 2, stats.ByKind[domain.KindMechanic])
	assert.Equal(t, 1, stats.ByKind[domain.KindCarwash])
	assert.Equal(t, 1, stats.ByKind[domain.KindPost])
	assert.Equal(t, 0, stats.ByKind[domain.KindEvacuator])
	assert.Equal(t, stats.Static+4, stats.Total)
}

func TestBuild_DeterministicOrdering(t *testing.T) {
	listings := []domain.Listing{
		testListing(domain.KindMechanic, "zeta", true),
		testListing(domain.KindMechanic, "alpha", true),
	}

	first, _, err := Build("https://carwise.ge", listings, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	// Reversed input must produce byte-identical output.
	listings[0], listings[1] = listings[1], listings[0]
	second, _, err := Build("https://carwise.ge", listings, time.Unix(0, 0).UTC())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Less(t,
		strings.Index(string(first), "alpha"),
		strings.Index(string(first), "zeta"),
	)
}

func TestBuild_TruncatesAtCap(t *testing.T) {
	listings := make([]domain.Listing, MaxURLs+10)
	for i := range listings {
		listings[i] = testListing(domain.KindPost, "post-"+strconv.Itoa(i), true)
	}

	_, stats, err := Build("https://carwise.ge", listings, time.Now())
	require.NoError(t, err)

	assert.True(t, stats.Truncated)
	assert.Equal(t, MaxURLs, stats.Total)
}
