// Package sitemap builds the sitemap.xml document from materialized listing
// data. Pure functions only - the shell worker decides when to rebuild and
// where to write the result.
package sitemap

import (
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tbilisoft/carwise/internal/core/domain"
)

// MaxURLs is the sitemap protocol's per-file URL cap. Builds that would
// exceed it are truncated and flagged in the stats rather than failing.
const MaxURLs = 50000

var (
	// ErrBaseURLRequired is returned when the builder is given no site root.
	ErrBaseURLRequired = errors.New("sitemap base URL is required")
)

// =============================================================================
// XML Document
// =============================================================================

type urlSet struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []urlEntry
}

type urlEntry struct {
	XMLName    xml.Name `xml:"url"`
	Loc        string   `xml:"loc"`
	LastMod    string   `xml:"lastmod,omitempty"`
	ChangeFreq string   `xml:"changefreq,omitempty"`
	Priority   string   `xml:"priority,omitempty"`
}

// =============================================================================
// Stats
// =============================================================================

// Stats describes one sitemap build. Served via the stats endpoint so
// operators can see what the last regeneration produced.
type Stats struct {
	Total       int                 `json:"total_urls"`
	Static      int                 `json:"static_urls"`
	ByKind      map[domain.Kind]int `json:"by_kind"`
	Truncated   bool                `json:"truncated"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// =============================================================================
// Build
// =============================================================================

// kindPriority maps listing kinds to their sitemap priority. Service pages
// outrank blog posts; the home page and static sections are fixed below.
var kindPriority = map[domain.Kind]string{
	domain.KindMechanic:  "0.7",
	domain.KindCarwash:   "0.7",
	domain.KindEvacuator: "0.7",
	domain.KindPost:      "0.6",
}

// staticPaths are the non-listing routes always present in the sitemap.
var staticPaths = []string{"/services", "/fuel-prices", "/blog"}

// Build renders the sitemap for the given published listings. Ordering is
// deterministic: home page, static sections, then listings sorted by kind
// and slug, truncated at MaxURLs. Listings without a slug or not yet
// published are skipped by the caller's query, but Build re-checks both so
// a stale snapshot cannot emit a broken URL.
func Build(baseURL string, listings []domain.Listing, now time.Time) ([]byte, Stats, error) {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		return nil, Stats{}, ErrBaseURLRequired
	}

	stats := Stats{
		ByKind:      make(map[domain.Kind]int),
		GeneratedAt: now,
	}

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs, urlEntry{
		Loc:        base + "/",
		LastMod:    now.Format("2006-01-02"),
		ChangeFreq: "daily",
		Priority:   "1.0",
	})
	for _, p := range staticPaths {
		set.URLs = append(set.URLs, urlEntry{
			Loc:        base + p,
			ChangeFreq: "daily",
			Priority:   "0.8",
		})
	}
	stats.Static = len(set.URLs)

	sorted := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.Published || l.Slug == "" {
			continue
		}
		sorted = append(sorted, l)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].Slug < sorted[j].Slug
	})

	for _, l := range sorted {
		if len(set.URLs) >= MaxURLs {
			stats.Truncated = true
			break
		}
		set.URLs = append(set.URLs, urlEntry{
			Loc:        fmt.Sprintf("%s/%s/%s", base, l.Kind, l.Slug),
			LastMod:    l.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   kindPriority[l.Kind],
		})
		stats.ByKind[l.Kind]++
	}
	stats.Total = len(set.URLs)

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, Stats{}, fmt.Errorf("marshal sitemap: %w", err)
	}

	return append([]byte(xml.Header), body...), stats, nil
}
