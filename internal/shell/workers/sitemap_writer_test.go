package workers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbilisoft/carwise/internal/core/domain"
	"github.com/tbilisoft/carwise/internal/shell/store"
)

func setupWriter(t *testing.T, debounce time.Duration) (*SitemapWriter, store.Store, string) {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})

	out := filepath.Join(t.TempDir(), "sitemap.xml")
	w := NewSitemapWriter(s, SitemapWriterConfig{
		BaseURL:         "https://carwise.ge",
		OutputPath:      out,
		Debounce:        debounce,
		RebuildInterval: time.Hour,
	}, nil)
	return w, s, out
}

func publishListing(t *testing.T, s store.Store, name, slug string) {
	t.Helper()
	listing, err := domain.NewListing(domain.KindMechanic, name)
	require.NoError(t, err)
	listing.Slug = slug
	listing.Published = true
	require.NoError(t, s.CreateListing(context.Background(), listing))
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestSitemapWriter_InitialBuildOnStart(t *testing.T) {
	w, s, out := setupWriter(t, 50*time.Millisecond)
	publishListing(t, s, "Gio Service", "gio-service")

	w.Start()
	defer w.Stop()

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gio-service")

	stats := w.Stats()
	assert.Equal(t, 1, stats.ByKind[domain.KindMechanic])
	assert.False(t, stats.GeneratedAt.IsZero())
}

func TestSitemapWriter_DebouncedRebuildOnNotify(t *testing.T) {
	w, s, out := setupWriter(t, 30*time.Millisecond)

	w.Start()
	defer w.Stop()

	initial := w.Stats()
	assert.Zero(t, initial.ByKind[domain.KindMechanic])

	publishListing(t, s, "Late Shop", "late-shop")

	// A burst of notifications coalesces into one rebuild.
	w.Notify()
	w.Notify()
	w.Notify()

	waitFor(t, 2*time.Second, func() bool {
		return w.Stats().ByKind[domain.KindMechanic] == 1
	})

	body, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(body), "late-shop")
}

func TestSitemapWriter_NotifyNeverBlocks(t *testing.T) {
	w, _, _ := setupWriter(t, time.Hour)

	// Not started: the channel has capacity one, further signals drop.
	for i := 0; i < 100; i++ {
		w.Notify()
	}
}

func TestWriteFileAtomic_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "sitemap.xml")

	require.NoError(t, writeFileAtomic(path, []byte("<urlset/>")))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<urlset/>", string(body))

	// No temp litter left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
