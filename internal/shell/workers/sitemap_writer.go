// Package workers contains background goroutines that react to data changes.
package workers

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tbilisoft/carwise/internal/core/sitemap"
	"github.com/tbilisoft/carwise/internal/shell/store"
)

// SitemapWriterConfig configures the sitemap regeneration worker.
type SitemapWriterConfig struct {
	// BaseURL is the public site root, e.g. "https://carwise.ge".
	BaseURL string

	// OutputPath is where sitemap.xml is written.
	OutputPath string

	// Debounce is how long to coalesce change notifications before
	// rebuilding. A burst of listing edits produces a single rebuild.
	Debounce time.Duration

	// RebuildInterval is the periodic safety rebuild, covering changes
	// whose notification was lost (e.g. a crash between write and notify).
	RebuildInterval time.Duration
}

// DefaultSitemapWriterConfig returns default configuration.
func DefaultSitemapWriterConfig() SitemapWriterConfig {
	return SitemapWriterConfig{
		OutputPath:      "./data/sitemap.xml",
		Debounce:        5 * time.Second,
		RebuildInterval: 6 * time.Hour,
	}
}

// SitemapWriter listens for data-change notifications and rewrites
// sitemap.xml, debounced so write bursts collapse into one rebuild.
type SitemapWriter struct {
	store  store.Store
	config SitemapWriterConfig
	logger *slog.Logger

	notify chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	lastStats sitemap.Stats
}

// NewSitemapWriter creates a sitemap regeneration worker.
func NewSitemapWriter(s store.Store, config SitemapWriterConfig, logger *slog.Logger) *SitemapWriter {
	if config.Debounce == 0 {
		config.Debounce = 5 * time.Second
	}
	if config.RebuildInterval == 0 {
		config.RebuildInterval = 6 * time.Hour
	}
	if config.OutputPath == "" {
		config.OutputPath = "./data/sitemap.xml"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SitemapWriter{
		store:  s,
		config: config,
		logger: logger.With("component", "sitemap_writer"),
		notify: make(chan struct{}, 1),
	}
}

// Notify signals that listing data changed. Never blocks; while a rebuild
// is already pending the extra signals collapse into it.
func (w *SitemapWriter) Notify() {
	select {
	case w.notify <- struct{}{}:
	default:
	}
}

// Stats returns the statistics of the last completed build.
func (w *SitemapWriter) Stats() sitemap.Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastStats
}

// OutputPath returns the path the worker writes sitemap.xml to.
func (w *SitemapWriter) OutputPath() string {
	return w.config.OutputPath
}

// Start begins the background goroutine and performs an initial build so
// /sitemap.xml is servable immediately.
func (w *SitemapWriter) Start() {
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.rebuild()
	w.wg.Add(1)
	go w.run()
	w.logger.Info("sitemap writer started",
		"output", w.config.OutputPath,
		"debounce", w.config.Debounce,
	)
}

// Stop gracefully stops the worker.
func (w *SitemapWriter) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("sitemap writer stopped")
}

func (w *SitemapWriter) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.RebuildInterval)
	defer ticker.Stop()

	var debounce *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case <-w.notify:
			// Restart the window: the rebuild runs Debounce after the
			// last notification of a burst.
			if debounce == nil {
				debounce = time.NewTimer(w.config.Debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(w.config.Debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			w.rebuild()

		case <-ticker.C:
			w.rebuild()
		}
	}
}

func (w *SitemapWriter) rebuild() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	listings, err := w.store.ListPublishedListings(ctx)
	if err != nil {
		w.logger.Error("sitemap rebuild failed: listing query", "error", err)
		return
	}

	body, stats, err := sitemap.Build(w.config.BaseURL, listings, time.Now().UTC())
	if err != nil {
		w.logger.Error("sitemap rebuild failed: build", "error", err)
		return
	}

	if err := writeFileAtomic(w.config.OutputPath, body); err != nil {
		w.logger.Error("sitemap rebuild failed: write", "error", err)
		return
	}

	w.mu.Lock()
	w.lastStats = stats
	w.mu.Unlock()

	w.logger.Info("sitemap rebuilt",
		"urls", stats.Total,
		"truncated", stats.Truncated,
	)
}

// writeFileAtomic writes via a temp file and rename so readers of
// sitemap.xml never observe a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".sitemap-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, path)
}
