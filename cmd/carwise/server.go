package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tbilisoft/carwise/internal/core/slug"
	"github.com/tbilisoft/carwise/internal/shell/api"
	"github.com/tbilisoft/carwise/internal/shell/resolver"
	"github.com/tbilisoft/carwise/internal/shell/slugger"
	"github.com/tbilisoft/carwise/internal/shell/store"
	"github.com/tbilisoft/carwise/internal/shell/workers"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitHTTPServerError = 3
)

// =============================================================================
// Server
// =============================================================================

// Server represents the Carwise application server.
type Server struct {
	config        *Config
	httpServer    *http.Server
	store         store.Store
	sitemapWriter *workers.SitemapWriter
	logger        *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	// Connect to database
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	validator := slug.NewValidator(cfg.Slugs.Reserved...)
	manager := slugger.NewManager(s, validator, logger)
	res := resolver.New(s, logger)

	// Sitemap writer keeps sitemap.xml current as listings change
	var sitemapWriter *workers.SitemapWriter
	if cfg.Sitemap.Enabled {
		sitemapWriter = workers.NewSitemapWriter(s, workers.SitemapWriterConfig{
			BaseURL:         cfg.Site.BaseURL,
			OutputPath:      cfg.Sitemap.OutputPath,
			Debounce:        cfg.Sitemap.Debounce,
			RebuildInterval: cfg.Sitemap.RebuildInterval,
		}, logger)
		logger.Info("sitemap writer enabled",
			"output_path", cfg.Sitemap.OutputPath,
			"rebuild_interval", cfg.Sitemap.RebuildInterval,
		)
	} else {
		logger.Info("sitemap writer disabled")
	}

	handler := api.NewHandler(api.HandlerConfig{
		Store:    s,
		Slugger:  manager,
		Resolver: res,
		Sitemap:  sitemapWriter,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:        cfg,
		httpServer:    httpServer,
		store:         s,
		sitemapWriter: sitemapWriter,
		logger:        logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start sitemap writer in background
	if s.sitemapWriter != nil {
		s.sitemapWriter.Start()
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop sitemap writer
	if s.sitemapWriter != nil {
		s.sitemapWriter.Stop()
	}

	// Close database
	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
