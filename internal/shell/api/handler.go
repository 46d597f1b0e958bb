// Package api provides HTTP handlers for the Carwise API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tbilisoft/carwise/internal/core/domain"
	"github.com/tbilisoft/carwise/internal/core/slug"
	"github.com/tbilisoft/carwise/internal/shell/resolver"
	"github.com/tbilisoft/carwise/internal/shell/slugger"
	"github.com/tbilisoft/carwise/internal/shell/store"
	"github.com/tbilisoft/carwise/internal/shell/workers"
)

// =============================================================================
// Handler
// =============================================================================

// Handler provides HTTP handlers for the API.
type Handler struct {
	store    store.Store
	slugger  *slugger.Manager
	resolver *resolver.Resolver
	sitemap  *workers.SitemapWriter
	openapi  *openAPIGenerator
	logger   *slog.Logger
}

// HandlerConfig holds the collaborators of the HTTP layer.
type HandlerConfig struct {
	Store    store.Store
	Slugger  *slugger.Manager
	Resolver *resolver.Resolver
	Sitemap  *workers.SitemapWriter // optional; nil disables sitemap routes
	Logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sl := cfg.Slugger
	if sl == nil {
		sl = slugger.NewManager(cfg.Store, slug.NewValidator(), logger)
	}
	res := cfg.Resolver
	if res == nil {
		res = resolver.New(cfg.Store, logger)
	}
	return &Handler{
		store:    cfg.Store,
		slugger:  sl,
		resolver: res,
		sitemap:  cfg.Sitemap,
		openapi:  newOpenAPIGenerator(),
		logger:   logger,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)

	// Sitemap (plain XML, not under /api)
	r.Get("/sitemap.xml", h.handleSitemapXML)

	// OpenAPI document
	r.Get("/api/openapi.json", h.openapi.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.jsonContentType)

		// Listing routes
		r.Route("/listings", func(r chi.Router) {
			r.Post("/", h.handleCreateListing)
			r.Get("/", h.handleListListings)
			r.Get("/{id}", h.handleGetListing)
			r.Put("/{id}", h.handleUpdateListing)
			r.Delete("/{id}", h.handleDeleteListing)
			r.Put("/{id}/slug", h.handleUpdateSlug)
			r.Post("/{id}/slug/reset", h.handleResetSlug)
		})

		// Slug preview (non-persisted)
		r.Get("/slug/preview", h.handleSlugPreview)

		// Public resolution: slug or legacy numeric id
		r.Get("/resolve/{kind}/{slug}", h.handleResolve)

		// Fuel price comparison
		r.Get("/fuel-prices", h.handleListFuelPrices)
		r.Put("/fuel-prices", h.handleUpsertFuelPrice)

		// Sitemap statistics
		r.Get("/sitemap/stats", h.handleSitemapStats)
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	checks := map[string]string{"database": "ok"}

	if _, err := h.store.ListFuelPrices(r.Context()); err != nil {
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Listing Handlers
// =============================================================================

func (h *Handler) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	kind, err := domain.ParseKind(req.Kind)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unknown listing kind", "validation_error")
		return
	}

	listing, err := domain.NewListing(kind, req.DisplayName)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	if err := domain.ValidatePhone(req.Phone); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	listing.Description = req.Description
	listing.City = req.City
	listing.Phone = req.Phone
	listing.Published = req.Published

	if err := h.slugger.CreateListing(r.Context(), listing); err != nil {
		h.writeSlugError(w, err, "failed to create listing")
		return
	}

	h.notifySitemap()
	h.writeJSON(w, http.StatusCreated, h.listingToResponse(listing))
}

func (h *Handler) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	listing, err := h.store.GetListing(r.Context(), id)
	if err != nil {
		if store.IsNotFound(err) {
			h.writeError(w, http.StatusNotFound, "listing not found", "listing_not_found")
			return
		}
		h.logger.Error("failed to get listing", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get listing", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, h.listingToResponse(listing))
}

func (h *Handler) handleListListings(w http.ResponseWriter, r *http.Request) {
	opts := store.DefaultListOptions()
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			opts.Limit = l
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if o, err := strconv.Atoi(offset); err == nil {
			opts.Offset = o
		}
	}

	var kind domain.Kind
	if k := r.URL.Query().Get("kind"); k != "" {
		parsed, err := domain.ParseKind(k)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "unknown listing kind", "validation_error")
			return
		}
		kind = parsed
	}

	listings, err := h.store.ListListings(r.Context(), kind, opts)
	if err != nil {
		h.logger.Error("failed to list listings", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list listings", "internal_error")
		return
	}

	resp := ListListingsResponse{
		Listings: make([]ListingResponse, 0, len(listings)),
		Total:    len(listings),
		Limit:    opts.Limit,
		Offset:   opts.Offset,
	}
	for i := range listings {
		resp.Listings = append(resp.Listings, h.listingToResponse(&listings[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	listing, err := h.store.GetListing(r.Context(), id)
	if err != nil {
		if store.IsNotFound(err) {
			h.writeError(w, http.StatusNotFound, "listing not found", "listing_not_found")
			return
		}
		h.logger.Error("failed to get listing", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get listing", "internal_error")
		return
	}

	var req UpdateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	renamed := false
	if req.DisplayName != nil && *req.DisplayName != listing.DisplayName {
		if err := listing.Rename(*req.DisplayName); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
			return
		}
		renamed = true
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.City != nil {
		listing.City = *req.City
	}
	if req.Phone != nil {
		if err := domain.ValidatePhone(*req.Phone); err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
			return
		}
		listing.Phone = *req.Phone
	}
	if req.Published != nil {
		listing.Published = *req.Published
	}
	listing.UpdatedAt = time.Now().UTC()

	if err := h.store.UpdateListing(r.Context(), listing); err != nil {
		h.logger.Error("failed to update listing", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update listing", "internal_error")
		return
	}

	// Regenerate the slug after a rename, but never over a manual one.
	if renamed && !listing.SlugIsManual {
		if _, err := h.slugger.RefreshAutoSlug(r.Context(), listing); err != nil {
			h.writeSlugError(w, err, "failed to regenerate slug")
			return
		}
	}

	h.notifySitemap()
	h.writeJSON(w, http.StatusOK, h.listingToResponse(listing))
}

func (h *Handler) handleDeleteListing(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteListing(r.Context(), id); err != nil {
		if store.IsNotFound(err) {
			h.writeError(w, http.StatusNotFound, "listing not found", "listing_not_found")
			return
		}
		h.logger.Error("failed to delete listing", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to delete listing", "internal_error")
		return
	}

	h.notifySitemap()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Slug Handlers
// =============================================================================

func (h *Handler) handleUpdateSlug(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	var req UpdateSlugRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	if err := h.slugger.UpdateSlug(r.Context(), id, req.Slug, true); err != nil {
		h.writeSlugError(w, err, "failed to update slug")
		return
	}

	listing, err := h.store.GetListing(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload listing", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to reload listing", "internal_error")
		return
	}

	h.notifySitemap()
	h.writeJSON(w, http.StatusOK, h.listingToResponse(listing))
}

func (h *Handler) handleResetSlug(w http.ResponseWriter, r *http.Request) {
	id, ok := h.listingID(w, r)
	if !ok {
		return
	}

	if _, err := h.slugger.ResetSlugToAuto(r.Context(), id); err != nil {
		h.writeSlugError(w, err, "failed to reset slug")
		return
	}

	listing, err := h.store.GetListing(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to reload listing", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to reload listing", "internal_error")
		return
	}

	h.notifySitemap()
	h.writeJSON(w, http.StatusOK, h.listingToResponse(listing))
}

func (h *Handler) handleSlugPreview(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(r.URL.Query().Get("kind"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unknown listing kind", "validation_error")
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "name query parameter is required", "validation_error")
		return
	}

	var excludeID int64
	if ex := r.URL.Query().Get("exclude_id"); ex != "" {
		excludeID, err = strconv.ParseInt(ex, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "exclude_id must be an integer", "validation_error")
			return
		}
	}

	s, err := h.slugger.GenerateUniqueSlug(r.Context(), kind, name, excludeID)
	if err != nil {
		if slugger.IsLookupError(err) {
			// Degrade to the bare normalization; the operator sees the
			// warning and nothing is persisted.
			h.logger.Warn("slug preview degraded", "error", err)
			h.writeJSON(w, http.StatusOK, SlugPreviewResponse{
				Slug:    h.slugger.Preview(name),
				Unique:  false,
				Warning: "uniqueness check unavailable, preview only",
			})
			return
		}
		h.logger.Error("slug preview failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to generate slug", "internal_error")
		return
	}

	h.writeJSON(w, http.StatusOK, SlugPreviewResponse{Slug: s, Unique: true})
}

// =============================================================================
// Resolution Handler
// =============================================================================

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "unknown listing kind", "validation_error")
		return
	}

	listing, err := h.resolver.FindBySlug(r.Context(), kind, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "no listing matches this address", "listing_not_found")
			return
		}
		h.logger.Error("failed to resolve slug", "error", err)
		h.writeError(w, http.StatusBadGateway, "lookup unavailable", "store_unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, h.listingToResponse(listing))
}

// =============================================================================
// Fuel Price Handlers
// =============================================================================

func (h *Handler) handleListFuelPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.store.ListFuelPrices(r.Context())
	if err != nil {
		h.logger.Error("failed to list fuel prices", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list fuel prices", "internal_error")
		return
	}

	resp := ListFuelPricesResponse{Prices: make([]FuelPriceResponse, 0, len(prices))}
	for _, p := range prices {
		resp.Prices = append(resp.Prices, FuelPriceResponse{
			Provider:   p.Provider,
			Fuel:       string(p.Fuel),
			PriceTetri: p.PriceTetri,
			PriceGEL:   float64(p.PriceTetri) / 100,
			UpdatedAt:  p.UpdatedAt,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleUpsertFuelPrice(w http.ResponseWriter, r *http.Request) {
	var req UpsertFuelPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", "validation_error")
		return
	}

	price := &domain.FuelPrice{
		Provider:   req.Provider,
		Fuel:       domain.FuelType(req.Fuel),
		PriceTetri: req.PriceTetri,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := price.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.UpsertFuelPrice(r.Context(), price); err != nil {
		h.logger.Error("failed to upsert fuel price", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save fuel price", "internal_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Sitemap Handlers
// =============================================================================

func (h *Handler) handleSitemapXML(w http.ResponseWriter, r *http.Request) {
	if h.sitemap == nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	http.ServeFile(w, r, h.sitemap.OutputPath())
}

func (h *Handler) handleSitemapStats(w http.ResponseWriter, r *http.Request) {
	if h.sitemap == nil {
		h.writeError(w, http.StatusNotFound, "sitemap generation is disabled", "sitemap_disabled")
		return
	}
	h.writeJSON(w, http.StatusOK, h.sitemap.Stats())
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) listingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "listing id must be a positive integer", "validation_error")
		return 0, false
	}
	return id, true
}

func (h *Handler) listingToResponse(l *domain.Listing) ListingResponse {
	return ListingResponse{
		ID:           l.ID,
		Kind:         string(l.Kind),
		DisplayName:  l.DisplayName,
		Slug:         l.Slug,
		SlugIsManual: l.SlugIsManual,
		URL:          fmt.Sprintf("/%s/%s", l.Kind, l.Slug),
		Description:  l.Description,
		City:         l.City,
		Phone:        l.Phone,
		Published:    l.Published,
		CreatedAt:    l.CreatedAt,
		UpdatedAt:    l.UpdatedAt,
	}
}

func (h *Handler) notifySitemap() {
	if h.sitemap != nil {
		h.sitemap.Notify()
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeSlugError maps slugger and store errors to HTTP responses.
func (h *Handler) writeSlugError(w http.ResponseWriter, err error, fallback string) {
	var verr *slug.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, http.StatusBadRequest, verr.Error(), "validation_error")
	case slugger.IsConflict(err):
		h.writeError(w, http.StatusConflict, err.Error(), "slug_conflict")
	case slugger.IsLookupError(err):
		h.writeError(w, http.StatusBadGateway, "slug lookup unavailable", "store_unavailable")
	case store.IsNotFound(err):
		h.writeError(w, http.StatusNotFound, "listing not found", "listing_not_found")
	case errors.Is(err, slugger.ErrSuffixExhausted):
		h.logger.Error("slug suffix space exhausted", "error", err)
		h.writeError(w, http.StatusConflict, err.Error(), "slug_conflict")
	default:
		h.logger.Error(fallback, "error", err)
		h.writeError(w, http.StatusInternalServerError, fallback, "internal_error")
	}
}
