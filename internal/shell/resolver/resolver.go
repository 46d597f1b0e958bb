// Package resolver turns inbound URL path segments back into listings.
// It is the read side of the slug subsystem: exact slug match first, with a
// numeric-id fallback for legacy ID-based URLs.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/tbilisoft/carwise/internal/core/domain"
	"github.com/tbilisoft/carwise/internal/shell/store"
)

// ErrNotFound is returned when neither a slug nor an id matches. Callers
// choose between a 404 and a redirect to the listing index.
var ErrNotFound = errors.New("no listing matches the given slug")

// Resolver resolves slugs (or legacy numeric ids) to listings.
type Resolver struct {
	store  store.Store
	logger *slog.Logger
}

// New creates a resolver backed by the given store.
func New(s store.Store, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:  s,
		logger: logger.With("component", "resolver"),
	}
}

// FindBySlug resolves a path segment to a listing of the given kind.
// A pure-integer segment that matches no slug is retried as an id lookup,
// still scoped to the kind so /mechanic/42 cannot surface a blog post.
func (r *Resolver) FindBySlug(ctx context.Context, kind domain.Kind, segment string) (*domain.Listing, error) {
	listing, err := r.store.GetListingBySlug(ctx, kind, segment)
	if err == nil {
		return listing, nil
	}
	if !store.IsNotFound(err) {
		return nil, err
	}

	id, convErr := strconv.ParseInt(segment, 10, 64)
	if convErr != nil || id <= 0 {
		return nil, ErrNotFound
	}

	listing, err = r.store.GetListing(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if listing.Kind != kind {
		return nil, ErrNotFound
	}

	r.logger.Debug("resolved listing via legacy id fallback",
		"kind", kind,
		"id", id,
		"slug", listing.Slug,
	)
	return listing, nil
}
