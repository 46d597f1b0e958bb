package store

import (
	"context"

	"github.com/tbilisoft/carwise/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for Carwise entities.
//
// Slug uniqueness is enforced per (kind, slug) at the database layer; the
// slugger's check-then-act probes are best-effort on top of that constraint.
type Store interface {
	// Listing operations
	CreateListing(ctx context.Context, listing *domain.Listing) error
	GetListing(ctx context.Context, id int64) (*domain.Listing, error)
	GetListingBySlug(ctx context.Context, kind domain.Kind, slug string) (*domain.Listing, error)
	UpdateListing(ctx context.Context, listing *domain.Listing) error
	DeleteListing(ctx context.Context, id int64) error
	ListListings(ctx context.Context, kind domain.Kind, opts ListOptions) ([]domain.Listing, error)
	ListPublishedListings(ctx context.Context) ([]domain.Listing, error)

	// Slug operations
	// SlugExists reports whether any listing of the given kind other than
	// excludeID currently owns the slug. excludeID = 0 excludes nothing.
	SlugExists(ctx context.Context, kind domain.Kind, slug string, excludeID int64) (bool, error)
	// UpdateListingSlug persists the slug and manual flag for one listing
	// without touching its other fields.
	UpdateListingSlug(ctx context.Context, id int64, slug string, manual bool) error

	// Fuel price operations
	UpsertFuelPrice(ctx context.Context, price *domain.FuelPrice) error
	ListFuelPrices(ctx context.Context) ([]domain.FuelPrice, error)

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
