package slugger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tbilisoft/carwise/internal/core/domain"
	"github.com/tbilisoft/carwise/internal/core/slug"
	"github.com/tbilisoft/carwise/internal/shell/store"
)

// maxSuffixAttempts caps the ascending numeric suffix search. Hitting it
// means thousands of listings share one base slug - worth surfacing.
const maxSuffixAttempts = 1000

// conflictRetries bounds the regenerate-and-persist loop taken when the
// store's uniqueness constraint rejects a write that raced another insert.
const conflictRetries = 3

// suffixHeadroom is the room left in a base slug for the widest
// disambiguation suffix ("-1001"), so suffixed candidates stay within
// slug.MaxLength.
const suffixHeadroom = 5

// =============================================================================
// Manager
// =============================================================================

// Manager is the slug manager. All slug writes go through it.
type Manager struct {
	store     store.Store
	validator *slug.Validator
	logger    *slog.Logger
}

// NewManager creates a slug manager backed by the given store.
func NewManager(s store.Store, v *slug.Validator, logger *slog.Logger) *Manager {
	if v == nil {
		v = slug.NewValidator()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:     s,
		validator: v,
		logger:    logger.With("component", "slugger"),
	}
}

// =============================================================================
// Generation
// =============================================================================

// GenerateUniqueSlug derives a slug from displayName and disambiguates it
// against existing listings of the same kind. excludeID names the listing
// being updated so it cannot collide with its own current slug; pass 0 on
// creation.
//
// The bare base slug is preferred; collisions append -2, -3, ... in
// ascending order. Store failures come back as *LookupError - the caller
// must not persist anything derived from a failed probe.
func (m *Manager) GenerateUniqueSlug(ctx context.Context, kind domain.Kind, displayName string, excludeID int64) (string, error) {
	base := m.baseSlug(displayName)

	for n := 1; n <= maxSuffixAttempts+1; n++ {
		candidate := base
		if n > 1 {
			candidate = fmt.Sprintf("%s-%d", base, n)
		}
		// Candidates pass the same validator as manual slugs, so a
		// reserved base like "search" is never emitted bare and skips
		// straight to its first suffixed form.
		if m.validator.Validate(candidate) != nil {
			continue
		}
		exists, err := m.store.SlugExists(ctx, kind, candidate, excludeID)
		if err != nil {
			return "", &LookupError{Op: "GenerateUniqueSlug", Err: err}
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", ErrSuffixExhausted
}

// Preview returns the base slug for a display name without any uniqueness
// probe. Used as the degraded fallback when the store is unreachable.
func (m *Manager) Preview(displayName string) string {
	return m.baseSlug(displayName)
}

// baseSlug normalizes the name and guarantees a non-empty candidate. Fully
// unmappable names (for example an emoji-only title) get a random token so
// the record still receives a working URL.
func (m *Manager) baseSlug(displayName string) string {
	base := slug.Normalize(displayName)
	if base == "" {
		base = "listing-" + uuid.NewString()[:8]
	}
	if len(base) > slug.MaxLength-suffixHeadroom {
		base = strings.TrimRight(base[:slug.MaxLength-suffixHeadroom], "-")
	}
	return base
}

// =============================================================================
// Manual-Override Ledger
// =============================================================================

// IsSlugManual reads the persisted manual flag for a listing.
func (m *Manager) IsSlugManual(ctx context.Context, id int64) (bool, error) {
	listing, err := m.store.GetListing(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return false, err
		}
		return false, &LookupError{Op: "IsSlugManual", Err: err}
	}
	return listing.SlugIsManual, nil
}

// UpdateSlug sets an operator-chosen slug. The candidate is validated, then
// checked for collisions excluding the listing itself, then persisted with
// the manual flag. A constraint rejection is reported as *ConflictError -
// an explicitly chosen slug is never rewritten with a suffix.
func (m *Manager) UpdateSlug(ctx context.Context, id int64, newSlug string, manual bool) error {
	if err := m.validator.Validate(newSlug); err != nil {
		return err
	}

	listing, err := m.store.GetListing(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return err
		}
		return &LookupError{Op: "UpdateSlug", Err: err}
	}

	exists, err := m.store.SlugExists(ctx, listing.Kind, newSlug, id)
	if err != nil {
		return &LookupError{Op: "UpdateSlug", Err: err}
	}
	if exists {
		return &ConflictError{Kind: listing.Kind, Slug: newSlug}
	}

	if err := m.store.UpdateListingSlug(ctx, id, newSlug, manual); err != nil {
		if store.IsDuplicateSlug(err) {
			// Raced another writer between the probe and the write.
			return &ConflictError{Kind: listing.Kind, Slug: newSlug}
		}
		return err
	}

	m.logger.Info("slug updated",
		"listing_id", id,
		"slug", newSlug,
		"manual", manual,
	)
	return nil
}

// ResetSlugToAuto recomputes the slug from the listing's current display
// name and clears the manual flag. Racing inserts that steal the candidate
// between probe and write trigger a bounded regenerate-and-retry loop.
func (m *Manager) ResetSlugToAuto(ctx context.Context, id int64) (string, error) {
	listing, err := m.store.GetListing(ctx, id)
	if err != nil {
		if store.IsNotFound(err) {
			return "", err
		}
		return "", &LookupError{Op: "ResetSlugToAuto", Err: err}
	}

	return m.assignAutoSlug(ctx, listing)
}

// RefreshAutoSlug regenerates the slug after a display-name change. The
// caller must have already checked IsSlugManual; as a second line of
// defense the manager re-checks and refuses to touch a manual slug.
func (m *Manager) RefreshAutoSlug(ctx context.Context, listing *domain.Listing) (string, error) {
	if listing.SlugIsManual {
		return listing.Slug, nil
	}
	return m.assignAutoSlug(ctx, listing)
}

// CreateListing generates an auto slug for a new listing and inserts it,
// retrying generation when a concurrent insert claims the candidate first.
func (m *Manager) CreateListing(ctx context.Context, listing *domain.Listing) error {
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		s, err := m.GenerateUniqueSlug(ctx, listing.Kind, listing.DisplayName, 0)
		if err != nil {
			return err
		}
		listing.Slug = s
		listing.SlugIsManual = false

		err = m.store.CreateListing(ctx, listing)
		if err == nil {
			return nil
		}
		if !store.IsDuplicateSlug(err) {
			return err
		}
		m.logger.Warn("slug taken between check and insert, retrying",
			"kind", listing.Kind,
			"slug", s,
		)
	}

	return &ConflictError{Kind: listing.Kind, Slug: listing.Slug}
}

func (m *Manager) assignAutoSlug(ctx context.Context, listing *domain.Listing) (string, error) {
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		s, err := m.GenerateUniqueSlug(ctx, listing.Kind, listing.DisplayName, listing.ID)
		if err != nil {
			return "", err
		}

		err = m.store.UpdateListingSlug(ctx, listing.ID, s, false)
		if err == nil {
			listing.Slug = s
			listing.SlugIsManual = false
			m.logger.Info("slug regenerated",
				"listing_id", listing.ID,
				"slug", s,
			)
			return s, nil
		}
		if !store.IsDuplicateSlug(err) {
			return "", err
		}
	}

	return "", &ConflictError{Kind: listing.Kind, Slug: listing.Slug}
}
