// Package slugger mediates between display names and persisted slugs: it
// generates unique slugs against the store, tracks the manual-override flag,
// and owns every slug write. The check-then-act probe here is best-effort;
// the store's (kind, slug) UNIQUE constraint is the authoritative guarantee,
// and constraint rejections are retried with the next suffix.
package slugger

import (
	"errors"
	"fmt"

	"github.com/tbilisoft/carwise/internal/core/domain"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrSuffixExhausted is returned when the numeric suffix search hits its
	// cap. This signals pathological duplicate data rather than a transient
	// condition, so it is surfaced instead of looped on.
	ErrSuffixExhausted = errors.New("slug suffix space exhausted")
)

// LookupError wraps a store failure during a uniqueness probe or lookup.
// Callers fall back to a non-persisted preview and surface the error to the
// operator; the slugger never persists a slug it could not verify.
type LookupError struct {
	Op  string
	Err error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: slug lookup failed: %v", e.Op, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// ConflictError reports that the store rejected a slug write on its
// uniqueness constraint after the bounded retries ran out (or, for manual
// slugs, immediately - manual slugs are never silently rewritten).
type ConflictError struct {
	Kind domain.Kind
	Slug string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slug %q already taken for kind %q", e.Slug, e.Kind)
}

// IsLookupError reports whether err is a LookupError.
func IsLookupError(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
