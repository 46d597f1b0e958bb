package slug

import (
	"fmt"
	"strings"
)

// MaxLength is the maximum accepted slug length in bytes. Slugs are pure
// ASCII after normalization, so bytes and runes coincide.
const MaxLength = 100

// defaultReserved are slugs that collide with top-level route names and can
// never be assigned to a listing. The validator treats the list
// case-insensitively.
var defaultReserved = []string{
	"admin",
	"api",
	"blog",
	"chat",
	"health",
	"ready",
	"search",
	"services",
	"sitemap",
}

// =============================================================================
// Validation Error
// =============================================================================

// ValidationError reports why a candidate slug was rejected. It is returned
// inline to the operator and is never retried.
type ValidationError struct {
	Slug   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid slug %q: %s", e.Slug, e.Reason)
}

// =============================================================================
// Validator
// =============================================================================

// Validator enforces slug syntax rules and the reserved-word list.
// Pure and synchronous - no I/O.
type Validator struct {
	reserved map[string]struct{}
}

// NewValidator creates a validator with the built-in reserved words plus any
// extra words from configuration.
func NewValidator(extraReserved ...string) *Validator {
	v := &Validator{reserved: make(map[string]struct{}, len(defaultReserved)+len(extraReserved))}
	for _, w := range defaultReserved {
		v.reserved[w] = struct{}{}
	}
	for _, w := range extraReserved {
		v.reserved[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return v
}

// Validate checks a candidate slug against the syntax rules: non-empty, at
// most MaxLength characters, only [a-z0-9-], no edge or consecutive hyphens,
// and not a reserved word. Returns nil if the slug is acceptable, or a
// *ValidationError describing the first rule violated.
func (v *Validator) Validate(s string) error {
	if s == "" {
		return &ValidationError{Slug: s, Reason: "slug is empty"}
	}
	if len(s) > MaxLength {
		return &ValidationError{Slug: s, Reason: fmt.Sprintf("slug exceeds %d characters", MaxLength)}
	}
	if strings.HasPrefix(s, "-") || strings.HasSuffix(s, "-") {
		return &ValidationError{Slug: s, Reason: "slug cannot begin or end with a hyphen"}
	}
	if strings.Contains(s, "--") {
		return &ValidationError{Slug: s, Reason: "slug cannot contain consecutive hyphens"}
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return &ValidationError{Slug: s, Reason: fmt.Sprintf("slug contains invalid character %q", r)}
		}
	}
	if _, ok := v.reserved[strings.ToLower(s)]; ok {
		return &ValidationError{Slug: s, Reason: "slug is a reserved word"}
	}
	return nil
}
