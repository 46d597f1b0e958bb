// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Display name validation errors
	ErrNameRequired = errors.New("display name is required")
	ErrNameTooShort = errors.New("display name must be at least 2 characters")
	ErrNameTooLong  = errors.New("display name must be at most 120 characters")

	// Kind validation errors
	ErrKindInvalid = errors.New("unknown listing kind")

	// Phone validation errors
	ErrPhoneInvalid = errors.New("phone may contain only digits, spaces, hyphens, and a leading +")
	ErrPhoneTooLong = errors.New("phone must be at most 20 characters")
)

// =============================================================================
// Kind
// =============================================================================

// Kind identifies the category of a listing. Slugs are unique per kind, not
// globally: a mechanic and a blog post may share the same slug.
type Kind string

const (
	KindMechanic  Kind = "mechanic"
	KindCarwash   Kind = "carwash"
	KindEvacuator Kind = "evacuator"
	KindPost      Kind = "post"
)

// Kinds lists every valid listing kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindMechanic, KindCarwash, KindEvacuator, KindPost}
}

// IsValid checks if the kind is one of the known categories.
func (k Kind) IsValid() bool {
	switch k {
	case KindMechanic, KindCarwash, KindEvacuator, KindPost:
		return true
	default:
		return false
	}
}

// ParseKind converts a path or query segment into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", ErrKindInvalid
	}
	return k, nil
}

// =============================================================================
// Listing
// =============================================================================

// Listing is a slugged marketplace record: a mechanic shop, car wash,
// evacuator service, or blog post reachable via a human-readable URL.
//
// Slug and SlugIsManual are only ever written through the slugger manager.
// SlugIsManual=true means an operator explicitly chose the slug; automatic
// regeneration triggered by a DisplayName change must leave it untouched.
type Listing struct {
	ID           int64     `json:"id"`
	Kind         Kind      `json:"kind"`
	DisplayName  string    `json:"display_name"`
	Slug         string    `json:"slug"`
	SlugIsManual bool      `json:"slug_is_manual"`
	Description  string    `json:"description,omitempty"`
	City         string    `json:"city,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewListing creates an unpersisted listing with validated fields. The slug
// is left empty; the slugger manager assigns it at creation time.
func NewListing(kind Kind, displayName string) (*Listing, error) {
	if !kind.IsValid() {
		return nil, ErrKindInvalid
	}
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Listing{
		Kind:        kind,
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Rename updates the display name. It deliberately does not touch the slug:
// the caller decides whether regeneration applies by consulting SlugIsManual.
func (l *Listing) Rename(displayName string) error {
	if err := ValidateDisplayName(displayName); err != nil {
		return err
	}
	l.DisplayName = strings.TrimSpace(displayName)
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// =============================================================================
// Field Validation
// =============================================================================

// ValidateDisplayName checks name presence and length (2..120 runes).
func ValidateDisplayName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrNameRequired
	}
	n := utf8.RuneCountInString(trimmed)
	if n < 2 {
		return ErrNameTooShort
	}
	if n > 120 {
		return ErrNameTooLong
	}
	return nil
}

// ValidatePhone checks the loose Georgian phone shape used on listing cards.
// Empty is allowed; phone is optional.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if len(phone) > 20 {
		return ErrPhoneTooLong
	}
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			continue
		}
		if r == ' ' || r == '-' {
			continue
		}
		if r == '+' && i == 0 {
			continue
		}
		return ErrPhoneInvalid
	}
	return nil
}
