package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Kind Tests
// =============================================================================

func TestKind_IsValid(t *testing.T) {
	for _, k := range Kinds() {
		assert.True(t, k.IsValid(), "kind %q should be valid", k)
	}
	assert.False(t, Kind("garage").IsValid())
	assert.False(t, Kind("").IsValid())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Mechanic")
	require.NoError(t, err)
	assert.Equal(t, KindMechanic, k)

	k, err = ParseKind("  carwash ")
	require.NoError(t, err)
	assert.Equal(t, KindCarwash, k)

	_, err = ParseKind("spaceship")
	assert.ErrorIs(t, err, ErrKindInvalid)
}

// =============================================================================
// Listing Tests
// =============================================================================

func TestNewListing_Success(t *testing.T) {
	l, err := NewListing(KindMechanic, "გიორგის ავტოსერვისი")
	require.NoError(t, err)

	assert.Equal(t, KindMechanic, l.Kind)
	assert.Equal(t, "გიორგის ავტოსერვისი", l.DisplayName)
	assert.Empty(t, l.Slug)
	assert.False(t, l.SlugIsManual)
	assert.False(t, l.Published)
	assert.False(t, l.CreatedAt.IsZero())
}

func TestNewListing_InvalidKind(t *testing.T) {
	_, err := NewListing(Kind("garage"), "Some Name")
	assert.ErrorIs(t, err, ErrKindInvalid)
}

func TestNewListing_NameValidation(t *testing.T) {
	_, err := NewListing(KindCarwash, "")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = NewListing(KindCarwash, "a")
	assert.ErrorIs(t, err, ErrNameTooShort)

	_, err = NewListing(KindCarwash, strings.Repeat("ა", 121))
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestListing_Rename(t *testing.T) {
	l, err := NewListing(KindPost, "Old Title")
	require.NoError(t, err)
	l.Slug = "old-title"
	before := l.UpdatedAt

	require.NoError(t, l.Rename("New Title"))
	assert.Equal(t, "New Title", l.DisplayName)
	// Rename must never touch the slug; regeneration is the caller's call.
	assert.Equal(t, "old-title", l.Slug)
	assert.False(t, l.UpdatedAt.Before(before))

	assert.ErrorIs(t, l.Rename(""), ErrNameRequired)
	assert.Equal(t, "New Title", l.DisplayName)
}

// =============================================================================
// Field Validation Tests
// =============================================================================

func TestValidateDisplayName_RuneCounted(t *testing.T) {
	// 120 Georgian letters are 360 bytes but exactly at the rune limit.
	assert.NoError(t, ValidateDisplayName(strings.Repeat("ა", 120)))
	assert.ErrorIs(t, ValidateDisplayName(strings.Repeat("ა", 121)), ErrNameTooLong)
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		wantErr error
	}{
		{"empty is optional", "", nil},
		{"local", "595 12 34 56", nil},
		{"international", "+995 595-123-456", nil},
		{"plus not leading", "595+123456", ErrPhoneInvalid},
		{"letters", "call me", ErrPhoneInvalid},
		{"too long", "+995 595 123 456 789 00", ErrPhoneTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// Fuel Price Tests
// =============================================================================

func TestFuelPrice_Validate(t *testing.T) {
	p := &FuelPrice{Provider: "Gulf", Fuel: FuelDiesel, PriceTetri: 289}
	assert.NoError(t, p.Validate())

	assert.ErrorIs(t, (&FuelPrice{Fuel: FuelDiesel, PriceTetri: 1}).Validate(), ErrProviderRequired)
	assert.ErrorIs(t, (&FuelPrice{Provider: "Gulf", Fuel: "rocket", PriceTetri: 1}).Validate(), ErrFuelTypeInvalid)
	assert.ErrorIs(t, (&FuelPrice{Provider: "Gulf", Fuel: FuelGas}).Validate(), ErrPriceNotPositive)
}
