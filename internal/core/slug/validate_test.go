package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Validate Tests
// =============================================================================

func TestValidate_Accepts(t *testing.T) {
	v := NewValidator()

	valid := []string{
		"oil-change",
		"oil-change-2",
		"a",
		"24-7-service",
		"avtosamretskhao",
	}
	for _, s := range valid {
		assert.NoError(t, v.Validate(s), "expected %q to be valid", s)
	}
}

func TestValidate_TableDriven(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name   string
		slug   string
		reason string
	}{
		{"empty", "", "empty"},
		{"leading hyphen", "-leading", "begin or end"},
		{"trailing hyphen", "trailing-", "begin or end"},
		{"double hyphen", "double--hyphen", "consecutive"},
		{"uppercase", "ADMIN", "invalid character"},
		{"space", "oil change", "invalid character"},
		{"unicode", "ავტო", "invalid character"},
		{"reserved", "admin", "reserved"},
		{"reserved route", "sitemap", "reserved"},
		{"too long", strings.Repeat("a", MaxLength+1), "exceeds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.slug)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Reason, tt.reason)
		})
	}
}

func TestValidate_MaxLengthBoundary(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.Validate(strings.Repeat("a", MaxLength)))
	assert.Error(t, v.Validate(strings.Repeat("a", MaxLength+1)))
}

func TestValidate_ExtraReservedWords(t *testing.T) {
	v := NewValidator("Fuel", " promo ")

	assert.Error(t, v.Validate("fuel"))
	assert.Error(t, v.Validate("promo"))
	assert.NoError(t, v.Validate("fuel-prices"))
}
