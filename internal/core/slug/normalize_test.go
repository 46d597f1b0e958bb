package slug

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Normalize Tests
// =============================================================================

func TestNormalize_Basic(t *testing.T) {
	result := Normalize("Oil Change")
	assert.Equal(t, "oil-change", result)
}

func TestNormalize_Lowercase(t *testing.T) {
	result := Normalize("already lowercase")
	assert.Equal(t, "already-lowercase", result)
}

func TestNormalize_Georgian(t *testing.T) {
	result := Normalize("ავტოსერვისი")
	assert.Equal(t, "avtoservisi", result)
}

func TestNormalize_GeorgianMultiWord(t *testing.T) {
	result := Normalize("სამრეცხაო ვაკეში")
	assert.Equal(t, "samretskhao-vakeshi", result)
}

func TestNormalize_Diacritics(t *testing.T) {
	result := Normalize("Café Résumé")
	assert.Equal(t, "cafe-resume", result)
}

func TestNormalize_Punctuation(t *testing.T) {
	result := Normalize("hello, world.")
	assert.Equal(t, "hello-world", result)
}

func TestNormalize_SymbolsBecomeSeparators(t *testing.T) {
	result := Normalize("Tires & Wheels")
	assert.Equal(t, "tires-wheels", result)
}

func TestNormalize_UnmappedRunesDropped(t *testing.T) {
	// CJK has no transliteration table, so the runes vanish entirely
	// rather than turning into placeholder hyphens.
	result := Normalize("洗車 wash")
	assert.Equal(t, "wash", result)
}

func TestNormalize_EmptyString(t *testing.T) {
	result := Normalize("")
	assert.Equal(t, "", result)
}

func TestNormalize_OnlySpecialChars(t *testing.T) {
	result := Normalize("!@#$%^&*()")
	assert.Equal(t, "", result)
}

func TestNormalize_LeadingTrailingSeparators(t *testing.T) {
	result := Normalize("  -- trim me --  ")
	assert.Equal(t, "trim-me", result)
}

func TestNormalize_MultipleSpaces(t *testing.T) {
	result := Normalize("hello   world")
	assert.Equal(t, "hello-world", result)
}

func TestNormalize_NumbersAndLetters(t *testing.T) {
	result := Normalize("Service 24/7")
	assert.Equal(t, "service-24-7", result)
}

// =============================================================================
// Table-Driven Tests
// =============================================================================

func TestNormalize_TableDriven(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"basic", "Oil Change", "oil-change"},
		{"uppercase", "EVACUATOR", "evacuator"},
		{"mixed case", "MiXeD CaSe", "mixed-case"},
		{"hyphens preserved", "my-garage", "my-garage"},
		{"underscores", "my_garage_name", "my-garage-name"},
		{"georgian carwash", "ავტოსამრეცხაო", "avtosamretskhao"},
		{"georgian mixed latin", "Bosch სერვისი", "bosch-servisi"},
		{"georgian harsh consonants", "ყავა ჭაჭა ღვინო", "qava-chacha-ghvino"},
		{"numbers", "24-7 Service", "24-7-service"},
		{"emoji dropped", "🚗 wash", "wash"},
		{"empty", "", ""},
		{"only punctuation", "... --- !!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

// =============================================================================
// Properties
// =============================================================================

var normalizedShape = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Oil Change",
		"ავტოსამრეცხაო ვაკეში",
		"Café & Garage 24/7",
		"  -- messy -- input --  ",
		"洗車サービス",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize must be idempotent for %q", in)
	}
}

func TestNormalize_OutputShape(t *testing.T) {
	inputs := []string{
		"Oil Change!",
		"ევაკუატორი თბილისში",
		"naïve résumé",
		"a--b---c",
		"...",
	}
	for _, in := range inputs {
		out := Normalize(in)
		if out == "" {
			continue
		}
		assert.Regexp(t, normalizedShape, out, "unexpected shape for input %q", in)
	}
}
