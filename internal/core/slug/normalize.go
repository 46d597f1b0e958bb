// Package slug contains the pure slug logic: normalization of arbitrary
// Unicode display names into URL-safe tokens, and syntactic validation of
// candidate slugs. This is part of the Functional Core - no I/O, fully
// deterministic.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// Transliteration
// =============================================================================

// georgian maps Mkhedruli letters to their Latin romanization. Listings on
// the marketplace are mostly titled in Georgian, so this table is applied
// before the generic Unicode folding pass.
var georgian = strings.NewReplacer(
	"ა", "a", "ბ", "b", "გ", "g", "დ", "d", "ე", "e",
	"ვ", "v", "ზ", "z", "თ", "t", "ი", "i", "კ", "k",
	"ლ", "l", "მ", "m", "ნ", "n", "ო", "o", "პ", "p",
	"ჟ", "zh", "რ", "r", "ს", "s", "ტ", "t", "უ", "u",
	"ფ", "p", "ქ", "k", "ღ", "gh", "ყ", "q", "შ", "sh",
	"ჩ", "ch", "ც", "ts", "ძ", "dz", "წ", "ts", "ჭ", "ch",
	"ხ", "kh", "ჯ", "j", "ჰ", "h",
)

// foldDiacritics decomposes accented Latin characters and strips the
// combining marks: "é" → "e", "münchen" → "munchen".
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// =============================================================================
// Normalization
// =============================================================================

// Normalize converts a free-text display name into a canonical lowercase,
// hyphen-delimited ASCII token sequence.
//
// The transformation rules are:
//   - Georgian letters are transliterated via the romanization table
//   - Latin diacritics are folded to their base letter
//   - ASCII letters and digits pass through (lowercased)
//   - Runs of whitespace, punctuation, and symbols become a single hyphen
//   - Any other unmapped rune is dropped
//   - Leading/trailing hyphens are stripped, doubles collapsed
//
// Pure function, total and idempotent. Empty or fully-unmappable input
// yields the empty string; callers must handle that case.
//
// Example:
//
//	Normalize("Oil Change")        // "oil-change"
//	Normalize("ავტოსამრეცხაო")     // "avtosamretskhao"
//	Normalize("Café & Garage")     // "cafe-garage"
func Normalize(text string) string {
	s := georgian.Replace(text)
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))

	pendingHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			// Separator run: emit at most one hyphen, and only between tokens.
			pendingHyphen = true
		default:
			// Unmapped rune (CJK, emoji, ...) - dropped, not substituted.
		}
	}

	return b.String()
}
