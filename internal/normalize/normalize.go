// Package normalize canonicalises arbitrary document text into the fixed
// token alphabet the index is built over, and derives n-grams from it.
//
// The accept table below handles the ASCII range (the overwhelming
// majority of runes seen on the hot path) with a single array lookup;
// anything above ASCII falls back to unicode.IsLetter/IsNumber. This
// mirrors a table-driven approach without attempting to hand-roll a full
// Unicode category table.
package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// N is the n-gram width used throughout the index; fixed at 2 (bigrams).
const N = 2

var asciiAccept [128]bool

func init() {
	for r := rune('0'); r <= '9'; r++ {
		asciiAccept[r] = true
	}
	for r := rune('a'); r <= 'z'; r++ {
		asciiAccept[r] = true
	}
	for r := rune('A'); r <= 'Z'; r++ {
		asciiAccept[r] = true
	}
}

// accepted reports whether r belongs to the token alphabet: any Unicode
// letter or number.
func accepted(r rune) bool {
	if r < 128 {
		return asciiAccept[r]
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}

// Normalize NFKC-composes text, lowercases it, and drops every rune that
// is not a letter or number. Calling Normalize twice is a no-op
// (normalize(normalize(x)) == normalize(x)).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	composed := norm.NFKC.String(text)
	lower := strings.ToLower(composed)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if accepted(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NGrams returns the deduplicated set of length-n sliding windows over s,
// as a sorted slice for deterministic iteration. Empty if s has fewer
// than n runes.
func NGrams(s string, n int) []string {
	runes := []rune(s)
	if len(runes) < n {
		return nil
	}
	seen := make(map[string]struct{}, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		seen[string(runes[i:i+n])] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// TokenKey maps a 2-rune token to its bijective 32-bit key, a*65536+b
// where a, b are the token's UTF-16 code units. Returns ok=false if the
// token does not encode to exactly two UTF-16 units (e.g. it contains an
// astral-plane rune requiring a surrogate pair) — such tokens cannot be
// represented by the fixed-width key and are skipped by the builder.
func TokenKey(token string) (uint32, bool) {
	units := utf16.Encode([]rune(token))
	if len(units) != 2 {
		return 0, false
	}
	return uint32(units[0])<<16 | uint32(units[1]), true
}
