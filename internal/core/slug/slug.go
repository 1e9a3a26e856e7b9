// Package slug turns human titles into unique URL-safe identifiers.
// Normalization pipeline
// 1 Unicode NFKD decomposition
// 2 Case folding
// 3 Strip combining marks (accents) and format chars
// 4 Width fold fullwidth to ASCII
// 5 Collapse non-alphanumeric runs to a single separator and trim
package slug

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// Separator joins slug words
const Separator = '-'

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKD,
			cases.Fold(),                       // unicode case folding
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
			width.Fold,                         // map fullwidth forms to ASCII
		)
	},
}

// Normalize returns the slug form of s following the pipeline above.
// "Café & Co" becomes "cafe-co". Returns "" when nothing sluggable survives
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	return collapse(ns)
}

// collapse converts non-alphanumeric runs to a single separator and trims
func collapse(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteRune(Separator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// Truncate cuts s to max bytes without leaving a dangling separator.
// The pipeline output is ASCII so byte length equals rune length
func Truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	s = s[:max]
	return strings.TrimRight(s, string(Separator))
}
