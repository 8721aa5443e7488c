package dedup

import (
	"strings"

	lev "github.com/texttheater/golang-levenshtein/levenshtein"
)

// RatioFunc scores two strings on [0,100]; identical strings score 100.
type RatioFunc func(a, b string) float64

// indel counts insertions and deletions only; a substitution costs one of each.
var indel = lev.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 2,
	Matches: lev.IdenticalRunes,
}

// Ratio is the normalized indel similarity 100 * (1 - dist/(len(a)+len(b))).
func Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 100
	}
	return 100 * lev.RatioForStrings(ra, rb, indel)
}

// normalize lowercases and trims a cell before scoring.
func normalize(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
