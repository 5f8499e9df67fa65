// Package textsim implements the case-name similarity scoring shared by the
// verification and clustering stages.  Scores combine token overlap, which is
// robust to reordered or abbreviated party names, with a character-level
// sequence ratio that catches small spelling differences.
package textsim

import (
	"strings"
	"unicode"
)

const (
	// DefaultTokenWeight and DefaultSequenceWeight blend the two signals.
	DefaultTokenWeight    = 0.6
	DefaultSequenceWeight = 0.4
)

// noise tokens carry no identity when comparing case names.
var noiseTokens = map[string]bool{
	"v": true, "vs": true, "in": true, "re": true, "ex": true,
	"parte": true, "matter": true, "of": true, "the": true,
	"estate": true, "et": true, "al": true, "inc": true, "llc": true,
	"corp": true, "co": true, "ltd": true,
}

// Normalize lowercases a case name and strips punctuation so that
// "Brown v. Board of Educ." and "BROWN v BOARD OF EDUC" compare equal.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastSpace := true
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens splits a normalized name into identity-bearing tokens.
func Tokens(name string) []string {
	fields := strings.Fields(Normalize(name))
	out := fields[:0]
	for _, f := range fields {
		if !noiseTokens[f] {
			out = append(out, f)
		}
	}
	return out
}

// TokenOverlap returns the Jaccard similarity of the two names' token sets.
func TokenOverlap(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	inter := 0
	union := len(set)
	seen := make(map[string]bool, len(tb))
	for _, t := range tb {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// SequenceRatio returns 2*M/T where M is the total length of the longest
// recursively matched substrings and T the combined length, computed over
// the normalized forms.  Identical strings score 1.0, disjoint strings 0.
func SequenceRatio(a, b string) float64 {
	ra, rb := []rune(Normalize(a)), []rune(Normalize(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}
	matched := matchLen(ra, rb)
	return 2 * float64(matched) / float64(total)
}

// matchLen finds the longest common substring, then recurses on the pieces
// to its left and right.
func matchLen(a, b []rune) int {
	ai, bi, n := longestCommon(a, b)
	if n == 0 {
		return 0
	}
	return n + matchLen(a[:ai], b[:bi]) + matchLen(a[ai+n:], b[bi+n:])
}

func longestCommon(a, b []rune) (ai, bi, n int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// prev[j] holds the match length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > n {
					n = cur[j]
					ai = i - n
					bi = j - n
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, n
}

// Score blends token overlap and sequence ratio with the default weights.
func Score(a, b string) float64 {
	return Weighted(a, b, DefaultTokenWeight, DefaultSequenceWeight)
}

// Weighted blends the two signals with caller-supplied weights.  Weights are
// normalized by their sum, so identical inputs score 1.0 regardless of the
// scale the caller picked.
func Weighted(a, b string, tokenWeight, seqWeight float64) float64 {
	if tokenWeight <= 0 && seqWeight <= 0 {
		tokenWeight, seqWeight = DefaultTokenWeight, DefaultSequenceWeight
	}
	sum := tokenWeight + seqWeight
	return (tokenWeight*TokenOverlap(a, b) + seqWeight*SequenceRatio(a, b)) / sum
}
