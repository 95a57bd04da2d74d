package fuzzy

import (
	"strings"
)

// LevenshteinDistance calculates the edit distance between two strings
// This measures how many single-character edits (insertions, deletions, or substitutions)
// are required to change one string into another
func LevenshteinDistance(s1, s2 string) int {
	s1 = NormalizeString(s1)
	s2 = NormalizeString(s2)

	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	d := make([][]int, m+1)
	for i := range d {
		d[i] = make([]int, n+1)
	}

	for i := 0; i <= m; i++ {
		d[i][0] = i
	}
	for j := 0; j <= n; j++ {
		d[0][j] = j
	}

	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			d[i][j] = min3(
				d[i-1][j]+1,      // deletion
				d[i][j-1]+1,      // insertion
				d[i-1][j-1]+cost, // substitution
			)
		}
	}

	return d[m][n]
}

// TokenOverlap returns the Jaccard similarity of the word sets of two strings:
// |intersection| / |union|, in [0, 1]. Comparison is case-insensitive and
// tolerates small typos (edit distance 1 for tokens of 4+ characters).
func TokenOverlap(s1, s2 string) float64 {
	tokens1 := tokenize(s1)
	tokens2 := tokenize(s2)

	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}

	matched := make(map[int]bool)
	intersection := 0
	for _, t1 := range tokens1 {
		for i, t2 := range tokens2 {
			if matched[i] {
				continue
			}
			if tokensEqual(t1, t2) {
				intersection++
				matched[i] = true
				break
			}
		}
	}

	union := len(tokens1) + len(tokens2) - intersection
	return float64(intersection) / float64(union)
}

// tokensEqual compares two tokens with a little typo tolerance
func tokensEqual(t1, t2 string) bool {
	if t1 == t2 {
		return true
	}
	if len(t1) >= 4 && len(t2) >= 4 && LevenshteinDistance(t1, t2) <= 1 {
		return true
	}
	return false
}

// NormalizeString converts to lowercase and collapses whitespace
func NormalizeString(s string) string {
	s = strings.ToLower(s)
	s = strings.Join(strings.Fields(s), " ")
	return s
}

// tokenize splits a normalized string into words, dropping punctuation-only tokens
func tokenize(s string) []string {
	fields := strings.Fields(NormalizeString(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:()[]\"'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
