// Package suggest ranks known stage names against a mistyped one.
package suggest

import (
	"sort"
	"strings"
)

// Scoring weights. Higher totals are closer matches.
const (
	scoreExact    = 1000
	prefixWeight  = 20
	containWeight = 15
	suffixWeight  = 10
	editWeight    = 5
)

// FindSimilar returns up to maxResults candidates close to target, best
// first. Ties keep candidate order. Matching ignores case.
func FindSimilar(target string, candidates []string, maxResults int) []string {
	if len(candidates) == 0 || maxResults <= 0 {
		return nil
	}

	type match struct {
		value string
		score int
	}
	target = strings.ToLower(target)
	var matches []match
	for _, c := range candidates {
		if score := similarity(target, strings.ToLower(c)); score > 0 {
			matches = append(matches, match{value: c, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}

	result := make([]string, len(matches))
	for i, m := range matches {
		result[i] = m.value
	}
	return result
}

func similarity(a, b string) int {
	if a == b {
		return scoreExact
	}

	score := commonPrefix(a, b)*prefixWeight + commonSuffix(a, b)*suffixWeight
	switch {
	case strings.Contains(b, a):
		score += len(a) * containWeight
	case strings.Contains(a, b):
		score += len(b) * containWeight
	}

	// Only close edits count; otherwise any two names would relate.
	longest := max(len(a), len(b))
	if dist := levenshtein(a, b); dist <= longest/2 {
		score += (longest - dist) * editWeight
	}
	return score
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func commonSuffix(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[len(a)-1-i] != b[len(b)-1-i] {
			return i
		}
	}
	return n
}

// levenshtein returns the edit distance between a and b using two rows.
func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// Hint formats a "did you mean" line, or returns "" without suggestions.
func Hint(suggestions []string) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return "did you mean " + suggestions[0] + "?"
	}
	return "did you mean one of " + strings.Join(suggestions, ", ") + "?"
}
