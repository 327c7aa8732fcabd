// Package matching provides normalized edit-distance similarity used to
// correct near-miss names coming back from constrained generation and to
// detect functional layouts in a template's layout set.
package matching

import "strings"

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)), a value
// in [0, 1] where 1 means the strings are equal. Comparison is
// case-insensitive.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// BestMatch returns the candidate with the highest similarity to target,
// along with its similarity. Ties keep the earlier candidate so repeated
// matching against the same set is deterministic. Returns ok=false for an
// empty candidate set.
func BestMatch(target string, candidates []string) (best string, sim float64, ok bool) {
	sim = -1
	for _, candidate := range candidates {
		if s := Similarity(candidate, target); s > sim {
			best, sim, ok = candidate, s, true
		}
	}
	return best, sim, ok
}

// levenshtein computes the edit distance between two rune slices with a
// single-row dynamic program.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = minInt(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(b)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
