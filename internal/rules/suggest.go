package rules

import (
	"strings"
	"unicode"
)

// suggestThreshold is the minimum similarity for a field to be suggested
const suggestThreshold = 0.6

// Similarity scores two identifiers between 0 (unrelated) and 1 (equal
// after lowercasing and dropping punctuation). It is edit-distance based
// with a small boost when one contains the other or they share a prefix.
func Similarity(a, b string) float64 {
	a, b = normalizeIdent(a), normalizeIdent(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	score := 1 - float64(levenshtein(ra, rb))/float64(longest)

	if strings.Contains(a, b) || strings.Contains(b, a) {
		score += 0.2
	}
	prefix := 0
	for prefix < len(ra) && prefix < len(rb) && ra[prefix] == rb[prefix] {
		prefix++
	}
	score += float64(prefix) / float64(longest) * 0.1

	if score > 1 {
		return 1
	}
	return score
}

// Suggest returns the indexed field whose identifiers are most similar to
// ref, if any scores at least suggestThreshold.
func (idx *FieldIndex) Suggest(ref string) (ResolvedField, bool) {
	var best ResolvedField
	bestScore := 0.0
	for _, f := range idx.Fields() {
		for _, candidate := range []string{f.StableID, f.LabelKey, f.Mapping} {
			if candidate == "" {
				continue
			}
			if s := Similarity(ref, candidate); s > bestScore {
				best, bestScore = f, s
			}
		}
	}
	return best, bestScore >= suggestThreshold
}

func normalizeIdent(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// levenshtein uses two rolling rows
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(first int, rest ...int) int {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}
