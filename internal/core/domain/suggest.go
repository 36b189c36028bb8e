package domain

import (
	"maps"
	"slices"
)

const minSuggestSimilarity = 0.6

var sortedAliases = slices.Sorted(maps.Keys(aliases))

// SuggestLabel returns the taxonomy label or alias target closest to raw, if
// any is similar enough to be a plausible typo.
func SuggestLabel(raw string) (EmotionLabel, bool) {
	key := canonicalLabelKey(raw)
	if key == "" {
		return "", false
	}

	best := 0.0
	var bestLabel EmotionLabel
	consider := func(candidate string, target EmotionLabel) {
		if s := similarity(key, candidate); s > best {
			best = s
			bestLabel = target
		}
	}
	for _, l := range taxonomy {
		consider(string(l), l)
	}
	for _, alias := range sortedAliases {
		consider(alias, aliases[alias])
	}

	if best < minSuggestSimilarity {
		return "", false
	}
	return bestLabel, true
}

func similarity(a string, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1.0
	}

	distance := levenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(maxLen)
}

func levenshteinDistance(a string, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,
				curr[j-1]+1,
				prev[j-1]+cost,
			)
		}
		copy(prev, curr)
	}

	return prev[len(rb)]
}
