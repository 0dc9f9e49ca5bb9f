package extractive

import "sort"

const (
	// DefaultKeywordLimit caps standalone keyword extraction.
	DefaultKeywordLimit = 8
	// ScoringKeywordLimit is the number of keywords considered when scoring sentences.
	ScoringKeywordLimit = 15
)

// FallbackKeywords is returned to callers when no keyword survives filtering.
var FallbackKeywords = []string{"no", "keywords", "found"}

// RankKeywords orders distinct tokens by descending frequency. Ties keep first-occurrence
// order. At most limit tokens are returned; a non-positive limit returns all of them.
func RankKeywords(tokens []string, limit int) []string {
	if len(tokens) == 0 {
		return []string{}
	}
	counts := make(map[string]int, len(tokens))
	order := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, seen := counts[token]; !seen {
			order = append(order, token)
		}
		counts[token]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}

// ExtractKeywords returns up to topK frequent content words of text. A non-positive topK
// uses DefaultKeywordLimit. The result is empty, never nil, when nothing qualifies.
func ExtractKeywords(text string, topK int) []string {
	if topK <= 0 {
		topK = DefaultKeywordLimit
	}
	return RankKeywords(Tokenize(text, KeywordMinWordLen), topK)
}
