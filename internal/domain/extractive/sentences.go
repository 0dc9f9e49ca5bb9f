package extractive

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	minSentenceLen = 10
	minBudget      = 2
	maxBudget      = 10
	wordsPerBullet = 15

	positionWeight = 0.3
	keywordWeight  = 0.5
	lengthWeight   = 0.2
)

// ScoredSentence is a sentence with its document position and extraction score.
type ScoredSentence struct {
	Text  string
	Index int
	Score float64
}

// SplitSentences breaks text at '.', '!' or '?' when the next non-space character is an
// uppercase ASCII letter. Sentences are trimmed; those of 10 characters or fewer are
// dropped, and so is trailing text that never reaches terminal punctuation.
func SplitSentences(text string) []string {
	var out []string
	add := func(segment string) {
		segment = strings.TrimSpace(segment)
		if runeLen(segment) > minSentenceLen {
			out = append(out, segment)
		}
	}

	start := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		if !isTerminal(r) {
			continue
		}
		next := skipSpace(text, i)
		if next < len(text) && text[next] >= 'A' && text[next] <= 'Z' {
			add(text[start:i])
			start = next
			i = next
		}
	}
	if tail := text[start:]; endsSentence(tail) {
		add(tail)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func skipSpace(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func endsSentence(segment string) bool {
	segment = strings.TrimRightFunc(segment, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(`"')]”’`, r)
	})
	if segment == "" {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(segment)
	return isTerminal(r)
}

// SentenceBudget is roughly one sentence per 15 words of requested output, bounded to [2,10].
// lengthPercent is clamped to [0,100].
func SentenceBudget(wordCount, lengthPercent int) int {
	lengthPercent = clamp(lengthPercent, 0, 100)
	budget := wordCount * lengthPercent / 100 / wordsPerBullet
	return clamp(budget, minBudget, maxBudget)
}

// ScoreSentences scores every sentence by position, keyword density, and length band.
func ScoreSentences(sentences, keywords []string) []ScoredSentence {
	n := float64(len(sentences))
	scored := make([]ScoredSentence, 0, len(sentences))
	for i, sentence := range sentences {
		position := 1 - float64(i)/n
		score := positionWeight*position +
			keywordWeight*keywordScore(sentence, keywords) +
			lengthWeight*lengthScore(sentence)
		scored = append(scored, ScoredSentence{Text: sentence, Index: i, Score: score})
	}
	return scored
}

func keywordScore(sentence string, keywords []string) float64 {
	lower := strings.ToLower(sentence)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	return float64(matches) / ScoringKeywordLimit
}

func lengthScore(sentence string) float64 {
	if wc := countWords(sentence); wc > 5 && wc < 40 {
		return 1
	}
	return 0.5
}

// ExtractSentences picks up to budget representative sentences from text in document order.
// It returns an empty slice when text has no usable sentence.
func ExtractSentences(text string, budget int) []string {
	if budget < 1 {
		budget = 1
	}
	sentences := SplitSentences(text)
	if len(sentences) <= budget {
		return sentences
	}

	keywords := RankKeywords(Tokenize(text, ScoringMinWordLen), ScoringKeywordLimit)
	scored := ScoreSentences(sentences, keywords)
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	top := scored[:budget]
	sort.Slice(top, func(i, j int) bool {
		return top[i].Index < top[j].Index
	})

	out := make([]string, len(top))
	for i, s := range top {
		out[i] = s.Text
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
