// Package extractive implements frequency-based extractive summarization and
// question-driven context selection. Every function is pure and safe for concurrent use.
package extractive

import (
	"errors"
	"strings"
)

// MinInputLen is the shortest trimmed text, in characters, accepted for summarization.
const MinInputLen = 50

// DefaultLengthPercent is used when a caller does not specify a summary length.
const DefaultLengthPercent = 50

var (
	// ErrInputTooShort is returned when the trimmed input is shorter than MinInputLen.
	ErrInputTooShort = errors.New("input too short")
	// ErrNoExtractableContent is returned when no sentence survives splitting and filtering.
	ErrNoExtractableContent = errors.New("no extractable content")
)

// Params controls the shape, register, and size of a summary.
type Params struct {
	Type          SummaryType
	Tone          Tone
	LengthPercent int
}

// Summary is the result of a local summarization.
type Summary struct {
	Text      string   `json:"text"`
	Keywords  []string `json:"keywords"`
	Sentences []string `json:"-"`
}

// Summarize builds an extractive summary of text. Keywords are extracted independently and
// replaced by FallbackKeywords when none qualify.
func Summarize(text string, params Params) (Summary, error) {
	if runeLen(strings.TrimSpace(text)) < MinInputLen {
		return Summary{}, ErrInputTooShort
	}
	budget := SentenceBudget(countWords(text), params.LengthPercent)
	sentences := ExtractSentences(text, budget)
	if len(sentences) == 0 {
		return Summary{}, ErrNoExtractableContent
	}

	keywords := ExtractKeywords(text, DefaultKeywordLimit)
	if len(keywords) == 0 {
		keywords = append([]string(nil), FallbackKeywords...)
	}
	return Summary{
		Text:      Format(sentences, params.Type, params.Tone),
		Keywords:  keywords,
		Sentences: sentences,
	}, nil
}

// SelectContext narrows document for question with the default chat options.
func SelectContext(document, question string) string {
	return SelectRelevantContext(document, question, DefaultContextOptions())
}
