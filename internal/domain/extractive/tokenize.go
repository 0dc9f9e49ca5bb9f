package extractive

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// ScoringMinWordLen drops tokens of three characters or fewer when ranking keywords for sentence scoring.
	ScoringMinWordLen = 3
	// KeywordMinWordLen drops tokens of four characters or fewer for standalone keyword extraction.
	KeywordMinWordLen = 4
)

// Tokenize lowercases text, strips non-word characters, and returns the tokens longer
// than minLen that are not stopwords. Order of appearance is kept.
func Tokenize(text string, minLen int) []string {
	words := words(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) <= minLen || IsStopword(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// words returns every lowercase whitespace-separated token after non-word characters are removed.
func words(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case isWordRune(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, text)
	return strings.Fields(cleaned)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func runeLen(text string) int {
	return utf8.RuneCountInString(text)
}
