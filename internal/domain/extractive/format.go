package extractive

import "strings"

// SummaryType selects the output shape of a summary.
type SummaryType string

const (
	TypeParagraph SummaryType = "paragraph"
	TypeBullets   SummaryType = "bullets"
	TypeTLDR      SummaryType = "tldr"
)

// Tone selects the register of the summary prefix.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	ToneFormal   Tone = "formal"
	ToneCasual   Tone = "casual"
	ToneFriendly Tone = "friendly"
)

const (
	// BulletMarker starts every line of a bulleted summary.
	BulletMarker = "• "

	tldrSentences = 2
)

var tonePrefixes = map[Tone]string{
	ToneNeutral:  "Summary:",
	ToneFormal:   "Based on a comprehensive analysis of the provided text, the following summary has been generated:",
	ToneCasual:   "So, here's the deal with this text:",
	ToneFriendly: "Hey there! Here's what this text is all about:",
}

// ParseSummaryType maps free-form input onto a known type, defaulting to paragraph.
func ParseSummaryType(raw string) SummaryType {
	switch t := SummaryType(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeBullets, TypeTLDR:
		return t
	default:
		return TypeParagraph
	}
}

// ParseTone maps free-form input onto a known tone, defaulting to neutral.
func ParseTone(raw string) Tone {
	t := Tone(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := tonePrefixes[t]; ok {
		return t
	}
	return ToneNeutral
}

// TonePrefix returns the literal prefix for tone; unknown tones use the neutral prefix.
func TonePrefix(tone Tone) string {
	if prefix, ok := tonePrefixes[tone]; ok {
		return prefix
	}
	return tonePrefixes[ToneNeutral]
}

// Format renders sentences in the requested shape behind the tone prefix.
func Format(sentences []string, summaryType SummaryType, tone Tone) string {
	prefix := TonePrefix(tone)
	switch summaryType {
	case TypeBullets:
		lines := make([]string, len(sentences))
		for i, s := range sentences {
			lines[i] = BulletMarker + strings.TrimSpace(s)
		}
		return prefix + "\n\n" + strings.Join(lines, "\n\n")
	case TypeTLDR:
		if len(sentences) > tldrSentences {
			sentences = sentences[:tldrSentences]
		}
		return prefix + " " + strings.Join(sentences, " ")
	default:
		return prefix + " " + strings.Join(sentences, " ")
	}
}
