package summarizer

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/yanqian/doc-summarizer/internal/domain/extractive"
	"github.com/yanqian/doc-summarizer/internal/infra/llm/chatgpt"
)

var formatInstructions = map[extractive.SummaryType]string{
	extractive.TypeParagraph: "a single cohesive paragraph",
	extractive.TypeBullets:   "bullet points, one per line, each starting with \"" + extractive.BulletMarker + "\"",
	extractive.TypeTLDR:      "a TL;DR of at most two sentences",
}

func buildMessages(prompt string, req resolvedRequest, maxSummaryLen, maxKeywords int) []chatgpt.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Text:\n%s\n\nConstraints:\n", req.text)
	fmt.Fprintf(&b, "- Format: %s.\n", formatInstructions[req.params.Type])
	fmt.Fprintf(&b, "- Tone: %s.\n", req.params.Tone)
	fmt.Fprintf(&b, "- Length: about %d%% of the detail a full summary would carry.\n", req.params.LengthPercent)
	if maxSummaryLen > 0 {
		fmt.Fprintf(&b, "- Summary must be at most %d characters.\n", maxSummaryLen)
	}
	fmt.Fprintf(&b, "- Return up to %d keywords.", maxKeywords)
	return []chatgpt.Message{
		{Role: "system", Content: prompt},
		{Role: "user", Content: b.String()},
	}
}

func parseStructuredResponse(content string, keywordLimit int) (string, []string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", nil, errors.New("empty llm response")
	}

	summaryIdx := findMarker(content, "SUMMARY:")
	if summaryIdx == -1 {
		return "", nil, errors.New("missing SUMMARY section")
	}

	body := content[summaryIdx+len("SUMMARY:"):]
	keywordsIdx := findMarker(body, "KEYWORDS:")
	var keywordsRaw string
	if keywordsIdx != -1 {
		keywordsRaw = body[keywordsIdx+len("KEYWORDS:"):]
		body = body[:keywordsIdx]
	}

	summary := strings.TrimSpace(body)
	if summary == "" {
		return "", nil, errors.New("summary section empty")
	}

	keywords := splitKeywords(keywordsRaw, keywordLimit)
	return summary, keywords, nil
}

func splitKeywords(raw string, limit int) []string {
	raw = strings.ReplaceAll(raw, "\n", ",")
	raw = strings.ReplaceAll(raw, ";", ",")
	tokens := strings.Split(raw, ",")
	keywords := make([]string, 0, max(limit, 0))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		clean := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "-"))
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keywords = append(keywords, clean)
		if limit > 0 && len(keywords) >= limit {
			break
		}
	}
	return keywords
}

func extractSummary(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	summaryIdx := findMarker(content, "SUMMARY:")
	if summaryIdx == -1 {
		return content
	}
	body := content[summaryIdx+len("SUMMARY:"):]
	if keywordsIdx := findMarker(body, "KEYWORDS:"); keywordsIdx != -1 {
		body = body[:keywordsIdx]
	}
	return strings.TrimSpace(body)
}

func findMarker(content, marker string) int {
	lowerContent := strings.ToLower(content)
	lowerMarker := strings.ToLower(marker)
	return strings.Index(lowerContent, lowerMarker)
}

func normalize(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)
	return text
}

// truncate limits text to limit characters, marking the cut with an ellipsis.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if limit <= 0 || len(runes) <= limit {
		return text
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return strings.TrimSpace(string(runes[:limit-3])) + "..."
}
