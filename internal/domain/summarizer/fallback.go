package summarizer

import (
	apperrors "github.com/yanqian/doc-summarizer/pkg/errors"
)

const (
	msgTooShort      = "The provided text is too short for meaningful summarization."
	msgNoContent     = "Unable to generate a meaningful summary from the provided text."
	msgGenericFailed = "An error occurred during summarization. Please try again with different text."

	noticeRemoteFailed = "The AI summarizer is unavailable right now, so a local summary was generated instead."
)

// documentKeywords stand in for keywords when an extracted file or page yields none.
var documentKeywords = []string{"document", "content", "analysis", "summary", "information", "extraction"}

// FallbackMessage returns the text shown to users when no summary could be produced.
func FallbackMessage(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInputTooShort:
		return msgTooShort
	case apperrors.CodeNoExtractableContent:
		return msgNoContent
	default:
		return msgGenericFailed
	}
}
