// Package tokencount estimates how many model tokens a context will occupy.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// Counter counts tokens with the model's BPE encoding. When the encoding cannot be
// loaded (no network for the BPE ranks, unknown model) it estimates from characters
// and words instead.
type Counter struct {
	model  string
	logger *slog.Logger

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewCounter constructs a Counter for model. The encoding loads on first use.
func NewCounter(model string, logger *slog.Logger) *Counter {
	return &Counter{model: model, logger: logger.With("component", "tokencount.counter")}
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	if enc := c.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return Estimate(text)
}

// Exact reports whether counts come from the BPE encoding.
func (c *Counter) Exact() bool {
	return c.encoding() != nil
}

func (c *Counter) encoding() *tiktoken.Tiktoken {
	c.once.Do(func() {
		enc, err := tiktoken.EncodingForModel(c.model)
		if err != nil {
			enc, err = tiktoken.GetEncoding(fallbackEncoding)
		}
		if err != nil {
			c.logger.Warn("token encoding unavailable, estimating counts", "model", c.model, "error", err)
			return
		}
		c.enc = enc
	})
	return c.enc
}

// Estimate approximates a token count as a quarter of the characters, but never
// fewer than the number of words.
func Estimate(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	words := len(strings.Fields(trimmed))
	tokens := utf8.RuneCountInString(trimmed) / 4
	if tokens < words {
		tokens = words
	}
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
