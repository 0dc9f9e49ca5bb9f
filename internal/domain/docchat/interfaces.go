package docchat

import (
	"context"
	"errors"
	"io"

	"github.com/yanqian/doc-summarizer/pkg/metrics"
)

// ErrObjectNotFound is returned by ObjectStorage when a key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// ObjectStorage abstracts blob storage (R2/S3/local).
type ObjectStorage interface {
	Put(ctx context.Context, key string, data []byte, mimeType string) (StoredObject, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StoredObject captures persisted blob metadata.
type StoredObject struct {
	Key      string
	Size     int64
	MimeType string
	ETag     string
}

// LLM generates answers for a question and context.
type LLM interface {
	Chat(ctx context.Context, req LLMRequest) (LLMReply, error)
}

// LLMMessage mirrors a simplified chat payload.
type LLMMessage struct {
	Role    string
	Content string
}

// LLMRequest carries the conversation and sampling limits.
type LLMRequest struct {
	Messages    []LLMMessage
	Temperature float32
	MaxTokens   int
}

// LLMReply is the model's answer.
type LLMReply struct {
	Content string
	Usage   metrics.TokenUsage
}

// TextExtractor turns uploaded files into plain text.
type TextExtractor interface {
	ExtractFile(ctx context.Context, name, mimeType string, data []byte) (string, error)
}

// TokenCounter estimates how many model tokens a text occupies.
type TokenCounter interface {
	Count(text string) int
}
