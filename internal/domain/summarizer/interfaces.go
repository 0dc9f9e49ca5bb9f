package summarizer

import (
	"context"
	"time"

	"github.com/yanqian/doc-summarizer/internal/infra/llm/chatgpt"
)

// ChatClient is the remote summarizer. A nil ChatClient disables the remote path.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
	CreateChatCompletionStream(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.Stream, error)
}

// TextExtractor resolves files and URLs into plain text.
type TextExtractor interface {
	ExtractFile(ctx context.Context, name, mimeType string, data []byte) (string, error)
	ExtractURL(ctx context.Context, rawURL string) (string, error)
}

// Cache stores finished summaries keyed by request fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) (Response, bool, error)
	Set(ctx context.Context, key string, resp Response, ttl time.Duration) error
}

// HistoryRepository persists summaries for signed-in users.
type HistoryRepository interface {
	Append(ctx context.Context, record HistoryRecord) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]HistoryRecord, error)
}
