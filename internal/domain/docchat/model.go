package docchat

import (
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/doc-summarizer/internal/domain/extractive"
	"github.com/yanqian/doc-summarizer/pkg/metrics"
)

// Config drives context selection, prompting and upload limits.
type Config struct {
	SystemPrompt         string
	Model                string
	Temperature          float32
	MaxTokens            int
	MaxHistoryTurns      int
	MaxContextChars      int
	LocalAnswerSentences int
	MaxFileBytes         int64
	Context              extractive.ContextOptions
}

// Source identifies which path produced an answer.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Turn is one prior message of a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest contains the question payload. DocumentText wins over DocumentID.
type AskRequest struct {
	Question     string     `json:"question"`
	DocumentText string     `json:"docText,omitempty"`
	DocumentID   *uuid.UUID `json:"documentId,omitempty"`
	History      []Turn     `json:"history,omitempty"`
	UserID       int64      `json:"-"`
}

// AskResponse is returned to the HTTP handler.
type AskResponse struct {
	Answer        string                   `json:"answer"`
	Source        Source                   `json:"source"`
	Notice        string                   `json:"notice,omitempty"`
	Narrowed      bool                     `json:"narrowed"`
	Mode          extractive.SelectionMode `json:"mode"`
	Chunks        []int                    `json:"chunks,omitempty"`
	ContextChars  int                      `json:"contextChars"`
	ContextTokens int                      `json:"contextTokens"`
	TokenUsage    *metrics.TokenUsage      `json:"tokenUsage,omitempty"`
	LatencyMs     int64                    `json:"latencyMs"`
}

// ContextRequest asks for the narrowed context of a document without answering.
type ContextRequest struct {
	Document string `json:"document"`
	Question string `json:"question"`
	extractive.ContextOptions
}

// ContextResponse reports the selected context.
type ContextResponse struct {
	extractive.ContextSelection
	Narrowed      bool `json:"narrowed"`
	ContextTokens int  `json:"contextTokens"`
}

// UploadRequest captures a multipart submission.
type UploadRequest struct {
	FileName string
	Title    string
	MimeType string
	Content  []byte
}

// Document is an uploaded file whose text can be chatted with.
type Document struct {
	ID         uuid.UUID `json:"id"`
	UserID     int64     `json:"userId"`
	Title      string    `json:"title"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	Chars      int       `json:"chars"`
	StorageKey string    `json:"storageKey"`
	CreatedAt  time.Time `json:"createdAt"`
}
