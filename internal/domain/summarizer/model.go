package summarizer

import (
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/doc-summarizer/pkg/metrics"
)

// Config configures summarization defaults and the remote path.
type Config struct {
	DefaultType    string
	DefaultTone    string
	DefaultLength  int
	MinInputLength int
	MaxKeywords    int
	MaxSummaryLen  int

	RemoteEnabled bool
	DefaultPrompt string
	Model         string
	Temperature   float32
	MaxTokens     int

	CacheTTL     time.Duration
	HistoryLimit int
}

// InputType identifies how the text to summarize was supplied.
type InputType string

const (
	InputText InputType = "text"
	InputURL  InputType = "url"
	InputFile InputType = "file"
)

// Source identifies which path produced a summary.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceCache  Source = "cache"
)

// File is an uploaded document awaiting extraction.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Request represents the incoming summarization payload. Exactly one of Text, URL or File
// is expected; File wins over URL, which wins over Text.
type Request struct {
	Text   string `json:"text"`
	URL    string `json:"url,omitempty"`
	File   *File  `json:"-"`
	Type   string `json:"type,omitempty"`
	Tone   string `json:"tone,omitempty"`
	Length *int   `json:"length,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	UserID int64  `json:"-"`
}

// Response is returned by the sync endpoint.
type Response struct {
	Summary    string              `json:"summary"`
	Keywords   []string            `json:"keywords"`
	Source     Source              `json:"source"`
	Notice     string              `json:"notice,omitempty"`
	InputType  InputType           `json:"inputType"`
	FileName   string              `json:"fileName,omitempty"`
	DurationMs int64               `json:"durationMs"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// StreamChunk represents a streaming update.
type StreamChunk struct {
	PartialSummary string   `json:"partial_summary"`
	Completed      bool     `json:"completed"`
	Keywords       []string `json:"keywords,omitempty"`
	Source         Source   `json:"source,omitempty"`
	Notice         string   `json:"notice,omitempty"`
}

// HistoryRecord is a summary kept for a signed-in user.
type HistoryRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"userId"`
	InputType InputType `json:"inputType"`
	FileName  string    `json:"fileName,omitempty"`
	Type      string    `json:"type"`
	Tone      string    `json:"tone"`
	Length    int       `json:"length"`
	Summary   string    `json:"summary"`
	Keywords  []string  `json:"keywords"`
	Source    Source    `json:"source"`
	CreatedAt time.Time `json:"createdAt"`
}
