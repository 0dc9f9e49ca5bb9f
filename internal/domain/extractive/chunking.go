package extractive

import "strings"

const (
	DefaultMaxChunkSize   = 3000
	DefaultChunkThreshold = 3500
	DefaultMaxChunks      = 4

	// ChunkSeparator marks a discontinuity between selected chunks.
	ChunkSeparator = "\n---\n"

	fallbackChunks     = 2
	minQuestionTermLen = 3
)

// ContextOptions bounds how a long document is reduced before it is forwarded for answering.
// Zero values fall back to the package defaults.
type ContextOptions struct {
	MaxChunkSize   int `json:"maxChunkSize,omitempty"`
	ChunkThreshold int `json:"chunkThreshold,omitempty"`
	MaxChunks      int `json:"maxChunks,omitempty"`
}

// DefaultContextOptions returns the chat flow defaults.
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		MaxChunkSize:   DefaultMaxChunkSize,
		ChunkThreshold: DefaultChunkThreshold,
		MaxChunks:      DefaultMaxChunks,
	}
}

func (o ContextOptions) normalized() ContextOptions {
	if o.MaxChunkSize <= 0 {
		o.MaxChunkSize = DefaultMaxChunkSize
	}
	if o.ChunkThreshold <= 0 {
		o.ChunkThreshold = DefaultChunkThreshold
	}
	if o.MaxChunks <= 0 {
		o.MaxChunks = DefaultMaxChunks
	}
	return o
}

// SelectionMode reports how a context was produced.
type SelectionMode string

const (
	// SelectionPassthrough means the document was under the threshold and returned unchanged.
	SelectionPassthrough SelectionMode = "passthrough"
	// SelectionAll means the document was chunked but every chunk fit the budget.
	SelectionAll SelectionMode = "all"
	// SelectionMatched means only chunks containing question terms were kept.
	SelectionMatched SelectionMode = "matched"
	// SelectionFallback means no chunk matched and the leading chunks were used.
	SelectionFallback SelectionMode = "fallback"
)

// ContextSelection is the result of narrowing a document for a question.
type ContextSelection struct {
	Context    string        `json:"context"`
	Mode       SelectionMode `json:"mode"`
	ChunkCount int           `json:"chunkCount"`
	Selected   []int         `json:"selected,omitempty"`
	Terms      []string      `json:"terms,omitempty"`
}

// Narrowed reports whether part of the document was left out.
func (s ContextSelection) Narrowed() bool {
	return s.Mode == SelectionMatched || s.Mode == SelectionFallback
}

// SplitChunks partitions document into consecutive chunks of at most size characters.
// Concatenating the chunks yields the document exactly. A non-positive size uses DefaultMaxChunkSize.
func SplitChunks(document string, size int) []string {
	if document == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultMaxChunkSize
	}
	chunks := make([]string, 0, runeLen(document)/size+1)
	start, count := 0, 0
	for i := range document {
		if count == size {
			chunks = append(chunks, document[start:i])
			start, count = i, 0
		}
		count++
	}
	return append(chunks, document[start:])
}

// QuestionTerms returns the distinct lowercase words of question longer than three characters.
func QuestionTerms(question string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, w := range words(question) {
		if runeLen(w) <= minQuestionTermLen {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}

// NarrowContext reduces document to the chunks relevant to question.
func NarrowContext(document, question string, opts ContextOptions) ContextSelection {
	opts = opts.normalized()
	if runeLen(document) <= opts.ChunkThreshold {
		return ContextSelection{Context: document, Mode: SelectionPassthrough}
	}

	chunks := SplitChunks(document, opts.MaxChunkSize)
	if len(chunks) <= opts.MaxChunks {
		return ContextSelection{Context: document, Mode: SelectionAll, ChunkCount: len(chunks)}
	}

	terms := QuestionTerms(question)
	var selected []int
	for i, chunk := range chunks {
		if len(selected) == opts.MaxChunks {
			break
		}
		if containsAny(strings.ToLower(chunk), terms) {
			selected = append(selected, i)
		}
	}

	mode := SelectionMatched
	if len(selected) == 0 {
		mode = SelectionFallback
		for i := 0; i < fallbackChunks && i < len(chunks); i++ {
			selected = append(selected, i)
		}
	}

	parts := make([]string, len(selected))
	for i, idx := range selected {
		parts[i] = chunks[idx]
	}
	return ContextSelection{
		Context:    strings.Join(parts, ChunkSeparator),
		Mode:       mode,
		ChunkCount: len(chunks),
		Selected:   selected,
		Terms:      terms,
	}
}

// SelectRelevantContext returns the part of document worth forwarding with question.
func SelectRelevantContext(document, question string, opts ContextOptions) string {
	return NarrowContext(document, question, opts).Context
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
