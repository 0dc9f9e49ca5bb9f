package summarizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/doc-summarizer/internal/domain/extractive"
)

func TestBuildMessages(t *testing.T) {
	t.Parallel()

	req := resolvedRequest{
		text:   "Body of the document.",
		params: extractive.Params{Type: extractive.TypeBullets, Tone: extractive.ToneFormal, LengthPercent: 40},
	}
	msgs := buildMessages("system prompt", req, 500, 8)

	require.Len(t, msgs, 2)
	require.Equal(t, "system", msgs[0].Role)
	require.Equal(t, "system prompt", msgs[0].Content)
	require.Equal(t, "user", msgs[1].Role)
	user := msgs[1].Content
	require.Contains(t, user, "Text:\nBody of the document.")
	require.Contains(t, user, "bullet points")
	require.Contains(t, user, "- Tone: formal.")
	require.Contains(t, user, "about 40%")
	require.Contains(t, user, "at most 500 characters")
	require.Contains(t, user, "up to 8 keywords")

	req.params.Type = extractive.TypeTLDR
	noCap := buildMessages("p", req, 0, 3)[1].Content
	require.NotContains(t, noCap, "characters.")
	require.Contains(t, noCap, "TL;DR")
}

func TestParseStructuredResponse(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		limit       int
		wantSummary string
		wantWords   []string
		wantErr     string
	}{
		{
			name:        "summary and keywords",
			content:     "SUMMARY:\nGo services scale well.\n\nKEYWORDS:\ngo, services, scaling",
			limit:       8,
			wantSummary: "Go services scale well.",
			wantWords:   []string{"go", "services", "scaling"},
		},
		{
			name:        "keyword cap applied",
			content:     "summary: short\nkeywords: a1, b2, c3, d4, e5, f6, g7, h8, i9",
			limit:       8,
			wantSummary: "short",
			wantWords:   []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8"},
		},
		{
			name:        "keywords section absent",
			content:     "SUMMARY: only the summary",
			limit:       8,
			wantSummary: "only the summary",
			wantWords:   []string{},
		},
		{name: "blank", content: " \n ", wantErr: "empty llm response"},
		{name: "no marker", content: "KEYWORDS:\none, two", wantErr: "missing SUMMARY section"},
		{name: "empty section", content: "SUMMARY:\n\nKEYWORDS:\none", wantErr: "summary section empty"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			summary, keywords, err := parseStructuredResponse(tt.content, tt.limit)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantSummary, summary)
			require.Equal(t, tt.wantWords, keywords)
		})
	}
}

func TestSplitKeywords(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		limit int
		want  []string
	}{
		{name: "mixed separators", raw: "- pdf\n- docx;html, url", limit: 0, want: []string{"pdf", "docx", "html", "url"}},
		{name: "capped", raw: "pdf, docx, html", limit: 2, want: []string{"pdf", "docx"}},
		{name: "duplicates ignore case", raw: "Summary, SUMMARY; summary, Chunk", limit: 8, want: []string{"Summary", "Chunk"}},
		{name: "only separators", raw: ",;\n - ", limit: 8, want: []string{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, splitKeywords(tt.raw, tt.limit))
		})
	}
}

func TestExtractSummary(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Partial text so far", extractSummary("SUMMARY: Partial text so far\nKEYWORDS: x"))
	require.Equal(t, "streamed without markers", extractSummary("  streamed without markers "))
	require.Empty(t, extractSummary("\n\t"))
	require.Equal(t, 8, findMarker("leading summary: body", "SUMMARY:"))
	require.Equal(t, -1, findMarker("nothing here", "keywords:"))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Line one\nline\ttwo", normalize("  Line one\nline\ttwo\x00\x07 "))
	require.Empty(t, normalize(" \r\n "))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "short text unchanged", text: "short", limit: 10, want: "short"},
		{name: "limit equal three", text: "This is long", limit: 3, want: "Thi"},
		{name: "ellipsis added", text: "This is long", limit: 8, want: "This..."},
		{name: "zero limit", text: "text", limit: 0, want: "text"},
		{name: "multibyte safe", text: "ééééééé", limit: 5, want: "éé..."},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, truncate(tt.text, tt.limit))
		})
	}
}
