package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/doc-summarizer/internal/domain/auth"
	"github.com/yanqian/doc-summarizer/internal/domain/docchat"
	"github.com/yanqian/doc-summarizer/internal/domain/extractive"
	"github.com/yanqian/doc-summarizer/internal/domain/summarizer"
	"github.com/yanqian/doc-summarizer/internal/infra/config"
	apperrors "github.com/yanqian/doc-summarizer/pkg/errors"
)

const testSecret = "router-secret"

func TestRouter_SummarizeSuccess(t *testing.T) {
	resp := summarizer.Response{Summary: "short summary", Keywords: []string{"go", "backend"}, Source: summarizer.SourceLocal, InputType: summarizer.InputText}
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			require.Equal(t, "hello world", req.Text)
			require.Zero(t, req.UserID)
			return resp, nil
		},
	}

	recorder := performRequest(t, newRouterUnderTest(t, svc, &stubChat{}), http.MethodPost, "/api/v1/summaries", `{"text":"hello world"}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var got summarizer.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, resp, got)
}

func TestRouter_SummarizeCarriesUserFromToken(t *testing.T) {
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			require.Equal(t, int64(7), req.UserID)
			return summarizer.Response{Summary: "ok"}, nil
		},
	}

	recorder := performRequest(t, newRouterUnderTest(t, svc, &stubChat{}), http.MethodPost, "/api/v1/summaries", `{"text":"hello"}`, issueToken(t, 7))
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestRouter_SummarizeRejectsBadToken(t *testing.T) {
	recorder := performRequest(t, newRouterUnderTest(t, &stubSummarizer{}, &stubChat{}), http.MethodPost, "/api/v1/summaries", `{"text":"hello"}`, "garbage")
	require.Equal(t, http.StatusForbidden, recorder.Code)
	require.Equal(t, "invalid_token", decodeErrorBody(t, recorder.Body.Bytes())["error"]["code"])
}

func TestRouter_SummarizeInvalidJSON(t *testing.T) {
	recorder := performRequest(t, newRouterUnderTest(t, &stubSummarizer{}, &stubChat{}), http.MethodPost, "/api/v1/summaries", `{"text":123}`, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_SummarizeErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantStatus   int
		wantCode     string
		wantFallback string
	}{
		{
			name:         "too short",
			err:          apperrors.Wrap(apperrors.CodeInputTooShort, "text must contain at least 50 characters", nil),
			wantStatus:   http.StatusBadRequest,
			wantCode:     apperrors.CodeInputTooShort,
			wantFallback: "The provided text is too short for meaningful summarization.",
		},
		{
			name:         "no content",
			err:          apperrors.Wrap(apperrors.CodeNoExtractableContent, "no sentences", nil),
			wantStatus:   http.StatusUnprocessableEntity,
			wantCode:     apperrors.CodeNoExtractableContent,
			wantFallback: "Unable to generate a meaningful summary from the provided text.",
		},
		{
			name:       "unsupported file",
			err:        apperrors.Wrap(apperrors.CodeUnsupportedInput, "Unsupported file type", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeUnsupportedInput,
		},
		{
			name:       "plain error",
			err:        io.ErrUnexpectedEOF,
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal_error",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubSummarizer{
				summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
					return summarizer.Response{}, tt.err
				},
			}
			recorder := performRequest(t, newRouterUnderTest(t, svc, &stubChat{}), http.MethodPost, "/api/v1/summaries", `{"text":"x"}`, "")
			require.Equal(t, tt.wantStatus, recorder.Code)

			errBody := decodeErrorBody(t, recorder.Body.Bytes())
			require.Equal(t, tt.wantCode, errBody["error"]["code"])
			require.Equal(t, tt.wantFallback, errBody["error"]["fallback"])
		})
	}
}

func TestRouter_SummarizeMultipartFile(t *testing.T) {
	svc := &stubSummarizer{
		summarizeFn: func(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
			require.NotNil(t, req.File)
			require.Equal(t, "notes.txt", req.File.Name)
			require.Equal(t, "file body", string(req.File.Data))
			require.Equal(t, "bullets", req.Type)
			require.NotNil(t, req.Length)
			require.Equal(t, 30, *req.Length)
			return summarizer.Response{Summary: "done", InputType: summarizer.InputFile, FileName: req.File.Name}, nil
		},
	}

	body, contentType := multipartBody(t, map[string]string{"type": "bullets", "length": "30"}, "notes.txt", "file body")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/summaries", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newRouterUnderTest(t, svc, &stubChat{}).Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"fileName":"notes.txt"`)
}

func TestRouter_SummarizeStreamSuccess(t *testing.T) {
	chunks := []summarizer.StreamChunk{
		{PartialSummary: "first"},
		{PartialSummary: "second", Completed: true, Keywords: []string{"go"}, Source: summarizer.SourceRemote},
	}
	svc := &stubSummarizer{
		streamSummaryFn: func(ctx context.Context, req summarizer.Request) (<-chan summarizer.StreamChunk, error) {
			require.Equal(t, "stream me", req.Text)
			stream := make(chan summarizer.StreamChunk, len(chunks))
			go func() {
				defer close(stream)
				for _, chunk := range chunks {
					stream <- chunk
				}
			}()
			return stream, nil
		},
	}

	recorder := performRequest(t, newRouterUnderTest(t, svc, &stubChat{}), http.MethodPost, "/api/v1/summaries/stream", `{"text":"stream me"}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))

	payload := strings.TrimSpace(recorder.Body.String())
	frames := strings.Split(payload, "\n\n")
	require.Len(t, frames, len(chunks))

	for i, frame := range frames {
		require.True(t, strings.HasPrefix(frame, "data: "))
		encoded := strings.TrimPrefix(frame, "data: ")
		var got summarizer.StreamChunk
		require.NoError(t, json.Unmarshal([]byte(encoded), &got))
		require.Equal(t, chunks[i], got)
	}
}

func TestRouter_SummarizeStreamInvalidInput(t *testing.T) {
	svc := &stubSummarizer{
		streamSummaryFn: func(ctx context.Context, req summarizer.Request) (<-chan summarizer.StreamChunk, error) {
			return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "text cannot be empty", nil)
		},
	}

	recorder := performRequest(t, newRouterUnderTest(t, svc, &stubChat{}), http.MethodPost, "/api/v1/summaries/stream", `{"text":""}`, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, apperrors.CodeInvalidInput, errBody["error"]["code"])
	require.Equal(t, "text cannot be empty", errBody["error"]["message"])
}

func TestRouter_Keywords(t *testing.T) {
	svc := &stubSummarizer{
		keywordsFn: func(ctx context.Context, text string, topK int) ([]string, error) {
			require.Equal(t, 3, topK)
			return []string{"cats", "dogs"}, nil
		},
	}

	recorder := performRequest(t, newRouterUnderTest(t, svc, &stubChat{}), http.MethodPost, "/api/v1/keywords", `{"text":"cats and dogs","topK":3}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t, `{"keywords":["cats","dogs"]}`, recorder.Body.String())
}

func TestRouter_HistoryRequiresAuth(t *testing.T) {
	svc := &stubSummarizer{
		historyFn: func(ctx context.Context, userID int64, limit int) ([]summarizer.HistoryRecord, error) {
			require.Equal(t, int64(9), userID)
			require.Equal(t, 5, limit)
			return []summarizer.HistoryRecord{{Summary: "older"}}, nil
		},
	}
	server := newRouterUnderTest(t, svc, &stubChat{})

	anonymous := performRequest(t, server, http.MethodGet, "/api/v1/history", "", "")
	require.Equal(t, http.StatusUnauthorized, anonymous.Code)

	authed := performRequest(t, server, http.MethodGet, "/api/v1/history?limit=5", "", issueToken(t, 9))
	require.Equal(t, http.StatusOK, authed.Code)
	require.Contains(t, authed.Body.String(), `"summary":"older"`)

	badLimit := performRequest(t, server, http.MethodGet, "/api/v1/history?limit=abc", "", issueToken(t, 9))
	require.Equal(t, http.StatusBadRequest, badLimit.Code)
}

func TestRouter_Chat(t *testing.T) {
	chat := &stubChat{
		askFn: func(ctx context.Context, req docchat.AskRequest) (docchat.AskResponse, error) {
			require.Equal(t, "What is Go?", req.Question)
			require.Equal(t, "Go is a language.", req.DocumentText)
			require.Len(t, req.History, 1)
			return docchat.AskResponse{Answer: "A language.", Source: docchat.SourceLocal, Mode: extractive.SelectionPassthrough}, nil
		},
	}

	body := `{"question":"What is Go?","docText":"Go is a language.","history":[{"role":"user","content":"hi"}]}`
	recorder := performRequest(t, newRouterUnderTest(t, &stubSummarizer{}, chat), http.MethodPost, "/api/v1/chat", body, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var got docchat.AskResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "A language.", got.Answer)
}

func TestRouter_ChatMissingQuestion(t *testing.T) {
	chat := &stubChat{
		askFn: func(ctx context.Context, req docchat.AskRequest) (docchat.AskResponse, error) {
			return docchat.AskResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "Missing question or document text", nil)
		},
	}

	recorder := performRequest(t, newRouterUnderTest(t, &stubSummarizer{}, chat), http.MethodPost, "/api/v1/chat", `{}`, "")
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "Missing question or document text", decodeErrorBody(t, recorder.Body.Bytes())["error"]["message"])
}

func TestRouter_SelectContext(t *testing.T) {
	chat := &stubChat{
		selectFn: func(ctx context.Context, req docchat.ContextRequest) (docchat.ContextResponse, error) {
			require.Equal(t, 100, req.MaxChunkSize)
			return docchat.ContextResponse{
				ContextSelection: extractive.ContextSelection{Context: "picked", Mode: extractive.SelectionMatched, ChunkCount: 3},
				Narrowed:         true,
			}, nil
		},
	}

	recorder := performRequest(t, newRouterUnderTest(t, &stubSummarizer{}, chat), http.MethodPost, "/api/v1/context", `{"document":"d","question":"q","maxChunkSize":100}`, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"context":"picked"`)
	require.Contains(t, recorder.Body.String(), `"narrowed":true`)
}

func TestRouter_Documents(t *testing.T) {
	docID := uuid.New()
	chat := &stubChat{
		uploadFn: func(ctx context.Context, userID int64, req docchat.UploadRequest) (docchat.Document, error) {
			require.Equal(t, int64(3), userID)
			require.Equal(t, "report.txt", req.FileName)
			require.Equal(t, "Quarterly", req.Title)
			return docchat.Document{ID: docID, UserID: userID, FileName: req.FileName, Title: req.Title}, nil
		},
		getFn: func(ctx context.Context, userID int64, id uuid.UUID) (docchat.Document, error) {
			if id != docID {
				return docchat.Document{}, apperrors.Wrap(apperrors.CodeNotFound, "document not found", nil)
			}
			return docchat.Document{ID: id, UserID: userID}, nil
		},
	}
	server := newRouterUnderTest(t, &stubSummarizer{}, chat)
	token := issueToken(t, 3)

	body, contentType := multipartBody(t, map[string]string{"title": "Quarterly"}, "report.txt", "numbers")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	found := performRequest(t, server, http.MethodGet, "/api/v1/documents/"+docID.String(), "", token)
	require.Equal(t, http.StatusOK, found.Code)

	missing := performRequest(t, server, http.MethodGet, "/api/v1/documents/"+uuid.NewString(), "", token)
	require.Equal(t, http.StatusNotFound, missing.Code)

	invalid := performRequest(t, server, http.MethodGet, "/api/v1/documents/not-a-uuid", "", token)
	require.Equal(t, http.StatusBadRequest, invalid.Code)

	anonymous := performRequest(t, server, http.MethodGet, "/api/v1/documents/"+docID.String(), "", "")
	require.Equal(t, http.StatusUnauthorized, anonymous.Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	server := newRouterUnderTest(t, &stubSummarizer{}, &stubChat{})

	health := performRequest(t, server, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, health.Code)

	performRequest(t, server, http.MethodPost, "/api/v1/keywords", `{"text":"x"}`, "")
	exposition := performRequest(t, server, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, exposition.Code)
	require.Contains(t, exposition.Body.String(), "docsum_http_requests_total")
}

func TestIPRateLimiter(t *testing.T) {
	t.Parallel()

	limiter := newIPRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2})
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("1.1.1.1"))
	require.True(t, limiter.allow("1.1.1.1"))
	require.False(t, limiter.allow("1.1.1.1"))
	require.True(t, limiter.allow("2.2.2.2"))

	now = now.Add(time.Second)
	require.True(t, limiter.allow("1.1.1.1"))

	now = now.Add(10 * time.Minute)
	limiter.allow("3.3.3.3")
	require.Len(t, limiter.visitors, 1)
}

func TestRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		accept      string
		want        bool
	}{
		{name: "json post", method: http.MethodPost, contentType: "application/json", want: true},
		{name: "get", method: http.MethodGet, want: false},
		{name: "multipart", method: http.MethodPost, contentType: "multipart/form-data; boundary=x", want: false},
		{name: "event stream", method: http.MethodPost, contentType: "application/json", accept: "text/event-stream", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/api/v1/summaries", nil)
			req.Header.Set("Content-Type", tt.contentType)
			req.Header.Set("Accept", tt.accept)
			require.Equal(t, tt.want, retryable(req))
		})
	}
}

func performRequest(t *testing.T, server *http.Server, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func newRouterUnderTest(t *testing.T, svc summarizer.Service, chat ChatService) *http.Server {
	t.Helper()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:        ":0",
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			MaxUploadBytes: 1 << 20,
		},
	}
	handler := NewHandler(cfg, svc, chat, newTestLogger())
	return NewRouter(cfg, handler, newTestAuth())
}

func newTestAuth() auth.Service {
	return auth.NewService(auth.Config{Secret: testSecret, TokenTTL: time.Hour}, newTestLogger())
}

func issueToken(t *testing.T, userID int64) string {
	t.Helper()
	issued, err := newTestAuth().IssueToken(context.Background(), auth.IssueRequest{UserID: userID})
	require.NoError(t, err)
	return issued.Token
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubSummarizer struct {
	summarizeFn     func(ctx context.Context, req summarizer.Request) (summarizer.Response, error)
	streamSummaryFn func(ctx context.Context, req summarizer.Request) (<-chan summarizer.StreamChunk, error)
	keywordsFn      func(ctx context.Context, text string, topK int) ([]string, error)
	historyFn       func(ctx context.Context, userID int64, limit int) ([]summarizer.HistoryRecord, error)
}

func (s *stubSummarizer) Summarize(ctx context.Context, req summarizer.Request) (summarizer.Response, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(ctx, req)
	}
	return summarizer.Response{}, nil
}

func (s *stubSummarizer) StreamSummary(ctx context.Context, req summarizer.Request) (<-chan summarizer.StreamChunk, error) {
	if s.streamSummaryFn != nil {
		return s.streamSummaryFn(ctx, req)
	}
	stream := make(chan summarizer.StreamChunk)
	close(stream)
	return stream, nil
}

func (s *stubSummarizer) Keywords(ctx context.Context, text string, topK int) ([]string, error) {
	if s.keywordsFn != nil {
		return s.keywordsFn(ctx, text, topK)
	}
	return nil, nil
}

func (s *stubSummarizer) History(ctx context.Context, userID int64, limit int) ([]summarizer.HistoryRecord, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, userID, limit)
	}
	return nil, nil
}

type stubChat struct {
	askFn    func(ctx context.Context, req docchat.AskRequest) (docchat.AskResponse, error)
	selectFn func(ctx context.Context, req docchat.ContextRequest) (docchat.ContextResponse, error)
	uploadFn func(ctx context.Context, userID int64, req docchat.UploadRequest) (docchat.Document, error)
	getFn    func(ctx context.Context, userID int64, id uuid.UUID) (docchat.Document, error)
}

func (s *stubChat) Ask(ctx context.Context, req docchat.AskRequest) (docchat.AskResponse, error) {
	if s.askFn != nil {
		return s.askFn(ctx, req)
	}
	return docchat.AskResponse{}, nil
}

func (s *stubChat) SelectContext(ctx context.Context, req docchat.ContextRequest) (docchat.ContextResponse, error) {
	if s.selectFn != nil {
		return s.selectFn(ctx, req)
	}
	return docchat.ContextResponse{}, nil
}

func (s *stubChat) Upload(ctx context.Context, userID int64, req docchat.UploadRequest) (docchat.Document, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, userID, req)
	}
	return docchat.Document{}, nil
}

func (s *stubChat) GetDocument(ctx context.Context, userID int64, id uuid.UUID) (docchat.Document, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID, id)
	}
	return docchat.Document{}, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestResolveOrigin(t *testing.T) {
	t.Parallel()

	require.Equal(t, "*", resolveOrigin("https://x.example", nil))
	require.Equal(t, "*", resolveOrigin("", []string{"*"}))
	require.Equal(t, "https://app.example", resolveOrigin("https://app.example", []string{"https://app.example/"}))
	require.Empty(t, resolveOrigin("https://evil.example", []string{"https://app.example"}))
}

func TestWithRetryRetriesUpstreamFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	flaky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		body, _ := io.ReadAll(r.Body)
		require.Equal(t, `{"text":"again"}`, string(body))
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	cfg := config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summaries", strings.NewReader(`{"text":"again"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	withRetry(flaky, cfg, newTestLogger()).ServeHTTP(rec, req)

	require.Equal(t, 3, attempts)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestWithRetryLeavesInternalErrors(t *testing.T) {
	t.Parallel()

	attempts := 0
	broken := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})
	cfg := config.RetryConfig{Enabled: true, MaxAttempts: 3, BaseBackoff: time.Millisecond}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/keywords", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	withRetry(broken, cfg, newTestLogger()).ServeHTTP(rec, req)

	require.Equal(t, 1, attempts)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
