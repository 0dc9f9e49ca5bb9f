package summarizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yanqian/doc-summarizer/internal/domain/extractive"
	"github.com/yanqian/doc-summarizer/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/doc-summarizer/pkg/errors"
	"github.com/yanqian/doc-summarizer/pkg/metrics"
	"github.com/yanqian/doc-summarizer/pkg/util"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	maxKeywordRequest   = 50
)

// Service exposes summarization capabilities.
type Service interface {
	Summarize(ctx context.Context, req Request) (Response, error)
	StreamSummary(ctx context.Context, req Request) (<-chan StreamChunk, error)
	Keywords(ctx context.Context, text string, topK int) ([]string, error)
	History(ctx context.Context, userID int64, limit int) ([]HistoryRecord, error)
}

type service struct {
	cfg       Config
	client    ChatClient
	extractor TextExtractor
	cache     Cache
	history   HistoryRepository
	logger    *slog.Logger
}

// NewService is a wire provider for the summarizer domain. client, cache and history
// may be nil; extractor may be nil when only raw text is accepted.
func NewService(cfg Config, client ChatClient, extractor TextExtractor, cache Cache, history HistoryRepository, logger *slog.Logger) Service {
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = extractive.DefaultKeywordLimit
	}
	if cfg.MinInputLength <= 0 {
		cfg.MinInputLength = extractive.MinInputLen
	}
	if cfg.DefaultLength <= 0 {
		cfg.DefaultLength = extractive.DefaultLengthPercent
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}
	return &service{
		cfg:       cfg,
		client:    client,
		extractor: extractor,
		cache:     cache,
		history:   history,
		logger:    logger.With("component", "summarizer.service"),
	}
}

// resolvedRequest is a request whose input has been turned into plain text.
type resolvedRequest struct {
	text      string
	inputType InputType
	fileName  string
	params    extractive.Params
	prompt    string
	userID    int64
}

func (s *service) Summarize(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resolved, err := s.resolve(ctx, req)
	if err != nil {
		metrics.RecordSummary("none", apperrors.CodeOf(err), time.Since(start))
		return Response{}, err
	}

	key := cacheKey(resolved)
	if cached, ok := s.lookupCache(ctx, key); ok {
		cached.Source = SourceCache
		cached.DurationMs = util.SinceMillis(start)
		metrics.RecordSummary(string(SourceCache), "success", time.Since(start))
		s.recordHistory(ctx, resolved, cached)
		return cached, nil
	}

	var resp Response
	if s.remoteEnabled() {
		resp, err = s.summarizeRemote(ctx, resolved)
		if err != nil {
			s.logger.Warn("remote summarization failed, using local summarizer", "error", err)
			metrics.RecordRemoteFallback("summarize")
		}
	}
	if !s.remoteEnabled() || err != nil {
		notice := ""
		if err != nil {
			notice = noticeRemoteFailed
		}
		resp, err = s.summarizeLocal(resolved)
		if err != nil {
			metrics.RecordSummary(string(SourceLocal), apperrors.CodeOf(err), time.Since(start))
			return Response{}, err
		}
		resp.Notice = notice
	}

	resp.InputType = resolved.inputType
	resp.FileName = resolved.fileName
	resp.DurationMs = util.SinceMillis(start)
	metrics.RecordSummary(string(resp.Source), "success", time.Since(start))

	if resp.Notice == "" {
		s.storeCache(ctx, key, resp)
	}
	s.recordHistory(ctx, resolved, resp)
	return resp, nil
}

func (s *service) StreamSummary(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	resolved, err := s.resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	if !s.remoteEnabled() {
		return s.streamLocal(ctx, resolved, "")
	}

	stream, err := s.client.CreateChatCompletionStream(ctx, s.remoteRequest(resolved))
	if err != nil {
		s.logger.Warn("remote stream failed, using local summarizer", "error", err)
		metrics.RecordRemoteFallback("stream")
		return s.streamLocal(ctx, resolved, noticeRemoteFailed)
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer stream.Close()

		send := func(chunk StreamChunk) bool {
			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var (
			builder     strings.Builder
			lastSummary string
			streamErr   error
		)

		for {
			chunk, recvErr := stream.Recv()
			if recvErr != nil {
				if !errors.Is(recvErr, io.EOF) {
					streamErr = recvErr
					s.logger.Error("chatgpt stream recv failed", "error", recvErr)
				}
				break
			}
			for _, choice := range chunk.Choices {
				builder.WriteString(choice.Delta.Content)
			}

			partial := truncate(extractSummary(builder.String()), s.cfg.MaxSummaryLen)
			if partial == "" || partial == lastSummary {
				continue
			}
			lastSummary = partial
			if !send(StreamChunk{PartialSummary: partial, Source: SourceRemote}) {
				return
			}
		}

		content := builder.String()
		summary, keywords, parseErr := parseStructuredResponse(content, s.cfg.MaxKeywords)
		if streamErr == nil && parseErr == nil {
			resp := Response{
				Summary:  truncate(summary, s.cfg.MaxSummaryLen),
				Keywords: s.fillKeywords(resolved, keywords),
				Source:   SourceRemote,
			}
			s.recordHistory(ctx, resolved, resp)
			send(StreamChunk{
				PartialSummary: resp.Summary,
				Completed:      true,
				Keywords:       resp.Keywords,
				Source:         SourceRemote,
			})
			return
		}

		s.logger.Warn("remote stream unusable, using local summarizer", "error", errors.Join(streamErr, parseErr))
		metrics.RecordRemoteFallback("stream")
		local, localErr := s.summarizeLocal(resolved)
		if localErr != nil {
			s.logger.Error("local summarization failed after stream", "error", localErr)
			send(StreamChunk{PartialSummary: FallbackMessage(localErr), Completed: true, Source: SourceLocal, Notice: noticeRemoteFailed})
			return
		}
		s.recordHistory(ctx, resolved, local)
		send(StreamChunk{
			PartialSummary: local.Summary,
			Completed:      true,
			Keywords:       local.Keywords,
			Source:         SourceLocal,
			Notice:         noticeRemoteFailed,
		})
	}()

	return out, nil
}

func (s *service) Keywords(_ context.Context, text string, topK int) ([]string, error) {
	text = normalize(text)
	if text == "" {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "text cannot be empty", nil)
	}
	if topK > maxKeywordRequest {
		topK = maxKeywordRequest
	}
	keywords := extractive.ExtractKeywords(text, topK)
	if len(keywords) == 0 {
		return append([]string(nil), extractive.FallbackKeywords...), nil
	}
	return keywords, nil
}

func (s *service) History(ctx context.Context, userID int64, limit int) ([]HistoryRecord, error) {
	if userID == 0 {
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "missing user", nil)
	}
	if s.history == nil {
		return []HistoryRecord{}, nil
	}
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	records, err := s.history.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to load history", err)
	}
	if records == nil {
		records = []HistoryRecord{}
	}
	return records, nil
}

func (s *service) remoteEnabled() bool {
	return s.cfg.RemoteEnabled && s.client != nil
}

// resolve turns the request input into validated plain text.
func (s *service) resolve(ctx context.Context, req Request) (resolvedRequest, error) {
	out := resolvedRequest{
		params: extractive.Params{
			Type:          extractive.ParseSummaryType(firstNonEmpty(req.Type, s.cfg.DefaultType)),
			Tone:          extractive.ParseTone(firstNonEmpty(req.Tone, s.cfg.DefaultTone)),
			LengthPercent: s.cfg.DefaultLength,
		},
		prompt: firstNonEmpty(strings.TrimSpace(req.Prompt), s.cfg.DefaultPrompt),
		userID: req.UserID,
	}
	if req.Length != nil {
		out.params.LengthPercent = min(max(*req.Length, 0), 100)
	}

	var (
		text string
		err  error
	)
	switch {
	case req.File != nil:
		out.inputType = InputFile
		out.fileName = req.File.Name
		if len(req.File.Data) == 0 {
			return out, apperrors.Wrap(apperrors.CodeInvalidInput, "file content cannot be empty", nil)
		}
		if s.extractor == nil {
			return out, apperrors.Wrap(apperrors.CodeUnsupportedInput, "file input is not supported", nil)
		}
		text, err = s.extractor.ExtractFile(ctx, req.File.Name, req.File.MimeType, req.File.Data)
	case strings.TrimSpace(req.URL) != "" || looksLikeURL(req.Text):
		out.inputType = InputURL
		if s.extractor == nil {
			return out, apperrors.Wrap(apperrors.CodeUnsupportedInput, "url input is not supported", nil)
		}
		text, err = s.extractor.ExtractURL(ctx, firstNonEmpty(strings.TrimSpace(req.URL), strings.TrimSpace(req.Text)))
	default:
		out.inputType = InputText
		text = req.Text
		if strings.TrimSpace(text) == "" {
			return out, apperrors.Wrap(apperrors.CodeInvalidInput, "text cannot be empty", nil)
		}
	}
	if err != nil {
		return out, err
	}

	out.text = normalize(text)
	if utf8.RuneCountInString(out.text) < s.cfg.MinInputLength {
		return out, apperrors.Wrap(apperrors.CodeInputTooShort, msgTooShort, extractive.ErrInputTooShort)
	}
	return out, nil
}

func (s *service) remoteRequest(req resolvedRequest) chatgpt.ChatCompletionRequest {
	return chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    buildMessages(req.prompt, req, s.cfg.MaxSummaryLen, s.cfg.MaxKeywords),
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}
}

func (s *service) summarizeRemote(ctx context.Context, req resolvedRequest) (Response, error) {
	resp, err := s.client.CreateChatCompletion(ctx, s.remoteRequest(req))
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt request failed", err)
	}

	content := resp.Content()
	s.logger.Debug("chatgpt response received", "content", content)

	summary, keywords, err := parseStructuredResponse(content, s.cfg.MaxKeywords)
	if err != nil {
		return Response{}, apperrors.Wrap(apperrors.CodeLLM, "chatgpt response malformed", err)
	}

	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	return Response{
		Summary:    truncate(summary, s.cfg.MaxSummaryLen),
		Keywords:   s.fillKeywords(req, keywords),
		Source:     SourceRemote,
		TokenUsage: usage.Ptr(),
	}, nil
}

func (s *service) summarizeLocal(req resolvedRequest) (Response, error) {
	result, err := extractive.Summarize(req.text, req.params)
	switch {
	case errors.Is(err, extractive.ErrInputTooShort):
		return Response{}, apperrors.Wrap(apperrors.CodeInputTooShort, msgTooShort, err)
	case errors.Is(err, extractive.ErrNoExtractableContent):
		return Response{}, apperrors.Wrap(apperrors.CodeNoExtractableContent, msgNoContent, err)
	case err != nil:
		return Response{}, apperrors.Wrap(apperrors.CodeInvalidInput, msgGenericFailed, err)
	}

	keywords := result.Keywords
	if req.inputType != InputText && len(extractive.ExtractKeywords(req.text, extractive.DefaultKeywordLimit)) == 0 {
		keywords = append([]string(nil), documentKeywords...)
	}
	return Response{
		Summary:  result.Text,
		Keywords: keywords,
		Source:   SourceLocal,
	}, nil
}

func (s *service) streamLocal(ctx context.Context, req resolvedRequest, notice string) (<-chan StreamChunk, error) {
	resp, err := s.summarizeLocal(req)
	if err != nil {
		return nil, err
	}
	s.recordHistory(ctx, req, resp)
	out := make(chan StreamChunk, 1)
	out <- StreamChunk{
		PartialSummary: resp.Summary,
		Completed:      true,
		Keywords:       resp.Keywords,
		Source:         SourceLocal,
		Notice:         notice,
	}
	close(out)
	return out, nil
}

// fillKeywords supplies local keywords when the remote returned none.
func (s *service) fillKeywords(req resolvedRequest, keywords []string) []string {
	if len(keywords) > 0 {
		return keywords
	}
	local := extractive.ExtractKeywords(req.text, s.cfg.MaxKeywords)
	if len(local) > 0 {
		return local
	}
	if req.inputType != InputText {
		return append([]string(nil), documentKeywords...)
	}
	return append([]string(nil), extractive.FallbackKeywords...)
}

func (s *service) lookupCache(ctx context.Context, key string) (Response, bool) {
	if s.cache == nil {
		return Response{}, false
	}
	resp, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("summary cache lookup failed", "error", err)
		return Response{}, false
	}
	return resp, ok
}

func (s *service) storeCache(ctx context.Context, key string, resp Response) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("summary cache store failed", "error", err)
	}
}

func (s *service) recordHistory(ctx context.Context, req resolvedRequest, resp Response) {
	if s.history == nil || req.userID == 0 {
		return
	}
	record := HistoryRecord{
		ID:        uuid.New(),
		UserID:    req.userID,
		InputType: req.inputType,
		FileName:  req.fileName,
		Type:      string(req.params.Type),
		Tone:      string(req.params.Tone),
		Length:    req.params.LengthPercent,
		Summary:   resp.Summary,
		Keywords:  resp.Keywords,
		Source:    resp.Source,
		CreatedAt: util.NowUTC(),
	}
	if err := s.history.Append(ctx, record); err != nil {
		s.logger.Warn("append summary history failed", "error", err, "userId", req.userID)
	}
}

// cacheKey fingerprints everything that influences the produced summary.
func cacheKey(req resolvedRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s\x00", req.params.Type, req.params.Tone, req.params.LengthPercent, req.prompt)
	h.Write([]byte(req.text))
	return hex.EncodeToString(h.Sum(nil))
}

func looksLikeURL(text string) bool {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return false
	}
	return !strings.ContainsAny(text, " \t\n\r")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
