package docchat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/yanqian/doc-summarizer/internal/domain/extractive"
	apperrors "github.com/yanqian/doc-summarizer/pkg/errors"
	"github.com/yanqian/doc-summarizer/pkg/metrics"
	"github.com/yanqian/doc-summarizer/pkg/util"
)

const (
	msgMissingInput = "Missing question or document text"
	msgNoAnswer     = "Sorry, I couldn't generate an answer."

	noticeRemoteFailed = "The AI assistant is unavailable right now, so the answer quotes the most relevant passages instead."

	defaultHistoryTurns    = 5
	defaultMaxContextChars = 10000
	defaultLocalSentences  = 3

	contentObject  = "content.txt"
	metadataObject = "meta.json"
)

// Service answers questions about a document.
type Service struct {
	cfg       Config
	llm       LLM
	storage   ObjectStorage
	extractor TextExtractor
	tokens    TokenCounter
	logger    *slog.Logger
}

// NewService constructs a Service. llm and tokens may be nil.
func NewService(cfg Config, llm LLM, storage ObjectStorage, extractor TextExtractor, tokens TokenCounter, logger *slog.Logger) *Service {
	if cfg.MaxHistoryTurns <= 0 {
		cfg.MaxHistoryTurns = defaultHistoryTurns
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = defaultMaxContextChars
	}
	if cfg.LocalAnswerSentences <= 0 {
		cfg.LocalAnswerSentences = defaultLocalSentences
	}
	return &Service{
		cfg:       cfg,
		llm:       llm,
		storage:   storage,
		extractor: extractor,
		tokens:    tokens,
		logger:    logger.With("component", "docchat.service"),
	}
}

// Ask answers a question using only the (narrowed) document as context.
func (s *Service) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	start := time.Now()
	question := strings.TrimSpace(req.Question)
	document := req.DocumentText
	if strings.TrimSpace(document) == "" && req.DocumentID != nil {
		text, err := s.loadText(ctx, req.UserID, *req.DocumentID)
		if err != nil {
			return AskResponse{}, err
		}
		document = text
	}
	if question == "" || strings.TrimSpace(document) == "" {
		return AskResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, msgMissingInput, nil)
	}

	selection := extractive.NarrowContext(document, question, s.cfg.Context)
	metrics.RecordContextSelection(string(selection.Mode))
	excerpt := selection.Context
	if selection.Mode == extractive.SelectionPassthrough {
		// narrowed contexts are already bounded by MaxChunks*MaxChunkSize
		excerpt = truncateRunes(excerpt, s.cfg.MaxContextChars)
	}

	resp := AskResponse{
		Narrowed:      selection.Narrowed(),
		Mode:          selection.Mode,
		Chunks:        selection.Selected,
		ContextChars:  utf8.RuneCountInString(excerpt),
		ContextTokens: s.countTokens(excerpt),
	}

	if s.llm != nil {
		reply, err := s.llm.Chat(ctx, LLMRequest{
			Messages:    s.buildPrompt(excerpt, question, req.History),
			Temperature: s.cfg.Temperature,
			MaxTokens:   s.cfg.MaxTokens,
		})
		answer := strings.TrimSpace(reply.Content)
		if err == nil && answer != "" {
			resp.Answer = answer
			resp.Source = SourceRemote
			resp.TokenUsage = reply.Usage.Ptr()
			resp.LatencyMs = util.SinceMillis(start)
			metrics.RecordChatAnswer(string(SourceRemote))
			return resp, nil
		}
		if err == nil {
			err = errors.New("empty answer")
		}
		s.logger.Warn("llm chat failed, falling back to extractive answer", "error", err)
		metrics.RecordRemoteFallback("chat")
		resp.Notice = noticeRemoteFailed
	}

	resp.Answer = s.localAnswer(excerpt)
	resp.Source = SourceLocal
	resp.LatencyMs = util.SinceMillis(start)
	metrics.RecordChatAnswer(string(SourceLocal))
	return resp, nil
}

// SelectContext narrows a document for a question without answering it.
func (s *Service) SelectContext(_ context.Context, req ContextRequest) (ContextResponse, error) {
	if req.Document == "" {
		return ContextResponse{}, apperrors.Wrap(apperrors.CodeInvalidInput, "document cannot be empty", nil)
	}
	opts := req.ContextOptions
	if opts == (extractive.ContextOptions{}) {
		opts = s.cfg.Context
	}
	selection := extractive.NarrowContext(req.Document, req.Question, opts)
	metrics.RecordContextSelection(string(selection.Mode))
	return ContextResponse{
		ContextSelection: selection,
		Narrowed:         selection.Narrowed(),
		ContextTokens:    s.countTokens(selection.Context),
	}, nil
}

// Upload extracts the text of a file and stores both for later questions.
func (s *Service) Upload(ctx context.Context, userID int64, req UploadRequest) (Document, error) {
	if userID == 0 {
		return Document{}, apperrors.Wrap(apperrors.CodeUnauthorized, "missing user", nil)
	}
	if len(req.Content) == 0 {
		return Document{}, apperrors.Wrap(apperrors.CodeInvalidInput, "file content cannot be empty", nil)
	}
	if s.cfg.MaxFileBytes > 0 && int64(len(req.Content)) > s.cfg.MaxFileBytes {
		return Document{}, apperrors.Wrap(apperrors.CodeInvalidInput, "file exceeds maximum allowed size", nil)
	}
	if s.extractor == nil || s.storage == nil {
		return Document{}, apperrors.Wrap(apperrors.CodeUnsupportedInput, "document uploads are not enabled", nil)
	}

	filename := sanitizeFilename(req.FileName)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = filename
	}
	mime := req.MimeType
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(req.Content)
	}

	text, err := s.extractor.ExtractFile(ctx, filename, mime, req.Content)
	if err != nil {
		return Document{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Document{}, apperrors.Wrap(apperrors.CodeNoExtractableContent, "Could not extract text to summarize", nil)
	}

	doc := Document{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		FileName:  filename,
		MimeType:  mime,
		SizeBytes: int64(len(req.Content)),
		Chars:     utf8.RuneCountInString(text),
		CreatedAt: util.NowUTC(),
	}
	prefix := documentPrefix(userID, doc.ID)

	obj, err := s.storage.Put(ctx, path.Join(prefix, filename), req.Content, mime)
	if err != nil {
		return Document{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store file", err)
	}
	doc.StorageKey = obj.Key

	if _, err := s.storage.Put(ctx, path.Join(prefix, contentObject), []byte(text), "text/plain; charset=utf-8"); err != nil {
		return Document{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store extracted text", err)
	}
	meta, err := json.Marshal(doc)
	if err != nil {
		return Document{}, apperrors.Wrap(apperrors.CodeStorage, "failed to encode document metadata", err)
	}
	if _, err := s.storage.Put(ctx, path.Join(prefix, metadataObject), meta, "application/json"); err != nil {
		return Document{}, apperrors.Wrap(apperrors.CodeStorage, "failed to store document metadata", err)
	}

	s.logger.Info("document uploaded", "document_id", doc.ID, "user_id", userID, "chars", doc.Chars)
	return doc, nil
}

// GetDocument fetches the metadata of an uploaded document.
func (s *Service) GetDocument(ctx context.Context, userID int64, docID uuid.UUID) (Document, error) {
	raw, err := s.readObject(ctx, userID, docID, metadataObject)
	if err != nil {
		return Document{}, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, apperrors.Wrap(apperrors.CodeStorage, "failed to decode document metadata", err)
	}
	return doc, nil
}

func (s *Service) loadText(ctx context.Context, userID int64, docID uuid.UUID) (string, error) {
	raw, err := s.readObject(ctx, userID, docID, contentObject)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *Service) readObject(ctx context.Context, userID int64, docID uuid.UUID, name string) ([]byte, error) {
	if userID == 0 {
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "missing user", nil)
	}
	if s.storage == nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "document not found", nil)
	}
	rc, err := s.storage.Get(ctx, path.Join(documentPrefix(userID, docID), name))
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, "document not found", nil)
		}
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to read document", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorage, "failed to read document", err)
	}
	return raw, nil
}

func (s *Service) buildPrompt(excerpt, question string, history []Turn) []LLMMessage {
	messages := []LLMMessage{
		{Role: "system", Content: s.cfg.SystemPrompt},
		{Role: "system", Content: "Document content: " + excerpt},
	}
	for _, turn := range recentTurns(history, s.cfg.MaxHistoryTurns) {
		messages = append(messages, LLMMessage{Role: turn.Role, Content: turn.Content})
	}
	return append(messages, LLMMessage{Role: "user", Content: question})
}

// recentTurns keeps the last limit turns, then drops the ones without a usable role or content.
func recentTurns(history []Turn, limit int) []Turn {
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]Turn, 0, len(history))
	for _, turn := range history {
		role := strings.ToLower(strings.TrimSpace(turn.Role))
		if (role != "user" && role != "assistant") || strings.TrimSpace(turn.Content) == "" {
			continue
		}
		out = append(out, Turn{Role: role, Content: turn.Content})
	}
	return out
}

func (s *Service) localAnswer(excerpt string) string {
	sentences := extractive.ExtractSentences(excerpt, s.cfg.LocalAnswerSentences)
	if len(sentences) == 0 {
		return msgNoAnswer
	}
	return strings.Join(sentences, " ")
}

func (s *Service) countTokens(text string) int {
	if s.tokens == nil {
		return 0
	}
	return s.tokens.Count(text)
}

func documentPrefix(userID int64, docID uuid.UUID) string {
	return fmt.Sprintf("documents/%d/%s", userID, docID.String())
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
