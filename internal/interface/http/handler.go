package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/doc-summarizer/internal/domain/docchat"
	"github.com/yanqian/doc-summarizer/internal/domain/summarizer"
	"github.com/yanqian/doc-summarizer/internal/infra/config"
	apperrors "github.com/yanqian/doc-summarizer/pkg/errors"
)

// ChatService is the document chat surface used by the transport.
type ChatService interface {
	Ask(ctx context.Context, req docchat.AskRequest) (docchat.AskResponse, error)
	SelectContext(ctx context.Context, req docchat.ContextRequest) (docchat.ContextResponse, error)
	Upload(ctx context.Context, userID int64, req docchat.UploadRequest) (docchat.Document, error)
	GetDocument(ctx context.Context, userID int64, docID uuid.UUID) (docchat.Document, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	summarizerSvc  summarizer.Service
	chatSvc        ChatService
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(cfg *config.Config, summarySvc summarizer.Service, chatSvc ChatService, logger *slog.Logger) *Handler {
	maxUpload := cfg.HTTP.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		summarizerSvc:  summarySvc,
		chatSvc:        chatSvc,
		maxUploadBytes: maxUpload,
		logger:         logger.With("component", "http.handler"),
	}
}

// Summarize handles the sync summarization endpoint.
func (h *Handler) Summarize(c *gin.Context) {
	req, httpErr := h.bindSummaryRequest(c)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	resp, err := h.summarizerSvc.Summarize(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, summaryError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SummarizeStream streams partial summaries using Server-Sent Events.
func (h *Handler) SummarizeStream(c *gin.Context) {
	req, httpErr := h.bindSummaryRequest(c)
	if httpErr != nil {
		abortWithError(c, httpErr)
		return
	}

	stream, err := h.summarizerSvc.StreamSummary(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, summaryError(err))
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	for chunk := range stream {
		payload, err := json.Marshal(chunk)
		if err != nil {
			h.logger.Error("marshal chunk failed", "error", err)
			continue
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); err != nil {
			h.logger.Warn("stream client went away", "error", err)
			return
		}
		flusher.Flush()
	}
}

type keywordsPayload struct {
	Text string `json:"text"`
	TopK int    `json:"topK"`
}

// Keywords ranks the most frequent meaningful words of a text.
func (h *Handler) Keywords(c *gin.Context) {
	var payload keywordsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	keywords, err := h.summarizerSvc.Keywords(c.Request.Context(), payload.Text, payload.TopK)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	if keywords == nil {
		keywords = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

// History lists the caller's previous summaries.
func (h *Handler) History(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing token", nil))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
			return
		}
		limit = parsed
	}
	items, err := h.summarizerSvc.History(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	if items == nil {
		items = []summarizer.HistoryRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// bindSummaryRequest accepts either a JSON body or a multipart form with an optional file.
func (h *Handler) bindSummaryRequest(c *gin.Context) (summarizer.Request, *HTTPError) {
	var req summarizer.Request
	if isMultipart(c) {
		if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
			return req, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid multipart form", err)
		}
		req.Text = c.PostForm("text")
		req.URL = c.PostForm("url")
		req.Type = c.PostForm("type")
		req.Tone = c.PostForm("tone")
		req.Prompt = c.PostForm("prompt")
		if raw := strings.TrimSpace(c.PostForm("length")); raw != "" {
			length, err := strconv.Atoi(raw)
			if err != nil {
				return req, NewHTTPError(http.StatusBadRequest, "invalid_request", "length must be an integer", err)
			}
			req.Length = &length
		}
		if fileHeader, err := c.FormFile("file"); err == nil {
			file, httpErr := h.readUpload(fileHeader)
			if httpErr != nil {
				return req, httpErr
			}
			req.File = &summarizer.File{Name: fileHeader.Filename, MimeType: file.mimeType, Data: file.data}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		return req, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err)
	}
	req.UserID = userID(c)
	return req, nil
}

type upload struct {
	data     []byte
	mimeType string
}

func (h *Handler) readUpload(fileHeader *multipart.FileHeader) (upload, *HTTPError) {
	if fileHeader.Size > h.maxUploadBytes {
		return upload{}, NewHTTPError(http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", nil)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return upload{}, NewHTTPError(http.StatusBadRequest, "invalid_request", "failed to read upload", err)
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return upload{}, NewHTTPError(http.StatusInternalServerError, "upload_failed", "failed to read file", err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return upload{}, NewHTTPError(http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", nil)
	}
	return upload{data: data, mimeType: fileHeader.Header.Get("Content-Type")}, nil
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/")
}

// summaryError attaches the user-facing fallback text to summarization failures.
func summaryError(err error) *HTTPError {
	httpErr := fromAppError(err)
	switch apperrors.CodeOf(err) {
	case apperrors.CodeInputTooShort, apperrors.CodeNoExtractableContent:
		httpErr.Fallback = summarizer.FallbackMessage(err)
	}
	return httpErr
}
