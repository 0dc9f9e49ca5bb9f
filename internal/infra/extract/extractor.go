// Package extract turns uploaded files and web pages into plain text for summarization.
package extract

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/yanqian/doc-summarizer/internal/infra/resilience/circuitbreaker"
	apperrors "github.com/yanqian/doc-summarizer/pkg/errors"
	"github.com/yanqian/doc-summarizer/pkg/metrics"
)

const (
	msgUnsupported = "Unsupported file type"
	msgEmpty       = "Could not extract text to summarize"
)

// Kind is a supported input format.
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindDOC     Kind = "doc"
	KindText    Kind = "text"
	KindHTML    Kind = "html"
	KindURL     Kind = "url"
	KindUnknown Kind = "unknown"
)

var mimeKinds = map[string]Kind{
	"application/pdf":    KindPDF,
	"application/msword": KindDOC,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDOCX,
	"text/html":             KindHTML,
	"application/xhtml+xml": KindHTML,
}

var extKinds = map[string]Kind{
	".pdf":      KindPDF,
	".docx":     KindDOCX,
	".doc":      KindDOC,
	".txt":      KindText,
	".text":     KindText,
	".md":       KindText,
	".markdown": KindText,
	".csv":      KindText,
	".html":     KindHTML,
	".htm":      KindHTML,
}

// Config bounds extraction work.
type Config struct {
	MaxFileBytes int64
	Fetch        FetchConfig
}

// Extractor dispatches files to format readers and URLs to the fetcher.
type Extractor struct {
	cfg     Config
	fetcher *URLFetcher
	logger  *slog.Logger
}

// New constructs an Extractor. fetcher may be nil to disable URL input.
func New(cfg Config, fetcher *URLFetcher, logger *slog.Logger) *Extractor {
	return &Extractor{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger.With("component", "extract.extractor"),
	}
}

// DetectKind picks a format from the mime type, falling back to the file extension.
func DetectKind(name, mimeType string) Kind {
	if mediaType, _, err := mime.ParseMediaType(mimeType); err == nil {
		if kind, ok := mimeKinds[mediaType]; ok {
			return kind
		}
		if strings.HasPrefix(mediaType, "text/") {
			if kind, ok := extKinds[strings.ToLower(path.Ext(name))]; ok && kind == KindHTML {
				return KindHTML
			}
			return KindText
		}
	}
	if kind, ok := extKinds[strings.ToLower(path.Ext(name))]; ok {
		return kind
	}
	return KindUnknown
}

// ExtractFile returns the plain text of an uploaded file.
func (e *Extractor) ExtractFile(_ context.Context, name, mimeType string, data []byte) (string, error) {
	kind := DetectKind(name, mimeType)
	text, err := e.extractFile(kind, data)
	metrics.RecordExtraction(string(kind), err)
	if err != nil {
		e.logger.Warn("file extraction failed", "kind", kind, "file", name, "error", err)
	}
	return text, err
}

func (e *Extractor) extractFile(kind Kind, data []byte) (string, error) {
	if e.cfg.MaxFileBytes > 0 && int64(len(data)) > e.cfg.MaxFileBytes {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, "file exceeds maximum allowed size", nil)
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = readPDF(data)
	case KindDOCX:
		text, err = readDOCX(data)
	case KindDOC:
		text = readLegacyDOC(data)
	case KindHTML:
		text, err = readHTML(strings.NewReader(string(data)))
	case KindText:
		text = strings.ToValidUTF8(string(data), "")
	default:
		return "", apperrors.Wrap(apperrors.CodeUnsupportedInput, msgUnsupported, nil)
	}
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeExtractionFailed, "failed to read "+string(kind)+" file", err)
	}
	return nonEmpty(text)
}

// ExtractURL fetches a web page and returns its readable text.
func (e *Extractor) ExtractURL(ctx context.Context, rawURL string) (string, error) {
	if e.fetcher == nil {
		return "", apperrors.Wrap(apperrors.CodeUnsupportedInput, "url input is not enabled", nil)
	}
	text, err := e.fetcher.Fetch(ctx, rawURL)
	metrics.RecordExtraction(string(KindURL), err)
	if err != nil {
		e.logger.Warn("url extraction failed", "url", rawURL, "error", err)
		switch {
		case errors.Is(err, ErrInvalidURL), errors.Is(err, ErrPrivateIP):
			return "", apperrors.Wrap(apperrors.CodeInvalidInput, "url is not allowed", err)
		case circuitbreaker.IsRejection(err):
			return "", apperrors.Wrap(apperrors.CodeExtractionFailed, "url fetching is temporarily unavailable", err)
		default:
			return "", apperrors.Wrap(apperrors.CodeExtractionFailed, "failed to fetch url", err)
		}
	}
	return nonEmpty(text)
}

func nonEmpty(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperrors.Wrap(apperrors.CodeNoExtractableContent, msgEmpty, nil)
	}
	return text, nil
}
