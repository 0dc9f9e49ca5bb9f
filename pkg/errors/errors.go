package errors

import "errors"

// Codes shared by services and the HTTP layer.
const (
	CodeInvalidInput         = "invalid_input"
	CodeInputTooShort        = "input_too_short"
	CodeNoExtractableContent = "no_extractable_content"
	CodeUnsupportedInput     = "unsupported_input"
	CodeExtractionFailed     = "extraction_failed"
	CodeLLM                  = "llm_error"
	CodeStorage              = "storage_error"
	CodeNotFound             = "not_found"
	CodeUnauthorized         = "unauthorized"
	CodeInvalidToken         = "invalid_token"
	CodeAuth                 = "auth_error"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	return CodeOf(err) == code && code != ""
}

// CodeOf returns the code of the outermost AppError in the chain, or "" when there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
