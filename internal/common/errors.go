package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrExtraction means the document was unreadable or the OCR capability
	// was unavailable. Surfaced as a failed invoice, never retried here.
	ErrExtraction = errors.New("text extraction failed")

	// ErrParseFailed means no strategy could produce any item list at all.
	// Degraded parses (fallback engaged) are NOT errors.
	ErrParseFailed = errors.New("invoice parse failed")

	// ErrModelUnavailable is the internal signal that flips the parser from
	// the model strategy to the pattern fallback.
	ErrModelUnavailable = errors.New("model parser unavailable")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
