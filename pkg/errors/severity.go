// Package errors provides severity-aware error types for the sizing service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnparsableValue    = "UNPARSABLE_VALUE"
	ErrCodeNoMatch            = "NO_MATCH"
	ErrCodeCatalogUnavailable = "CATALOG_UNAVAILABLE"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
)

// Sentinels for errors.Is. A SizingError matches the sentinel of its code.
var (
	ErrInvalidInput       = stderrors.New("invalid input")
	ErrCatalogUnavailable = stderrors.New("catalog unavailable")
	ErrNotFound           = stderrors.New("not found")
	ErrConflict           = stderrors.New("conflict")
)

// SizingError is a structured error with context.
type SizingError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Cause    error    `json:"-"`
}

func (e *SizingError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
	if e.Field != "" {
		msg += fmt.Sprintf(" (field: %s)", e.Field)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *SizingError) Unwrap() error { return e.Cause }

// Is lets errors.Is match on the code sentinels.
func (e *SizingError) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Code == ErrCodeInvalidInput
	case ErrCatalogUnavailable:
		return e.Code == ErrCodeCatalogUnavailable
	case ErrNotFound:
		return e.Code == ErrCodeNotFound
	case ErrConflict:
		return e.Code == ErrCodeConflict
	}
	return false
}

// NewInvalidInputError creates an error for a rejected request field.
func NewInvalidInputError(field, message string) *SizingError {
	return &SizingError{
		Code:     ErrCodeInvalidInput,
		Message:  message,
		Severity: SeverityError,
		Field:    field,
	}
}

// NewUnparsableValueError describes a catalog value that could not be read as a number.
// It is only ever logged, never returned to a caller.
func NewUnparsableValueError(field, value string) *SizingError {
	return &SizingError{
		Code:     ErrCodeUnparsableValue,
		Message:  fmt.Sprintf("unable to parse %q", value),
		Severity: SeverityWarning,
		Field:    field,
	}
}

// NewCatalogUnavailableError wraps a failed catalog read.
func NewCatalogUnavailableError(op string, cause error) *SizingError {
	return &SizingError{
		Code:     ErrCodeCatalogUnavailable,
		Message:  fmt.Sprintf("catalog read failed during %s", op),
		Severity: SeverityFatal,
		Cause:    cause,
	}
}

// NewNotFoundError creates an error for a missing record.
func NewNotFoundError(kind, id string) *SizingError {
	return &SizingError{
		Code:     ErrCodeNotFound,
		Message:  fmt.Sprintf("%s %s not found", kind, id),
		Severity: SeverityError,
	}
}

// NewConflictError creates an error for a duplicate record.
func NewConflictError(kind string, cause error) *SizingError {
	return &SizingError{
		Code:     ErrCodeConflict,
		Message:  fmt.Sprintf("%s already exists", kind),
		Severity: SeverityError,
		Cause:    cause,
	}
}

// HTTPStatus maps an error onto the status code the API answers with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case stderrors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case stderrors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, ErrConflict):
		return http.StatusConflict
	case stderrors.Is(err, ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
