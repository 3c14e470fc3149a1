package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizingErrorMatchesSentinel(t *testing.T) {
	err := NewInvalidInputError("sd", "count must be a non-negative integer")
	assert.True(t, stderrors.Is(err, ErrInvalidInput))
	assert.False(t, stderrors.Is(err, ErrCatalogUnavailable))

	wrapped := fmt.Errorf("handler: %w", NewCatalogUnavailableError("models", stderrors.New("connection refused")))
	assert.True(t, stderrors.Is(wrapped, ErrCatalogUnavailable))

	var se *SizingError
	assert.True(t, stderrors.As(wrapped, &se))
	assert.Equal(t, ErrCodeCatalogUnavailable, se.Code)
	assert.Equal(t, SeverityFatal, se.Severity)
}

func TestSizingErrorMessage(t *testing.T) {
	err := NewInvalidInputError("hd", "bad")
	assert.Equal(t, "[error] INVALID_INPUT: bad (field: hd)", err.Error())

	cause := stderrors.New("timeout")
	err = NewCatalogUnavailableError("profiles", cause)
	assert.Contains(t, err.Error(), "catalog read failed during profiles: timeout")
	assert.ErrorIs(t, err, cause)
}

func TestUnparsableValueIsWarning(t *testing.T) {
	err := NewUnparsableValueError("MEM", "N/A")
	assert.Equal(t, SeverityWarning, err.Severity)
	assert.Equal(t, "warning", err.Severity.String())
	assert.Contains(t, err.Message, `"N/A"`)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewInvalidInputError("x", "y"), http.StatusBadRequest},
		{NewNotFoundError("model", "1"), http.StatusNotFound},
		{NewConflictError("hardware Foo", nil), http.StatusConflict},
		{NewCatalogUnavailableError("models", nil), http.StatusServiceUnavailable},
		{stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), "HTTPStatus(%v)", tt.err)
	}
}
