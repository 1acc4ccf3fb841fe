package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"invalid input", fmt.Errorf("%w: name is required", ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{"unprocessable", ErrUnprocessable, http.StatusUnprocessableEntity, "INVALID_FIELDS"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", fmt.Errorf("refresh: %w", ErrForbidden), http.StatusForbidden, "FORBIDDEN"},
		{"conflict", ErrConflict, http.StatusConflict, "CONFLICT"},
		{"not found", fmt.Errorf("%w: book", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"insufficient stock", fmt.Errorf("purchase: %w", ErrInsufficientStock), http.StatusBadRequest, "INSUFFICIENT_STOCK"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestMapErrorToHTTPHidesInternalDetail(t *testing.T) {
	got := MapErrorToHTTP(errors.New("dial tcp 10.0.0.3:3306: connection refused"))
	assert.Equal(t, "internal server error", got.ToErrorResponse().Error)
	assert.False(t, IsClientError(errors.New("boom")))
	assert.True(t, IsClientError(ErrNotFound))
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrNotFound, "Book not found.")
	assert.ErrorIs(t, err, ErrNotFound)

	got := MapErrorToHTTP(fmt.Errorf("get book: %w", err))
	assert.Equal(t, http.StatusNotFound, got.StatusCode)
	assert.Equal(t, "get book: Book not found.", got.Message)

	got = MapErrorToHTTP(err)
	assert.Equal(t, "Book not found.", got.Message)
}
