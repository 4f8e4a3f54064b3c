package errors_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vytor/tenxcards/internal/errors"
)

func TestAs_UnwrapsThroughFmtWrapping(t *testing.T) {
	base := apperrors.NewValidationError("front", "max_length", "too long")
	wrapped := fmt.Errorf("create flashcard: %w", base)

	appErr, ok := apperrors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "front", appErr.Field)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.True(t, apperrors.HasCode(wrapped, apperrors.ErrCodeValidation))
	assert.False(t, apperrors.HasCode(wrapped, apperrors.ErrCodeNotFound))
}

func TestNewRateLimitError(t *testing.T) {
	reset := time.UnixMilli(1_700_000_060_000)
	err := apperrors.NewRateLimitError(100, time.Minute, reset)

	assert.Equal(t, http.StatusTooManyRequests, err.Status)
	assert.Equal(t, reset, err.ResetAt)
	assert.Contains(t, err.Message, "100 requests per minute")
}

func TestNewInternalError_HidesCause(t *testing.T) {
	cause := fmt.Errorf("disk on fire")
	err := apperrors.NewInternalError(cause)

	assert.Equal(t, "An unexpected error occurred", err.Message)
	assert.ErrorIs(t, err, cause)
}
