package apperrors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainNotFoundErrorsMatchGenericKind(t *testing.T) {
	for _, err := range []error{ErrUserNotFound, ErrPostNotFound, ErrCommentNotFound, ErrEventNotFound} {
		wrapped := fmt.Errorf("loading: %w", err)
		assert.ErrorIs(t, wrapped, ErrResourceNotFound)
		assert.ErrorIs(t, wrapped, err)
	}
	assert.NotErrorIs(t, ErrPostNotFound, ErrUserNotFound)
}

func TestCustomError_MessageFallbacks(t *testing.T) {
	assert.Equal(t, "post not found", ErrPostNotFound.Error())
	assert.Equal(t, "permission denied", (&CustomError{Err: ErrPermissionDenied}).Error())
	assert.Equal(t, "unknown error", (&CustomError{}).Error())
}

func TestNewValidationError(t *testing.T) {
	err := NewValidationError("title", "title is required")
	assert.ErrorIs(t, err, ErrValidationFailed)

	custom, ok := AsCustom(err)
	require.True(t, ok)
	assert.Equal(t, "title", custom.Details["field"])
}

func TestNewExternalServiceError(t *testing.T) {
	err := NewExternalServiceError("summarizer")
	assert.ErrorIs(t, err, ErrExternalService)
	assert.Equal(t, "summarizer is unavailable", err.Error())

	custom, ok := AsCustom(err)
	require.True(t, ok)
	assert.Empty(t, custom.Details)
}
