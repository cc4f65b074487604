package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "docsync.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())

		file, exists := err.Context().GetString("file")
		require.True(t, exists)
		assert.Equal(t, "docsync.yaml", file)
	})

	t.Run("Error text is stable", func(t *testing.T) {
		err := RemoteError("failed to update page").
			WithContext("url", "https://wiki/api/v2/pages/1").
			WithContext("status", 409).
			Build()

		assert.Equal(t,
			"[remote:fatal] failed to update page (status=409 url=https://wiki/api/v2/pages/1)",
			err.Error())
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := RemoteError("upload failed").Build()
		wrapped := fmt.Errorf("attachments: %w", inner)

		assert.True(t, IsClassified(wrapped))
		assert.True(t, HasCategory(wrapped, CategoryRemote))
		assert.True(t, IsFatal(wrapped))
		assert.Equal(t, CategoryRemote, GetCategory(wrapped))
		assert.Equal(t, CategoryInternal, GetCategory(errors.New("plain")))
	})
}

func TestErrorBuilder(t *testing.T) {
	original := errors.New("connection refused")
	err := WrapError(original, CategoryNetwork, "request failed").
		Warning().
		WithContextMap(ErrorContext{"method": "GET", "attempt": 1}).
		Build()

	assert.Equal(t, SeverityWarning, err.Severity())
	assert.ErrorIs(t, err, original)
	assert.Same(t, original, err.Cause())

	attempt, ok := err.Context().GetInt("attempt")
	require.True(t, ok)
	assert.Equal(t, 1, attempt)
}

func TestClassifiedError_IsSentinel(t *testing.T) {
	sentinel := NotFoundError("space not found").Build()
	got := NotFoundError("space not found").WithContext("key", "DOCS").Build()

	assert.ErrorIs(t, got, sentinel)
	assert.NotErrorIs(t, RemoteError("space not found").Build(), sentinel)
}

func TestErrorContext_Merge(t *testing.T) {
	a := ErrorContext{"a": 1, "shared": "left"}
	b := ErrorContext{"b": 2, "shared": "right"}

	merged := a.Merge(b)
	assert.Equal(t, ErrorContext{"a": 1, "b": 2, "shared": "right"}, merged)

	var empty ErrorContext
	assert.Equal(t, b, empty.Merge(b))
}
