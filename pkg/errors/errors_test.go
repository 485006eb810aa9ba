package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	t.Run("parse error wraps its cause", func(t *testing.T) {
		cause := errors.New("unexpected end of JSON input")
		err := NewParse("failed to parse upload body as JSON", cause)

		assert.True(t, IsParse(err))
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "PARSE")
	})

	t.Run("unsafe identifier names the field", func(t *testing.T) {
		err := NewUnsafeIdentifier("userId")
		assert.True(t, IsUnsafeIdentifier(err))
		assert.Equal(t, "invalid userId: contains unsafe characters", Message(err))
	})

	t.Run("transaction failed has a fixed client message", func(t *testing.T) {
		err := NewTransactionFailed(errors.New("batch 2 rejected"))
		assert.True(t, IsTransactionFailed(err))
		assert.Equal(t, "unable to save all pitch data, the operation has been rolled back", Message(err))
	})

	t.Run("validation details round-trip", func(t *testing.T) {
		details := []string{"missing pitches"}
		err := NewValidationWithDetails("schema validation failed", details)
		assert.True(t, IsValidation(err))
		assert.Equal(t, details, Details(err).([]string))
	})

	t.Run("predicates do not cross types", func(t *testing.T) {
		err := NewNotFound("session not found")
		assert.True(t, IsNotFound(err))
		assert.False(t, IsValidation(err))
		assert.False(t, IsInternal(err))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, "context"))
	})

	t.Run("preserves the original type and details", func(t *testing.T) {
		inner := NewValidationWithDetails("schema validation failed", []string{"x"})
		wrapped := Wrap(inner, "upload rejected")

		assert.True(t, IsValidation(wrapped))
		assert.Equal(t, "upload rejected: schema validation failed", Message(wrapped))
		require.NotNil(t, Details(wrapped))
	})

	t.Run("plain errors become internal", func(t *testing.T) {
		wrapped := Wrap(errors.New("socket closed"), "failed to list sessions")
		assert.True(t, IsInternal(wrapped))
		assert.Equal(t, "failed to list sessions", Message(wrapped))
	})
}

func TestMessage_UnknownError(t *testing.T) {
	assert.Equal(t, "an internal error occurred", Message(errors.New("raw")))
	assert.Nil(t, Details(errors.New("raw")))
}
