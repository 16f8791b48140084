package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error includes code and message", func(t *testing.T) {
		err := New(ErrCodeValidation, "bad field")
		assert.Equal(t, "VALIDATION_ERROR: bad field", err.Error())
	})

	t.Run("Error includes cause when present", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(ErrCodeDatabase, "database error", cause)
		assert.Contains(t, err.Error(), "boom")
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithCause attaches a cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := ConfigWriteFailed(nil).WithCause(cause)
		assert.ErrorIs(t, err, cause)
	})
}

func TestAsAppError(t *testing.T) {
	t.Run("recognizes wrapped AppError", func(t *testing.T) {
		inner := InvalidPairingCode()
		wrapped := fmt.Errorf("handler: %w", inner)

		appErr, ok := AsAppError(wrapped)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeInvalidPairingCode, appErr.Code)
	})

	t.Run("rejects plain errors", func(t *testing.T) {
		_, ok := AsAppError(errors.New("plain"))
		assert.False(t, ok)
		assert.False(t, IsAppError(errors.New("plain")))
	})
}

func TestGetCode(t *testing.T) {
	t.Run("returns code for AppError", func(t *testing.T) {
		assert.Equal(t, ErrCodeStaleTimestamp, GetCode(StaleTimestamp()))
	})

	t.Run("falls back to internal for unknown errors", func(t *testing.T) {
		assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
	})
}

func TestConstructors(t *testing.T) {
	t.Run("constructor messages match wire strings", func(t *testing.T) {
		assert.Equal(t, "stale timestamp", StaleTimestamp().Message)
		assert.Equal(t, "invalid signature", InvalidSignature().Message)
		assert.Equal(t, "webhook secret not configured", SecretNotConfigured().Message)
		assert.Equal(t, "invalid or expired pair code", InvalidPairingCode().Message)
	})

	t.Run("MissingRequired names the field", func(t *testing.T) {
		assert.Equal(t, "pairCode is required", MissingRequired("pairCode").Message)
	})
}
