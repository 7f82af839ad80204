package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	base := errors.New("boom")

	t.Run("uncoded errors are internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(base))
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("save section: %w", New(CodeNotFound, "application not found"))
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeNotFound, "missing")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		assert.Equal(t, CodeInternal, CodeOf(outer))
		assert.False(t, Is(outer, CodeNotFound))
	})
}

func TestWrapKeepsCause(t *testing.T) {
	base := errors.New("connection reset")
	err := Wrap(base, CodeTimeout, "transaction aborted")

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "timeout: transaction aborted: connection reset", err.Error())
	assert.Equal(t, "validation_error: name is required", New(CodeValidation, "name is required").Error())
}
