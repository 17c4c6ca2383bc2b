package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, "NotFound", Code(ErrNotFound))
	assert.Equal(t, "InsufficientAvailability", Code(ErrInsufficientAvailability))
	assert.Equal(t, "InvalidStateTransition", Code(ErrInvalidStateTransition))
	assert.Equal(t, "ValidationError", Code(ErrValidation))
	assert.Equal(t, "Internal", Code(errors.New("disk on fire")))
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("show %s: %w", "abc", ErrNotFound)
	assert.Equal(t, "NotFound", Code(err))
	assert.ErrorIs(t, err, ErrNotFound)
}
