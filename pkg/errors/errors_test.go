package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("reschedule: %w", SlotConflict(""))

	assert.True(t, stderrors.Is(err, ErrSlotConflict))
	assert.False(t, stderrors.Is(err, ErrNotFound))
	assert.True(t, stderrors.Is(NotFound("doctor", nil), New(KindNotFound, "doctor not found", nil)))
	assert.False(t, stderrors.Is(NotFound("doctor", nil), New(KindNotFound, "patient not found", nil)))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := stderrors.New("no rows")
	err := NotFound("appointment", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "appointment not found: no rows", err.Error())
}
