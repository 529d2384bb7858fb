package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jwalitptl/hms-api/pkg/errors"
)

type bookRequest struct {
	DoctorID int64  `json:"doctor_id" validate:"required,gt=0"`
	Date     string `json:"date" validate:"required,hmsdate"`
	Time     string `json:"time" validate:"required,hmstime"`
}

func TestCustomTags(t *testing.T) {
	v := New()

	assert.NoError(t, v.Struct(bookRequest{DoctorID: 2, Date: "20/05/2025", Time: "08:00"}))
	assert.NoError(t, v.Struct(bookRequest{DoctorID: 2, Date: "2025-05-20", Time: "04:00"}))

	err := v.Struct(bookRequest{DoctorID: 2, Date: "2025-13-40", Time: "08:00"})
	require.Error(t, err)
	translated := Translate(err)
	assert.ErrorIs(t, translated, apperrors.ErrInvalidDateTime)
	assert.Contains(t, translated.Error(), "date must be a date")

	err = v.Struct(bookRequest{DoctorID: 2, Date: "2025-05-20", Time: "8am"})
	assert.ErrorIs(t, Translate(err), apperrors.ErrInvalidDateTime)
}

func TestTranslateValidation(t *testing.T) {
	v := New()

	err := v.Struct(bookRequest{Date: "2025-05-20", Time: "08:00"})
	require.Error(t, err)
	translated := Translate(err)
	assert.ErrorIs(t, translated, apperrors.ErrValidation)
	assert.Contains(t, translated.Error(), "doctor_id is required")

	assert.ErrorIs(t, Translate(assert.AnError), apperrors.ErrValidation)
}
