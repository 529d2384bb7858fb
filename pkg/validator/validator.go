// Package validator wires the booking API's date and time formats into
// go-playground/validator and turns binding failures into application errors.
package validator

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/hms-api/pkg/datetime"
	"github.com/jwalitptl/hms-api/pkg/errors"
)

const (
	TagDate = "hmsdate"
	TagTime = "hmstime"
)

var messages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"min":      "is too short",
	"max":      "is too long",
	"gt":       "must be positive",
	TagDate:    "must be a date in DD/MM/YYYY or YYYY-MM-DD form",
	TagTime:    "must be a time in HH:MM form",
}

// Register adds the custom tags to v and reports json field names in errors.
func Register(v *validator.Validate) error {
	if err := v.RegisterValidation(TagDate, func(fl validator.FieldLevel) bool {
		return datetime.ValidDate(fl.Field().String())
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation(TagTime, func(fl validator.FieldLevel) bool {
		return datetime.ValidClock(fl.Field().String())
	}); err != nil {
		return err
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return nil
}

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Translate converts a binding error into an AppError. Date and time format
// failures become InvalidDateTime, everything else Validation.
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Validation(fmt.Sprintf("invalid request body: %v", err))
	}

	parts := make([]string, 0, len(verrs))
	dateTime := false
	for _, fe := range verrs {
		if fe.Tag() == TagDate || fe.Tag() == TagTime {
			dateTime = true
		}
		msg, ok := messages[fe.Tag()]
		if !ok {
			msg = "failed " + fe.Tag() + " validation"
		}
		parts = append(parts, fe.Field()+" "+msg)
	}

	message := strings.Join(parts, "; ")
	if dateTime {
		return errors.InvalidDateTime(message, err)
	}
	return errors.Validation(message)
}
