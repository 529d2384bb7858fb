package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	hmsvalidator "github.com/jwalitptl/hms-api/pkg/validator"
)

// RegisterValidators installs the hmsdate and hmstime binding tags on gin's
// validator. Call it once before serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	return hmsvalidator.Register(v)
}
