package model

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// maxFutureYears bounds how far ahead a source observation may be dated.
const maxFutureYears = 10

// NewValidator returns a validator that understands the Observation tags.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(time.Now().Year()+maxFutureYears)
	})
	return v
}
