package models

import (
	"github.com/go-playground/validator"
)

// NewValidator returns a validator that also understands the order_status tag.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("order_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	return v
}
