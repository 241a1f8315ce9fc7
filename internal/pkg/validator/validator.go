package validator

import (
	"github.com/go-playground/validator/v10"

	"github.com/dbrnz/openmaptiles-tools/internal/lang"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("locale", func(fl validator.FieldLevel) bool {
		return lang.ValidateLocale(fl.Field().String()) == nil
	})
}

// Validate checks a struct against its validate tags.
func Validate(s interface{}) error {
	return validate.Struct(s)
}

// GetValidator returns the shared instance for custom configuration.
func GetValidator() *validator.Validate {
	return validate
}
