package service

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// enrollmentIDPattern is the departmental enrollment format, e.g. 21-134056-072.
var enrollmentIDPattern = regexp.MustCompile(`^\d{2}-\d{6}-\d{3}$`)

// RegisterValidators installs custom validation tags used by the DTOs.
func RegisterValidators(validate *validator.Validate) error {
	return validate.RegisterValidation("enrollment_id", func(fl validator.FieldLevel) bool {
		return enrollmentIDPattern.MatchString(fl.Field().String())
	})
}
