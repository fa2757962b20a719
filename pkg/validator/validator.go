package validator

import (
	"unicode"

	"github.com/go-playground/validator/v10"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance
func New() *CustomValidator {
	v := validator.New()
	// Passwords need at least one lower, one upper and one digit.
	_ = v.RegisterValidation("password", validatePassword)
	return &CustomValidator{v: v}
}

// Validate performs struct validation
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

func validatePassword(fl validator.FieldLevel) bool {
	var hasLower, hasUpper, hasDigit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}
