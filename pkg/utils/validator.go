package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate       = newValidator()
	emailRegexp    = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	resetCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("strong_password", func(fl validator.FieldLevel) bool {
		return ValidatePassword(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("reset_code", func(fl validator.FieldLevel) bool {
		return resetCodeRegex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("smtp_encryption", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "none", "ssl", "tls":
			return true
		}
		return false
	})

	return v
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidationMessage flattens validator errors into a single readable line.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", fe.Field()))
		case "strong_password":
			msgs = append(msgs, fmt.Sprintf("%s must be at least 8 characters and contain uppercase, lowercase, number and special symbol", fe.Field()))
		case "reset_code":
			msgs = append(msgs, fmt.Sprintf("%s must be a 6 digit code", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
	}

	return strings.Join(msgs, "; ")
}

func IsValidEmail(email string) bool {
	email = strings.TrimSpace(strings.ToLower(email))
	return emailRegexp.MatchString(email)
}
