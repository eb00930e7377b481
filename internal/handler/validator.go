package handler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/disblox/disblox/internal/domain"
)

// Validator wraps the validator instance
type Validator struct {
	validate *validator.Validate
}

// Global validator instance
var validate *Validator

// InitValidator initializes the global validator
func InitValidator() {
	v := validator.New()

	_ = v.RegisterValidation("nickname_policy", validateNicknamePolicy)

	validate = &Validator{validate: v}
}

// GetValidator returns the global validator instance
func GetValidator() *Validator {
	if validate == nil {
		InitValidator()
	}
	return validate
}

// ValidateStruct validates a struct using tags
func (v *Validator) ValidateStruct(s interface{}) error {
	return v.validate.Struct(s)
}

// FormatValidationError formats validation errors into a user-friendly map.
// This prevents leaking internal struct names to API clients.
func FormatValidationError(err error) map[string]string {
	if err == nil {
		return nil
	}

	errs := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		errs["error"] = "Invalid request format"
		return errs
	}

	for _, e := range validationErrors {
		field := strings.ToLower(e.Field())
		switch e.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "nickname_policy":
			errs[field] = "Invalid nickname policy"
		case "max":
			errs[field] = fmt.Sprintf("Must be at most %s characters", e.Param())
		case "min":
			errs[field] = fmt.Sprintf("Must be at least %s characters", e.Param())
		case "numeric":
			errs[field] = "Must be numeric"
		case "url":
			errs[field] = "Must be a valid URL"
		default:
			errs[field] = "Invalid value"
		}
	}

	return errs
}

// validateNicknamePolicy accepts the recognized nickname policy values.
// Empty is allowed; pair with a 'required' tag where the field is mandatory.
func validateNicknamePolicy(fl validator.FieldLevel) bool {
	policy := fl.Field().String()
	if policy == "" {
		return true
	}
	return domain.ValidNicknamePolicy(domain.NicknamePolicy(policy))
}
