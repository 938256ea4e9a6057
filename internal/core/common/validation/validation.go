package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/opsboard/backend/internal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates a DTO by its `validate` tags and converts failures to the
// application's validation error shape.
func Struct(s interface{}) *apperrors.AppError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return apperrors.NewValidationError("validation failed", apperrors.ErrCodeValidationFailed).WithCause(err)
	}

	fieldErrors := make([]apperrors.ValidationError, 0, len(invalid))
	for _, fe := range invalid {
		fieldErrors = append(fieldErrors, apperrors.ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageFor(fe),
			Code:    string(apperrors.ErrCodeValidationFailed),
		})
	}

	return apperrors.NewValidationError("Validation failed", apperrors.ErrCodeValidationFailed).
		WithDetails(apperrors.ValidationErrors{Errors: fieldErrors})
}

func messageFor(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
