package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RuleValidator checks rule structs before they enter a store.
type RuleValidator struct {
	validate *validator.Validate
}

// NewRuleValidator creates a validator with the "regexp" tag registered.
func NewRuleValidator() *RuleValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := CompileRuleRegex(fl.Field().String())
		return err == nil
	})
	return &RuleValidator{validate: v}
}

// CompileRuleRegex compiles a rule pattern in multi-line mode, so ^ and $
// anchor at each line of an item's search text.
func CompileRuleRegex(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?m)" + pattern)
}

// Validate returns a VALIDATION_FAILED AppError describing every failed field.
func (v *RuleValidator) Validate(rule any) error {
	if rule == nil {
		return NewAppError(ErrValidationFailed, "Rule cannot be nil", 422, nil)
	}
	err := v.validate.Struct(rule)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return NewAppErrorWithCause(ErrValidationFailed, "Rule validation failed", 422, err, nil)
	}

	fields := make([]string, 0, len(validationErrs))
	messages := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		fields = append(fields, fe.Namespace())
		messages = append(messages, formatFieldError(fe))
	}
	return NewAppError(ErrValidationFailed, strings.Join(messages, "; "), 422, map[string]any{"fields": fields})
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "regexp":
		return fmt.Sprintf("%s is not a valid regular expression", fe.Field())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color like #FF8800", fe.Field())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}
