package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/lembrabot/lembrabot/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("recurrence", validateRecurrence); err != nil {
		panic(fmt.Sprintf("failed to register recurrence validator: %v", err))
	}
}

// validateRecurrence validates that a string is a valid Recurrence enum value
func validateRecurrence(fl validator.FieldLevel) bool {
	return models.Recurrence(fl.Field().String()).Valid()
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateRecurrence validates a Recurrence string value
func ValidateRecurrence(value string) error {
	if models.Recurrence(value).Valid() {
		return nil
	}
	return fmt.Errorf("invalid recurrence: %s (must be 'none', 'daily', or 'weekly')", value)
}
