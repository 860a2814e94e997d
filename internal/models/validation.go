package models

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Phone numbers: optional leading +, then digits with optional spaces or hyphens
var phoneRegex = regexp.MustCompile(`^\+?[0-9]{6,15}$`)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// IsValidPhone validates a loosely formatted phone number
func IsValidPhone(phone string) bool {
	if phone == "" {
		return true // Optional field
	}
	cleaned := strings.ReplaceAll(strings.ReplaceAll(phone, " ", ""), "-", "")
	return phoneRegex.MatchString(cleaned)
}

// SanitizeString removes extra whitespace and trims the string
func SanitizeString(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " is required",
			Value:   value,
		}
	}
	return nil
}

// ValidateAmount rejects NaN, infinities and negative amounts
func ValidateAmount(value float64, fieldName string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " must be a number",
			Value:   value,
		}
	}
	if value < 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " cannot be negative",
			Value:   value,
		}
	}
	return nil
}

// ValidatePositiveAmount rejects amounts that are not strictly positive
func ValidatePositiveAmount(value float64, fieldName string) error {
	if err := ValidateAmount(value, fieldName); err != nil {
		return err
	}
	if value == 0 {
		return &ValidationError{
			Field:   fieldName,
			Message: fieldName + " must be greater than 0",
			Value:   value,
		}
	}
	return nil
}

// ValidateEnum validates that a value is in the allowed enum values
func ValidateEnum(value string, allowedValues []string, fieldName string) error {
	for _, allowed := range allowedValues {
		if value == allowed {
			return nil
		}
	}

	return &ValidationError{
		Field:   fieldName,
		Message: fmt.Sprintf("%s must be one of: %s", fieldName, strings.Join(allowedValues, ", ")),
		Value:   value,
	}
}
