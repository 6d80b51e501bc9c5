// utils/validator.go - Input validation
package utils

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// ValidatePassword checks password strength
func ValidatePassword(password string) (bool, string) {
	if len(password) < 8 {
		return false, "Password must be at least 8 characters"
	}

	return true, ""
}

// ValidatePhone accepts an optional leading '+' followed by 7-15 digits.
// Spaces and dashes are ignored.
func ValidatePhone(phone string) bool {
	return phoneRegex.MatchString(stripPhoneSeparators(phone))
}

// SanitizeInput removes potentially harmful characters
func SanitizeInput(input string) string {
	// Remove leading/trailing spaces
	input = strings.TrimSpace(input)

	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	return input
}

// SanitizeOptional trims an optional field and collapses blanks to nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	v := SanitizeInput(*input)
	if v == "" {
		return nil
	}
	return &v
}
