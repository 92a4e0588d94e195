// Package validation checks user supplied profile fields.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Profile field limits
const (
	MaxNameLength  = 100
	MaxLabelLength = 64
	MinDailyGoal   = 1
	MaxDailyGoal   = 240
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateName checks if a display name is valid
func ValidateName(name string) error {
	return ValidateLabel("name", name, MaxNameLength)
}

// ValidateLabel checks that a free text field is present and at most max
// characters long
func ValidateLabel(field, value string, max int) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if utf8.RuneCountInString(value) > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, max)}
	}
	return nil
}

// ValidateDailyGoal checks the daily study goal in minutes
func ValidateDailyGoal(minutes int) error {
	if minutes < MinDailyGoal || minutes > MaxDailyGoal {
		return ValidationError{
			Field:   "dailyGoal",
			Message: fmt.Sprintf("daily goal must be between %d and %d minutes", MinDailyGoal, MaxDailyGoal),
		}
	}
	return nil
}
