// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"fmt"
	"strings"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is the longest input bcrypt accepts.
	MaxPasswordLength = 72
)

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// PasswordValidationError wraps multiple validation errors. It matches
// ErrWeakPassword with errors.Is.
type PasswordValidationError struct {
	Errors []ValidationError
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return ErrWeakPassword.Error()
	}
	return e.Errors[0].Message
}

func (e *PasswordValidationError) Unwrap() error {
	return ErrWeakPassword
}

// Messages returns all error messages
func (e *PasswordValidationError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Message
	}
	return messages
}

// ValidatePassword checks length limits and that the password is not the email itself.
func ValidatePassword(password, email string) error {
	var errs []ValidationError

	if len(password) < MinPasswordLength {
		errs = append(errs, ValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength),
		})
	}
	if len(password) > MaxPasswordLength {
		errs = append(errs, ValidationError{
			Code:    "max_length",
			Message: fmt.Sprintf("Password must be at most %d bytes long.", MaxPasswordLength),
		})
	}
	if email != "" && strings.EqualFold(password, email) {
		errs = append(errs, ValidationError{
			Code:    "too_similar",
			Message: "Password must not be your email address.",
		})
	}

	if len(errs) > 0 {
		return &PasswordValidationError{Errors: errs}
	}
	return nil
}
