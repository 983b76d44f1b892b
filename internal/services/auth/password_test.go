// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct-horse", "owner@example.com"))
	assert.NoError(t, ValidatePassword("12345678", ""))

	err := ValidatePassword("short", "owner@example.com")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWeakPassword))

	var verr *PasswordValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "min_length", verr.Errors[0].Code)
	assert.Equal(t, []string{"Password must be at least 8 characters long."}, verr.Messages())
}

func TestValidatePassword_MatchesEmail(t *testing.T) {
	err := ValidatePassword("Owner@Example.com", "owner@example.com")

	var verr *PasswordValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "too_similar", verr.Errors[0].Code)
}
