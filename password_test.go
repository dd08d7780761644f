package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	auth "github.com/lingopad/go-auth"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		valid      bool
		violations int
	}{
		{
			name:     "Strong password",
			password: "Str0ng!pass",
			valid:    true,
		},
		{
			name:       "Too short but all classes",
			password:   "Aa1!",
			valid:      false,
			violations: 1,
		},
		{
			name:       "Missing uppercase and symbol",
			password:   "lowercase123",
			valid:      false,
			violations: 2,
		},
		{
			name:       "Empty collects every rule",
			password:   "",
			valid:      false,
			violations: 5,
		},
		{
			name:       "No digit",
			password:   "NoDigits!here",
			valid:      false,
			violations: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.ValidatePasswordStrength(tt.password)

			assert.Equal(t, tt.valid, result.Valid)
			assert.Len(t, result.Errors, tt.violations)
		})
	}
}

func TestIsEmail(t *testing.T) {
	assert.True(t, auth.IsEmail("user@example.com"))
	assert.True(t, auth.IsEmail("with+tag@example.co.uk"))
	assert.False(t, auth.IsEmail("not-an-email"))
	assert.False(t, auth.IsEmail(""))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", auth.NormalizeEmail("  User@Example.COM "))
	assert.Equal(t, "user@example.com", auth.NormalizeEmail("user@example.com"))
}
