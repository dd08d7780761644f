package auth

import (
	"net/mail"
	"unicode"
)

// MinPasswordLength is the floor enforced by the strength policy.
const MinPasswordLength = 8

// PasswordStrength is the outcome of the strength policy check. Errors
// lists every violated rule, not just the first, so clients can render the
// full checklist.
type PasswordStrength struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// ValidatePasswordStrength checks length and character-class requirements.
func ValidatePasswordStrength(password string) PasswordStrength {
	var violations []string

	if len(password) < MinPasswordLength {
		violations = append(violations, "password must be at least 8 characters long")
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasLower {
		violations = append(violations, "password must contain a lowercase letter")
	}
	if !hasUpper {
		violations = append(violations, "password must contain an uppercase letter")
	}
	if !hasDigit {
		violations = append(violations, "password must contain a digit")
	}
	if !hasSymbol {
		violations = append(violations, "password must contain a symbol")
	}

	return PasswordStrength{
		Valid:  len(violations) == 0,
		Errors: violations,
	}
}

// IsEmail is a structural check only, no DNS or MX verification.
func IsEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
