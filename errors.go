package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to API clients alongside error messages.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeOAuthOnlyAccount   = "NO_PASSWORD_SET"
	TextCodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	TextCodeAccountLocked      = "ACCOUNT_LOCKED"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeWeakPassword       = "WEAK_PASSWORD"
)

// ErrInvalidCredentials is the single externally visible rejection for both
// unknown accounts and wrong passwords; the internal failure reason is
// recorded on the login attempt row instead.
var ErrInvalidCredentials = goerrors.New("email or password incorrect", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrOAuthOnlyAccount rejects password logins against accounts that only
// have social sign-in.
var ErrOAuthOnlyAccount = goerrors.New("this account uses social sign-in; set a password first", goerrors.CategoryAuth).
	WithTextCode(TextCodeOAuthOnlyAccount).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailNotVerified rejects logins until the address is verified.
var ErrEmailNotVerified = goerrors.New("email address not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(goerrors.CodeForbidden)

// ErrAccountLocked is the throttled outcome, distinct from bad credentials.
// The HTTP layer maps the rate-limit category to 429.
var ErrAccountLocked = goerrors.New("too many failed login attempts, try again later", goerrors.CategoryRateLimit).
	WithTextCode(TextCodeAccountLocked)

// ErrUnauthenticated covers missing, invalid, and expired sessions alike.
// Callers never learn which; expired and never-existed must be identical.
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired marks a structurally valid token past its expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed marks a token that failed signature or claim checks.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrCurrentPasswordIncorrect rejects a password change when the caller
// cannot prove the current credential.
var ErrCurrentPasswordIncorrect = goerrors.New("current password is incorrect", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch result.
var ErrMismatchedHashAndPassword = goerrors.New("hashed password mismatch", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrWeakPassword rejects passwords failing the strength policy. Metadata
// carries the full list of violated rules.
var ErrWeakPassword = goerrors.New("password does not meet strength requirements", goerrors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidPayload rejects request bodies that fail to bind.
var ErrInvalidPayload = goerrors.New("invalid request payload", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString rejects empty input to the credential codec.
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrSessionNotOwn rejects revoking the caller's own current session through
// the device-management path; logging out is the way to end it.
var ErrSessionNotOwn = goerrors.New("cannot revoke the current session, use logout", goerrors.CategoryConflict).
	WithCode(goerrors.CodeConflict)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// annotate returns a metadata-carrying copy of a sentinel. WithMetadata
// writes into the receiver's map, so calling it on the package-level vars
// would leak metadata between requests. The clone keeps the sentinel as
// Source so goerrors.Is still matches.
func annotate(sentinel *goerrors.Error, meta map[string]any) *goerrors.Error {
	clone := sentinel.Clone()
	if clone == nil {
		return sentinel
	}
	clone.Source = sentinel
	return clone.WithMetadata(meta)
}

// FailureReason tags the real cause of a rejected login on the attempt row.
// Reasons are for observability only and never shown to clients.
type FailureReason string

const (
	FailureUserNotFound     FailureReason = "user_not_found"
	FailureNoPasswordSet    FailureReason = "no_password_set"
	FailureInvalidPassword  FailureReason = "invalid_password"
	FailureEmailNotVerified FailureReason = "email_not_verified"
	FailureAccountLocked    FailureReason = "account_locked"
)

// ExternalLoginError is the single mapping from an internal failure reason
// to the error a client sees. user_not_found and invalid_password yield the
// same error by policy.
func ExternalLoginError(reason FailureReason) *goerrors.Error {
	switch reason {
	case FailureUserNotFound, FailureInvalidPassword:
		return ErrInvalidCredentials
	case FailureNoPasswordSet:
		return ErrOAuthOnlyAccount
	case FailureEmailNotVerified:
		return ErrEmailNotVerified
	case FailureAccountLocked:
		return ErrAccountLocked
	default:
		return ErrInvalidCredentials
	}
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeTokenExpired
	}
	return false
}

// IsThrottledError reports whether the error is the rate-limit outcome.
func IsThrottledError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Category == goerrors.CategoryRateLimit
	}
	return false
}
