package auth_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"

	auth "github.com/lingopad/go-auth"
)

type stubConfig struct {
	secure bool
}

func (c stubConfig) GetSigningKey() string  { return "test-signing-key" }
func (c stubConfig) GetIssuer() string      { return "lingopad" }
func (c stubConfig) GetAudience() []string  { return []string{"lingopad-web"} }
func (c stubConfig) GetContextKey() string  { return "user" }
func (c stubConfig) GetSecureCookies() bool { return c.secure }

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Invalid credentials", auth.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{"Account locked", auth.ErrAccountLocked, fiber.StatusTooManyRequests},
		{"Email not verified", auth.ErrEmailNotVerified, fiber.StatusForbidden},
		{"Weak password", auth.ErrWeakPassword, fiber.StatusBadRequest},
		{"Session conflict", auth.ErrSessionNotOwn, fiber.StatusConflict},
		{"Identity not found", auth.ErrIdentityNotFound, fiber.StatusNotFound},
		{"Internal category", goerrors.New("boom", goerrors.CategoryInternal), fiber.StatusInternalServerError},
		{"Plain error", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := auth.TranslateError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestTranslateErrorHidesInternalDetail(t *testing.T) {
	wrapped := goerrors.Wrap(errors.New("dial tcp 10.0.0.5: connection refused"), goerrors.CategoryInternal, "failed to load session")

	status, body := auth.TranslateError(wrapped)

	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, fmt.Sprint(body), "connection refused")
}

func TestTranslateErrorLockoutBody(t *testing.T) {
	status, body := auth.TranslateError(auth.ErrAccountLocked)

	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, auth.TextCodeAccountLocked, body["code"])
	assert.Equal(t, 0, body["remainingAttempts"])
}

func TestSetAuthCookiesCarriesMaxAge(t *testing.T) {
	ra := auth.NewRouteAuthenticator(stubConfig{secure: true})
	ctx := router.NewMockContext()

	ra.SetAuthCookies(ctx, &auth.LoginResult{
		SessionToken: "session-value",
		RefreshToken: "refresh-value",
		SessionTTL:   auth.SessionTTL,
		RefreshTTL:   auth.RefreshTokenTTL,
	})

	cookies := ctx.ResponseHeadersM.Values("Set-Cookie")
	assert.Len(t, cookies, 2)
	assert.Contains(t, cookies[0], auth.SessionCookieName)
	assert.Contains(t, cookies[0], fmt.Sprintf("Max-Age=%d", int(auth.SessionTTL.Seconds())))
	assert.Contains(t, cookies[0], "HttpOnly")
	assert.Contains(t, cookies[0], "Secure")
	assert.Contains(t, cookies[1], auth.RefreshCookieName)
	assert.Contains(t, cookies[1], fmt.Sprintf("Max-Age=%d", int(auth.RefreshTokenTTL.Seconds())))
}

func TestSetAuthCookiesEmptyRefreshLeavesCookieAlone(t *testing.T) {
	ra := auth.NewRouteAuthenticator(stubConfig{})
	ctx := router.NewMockContext()

	// A refresh-driven reissue returns no refresh token; only the session
	// cookie may be rewritten.
	ra.SetAuthCookies(ctx, &auth.LoginResult{
		SessionToken: "session-value",
		SessionTTL:   auth.SessionTTL,
	})

	cookies := ctx.ResponseHeadersM.Values("Set-Cookie")
	assert.Len(t, cookies, 1)
	assert.Contains(t, cookies[0], auth.SessionCookieName)
}

func TestClearAuthCookiesExpiresBoth(t *testing.T) {
	ra := auth.NewRouteAuthenticator(stubConfig{})
	ctx := router.NewMockContext()

	ra.ClearAuthCookies(ctx)

	cookies := ctx.ResponseHeadersM.Values("Set-Cookie")
	assert.Len(t, cookies, 2)
	for _, c := range cookies {
		// net/http renders a negative MaxAge as the delete form.
		assert.Contains(t, c, "Max-Age=0")
	}
}
