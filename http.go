package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// Cookie names for the two browser credentials. The OAuth state cookie is
// per provider, e.g. oauth_state_google.
const (
	SessionCookieName      = "session-token"
	RefreshCookieName      = "refresh-token"
	OAuthStateCookiePrefix = "oauth_state_"
)

// RouteAuthenticator bridges the authenticator to HTTP transports: cookie
// handling on the way out, error translation on the way back.
type RouteAuthenticator struct {
	config Config
	logger Logger
}

func NewRouteAuthenticator(config Config) *RouteAuthenticator {
	return &RouteAuthenticator{
		config: config,
		logger: defLogger{},
	}
}

func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// ClientFromRequest extracts the caller information recorded on sessions
// and login attempts.
func ClientFromRequest(ctx router.Context) Client {
	return Client{
		IP:        ctx.IP(),
		UserAgent: ctx.Header("User-Agent"),
	}
}

// SessionTokenFromRequest reads the session cookie, empty when absent.
func SessionTokenFromRequest(ctx router.Context) string {
	return ctx.Cookies(SessionCookieName, "")
}

// RefreshTokenFromRequest reads the refresh cookie, empty when absent.
func RefreshTokenFromRequest(ctx router.Context) string {
	return ctx.Cookies(RefreshCookieName, "")
}

// SetAuthCookies mirrors a login result into the browser credentials. An
// empty RefreshToken leaves the existing refresh cookie untouched so a
// refresh-driven reissue does not clobber the long-lived credential.
func (a *RouteAuthenticator) SetAuthCookies(ctx router.Context, result *LoginResult) {
	now := time.Now()

	ctx.Cookie(&router.Cookie{
		Name:     SessionCookieName,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   int(result.SessionTTL.Seconds()),
		Expires:  now.Add(result.SessionTTL),
		HTTPOnly: true,
		Secure:   a.config.GetSecureCookies(),
		SameSite: "Lax",
	})

	if result.RefreshToken == "" {
		return
	}

	ctx.Cookie(&router.Cookie{
		Name:     RefreshCookieName,
		Value:    result.RefreshToken,
		Path:     "/",
		MaxAge:   int(result.RefreshTTL.Seconds()),
		Expires:  now.Add(result.RefreshTTL),
		HTTPOnly: true,
		Secure:   a.config.GetSecureCookies(),
		SameSite: "Lax",
	})
}

// ClearAuthCookies expires both credentials.
func (a *RouteAuthenticator) ClearAuthCookies(ctx router.Context) {
	expired := time.Now().Add(-time.Hour)

	for _, name := range []string{SessionCookieName, RefreshCookieName} {
		ctx.Cookie(&router.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  expired,
			HTTPOnly: true,
			Secure:   a.config.GetSecureCookies(),
			SameSite: "Lax",
		})
	}
}

// WriteError translates a domain error into the {success:false, error}
// JSON shape. Internal detail never crosses the boundary: anything not
// carrying a client-safe category collapses to a generic 500.
func (a *RouteAuthenticator) WriteError(ctx router.Context, err error) error {
	status, body := TranslateError(err)

	if status == fiber.StatusInternalServerError {
		a.logger.Error("request failed: %v", err)
	}

	return ctx.JSON(status, map[string]any{
		"success": false,
		"error":   body,
	})
}

// TranslateError maps a domain error to its HTTP status and response body.
// Middleware shares this mapping so a store failure renders as 500
// everywhere, never as a rejection the client could act on.
func TranslateError(err error) (int, map[string]any) {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return fiber.StatusInternalServerError, map[string]any{
			"message": "internal server error",
		}
	}

	body := map[string]any{
		"message": richErr.Message,
	}
	if richErr.TextCode != "" {
		body["code"] = richErr.TextCode
	}

	switch richErr.Category {
	case goerrors.CategoryRateLimit:
		if v, ok := richErr.Metadata["locked_until"]; ok {
			body["lockedUntil"] = v
		}
		body["remainingAttempts"] = 0
		return fiber.StatusTooManyRequests, body

	case goerrors.CategoryAuth:
		if richErr.TextCode == TextCodeEmailNotVerified {
			body["requiresVerification"] = true
			return fiber.StatusForbidden, body
		}
		if v, ok := richErr.Metadata["remaining_attempts"]; ok {
			body["remainingAttempts"] = v
		}
		return fiber.StatusUnauthorized, body

	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden, body

	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		if v, ok := richErr.Metadata["errors"]; ok {
			body["errors"] = v
		}
		return fiber.StatusBadRequest, body

	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound, body

	case goerrors.CategoryConflict:
		return fiber.StatusConflict, body
	}

	return fiber.StatusInternalServerError, map[string]any{
		"message": "internal server error",
	}
}
