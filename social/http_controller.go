package social

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-router"

	auth "github.com/lingopad/go-auth"
)

// RouteRegistrar is the subset of the router the controller mounts on.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPControllerConfig configures the social HTTP controller.
type HTTPControllerConfig struct {
	SuccessRedirect string
	ErrorRedirect   string
	SecureCookies   bool
}

// HTTPController serves the OAuth begin/callback endpoints. The encoded
// state travels both in the provider round-trip and in a per-provider
// cookie; the callback requires the two to match.
type HTTPController struct {
	authenticator *SocialAuthenticator
	routeAuth     *auth.RouteAuthenticator
	config        HTTPControllerConfig
	logger        auth.Logger
}

func NewHTTPController(authenticator *SocialAuthenticator, routeAuth *auth.RouteAuthenticator, config HTTPControllerConfig, logger auth.Logger) *HTTPController {
	if config.SuccessRedirect == "" {
		config.SuccessRedirect = "/"
	}
	if config.ErrorRedirect == "" {
		config.ErrorRedirect = "/login"
	}

	return &HTTPController{
		authenticator: authenticator,
		routeAuth:     routeAuth,
		config:        config,
		logger:        logger,
	}
}

// RegisterRoutes registers social auth routes.
func (c *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Get("/providers", c.ListProviders)
	group.Get("/:provider/callback", c.Callback)
	group.Get("/:provider", c.BeginAuth)
}

// ListProviders lists the configured providers.
func (c *HTTPController) ListProviders(ctx router.Context) error {
	providers := c.authenticator.ListProviders()
	return ctx.JSON(router.StatusOK, map[string]any{
		"providers": providers,
	})
}

// BeginAuth starts the OAuth flow.
func (c *HTTPController) BeginAuth(ctx router.Context) error {
	providerName := ctx.Param("provider", "")

	redirectURL := ctx.Query("redirect_url")
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}

	redirect, err := c.authenticator.BeginAuth(ctx.Context(), providerName, WithRedirectURL(redirectURL))
	if err != nil {
		return c.handleError(ctx, err)
	}

	ctx.Cookie(&router.Cookie{
		Name:     stateCookieName(providerName),
		Value:    redirect.State,
		Path:     "/",
		MaxAge:   int((10 * time.Minute).Seconds()),
		Expires:  time.Now().Add(10 * time.Minute),
		HTTPOnly: true,
		Secure:   c.config.SecureCookies,
		SameSite: "Lax",
	})

	return ctx.Redirect(redirect.URL, http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback.
func (c *HTTPController) Callback(ctx router.Context) error {
	providerName := ctx.Param("provider", "")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if errCode := ctx.Query("error"); errCode != "" {
		errDesc := ctx.Query("error_description")
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "oauth_error", errCode)
		if errDesc != "" {
			redirectURL = appendQueryParam(redirectURL, "desc", errDesc)
		}
		return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
	}

	if code == "" || state == "" {
		redirectURL := appendQueryParam(c.config.ErrorRedirect, "error", "missing_params")
		return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
	}

	cookieState := ctx.Cookies(stateCookieName(providerName), "")
	if cookieState == "" || cookieState != state {
		return c.handleError(ctx, ErrInvalidState)
	}

	result, err := c.authenticator.CompleteAuth(ctx.Context(), providerName, code, state, auth.ClientFromRequest(ctx))
	if err != nil {
		return c.handleError(ctx, err)
	}

	c.clearStateCookie(ctx, providerName)

	c.routeAuth.SetAuthCookies(ctx, &auth.LoginResult{
		User:         result.User,
		SessionToken: result.SessionToken,
		RefreshToken: result.RefreshToken,
		SessionTTL:   result.SessionTTL,
		RefreshTTL:   result.RefreshTTL,
	})

	redirectURL := result.RedirectURL
	if redirectURL == "" {
		redirectURL = c.config.SuccessRedirect
	}

	if result.IsNewUser {
		redirectURL = appendQueryParam(redirectURL, "new_user", "true")
	}

	return ctx.Redirect(redirectURL, http.StatusTemporaryRedirect)
}

func (c *HTTPController) handleError(ctx router.Context, err error) error {
	if c.logger != nil {
		c.logger.Warn("social auth failed: %v", err)
	}
	return c.routeAuth.WriteError(ctx, err)
}

func (c *HTTPController) clearStateCookie(ctx router.Context, providerName string) {
	ctx.Cookie(&router.Cookie{
		Name:     stateCookieName(providerName),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   c.config.SecureCookies,
		SameSite: "Lax",
	})
}

func stateCookieName(providerName string) string {
	return auth.OAuthStateCookiePrefix + strings.ToLower(providerName)
}

func appendQueryParam(base, key, value string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + key + "=" + url.QueryEscape(value)
}
