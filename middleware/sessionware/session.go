package sessionware

import (
	"context"

	"github.com/goliatone/go-router"

	auth "github.com/lingopad/go-auth"
)

// IdentityResolver mirrors auth.IdentityResolver.Resolve without importing
// a concrete type, so tests can drop in a stub.
type IdentityResolver interface {
	Resolve(ctx context.Context, sessionToken string) (*auth.AuthenticatedUser, error)
}

type Config struct {
	// Filter skips the middleware for matching requests.
	Filter func(router.Context) bool
	// SuccessHandler runs after the identity is stored; defaults to Next.
	SuccessHandler router.HandlerFunc
	// ErrorHandler renders the unauthenticated response.
	ErrorHandler router.ErrorHandler
	// Resolver is required.
	Resolver IdentityResolver
	// CookieName defaults to the session cookie.
	CookieName string
	// Optional lets unauthenticated requests proceed with no identity set.
	Optional bool
}

// New builds the session middleware: it resolves the caller from the
// session cookie, stores the identity in both router locals and the
// request context, and rejects unauthenticated requests unless Optional.
func New(config Config) router.MiddlewareFunc {
	cfg := withDefaults(config)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			token := ctx.Cookies(cfg.CookieName, "")

			user, err := cfg.Resolver.Resolve(ctx.Context(), token)
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			if user == nil {
				if cfg.Optional {
					return cfg.SuccessHandler(ctx)
				}
				return cfg.ErrorHandler(ctx, auth.ErrUnauthenticated)
			}

			auth.SetRouterUser(ctx, user)
			ctx.SetContext(auth.WithUser(ctx.Context(), user))

			return cfg.SuccessHandler(ctx)
		}
	}
}

func withDefaults(cfg Config) Config {
	if cfg.Resolver == nil {
		panic("sessionware: Config.Resolver is required")
	}

	if cfg.CookieName == "" {
		cfg.CookieName = auth.SessionCookieName
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(ctx router.Context) error {
			return ctx.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = defaultErrorHandler
	}

	return cfg
}

// defaultErrorHandler renders through the shared error mapping so a store
// failure surfaces as 500, not as an authentication rejection.
func defaultErrorHandler(ctx router.Context, err error) error {
	status, body := auth.TranslateError(err)
	return ctx.JSON(status, map[string]any{
		"success": false,
		"error":   body,
	})
}
