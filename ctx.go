package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

type contextKey string

// ContextKeyUser is where the resolved identity lives, both in the
// request context and in router locals.
const ContextKeyUser contextKey = "auth:user"

// WithUser stores the resolved identity in the context.
func WithUser(ctx context.Context, user *AuthenticatedUser) context.Context {
	return context.WithValue(ctx, ContextKeyUser, user)
}

// UserFromContext retrieves the identity set by the session middleware.
// Returns nil when the request is unauthenticated.
func UserFromContext(ctx context.Context) *AuthenticatedUser {
	user, ok := ctx.Value(ContextKeyUser).(*AuthenticatedUser)
	if !ok {
		return nil
	}
	return user
}

// SetRouterUser mirrors the identity into router locals so handlers that
// only see the router context can reach it.
func SetRouterUser(ctx router.Context, user *AuthenticatedUser) {
	ctx.Locals(string(ContextKeyUser), user)
}

// RouterUser retrieves the identity from router locals.
func RouterUser(ctx router.Context) *AuthenticatedUser {
	user, ok := ctx.Locals(string(ContextKeyUser)).(*AuthenticatedUser)
	if !ok {
		return nil
	}
	return user
}
