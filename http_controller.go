package auth

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// AuthControllerRoutes holds the mount points for the JSON auth API.
type AuthControllerRoutes struct {
	Login    string
	Logout   string
	Session  string
	Password string
	Sessions string
	Refresh  string
}

// AuthController serves the session lifecycle endpoints.
type AuthController struct {
	Debug    bool
	Logger   Logger
	Auther   Authenticator
	Resolver *IdentityResolver
	Route    *RouteAuthenticator
	Routes   *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerResolver(resolver *IdentityResolver) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Resolver = resolver
		return c
	}
}

func WithRouteAuthenticator(route *RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Route = route
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Login:    "/login",
			Logout:   "/logout",
			Session:  "/session",
			Password: "/password",
			Sessions: "/sessions",
			Refresh:  "/refresh",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Resolver == nil {
		panic("Missing IdentityResolver in auth controller...")
	}

	if c.Route == nil {
		panic("Missing RouteAuthenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth API on the router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("auth.login")
	app.Post(controller.Routes.Logout, controller.LogoutPost).
		SetName("auth.logout")
	app.Get(controller.Routes.Session, controller.SessionShow).
		SetName("auth.session")
	app.Post(controller.Routes.Password, controller.PasswordPost).
		SetName("auth.password")
	app.Get(controller.Routes.Sessions, controller.SessionsList).
		SetName("auth.sessions")
	app.Delete(fmt.Sprintf("%s/:id", controller.Routes.Sessions), controller.SessionDelete).
		SetName("auth.sessions.revoke")
	app.Post(controller.Routes.Refresh, controller.RefreshPost).
		SetName("auth.refresh")
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		return a.Route.WriteError(ctx, ErrInvalidPayload)
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	result, err := a.Auther.Login(ctx.Context(), *payload, ClientFromRequest(ctx))
	if err != nil {
		return a.Route.WriteError(ctx, err)
	}

	a.Route.SetAuthCookies(ctx, result)

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
		"user":    result.User,
	})
}

func (a *AuthController) LogoutPost(ctx router.Context) error {
	token := SessionTokenFromRequest(ctx)

	if err := a.Auther.Logout(ctx.Context(), token); err != nil {
		a.Logger.Warn("logout failed: %v", err)
	}

	// Cookies clear regardless; logout is always safe.
	a.Route.ClearAuthCookies(ctx)

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

func (a *AuthController) SessionShow(ctx router.Context) error {
	user, err := a.identity(ctx)
	if err != nil {
		return a.Route.WriteError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
		"user":    user,
	})
}

func (a *AuthController) PasswordPost(ctx router.Context) error {
	user, err := a.identity(ctx)
	if err != nil {
		return a.Route.WriteError(ctx, err)
	}

	payload := new(ChangePasswordRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.Route.WriteError(ctx, ErrInvalidPayload)
	}

	if err := a.Auther.ChangePassword(ctx.Context(), user.ID, *payload); err != nil {
		return a.Route.WriteError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

func (a *AuthController) SessionsList(ctx router.Context) error {
	user, err := a.identity(ctx)
	if err != nil {
		return a.Route.WriteError(ctx, err)
	}

	sessions, err := a.Auther.ListSessions(ctx.Context(), user.ID)
	if err != nil {
		return a.Route.WriteError(ctx, err)
	}

	current := SessionTokenFromRequest(ctx)

	rows := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, map[string]any{
			"id":         s.ID,
			"ip_address": s.IPAddress,
			"user_agent": s.UserAgent,
			"created_at": s.CreatedAt,
			"expires_at": s.ExpiresAt,
			"is_current": s.Token == current,
		})
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success":  true,
		"sessions": rows,
	})
}

func (a *AuthController) SessionDelete(ctx router.Context) error {
	user, err := a.identity(ctx)
	if err != nil {
		return a.Route.WriteError(ctx, err)
	}

	sessionID, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return a.Route.WriteError(ctx, ErrInvalidPayload)
	}

	current := SessionTokenFromRequest(ctx)
	if err := a.Auther.RevokeSession(ctx.Context(), user.ID, sessionID, current); err != nil {
		return a.Route.WriteError(ctx, err)
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
	})
}

func (a *AuthController) RefreshPost(ctx router.Context) error {
	token := RefreshTokenFromRequest(ctx)
	if token == "" {
		return a.Route.WriteError(ctx, ErrUnauthenticated)
	}

	result, err := a.Auther.Refresh(ctx.Context(), token, ClientFromRequest(ctx))
	if err != nil {
		return a.Route.WriteError(ctx, err)
	}

	a.Route.SetAuthCookies(ctx, result)

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"success": true,
		"user":    result.User,
	})
}

// identity returns the caller, preferring the middleware-resolved value
// and falling back to a direct cookie lookup when the route is mounted
// without the session middleware.
func (a *AuthController) identity(ctx router.Context) (*AuthenticatedUser, error) {
	if user := RouterUser(ctx); user != nil {
		return user, nil
	}

	user, err := a.Resolver.Resolve(ctx.Context(), SessionTokenFromRequest(ctx))
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrUnauthenticated
	}

	return user, nil
}
