package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GuardResult is the outcome of an authorization check. Guards are pure
// functions over the identity projection: no I/O, no error returns.
// Absence of permission is a value, not an exception.
type GuardResult struct {
	Authorized bool   `json:"authorized"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

// AuthResult is the authentication-check variant of GuardResult.
type AuthResult struct {
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"`
}

func authorized() GuardResult {
	return GuardResult{Authorized: true}
}

func forbidden(msg string) GuardResult {
	return GuardResult{
		Authorized: false,
		Error:      msg,
		StatusCode: fiber.StatusForbidden,
	}
}

func unauthorizedGuard() GuardResult {
	return GuardResult{
		Authorized: false,
		Error:      "Authentication required",
		StatusCode: fiber.StatusUnauthorized,
	}
}

// RequireAuthenticated checks that an identity is present at all.
func RequireAuthenticated(user *AuthenticatedUser) AuthResult {
	if user == nil {
		return AuthResult{
			Authenticated: false,
			Error:         "Authentication required",
			StatusCode:    fiber.StatusUnauthorized,
		}
	}
	return AuthResult{Authenticated: true}
}

// HasSystemRole checks for an exact system role match. No hierarchy
// applies at the system level.
func HasSystemRole(user *AuthenticatedUser, role UserRole) GuardResult {
	if user == nil {
		return unauthorizedGuard()
	}

	if user.SystemRole == nil || *user.SystemRole != role {
		return forbidden("Insufficient system role")
	}

	return authorized()
}

// HasProjectRole checks that the user holds at least minRole on the
// project. The role ladder applies: REVIEWER satisfies a requirement of
// EDITOR. A system ADMIN passes regardless of membership.
func HasProjectRole(user *AuthenticatedUser, projectID uuid.UUID, minRole UserRole) GuardResult {
	if user == nil {
		return unauthorizedGuard()
	}

	if user.IsSystemAdmin() {
		return authorized()
	}

	role, ok := user.RoleOn(projectID)
	if !ok {
		return forbidden("Not a member of this project")
	}

	if !RoleAtLeast(role, minRole) {
		return forbidden("Insufficient project role")
	}

	return authorized()
}

// RequireProjectRole is HasProjectRole under the name guard call sites use.
func RequireProjectRole(user *AuthenticatedUser, projectID uuid.UUID, minRole UserRole) GuardResult {
	return HasProjectRole(user, projectID, minRole)
}

// RequireAnyProjectRole checks membership against an explicit set of
// roles. Unlike RequireProjectRole this is an exact-set check with no
// hierarchy: listing EDITOR does not admit a REVIEWER. A system ADMIN
// still passes.
func RequireAnyProjectRole(user *AuthenticatedUser, projectID uuid.UUID, roles ...UserRole) GuardResult {
	if user == nil {
		return unauthorizedGuard()
	}

	if user.IsSystemAdmin() {
		return authorized()
	}

	role, ok := user.RoleOn(projectID)
	if !ok {
		return forbidden("Not a member of this project")
	}

	for _, allowed := range roles {
		if role == allowed {
			return authorized()
		}
	}

	return forbidden("Insufficient project role")
}

// RequirePermission resolves a permission through the minimum-role table.
// With a projectID the user's membership role on that project is
// evaluated; without one the same ladder check runs against the user's
// system role. Unknown permissions deny.
func RequirePermission(user *AuthenticatedUser, permission Permission, projectID *uuid.UUID) GuardResult {
	if user == nil {
		return unauthorizedGuard()
	}

	if user.IsSystemAdmin() {
		return authorized()
	}

	minRole, ok := MinimumRole(permission)
	if !ok {
		return forbidden("Unknown permission")
	}

	if projectID == nil {
		if user.SystemRole == nil || !RoleAtLeast(*user.SystemRole, minRole) {
			return forbidden("Insufficient permissions")
		}
		return authorized()
	}

	role, hasRole := user.RoleOn(*projectID)
	if !hasRole {
		return forbidden("Not a member of this project")
	}

	if !RoleAtLeast(role, minRole) {
		return forbidden("Insufficient permissions")
	}

	return authorized()
}
