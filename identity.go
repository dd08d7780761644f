package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ProjectRoleAssignment is one project membership in the identity
// projection, with the project name embedded for display.
type ProjectRoleAssignment struct {
	ProjectID   uuid.UUID `json:"project_id"`
	ProjectName string    `json:"project_name"`
	Role        UserRole  `json:"role"`
}

// AuthenticatedUser is the per-request identity every authorization
// decision consumes. It is rebuilt fresh from the session on each request
// and never cached across requests; SystemRole is resolved exactly once so
// every consumer sees the same absence-of-role representation.
type AuthenticatedUser struct {
	ID            uuid.UUID               `json:"id"`
	Email         string                  `json:"email"`
	Name          string                  `json:"name,omitempty"`
	Image         string                  `json:"image,omitempty"`
	EmailVerified bool                    `json:"email_verified"`
	SystemRole    *UserRole               `json:"system_role,omitempty"`
	ProjectRoles  []ProjectRoleAssignment `json:"project_roles,omitempty"`
}

// IsSystemAdmin reports whether the user carries the ADMIN super-role.
func (u *AuthenticatedUser) IsSystemAdmin() bool {
	return u != nil && u.SystemRole != nil && *u.SystemRole == RoleAdmin
}

// RoleOn returns the user's role on a project, if any membership exists.
func (u *AuthenticatedUser) RoleOn(projectID uuid.UUID) (UserRole, bool) {
	if u == nil {
		return "", false
	}
	for _, pr := range u.ProjectRoles {
		if pr.ProjectID == projectID {
			return pr.Role, true
		}
	}
	return "", false
}

// Public returns the client-safe projection.
func (u *AuthenticatedUser) Public() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Image:         u.Image,
		EmailVerified: u.EmailVerified,
	}
}

// IdentityResolver reconstitutes an AuthenticatedUser from a session token
// in a single logical read.
type IdentityResolver struct {
	sessions SessionStore
	logger   Logger
}

// NewIdentityResolver creates a resolver over the session store.
func NewIdentityResolver(sessions SessionStore) *IdentityResolver {
	return &IdentityResolver{
		sessions: sessions,
		logger:   defLogger{},
	}
}

func (r *IdentityResolver) WithLogger(logger Logger) *IdentityResolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Resolve returns the authenticated user for a session token, or nil when
// the token is absent, unknown, or expired. An expired row is deleted
// best-effort on the way out; a failed delete is logged, never surfaced.
// Store failures are the only error path.
func (r *IdentityResolver) Resolve(ctx context.Context, sessionToken string) (*AuthenticatedUser, error) {
	if sessionToken == "" {
		return nil, nil
	}

	session, err := r.sessions.GetByToken(ctx, sessionToken)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load session")
	}

	if session == nil {
		return nil, nil
	}

	if session.Expired(time.Now()) {
		if err := r.sessions.DeleteByToken(ctx, sessionToken); err != nil {
			r.logger.Warn("failed to delete expired session: %v", err)
		}
		return nil, nil
	}

	if session.User == nil {
		r.logger.Error("session %s has no user loaded", session.ID)
		return nil, nil
	}

	return identityFromSession(session), nil
}

// identityFromSession maps the fully loaded session row into the identity
// projection. The projection is always built whole: system role and all
// memberships come from the same read as the user.
func identityFromSession(session *Session) *AuthenticatedUser {
	user := session.User

	identity := &AuthenticatedUser{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		Image:         user.Image,
		EmailVerified: user.EmailVerified,
	}

	if user.SystemRole != nil && user.SystemRole.Role != "" {
		role := user.SystemRole.Role
		identity.SystemRole = &role
	}

	for _, m := range user.Memberships {
		if m == nil {
			continue
		}

		assignment := ProjectRoleAssignment{
			ProjectID: m.ProjectID,
			Role:      m.Role,
		}
		if m.Project != nil {
			assignment.ProjectName = m.Project.Name
		}

		identity.ProjectRoles = append(identity.ProjectRoles, assignment)
	}

	return identity
}
