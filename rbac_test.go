package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	auth "github.com/lingopad/go-auth"
)

func userWithProjectRole(projectID uuid.UUID, role auth.UserRole) *auth.AuthenticatedUser {
	return &auth.AuthenticatedUser{
		ID:    uuid.New(),
		Email: "member@example.com",
		ProjectRoles: []auth.ProjectRoleAssignment{
			{ProjectID: projectID, ProjectName: "docs", Role: role},
		},
	}
}

func systemAdmin() *auth.AuthenticatedUser {
	role := auth.RoleAdmin
	return &auth.AuthenticatedUser{
		ID:         uuid.New(),
		Email:      "admin@example.com",
		SystemRole: &role,
	}
}

func TestRequireAuthenticated(t *testing.T) {
	result := auth.RequireAuthenticated(nil)
	assert.False(t, result.Authenticated)
	assert.Equal(t, 401, result.StatusCode)

	result = auth.RequireAuthenticated(&auth.AuthenticatedUser{ID: uuid.New()})
	assert.True(t, result.Authenticated)
	assert.Empty(t, result.Error)
}

func TestHasSystemRole(t *testing.T) {
	admin := systemAdmin()

	assert.True(t, auth.HasSystemRole(admin, auth.RoleAdmin).Authorized)

	// Exact match only: ADMIN does not satisfy a check for a different
	// system role through hierarchy.
	result := auth.HasSystemRole(admin, auth.RoleEditor)
	assert.False(t, result.Authorized)
	assert.Equal(t, 403, result.StatusCode)

	noRole := &auth.AuthenticatedUser{ID: uuid.New()}
	assert.False(t, auth.HasSystemRole(noRole, auth.RoleAdmin).Authorized)

	assert.Equal(t, 401, auth.HasSystemRole(nil, auth.RoleAdmin).StatusCode)
}

func TestRequireProjectRoleHierarchy(t *testing.T) {
	projectID := uuid.New()

	tests := []struct {
		name    string
		role    auth.UserRole
		minRole auth.UserRole
		want    bool
	}{
		{"Exact role passes", auth.RoleEditor, auth.RoleEditor, true},
		{"Higher role passes", auth.RoleReviewer, auth.RoleEditor, true},
		{"Lower role fails", auth.RoleViewer, auth.RoleEditor, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := userWithProjectRole(projectID, tt.role)
			result := auth.RequireProjectRole(user, projectID, tt.minRole)
			assert.Equal(t, tt.want, result.Authorized)
		})
	}
}

func TestRequireProjectRoleNonMember(t *testing.T) {
	user := userWithProjectRole(uuid.New(), auth.RoleAdmin)

	result := auth.RequireProjectRole(user, uuid.New(), auth.RoleViewer)
	assert.False(t, result.Authorized)
	assert.Equal(t, 403, result.StatusCode)
}

func TestSystemAdminOverridesEverything(t *testing.T) {
	// Zero memberships; the system role alone carries every check.
	admin := systemAdmin()
	projectID := uuid.New()

	assert.True(t, auth.RequireProjectRole(admin, projectID, auth.RoleAdmin).Authorized)
	assert.True(t, auth.RequireAnyProjectRole(admin, projectID, auth.RoleEditor).Authorized)

	for _, p := range auth.AllPermissions() {
		assert.True(t, auth.RequirePermission(admin, p, &projectID).Authorized, "permission %s", p)
		assert.True(t, auth.RequirePermission(admin, p, nil).Authorized, "permission %s no project", p)
	}
}

func TestRequireAnyProjectRoleExactSet(t *testing.T) {
	projectID := uuid.New()

	// REVIEWER outranks EDITOR on the ladder, but the set check is exact:
	// listing EDITOR does not admit a REVIEWER.
	reviewer := userWithProjectRole(projectID, auth.RoleReviewer)
	result := auth.RequireAnyProjectRole(reviewer, projectID, auth.RoleEditor)
	assert.False(t, result.Authorized)

	editor := userWithProjectRole(projectID, auth.RoleEditor)
	assert.True(t, auth.RequireAnyProjectRole(editor, projectID, auth.RoleEditor).Authorized)

	assert.True(t, auth.RequireAnyProjectRole(reviewer, projectID, auth.RoleEditor, auth.RoleReviewer).Authorized)

	outsider := userWithProjectRole(uuid.New(), auth.RoleReviewer)
	assert.False(t, auth.RequireAnyProjectRole(outsider, projectID, auth.RoleReviewer).Authorized)
}

func TestRequirePermission(t *testing.T) {
	projectID := uuid.New()

	t.Run("Viewer denied AI translate", func(t *testing.T) {
		viewer := userWithProjectRole(projectID, auth.RoleViewer)
		result := auth.RequirePermission(viewer, auth.PermissionUseAITranslate, &projectID)
		assert.False(t, result.Authorized)
		assert.Equal(t, 403, result.StatusCode)
	})

	t.Run("Editor granted AI translate", func(t *testing.T) {
		editor := userWithProjectRole(projectID, auth.RoleEditor)
		result := auth.RequirePermission(editor, auth.PermissionUseAITranslate, &projectID)
		assert.True(t, result.Authorized)
	})

	t.Run("Non member denied", func(t *testing.T) {
		editor := userWithProjectRole(uuid.New(), auth.RoleEditor)
		result := auth.RequirePermission(editor, auth.PermissionViewProject, &projectID)
		assert.False(t, result.Authorized)
	})

	t.Run("System scope checks system role against the ladder", func(t *testing.T) {
		role := auth.RoleReviewer
		reviewer := &auth.AuthenticatedUser{
			ID:         uuid.New(),
			Email:      "reviewer@example.com",
			SystemRole: &role,
		}

		assert.True(t, auth.RequirePermission(reviewer, auth.PermissionReviewTranslations, nil).Authorized)
		assert.True(t, auth.RequirePermission(reviewer, auth.PermissionEditTranslations, nil).Authorized)

		result := auth.RequirePermission(reviewer, auth.PermissionManageSystem, nil)
		assert.False(t, result.Authorized)
		assert.Equal(t, 403, result.StatusCode)
	})

	t.Run("System scope ignores project memberships", func(t *testing.T) {
		// A project EDITOR with no system role gets nothing at system scope.
		editor := userWithProjectRole(projectID, auth.RoleEditor)
		result := auth.RequirePermission(editor, auth.PermissionViewProject, nil)
		assert.False(t, result.Authorized)
		assert.Equal(t, 403, result.StatusCode)
	})

	t.Run("Unknown permission denied", func(t *testing.T) {
		editor := userWithProjectRole(projectID, auth.RoleEditor)
		result := auth.RequirePermission(editor, auth.Permission("made_up"), &projectID)
		assert.False(t, result.Authorized)
	})

	t.Run("Nil user unauthorized", func(t *testing.T) {
		result := auth.RequirePermission(nil, auth.PermissionViewProject, &projectID)
		assert.False(t, result.Authorized)
		assert.Equal(t, 401, result.StatusCode)
	})
}

func TestRoleOn(t *testing.T) {
	projectID := uuid.New()
	user := userWithProjectRole(projectID, auth.RoleReviewer)

	role, ok := user.RoleOn(projectID)
	assert.True(t, ok)
	assert.Equal(t, auth.RoleReviewer, role)

	_, ok = user.RoleOn(uuid.New())
	assert.False(t, ok)
}
