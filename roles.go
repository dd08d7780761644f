package auth

// UserRole is a role name, used both system-wide and scoped to a project.
// A defined type so an arbitrary string never passes for a role without an
// explicit conversion.
type UserRole string

const (
	// RoleViewer can read project content
	RoleViewer UserRole = "VIEWER"
	// RoleEditor can read and edit translations
	RoleEditor UserRole = "EDITOR"
	// RoleReviewer can read, edit, and approve translations
	RoleReviewer UserRole = "REVIEWER"
	// RoleAdmin is the most privileged role; as a system role it is the
	// super-role that passes every project and system check
	RoleAdmin UserRole = "ADMIN"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	switch r {
	case RoleViewer, RoleEditor, RoleReviewer, RoleAdmin:
		return true
	default:
		return false
	}
}

// RoleRank returns the position of a role in the strict hierarchy
// VIEWER(1) < EDITOR(2) < REVIEWER(3) < ADMIN(4). Unknown roles rank 0.
func RoleRank(r UserRole) int {
	switch r {
	case RoleViewer:
		return 1
	case RoleEditor:
		return 2
	case RoleReviewer:
		return 3
	case RoleAdmin:
		return 4
	default:
		return 0
	}
}

// RoleAtLeast reports whether role meets the minimum required level.
// Unknown roles never satisfy any requirement, on either side.
func RoleAtLeast(role, minRole UserRole) bool {
	current := RoleRank(role)
	required := RoleRank(minRole)

	if current == 0 || required == 0 {
		return false
	}

	return current >= required
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleViewer,
		RoleEditor,
		RoleReviewer,
		RoleAdmin,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, IsValidRole(role)
}
