package auth

// Permission is a named capability checked by RequirePermission. The set is
// closed; a string outside it never matches the minimum-role table.
type Permission string

const (
	PermissionViewProject        Permission = "view_project"
	PermissionEditTranslations   Permission = "edit_translations"
	PermissionReviewTranslations Permission = "review_translations"
	PermissionUseAITranslate     Permission = "use_ai_translate"
	PermissionUploadFiles        Permission = "upload_files"
	PermissionExportFiles        Permission = "export_files"
	PermissionManageMembers      Permission = "manage_members"
	PermissionManageProject      Permission = "manage_project"
	PermissionViewDashboard      Permission = "view_dashboard"
	PermissionManageSystem       Permission = "manage_system"
)

// permissionMinimumRole maps each permission to the least role that grants
// it. A permission missing from the table grants nothing.
var permissionMinimumRole = map[Permission]UserRole{
	PermissionViewProject:        RoleViewer,
	PermissionViewDashboard:      RoleViewer,
	PermissionExportFiles:        RoleViewer,
	PermissionEditTranslations:   RoleEditor,
	PermissionUseAITranslate:     RoleEditor,
	PermissionUploadFiles:        RoleEditor,
	PermissionReviewTranslations: RoleReviewer,
	PermissionManageMembers:      RoleReviewer,
	PermissionManageProject:      RoleAdmin,
	PermissionManageSystem:       RoleAdmin,
}

// MinimumRole returns the least role that grants the permission.
func MinimumRole(p Permission) (UserRole, bool) {
	role, ok := permissionMinimumRole[p]
	return role, ok
}

// RoleGrantsPermission reports whether a role grants the named permission.
// Unknown permissions and unknown roles always deny.
func RoleGrantsPermission(role UserRole, p Permission) bool {
	minRole, ok := permissionMinimumRole[p]
	if !ok {
		return false
	}
	return RoleAtLeast(role, minRole)
}

// AllPermissions returns the closed permission set.
func AllPermissions() []Permission {
	return []Permission{
		PermissionViewProject,
		PermissionEditTranslations,
		PermissionReviewTranslations,
		PermissionUseAITranslate,
		PermissionUploadFiles,
		PermissionExportFiles,
		PermissionManageMembers,
		PermissionManageProject,
		PermissionViewDashboard,
		PermissionManageSystem,
	}
}
