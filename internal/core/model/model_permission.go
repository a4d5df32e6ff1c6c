package model

// RolePermissions maps each org role to its permission strings. Permissions
// are namespaced "resource:action". The map is the single source of truth;
// nothing outside the authorization guard should consult it directly.
var RolePermissions = map[string][]string{
	OrgRoleOwner: {
		"org:read",
		"org:write",
		"member:read",
		"member:write",
		"billing:read",
		"billing:write",
		"audit:read",
		"feature_flag:read",
		"feature_flag:write",
		"usage:read",
		"usage:write",
		"api_key:read",
		"api_key:write",
		"webhook:read",
		"webhook:write",
		"cms:read",
		"cms:write",
		"crm:read",
		"crm:write",
		"support:read",
		"support:write",
	},
	OrgRoleAdmin: {
		"org:read",
		"org:write",
		"member:read",
		"member:write",
		"billing:read",
		"audit:read",
		"feature_flag:read",
		"feature_flag:write",
		"usage:read",
		"usage:write",
		"api_key:read",
		"api_key:write",
		"webhook:read",
		"webhook:write",
		"cms:read",
		"cms:write",
		"crm:read",
		"crm:write",
		"support:read",
		"support:write",
	},
	OrgRoleStaff: {
		"org:read",
		"member:read",
		"cms:read",
		"cms:write",
		"crm:read",
		"crm:write",
		"support:read",
		"support:write",
	},
	OrgRoleMember: {
		"org:read",
		"member:read",
		"billing:read",
		"audit:read",
		"feature_flag:read",
		"usage:read",
		"api_key:read",
		"webhook:read",
	},
}

// HasPermission reports whether role grants permission. Unknown roles and
// unknown permissions deny.
func HasPermission(role, permission string) bool {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

// PermissionsForRole returns the permission list for role, empty for
// unknown roles.
func PermissionsForRole(role string) []string {
	perms := RolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
