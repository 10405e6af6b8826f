package model

import "strings"

// Role is the closed set of user roles.
type Role string

const (
	RoleTaker      Role = "TAKER"
	RoleOrgAdmin   Role = "ORG_ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// AllRoles is a slice of all valid roles.
var AllRoles = []Role{RoleTaker, RoleOrgAdmin, RoleSuperAdmin}

// ParseRole normalizes an external role representation into the canonical
// enum. Older clients sent roles in assorted casings ("admin", "orgadmin",
// "superadmin"), so matching is case- and separator-insensitive.
func ParseRole(raw string) (Role, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)

	switch normalized {
	case "TAKER", "TEST_TAKER", "STUDENT", "USER":
		return RoleTaker, true
	case "ORG_ADMIN", "ORGADMIN", "ADMIN":
		return RoleOrgAdmin, true
	case "SUPER_ADMIN", "SUPERADMIN":
		return RoleSuperAdmin, true
	}
	return "", false
}

// Valid reports whether the role is one of the canonical constants.
func (r Role) Valid() bool {
	switch r {
	case RoleTaker, RoleOrgAdmin, RoleSuperAdmin:
		return true
	}
	return false
}
