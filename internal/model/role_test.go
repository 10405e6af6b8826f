package model

import "testing"

func TestParseRole(t *testing.T) {
	cases := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"TAKER", RoleTaker, true},
		{"taker", RoleTaker, true},
		{" student ", RoleTaker, true},
		{"test-taker", RoleTaker, true},
		{"ORG_ADMIN", RoleOrgAdmin, true},
		{"orgadmin", RoleOrgAdmin, true},
		{"Admin", RoleOrgAdmin, true},
		{"org admin", RoleOrgAdmin, true},
		{"SUPER_ADMIN", RoleSuperAdmin, true},
		{"superadmin", RoleSuperAdmin, true},
		{"super-admin", RoleSuperAdmin, true},
		{"", "", false},
		{"root", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseRole(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range AllRoles {
		if !role.Valid() {
			t.Errorf("role %s reported invalid", role)
		}
	}
	if Role("GUEST").Valid() {
		t.Error("unknown role reported valid")
	}
}
