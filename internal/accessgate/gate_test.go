package accessgate

import (
	"testing"

	"github.com/examhall/examhall-backend/internal/model"
)

func TestEvaluateUnauthenticated(t *testing.T) {
	// The unauthenticated check runs before any role inspection, so even a
	// session carrying a (stale) role field goes to login.
	for _, req := range Routes {
		decision := Evaluate(Session{Role: model.RoleSuperAdmin}, req)
		if decision.Allowed() {
			t.Errorf("path %s: unauthenticated session was allowed", req.Path)
			continue
		}
		if decision.Target != PathLogin {
			t.Errorf("path %s: expected redirect to %s, got %s", req.Path, PathLogin, decision.Target)
		}
	}
}

func TestEvaluateMatchingRole(t *testing.T) {
	cases := []struct {
		role model.Role
		path string
	}{
		{model.RoleTaker, PathTakerExams},
		{model.RoleOrgAdmin, PathExamManagement},
		{model.RoleOrgAdmin, PathUserManagement},
		{model.RoleSuperAdmin, PathAdminManagement},
		{model.RoleSuperAdmin, PathOrgManagement},
	}

	for _, tc := range cases {
		sess := Session{UserID: 1, Role: tc.role, Authenticated: true}
		decision := Evaluate(sess, RequirementFor(tc.path))
		if !decision.Allowed() {
			t.Errorf("role %s at %s: expected allow, got redirect to %s", tc.role, tc.path, decision.Target)
		}
	}
}

func TestEvaluateWrongRoleRedirectsHome(t *testing.T) {
	// A wrong-role session is sent to its own role home, never back to the
	// requested path, so redirect chains terminate after one hop.
	cases := []struct {
		role model.Role
		path string
		home string
	}{
		{model.RoleTaker, PathExamManagement, PathTakerExams},
		{model.RoleTaker, PathAdminManagement, PathTakerExams},
		{model.RoleOrgAdmin, PathTakerExams, PathExamManagement},
		{model.RoleOrgAdmin, PathOrgManagement, PathExamManagement},
		{model.RoleSuperAdmin, PathTakerExams, PathAdminManagement},
		{model.RoleSuperAdmin, PathExamManagement, PathAdminManagement},
	}

	for _, tc := range cases {
		sess := Session{UserID: 1, Role: tc.role, Authenticated: true}
		decision := Evaluate(sess, RequirementFor(tc.path))
		if decision.Allowed() {
			t.Errorf("role %s at %s: expected redirect", tc.role, tc.path)
			continue
		}
		if decision.Target != tc.home {
			t.Errorf("role %s at %s: expected redirect to %s, got %s", tc.role, tc.path, tc.home, decision.Target)
		}
		if decision.Target == tc.path {
			t.Errorf("role %s at %s: redirect loops back to requested path", tc.role, tc.path)
		}
	}
}

func TestEvaluateUnrestrictedPath(t *testing.T) {
	for _, role := range model.AllRoles {
		sess := Session{UserID: 1, Role: role, Authenticated: true}
		decision := Evaluate(sess, RequirementFor(PathLanding))
		if !decision.Allowed() {
			t.Errorf("role %s at %s: expected allow", role, PathLanding)
		}
	}
}

func TestEvaluateUnknownPathIsUnrestricted(t *testing.T) {
	sess := Session{UserID: 1, Role: model.RoleTaker, Authenticated: true}
	decision := Evaluate(sess, RequirementFor("/no-such-view"))
	if !decision.Allowed() {
		t.Errorf("unknown path: expected allow, got redirect to %s", decision.Target)
	}
}

func TestRoleHomeIsTotal(t *testing.T) {
	for _, role := range model.AllRoles {
		if RoleHome(role) == "" {
			t.Errorf("role %s has no home", role)
		}
	}
	if home := RoleHome(model.Role("BOGUS")); home != PathLanding {
		t.Errorf("unmapped role: expected %s, got %s", PathLanding, home)
	}
}

func TestRoleHomesAreDistinct(t *testing.T) {
	seen := make(map[string]model.Role)
	for _, role := range model.AllRoles {
		home := RoleHome(role)
		if prev, ok := seen[home]; ok {
			t.Errorf("roles %s and %s share home %s", prev, role, home)
		}
		seen[home] = role
	}
}
