package accessgate

import "github.com/examhall/examhall-backend/internal/model"

// View paths. These are the client-side destinations the gate redirects to;
// the API router mirrors the same role boundaries per route group.
const (
	PathLanding         = "/"
	PathLogin           = "/login"
	PathTakerExams      = "/exams"
	PathExamManagement  = "/manage/exams"
	PathAdminManagement = "/manage/admins"
	PathOrgManagement   = "/manage/orgs"
	PathUserManagement  = "/manage/users"
)

// Routes is the static requirement table. Changing who may enter a view is a
// configuration change here, not a gate behavior change.
var Routes = []RouteRequirement{
	{Path: PathLanding},
	{Path: PathLogin},
	{Path: PathTakerExams, AllowedRoles: []model.Role{model.RoleTaker}},
	{Path: PathExamManagement, AllowedRoles: []model.Role{model.RoleOrgAdmin}},
	{Path: PathUserManagement, AllowedRoles: []model.Role{model.RoleOrgAdmin}},
	{Path: PathAdminManagement, AllowedRoles: []model.Role{model.RoleSuperAdmin}},
	{Path: PathOrgManagement, AllowedRoles: []model.Role{model.RoleSuperAdmin}},
}

// RequirementFor looks up the requirement for a path. Unknown paths are
// unrestricted beyond authentication.
func RequirementFor(path string) RouteRequirement {
	for _, r := range Routes {
		if r.Path == path {
			return r
		}
	}
	return RouteRequirement{Path: path}
}
