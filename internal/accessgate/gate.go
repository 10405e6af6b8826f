// Package accessgate decides render-or-redirect for a requested view given
// the current session and the view's role requirement. It holds no mutable
// state; Evaluate is a pure function so the routing layer can call it on
// every navigation without locking.
package accessgate

import (
	"github.com/examhall/examhall-backend/internal/model"
)

// Session is an immutable snapshot of the authentication state, produced by
// the auth layer from validated claims. The gate never inspects credentials.
type Session struct {
	UserID        int
	Role          model.Role
	Authenticated bool
}

// RouteRequirement declares which roles may enter a route.
// A nil AllowedRoles means the route is unrestricted.
type RouteRequirement struct {
	Path         string
	AllowedRoles []model.Role
}

// Unrestricted reports whether any authenticated session may enter.
func (r RouteRequirement) Unrestricted() bool {
	return len(r.AllowedRoles) == 0
}

// DecisionKind tags the outcome of an access evaluation.
type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionRedirect
)

// Decision is the outcome of Evaluate: either render the requested view or
// redirect the session to Target.
type Decision struct {
	Kind   DecisionKind
	Target string
}

// Allowed is a convenience accessor for Kind == DecisionAllow.
func (d Decision) Allowed() bool {
	return d.Kind == DecisionAllow
}

// Evaluate decides whether a session may enter a route. The unauthenticated
// check runs before any role check; a wrong-role session is sent to its role
// home, never back to the requested path, so redirects cannot loop.
//
// Callers must only invoke Evaluate once session resolution is complete; a
// session still being resolved should render a loading placeholder instead.
func Evaluate(session Session, requirement RouteRequirement) Decision {
	if !session.Authenticated {
		return Decision{Kind: DecisionRedirect, Target: PathLogin}
	}

	if requirement.Unrestricted() {
		return Decision{Kind: DecisionAllow}
	}

	for _, role := range requirement.AllowedRoles {
		if session.Role == role {
			return Decision{Kind: DecisionAllow}
		}
	}

	return Decision{Kind: DecisionRedirect, Target: RoleHome(session.Role)}
}

// RoleHome maps a role to its default landing view. The mapping is total:
// an unmapped role falls back to the default landing page so a denied
// session always has somewhere to go.
func RoleHome(role model.Role) string {
	switch role {
	case model.RoleTaker:
		return PathTakerExams
	case model.RoleOrgAdmin:
		return PathExamManagement
	case model.RoleSuperAdmin:
		return PathAdminManagement
	}
	return PathLanding
}
