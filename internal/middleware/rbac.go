package middleware

import (
	"net/http"

	"github.com/examhall/examhall-backend/internal/accessgate"
	"github.com/examhall/examhall-backend/internal/model"
	"github.com/examhall/examhall-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// RequireRoles gates a route group to the given roles. Denials carry a
// redirect target (login page or the caller's role home) so the client can
// navigate silently instead of rendering an error page.
func RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := accessgate.Session{}
		if claims := GetClaims(c); claims != nil {
			sess = accessgate.Session{
				UserID:        claims.UserID,
				Role:          claims.Role,
				Authenticated: true,
			}
		}

		decision := accessgate.Evaluate(sess, accessgate.RouteRequirement{
			Path:         c.FullPath(),
			AllowedRoles: roles,
		})
		if decision.Allowed() {
			c.Next()
			return
		}

		if !sess.Authenticated {
			response.AbortRedirect(c, http.StatusUnauthorized, response.ErrLoginRequired, decision.Target)
			return
		}
		response.AbortRedirect(c, http.StatusForbidden, response.ErrWrongRole, decision.Target)
	}
}
