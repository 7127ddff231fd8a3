package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_admin/internal/auth"
	"github.com/GTDGit/gtd_admin/internal/utils"
)

// RequirePermission gates a route group. An empty permission admits any
// admin. Must run after AuthMiddleware.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := auth.Guard(GetIdentity(c), permission)
		switch decision {
		case auth.Allow:
			c.Next()
			return
		case auth.SignIn:
			utils.Redirect(c, http.StatusUnauthorized, "UNAUTHENTICATED", "Sign in required", decision.Redirect())
		case auth.Unauthorized:
			utils.Redirect(c, http.StatusForbidden, "NOT_ADMIN", "Admin access required", decision.Redirect())
		default:
			utils.Redirect(c, http.StatusForbidden, "MISSING_PERMISSION", "Missing permission: "+permission, decision.Redirect())
		}
		c.Abort()
	}
}
