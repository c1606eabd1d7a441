package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"venuebook/internal/pkg/response"
)

// RequireRole lets the request through when the token role is one of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			response.Error(c, http.StatusUnauthorized, "auth", "role not found in token")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Error(c, http.StatusForbidden, "permission", "insufficient role for this venue")
			c.Abort()
			return
		}
		c.Next()
	}
}
