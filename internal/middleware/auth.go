package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"venuebook/internal/pkg/jwt"
	"venuebook/internal/pkg/response"
)

const (
	CtxUserID   = "user_id"
	CtxTenantID = "tenant_id"
	CtxRole     = "role"
)

// TokenValidator is satisfied by *jwt.Service.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// JWTAuth puts user_id, tenant_id and role from a bearer token into the
// request context. The tenant is only ever taken from the token.
func JWTAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			abortAuth(c, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}
		if !strings.HasPrefix(h, "Bearer ") {
			abortAuth(c, "INVALID_AUTH_FORMAT", "Authorization header must be a bearer token")
			return
		}

		tokenStr := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		if tokenStr == "" {
			abortAuth(c, "INVALID_AUTH_FORMAT", "Empty token")
			return
		}

		claims, err := tokens.ValidateToken(tokenStr)
		if err != nil {
			_ = c.Error(err)
			if errors.Is(err, jwt.ErrInvalidToken) {
				abortAuth(c, "INVALID_TOKEN", "Invalid or expired token")
				return
			}
			abortAuth(c, "INVALID_TOKEN", "Token could not be verified")
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxTenantID, claims.TenantID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

func abortAuth(c *gin.Context, code, message string) {
	response.ErrorWithDetails(c, http.StatusUnauthorized, "auth", message, gin.H{"code": code})
	c.Abort()
}
