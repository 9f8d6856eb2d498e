package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tashmeduni/navbat-back/internal/config"
	"github.com/tashmeduni/navbat-back/internal/respond"
)

const identityKey = "identity"

// Middleware validates the bearer token and attaches the Identity to the
// request context. Auth failures are always 401 so the client knows to
// re-authenticate; business rejections elsewhere never use that status.
func Middleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Fail(c, http.StatusUnauthorized, "Missing Authorization header")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respond.Fail(c, http.StatusUnauthorized, "Invalid Authorization header")
			c.Abort()
			return
		}

		id, err := ParseToken(cfg, parts[1], false)
		if err != nil {
			respond.Fail(c, http.StatusUnauthorized, "Invalid token")
			c.Abort()
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated identity has the role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := FromContext(c)
		if !ok || id.Role != role {
			respond.Fail(c, http.StatusForbidden, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// FromContext recovers the identity set by Middleware.
func FromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}
