package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neha-5456/kaagjee/internal/modules/users"
)

const ctxKeyUser = "current_user"

// Session resolves the Authorization bearer token into a user. It never
// rejects by itself; RequireAuth/RequireAdmin gate the protected routes.
func Session(us *users.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		if u, ok := us.Resolve(c.Request.Context(), token); ok {
			c.Set(ctxKeyUser, u)
		}
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":      "authentication required",
			"request_id": GetRequestID(c),
		})
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "authentication required",
				"request_id": GetRequestID(c),
			})
			return
		}
		if u.Role != users.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "admin access required",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (users.User, bool) {
	v, ok := c.Get(ctxKeyUser)
	if !ok {
		return users.User{}, false
	}
	u, ok := v.(users.User)
	return u, ok
}

// SetCurrentUser injects a user directly; used by handler tests.
func SetCurrentUser(c *gin.Context, u users.User) {
	c.Set(ctxKeyUser, u)
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
