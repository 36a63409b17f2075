package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/model"
)

// AdminAuth 管理员认证中间件，需放在 JWT 之后
func AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get("user")
		if !exists {
			abort(c, http.StatusUnauthorized, "You must be logged in.")
			return
		}

		user, ok := v.(model.User)
		if !ok || !user.IsAdmin {
			abort(c, http.StatusForbidden, "Insufficient permissions.")
			return
		}

		c.Set("admin_user", user)
		c.Next()
	}
}
