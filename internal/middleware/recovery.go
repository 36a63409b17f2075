package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DroppedLink/feedback/internal/pkg/logger"
)

// Recovery 捕获 panic，返回统一的错误结构
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.L().Error("panic recovered",
			zap.Any("panic", recovered),
			zap.String("uri", c.Request.RequestURI),
			zap.Stack("stack"))
		abort(c, http.StatusInternalServerError, "Internal server error.")
	})
}
