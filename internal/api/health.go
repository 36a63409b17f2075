package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/pkg/database"
)

var errNoDatabase = errors.New("database not initialized")

// SimpleHealthCheck 检查数据库连接，供容器和负载均衡器探活
func SimpleHealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := pingDB(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unavailable",
			"database": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
	})
}

func pingDB(ctx context.Context) error {
	if database.DB == nil {
		return errNoDatabase
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
