package admin

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

// Login 管理员登录
func Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Username and password are required.")
		return
	}

	token, user, err := service.Auth.AdminLogin(c.Request.Context(), service.LoginAttempt{
		Username:  req.Username,
		Password:  req.Password,
		IP:        c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		api.Fail(c, err)
		return
	}

	api.OK(c, gin.H{
		"token": token,
		"user":  userView(user),
	})
}

// GetLoginLogs 获取管理员登录日志
func GetLoginLogs(c *gin.Context) {
	page, size := api.Page(c, 10, 100)
	query := service.LoginLogQuery{
		Username: c.Query("username"),
		Status:   c.Query("status"),
		Page:     page,
		Size:     size,
	}

	// 时间范围过滤，格式错误时忽略
	if s := c.Query("start_time"); s != "" {
		if start, err := time.ParseInLocation(timeLayout, s, time.Local); err == nil {
			query.Start = &start
		}
	}
	if s := c.Query("end_time"); s != "" {
		if end, err := time.ParseInLocation(timeLayout, s, time.Local); err == nil {
			query.End = &end
		}
	}

	logs, total, err := service.Auth.LoginLogs(c.Request.Context(), query)
	if err != nil {
		api.Fail(c, err)
		return
	}

	api.OK(c, gin.H{
		"total": total,
		"items": logs,
	})
}
