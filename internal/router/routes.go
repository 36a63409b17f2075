package router

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/api/admin"
	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/middleware"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine, upload config.UploadConfig) {
	// 健康检查接口（不需要任何中间件）
	r.GET("/api/v1/health", api.SimpleHealthCheck)

	// 附件使用本地目录时直接提供静态访问
	if upload.IsEnabled() && strings.HasPrefix(upload.BaseURL, "/") && upload.Dir != "" {
		r.Static(upload.BaseURL, upload.Dir)
	}

	setupAPIRoutes(r)
	setupAdminAPIRoutes(r)
}

// setupAPIRoutes 设置用户API路由
func setupAPIRoutes(r *gin.Engine) {
	apiGroup := r.Group("/api/v1")
	apiGroup.Use(middleware.Cors())

	auth := apiGroup.Group("/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/register", api.Register)
	}

	// 公开内容：表单片段、表单定义和更新日志
	forms := apiGroup.Group("/forms")
	{
		forms.GET("/:shortcode", api.GetFormDefinition)
		forms.GET("/:shortcode/render", api.RenderForm)
	}
	apiGroup.GET("/changelog", api.GetChangelog)
	apiGroup.GET("/changelog/html", api.GetChangelogHTML)

	// 需要认证的路由
	authorized := apiGroup.Group("/")
	authorized.Use(middleware.JWT())
	{
		user := authorized.Group("/user")
		{
			user.GET("/profile", api.GetUserProfile)
			user.PUT("/profile/update", api.UpdateUserProfile)
			user.GET("/token/expire-time", api.GetTokenExpireTime)
			user.GET("/feedback", api.GetUserFeedbacks) // 获取用户的反馈列表
		}

		feedback := authorized.Group("/feedback")
		{
			feedback.POST("/submit", api.SubmitFeedback)
			feedback.POST("/attachments", api.UploadAttachment)
			feedback.GET("/attachments/:id", api.GetAttachment)
		}
	}
}

func setupAdminAPIRoutes(r *gin.Engine) {
	adminGroup := r.Group("/api/v1/admin")
	adminGroup.Use(middleware.Cors())

	adminGroup.POST("/login", admin.Login)

	authorized := adminGroup.Group("/")
	authorized.Use(middleware.JWT())
	authorized.Use(middleware.AdminAuth())
	{
		profile := authorized.Group("/profile")
		{
			profile.GET("", admin.GetAdminProfile)    // 获取当前管理员信息
			profile.PUT("", admin.UpdateAdminProfile) // 更新当前管理员信息
		}

		system := authorized.Group("/system")
		{
			system.GET("/login-logs", admin.GetLoginLogs)           // 获取登录日志
			system.GET("/feedback-counts", admin.GetFeedbackCounts) // 按状态和类型统计
			system.GET("/feedback-trend", admin.GetFeedbackTrend)   // 按时间统计
		}

		users := authorized.Group("/users")
		{
			users.GET("", admin.GetUsers)          // 获取用户列表
			users.GET("/:id", admin.GetUser)       // 获取单个用户
			users.POST("", admin.CreateUser)       // 创建用户
			users.PUT("/:id", admin.UpdateUser)    // 更新用户
			users.DELETE("/:id", admin.DeleteUser) // 删除用户
		}

		feedback := authorized.Group("/feedback")
		{
			feedback.GET("", admin.GetAllFeedbacks)
			feedback.GET("/export", admin.ExportFeedbacks)
			feedback.POST("/bulk", admin.BulkFeedback)
			feedback.GET("/:id", admin.GetFeedback)
			feedback.GET("/:id/attachment", admin.GetFeedbackAttachment)
			feedback.POST("/:id/reply", admin.ReplyFeedback)
			feedback.PUT("/:id/status", admin.UpdateFeedbackStatus)
			feedback.DELETE("/:id", admin.DeleteFeedback)
		}

		categories := authorized.Group("/categories")
		{
			categories.GET("", admin.GetCategories)
			categories.GET("/:id", admin.GetCategory)
			categories.GET("/:id/forms", admin.GetFormsByCategory)
			categories.POST("", admin.SaveCategory)
			categories.PUT("/:id", admin.SaveCategory)
			categories.DELETE("/:id", admin.DeleteCategory)
		}

		forms := authorized.Group("/forms")
		{
			forms.GET("", admin.GetForms)
			forms.GET("/:id", admin.GetForm)
			forms.POST("", admin.SaveForm)
			forms.PUT("/:id", admin.SaveForm)
			forms.POST("/:id/fields", admin.ApplyFormFieldOps)
			forms.DELETE("/:id", admin.DeleteForm)
		}

		canned := authorized.Group("/canned-responses")
		{
			canned.GET("", admin.GetCannedResponses)
			canned.GET("/:id", admin.GetCannedResponse)
			canned.POST("", admin.SaveCannedResponse)
			canned.PUT("/:id", admin.SaveCannedResponse)
			canned.DELETE("/:id", admin.DeleteCannedResponse)
		}
	}
}
