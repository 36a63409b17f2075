package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

// UpdateProfileRequest 更新个人信息请求，管理员身份不能在这里修改
type UpdateProfileRequest struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

// GetAdminProfile 获取当前管理员个人信息
func GetAdminProfile(c *gin.Context) {
	adminID := c.GetUint("userId")

	user, err := service.User.GetProfile(adminID)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, userView(user))
}

// UpdateAdminProfile 更新当前管理员个人信息
func UpdateAdminProfile(c *gin.Context) {
	adminID := c.GetUint("userId")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Invalid profile details.")
		return
	}

	err := service.User.Update(adminID, adminID, &types.UpdateUserRequest{
		Nickname: req.Nickname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "Profile updated.", nil)
}
