package admin

import (
	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/api"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

// userView 去除敏感信息
func userView(user *model.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"nickname":   user.Nickname,
		"email":      user.Email,
		"is_admin":   user.IsAdmin,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	}
}

// GetUsers 获取用户列表
func GetUsers(c *gin.Context) {
	var query types.UserQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		api.BadRequest(c, "Invalid query parameters.")
		return
	}

	users, total, err := service.User.List(&query)
	if err != nil {
		api.Fail(c, err)
		return
	}

	userList := make([]gin.H, 0, len(users))
	for i := range users {
		userList = append(userList, userView(&users[i]))
	}
	api.OK(c, gin.H{
		"total": total,
		"items": userList,
	})
}

func GetUser(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	user, err := service.User.GetProfile(id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, userView(user))
}

func CreateUser(c *gin.Context) {
	var req types.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Invalid user details.")
		return
	}

	user, err := service.User.Create(&req)
	if err != nil {
		api.Fail(c, err)
		return
	}
	api.OK(c, gin.H{"id": user.ID})
}

// UpdateUser 更新用户
func UpdateUser(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	var req types.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BadRequest(c, "Invalid user details.")
		return
	}

	if err := service.User.Update(c.GetUint("userId"), id, &req); err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "User updated.", nil)
}

// DeleteUser 删除用户
func DeleteUser(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}

	if err := service.User.Delete(c.GetUint("userId"), id); err != nil {
		api.Fail(c, err)
		return
	}
	api.OKMsg(c, "User deleted.", nil)
}
