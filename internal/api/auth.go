package api

import (
	"github.com/gin-gonic/gin"

	"github.com/DroppedLink/feedback/internal/service"
	"github.com/DroppedLink/feedback/internal/types"
)

func Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Username and password are required.")
		return
	}

	token, user, err := service.Auth.Login(req.Username, req.Password)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"nickname": user.Nickname,
			"is_admin": user.IsAdmin,
		},
	})
}

func Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid registration details.")
		return
	}

	user, err := service.Auth.Register(req.Username, req.Password, req.Nickname, req.Email)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"nickname": user.Nickname,
	})
}
