package service

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/textutil"
	"github.com/DroppedLink/feedback/internal/types"
)

var User = new(UserService)

type UserService struct{}

// List 后台用户列表，按创建时间倒序
func (s *UserService) List(q *types.UserQuery) ([]model.User, int64, error) {
	query := database.DB.Model(&model.User{})

	// 关键字搜索
	if keyword := strings.TrimSpace(q.Keyword); keyword != "" {
		like := "%" + escapeLike(keyword) + "%"
		query = query.Where("(username LIKE ? ESCAPE '!' OR nickname LIKE ? ESCAPE '!' OR email LIKE ? ESCAPE '!')", like, like, like)
	}
	if q.IsAdmin != nil {
		query = query.Where("is_admin = ?", *q.IsAdmin)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, storageFailed("Failed to load users.", err)
	}

	page, size := q.Page, q.Size
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}

	var users []model.User
	if err := query.Order("created_at DESC").Offset((page - 1) * size).Limit(size).Find(&users).Error; err != nil {
		return nil, 0, storageFailed("Failed to load users.", err)
	}
	return users, total, nil
}

// Create 后台创建用户，可直接指定管理员身份
func (s *UserService) Create(req *types.CreateUserRequest) (*model.User, error) {
	user, err := Auth.Register(req.Username, req.Password, req.Nickname, req.Email)
	if err != nil {
		return nil, err
	}
	if req.IsAdmin {
		if err := database.DB.Model(user).Update("is_admin", true).Error; err != nil {
			return nil, storageFailed("Failed to create user.", err)
		}
	}
	return user, nil
}

// Update 后台修改用户；不能取消自己的管理员身份
func (s *UserService) Update(operatorID, id uint, req *types.UpdateUserRequest) error {
	updates := make(map[string]interface{})
	if nickname := textutil.SanitizeText(req.Nickname); nickname != "" {
		updates["nickname"] = nickname
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Password != "" {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return storageFailed("Failed to update user.", err)
		}
		updates["password"] = string(hashedPassword)
	}
	if req.IsAdmin != nil {
		if operatorID == id && !*req.IsAdmin {
			return Validation("You cannot remove your own administrator access.")
		}
		updates["is_admin"] = *req.IsAdmin
	}
	if len(updates) == 0 {
		return Validation("Nothing to update.")
	}

	result := database.DB.Model(&model.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return storageFailed("Failed to update user.", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFound("User not found.")
	}
	return nil
}

// Delete 有反馈记录的用户不能删除
func (s *UserService) Delete(operatorID, id uint) error {
	if operatorID == id {
		return Validation("You cannot delete your own account.")
	}

	var count int64
	if err := database.DB.Model(&model.Submission{}).Where("user_id = ?", id).Count(&count).Error; err != nil {
		return storageFailed("Failed to delete user.", err)
	}
	if count > 0 {
		return Integrity("Cannot delete user with existing submissions.")
	}

	result := database.DB.Delete(&model.User{}, id)
	if result.Error != nil {
		return storageFailed("Failed to delete user.", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFound("User not found.")
	}
	return nil
}

func (s *UserService) GetProfile(userId uint) (*model.User, error) {
	var user model.User
	if err := database.DB.First(&user, userId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("User not found.")
		}
		return nil, storageFailed("Failed to load profile.", err)
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(userId uint, nickname, email string) error {
	updates := make(map[string]interface{})
	if nickname = textutil.SanitizeText(nickname); nickname != "" {
		updates["nickname"] = nickname
	}
	if email != "" {
		updates["email"] = email
	}
	if len(updates) == 0 {
		return Validation("Nothing to update.")
	}

	if err := database.DB.Model(&model.User{}).Where("id = ?", userId).Updates(updates).Error; err != nil {
		return storageFailed("Failed to update profile.", err)
	}
	return nil
}

// GetTokenExpireTime 按配置计算新 token 的过期时间
func (s *UserService) GetTokenExpireTime(userId uint) (int64, error) {
	if config.GlobalConfig == nil {
		return 0, errors.New("配置未初始化")
	}
	expireSeconds := config.GlobalConfig.JWT.ExpireTime
	return time.Now().Add(time.Duration(expireSeconds) * time.Second).Unix(), nil
}
