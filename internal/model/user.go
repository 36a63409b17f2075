package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `json:"id" gorm:"primarykey"`
	Username  string         `json:"username" gorm:"size:64;uniqueIndex"`
	Password  string         `json:"-" gorm:"size:64"`
	Nickname  string         `json:"nickname" gorm:"size:64"`
	Email     string         `json:"email" gorm:"size:128"`
	IsAdmin   bool           `json:"is_admin" gorm:"default:false"` // 是否是管理员
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// DisplayName 优先昵称，其次用户名
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}
