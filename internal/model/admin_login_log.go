package model

import "time"

// AdminLoginLog 后台登录审计记录
type AdminLoginLog struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	Username   string    `json:"username" gorm:"size:64;index"`
	IP         string    `json:"ip" gorm:"size:64"`
	UserAgent  string    `json:"user_agent" gorm:"size:255"`
	IsSuccess  bool      `json:"is_success" gorm:"default:false"`
	FailReason string    `json:"fail_reason" gorm:"size:255"` // 成功时为空
	LoginTime  time.Time `json:"login_time" gorm:"index"`
}
