package model

import (
	"time"

	"gorm.io/datatypes"
)

// Form 管理员定义的反馈表单，字段配置以 JSON 存储
type Form struct {
	ID          uint           `json:"id" gorm:"primarykey"`
	CategoryID  uint           `json:"category_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"size:255;not null"`
	Slug        string         `json:"slug" gorm:"size:255;uniqueIndex"`
	Shortcode   string         `json:"shortcode" gorm:"size:100;uniqueIndex"`
	Description string         `json:"description" gorm:"type:text"`
	FieldConfig datatypes.JSON `json:"field_config"`
	IsActive    bool           `json:"is_active" gorm:"index"`
	SortOrder   int            `json:"sort_order" gorm:"default:0"`
	Version     int            `json:"version" gorm:"default:1"` // 每次保存递增，用于并发编辑检查
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
