package model

import "time"

// Attachment 上传文件的元数据，文件内容保存在存储目录
type Attachment struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	UserID      uint      `json:"user_id" gorm:"index"`
	FileName    string    `json:"file_name" gorm:"size:255"`
	StoredName  string    `json:"-" gorm:"size:255;uniqueIndex"`
	ContentType string    `json:"content_type" gorm:"size:128"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}
