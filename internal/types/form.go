package types

import (
	"encoding/json"

	"github.com/DroppedLink/feedback/internal/pkg/formschema"
)

type CategoryRequest struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// FormRequest 保存表单。Version 非 0 时检查是否被他人修改
type FormRequest struct {
	ID          uint            `json:"id"`
	CategoryID  uint            `json:"category_id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Shortcode   string          `json:"shortcode"`
	Description string          `json:"description"`
	FieldConfig json.RawMessage `json:"field_config"`
	IsActive    *bool           `json:"is_active"`
	SortOrder   int             `json:"sort_order"`
	Version     int             `json:"version"`
}

type FieldOpsRequest struct {
	Ops     []formschema.Op `json:"ops" binding:"required"`
	Version int             `json:"version"`
}

type CannedRequest struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}
