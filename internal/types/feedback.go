package types

import "encoding/json"

// SubmitRequest 提交反馈。form_id 与 type 二选一
type SubmitRequest struct {
	FormID       *uint           `json:"form_id" form:"form_id"`
	Type         string          `json:"type" form:"type"`
	ContextID    string          `json:"context_id" form:"context_id"`
	Subject      string          `json:"subject" form:"subject"`
	Message      string          `json:"message" form:"message"`
	Metadata     json.RawMessage `json:"metadata" form:"-"`
	FormData     map[string]any  `json:"form_data" form:"-"`
	AttachmentID *uint           `json:"attachment_id" form:"attachment_id"`
}

// SubmissionQuery 反馈列表筛选条件
type SubmissionQuery struct {
	FormID     uint   `form:"form_id"`
	CategoryID uint   `form:"category_id"`
	Type       string `form:"type"`
	Status     string `form:"status"`
	UserID     uint   `form:"user_id"`
	ContextID  string `form:"context_id"`
	Search     string `form:"search"`
	OrderBy    string `form:"orderby"`
	Order      string `form:"order"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
	Page       int    `form:"page"` // 大于 0 时按 limit 计算 offset
}

type ReplyRequest struct {
	Reply            string `json:"reply"`
	CannedResponseID uint   `json:"canned_response_id"`
}

type StatusRequest struct {
	Status          string `json:"status" binding:"required"`
	ResolutionNotes string `json:"resolution_notes"`
}

// BulkRequest action 为任一状态或 delete
type BulkRequest struct {
	IDs    []uint `json:"ids" binding:"required"`
	Action string `json:"action" binding:"required"`
}

type BulkItemError struct {
	ID  uint   `json:"id"`
	Msg string `json:"msg"`
}

type BulkResult struct {
	Processed int             `json:"processed"`
	Failed    int             `json:"failed"`
	Errors    []BulkItemError `json:"errors"`
}

// ChangelogQuery 已解决缺陷列表
type ChangelogQuery struct {
	Limit     int    `form:"limit"`
	Form      string `form:"form"`     // 表单 shortcode
	Category  string `form:"category"` // 分类 slug
	ContextID string `form:"context_id"`
}
