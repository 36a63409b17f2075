package model

import (
	"time"

	"gorm.io/datatypes"
)

type SubmissionType string

const (
	TypeComment SubmissionType = "comment"
	TypeBug     SubmissionType = "bug"
)

func (t SubmissionType) Valid() bool {
	return t == TypeComment || t == TypeBug
}

// Label 邮件和导出中使用的类型名称
func (t SubmissionType) Label() string {
	if t == TypeBug {
		return "Bug Report"
	}
	return "Comment"
}

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusTesting    Status = "testing"
	StatusResolved   Status = "resolved"
	StatusWontFix    Status = "wont_fix"
)

// Statuses 所有合法状态，任意状态之间都可以互相切换
var Statuses = []Status{StatusNew, StatusInProgress, StatusTesting, StatusResolved, StatusWontFix}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Submission 用户反馈。FormID 与 Type 二选一：表单提交或旧版评论/缺陷提交
type Submission struct {
	ID              uint            `json:"id" gorm:"primarykey"`
	UserID          uint            `json:"user_id" gorm:"index;not null"`
	User            User            `json:"-" gorm:"foreignKey:UserID"`
	FormID          *uint           `json:"form_id" gorm:"index"`
	Type            *SubmissionType `json:"type" gorm:"size:20;index"`
	ContextID       string          `json:"context_id" gorm:"size:255;index"`
	Subject         string          `json:"subject" gorm:"size:255;not null"`
	Message         string          `json:"message" gorm:"type:text"`
	Status          Status          `json:"status" gorm:"size:20;index;default:new"`
	AdminReply      *string         `json:"admin_reply" gorm:"type:text"`
	ResolutionNotes *string         `json:"resolution_notes" gorm:"type:text"`
	Metadata        datatypes.JSON  `json:"metadata"`
	FormData        datatypes.JSON  `json:"form_data"`
	AttachmentID    *uint           `json:"attachment_id"`
	CreatedAt       time.Time       `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ResolvedAt      *time.Time      `json:"resolved_at"`
}

// Target 提交目标：表单或旧版类型，只能是其中之一
type Target struct {
	formID uint
	typ    SubmissionType
}

func FormTarget(formID uint) Target {
	return Target{formID: formID}
}

func LegacyTarget(t SubmissionType) Target {
	return Target{typ: t}
}

func (t Target) FormID() (uint, bool) {
	return t.formID, t.formID != 0
}

func (t Target) Type() (SubmissionType, bool) {
	return t.typ, t.formID == 0 && t.typ != ""
}

// SetTarget 写入目标，同时清空另一侧
func (s *Submission) SetTarget(t Target) {
	if id, ok := t.FormID(); ok {
		s.FormID = &id
		s.Type = nil
		return
	}
	typ := t.typ
	s.FormID = nil
	s.Type = &typ
}

func (s *Submission) Target() Target {
	if s.FormID != nil && *s.FormID != 0 {
		return FormTarget(*s.FormID)
	}
	if s.Type != nil {
		return LegacyTarget(*s.Type)
	}
	return Target{}
}

// TypeLabel 表单提交没有类型时按评论处理
func (s *Submission) TypeLabel() string {
	if s.Type != nil {
		return s.Type.Label()
	}
	return "Feedback"
}
