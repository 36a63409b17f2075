package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/formschema"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
	"github.com/DroppedLink/feedback/internal/pkg/notify"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
	"github.com/DroppedLink/feedback/internal/pkg/textutil"
	"github.com/DroppedLink/feedback/internal/types"
)

var Submission = new(SubmissionService)

type SubmissionService struct{}

const (
	DefaultListLimit      = 50
	MaxListLimit          = 10000
	DefaultChangelogLimit = 10
)

// 允许排序的列
var sortColumns = map[string]string{
	"id":          "id",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"resolved_at": "resolved_at",
	"status":      "status",
	"subject":     "subject",
	"type":        "type",
	"form_id":     "form_id",
}

// Submit 校验并保存一条反馈，返回新记录 id
func (s *SubmissionService) Submit(ctx context.Context, userID uint, req *types.SubmitRequest) (uint, error) {
	hasAttachment := req.AttachmentID != nil && *req.AttachmentID > 0

	sub, err := s.prepare(ctx, userID, req, hasAttachment)
	if err != nil {
		return 0, err
	}

	if hasAttachment {
		if err := checkAttachment(ctx, userID, *req.AttachmentID); err != nil {
			return 0, err
		}
		id := *req.AttachmentID
		sub.AttachmentID = &id
	}

	if err := database.DB.WithContext(ctx).Create(sub).Error; err != nil {
		return 0, storageFailed("Failed to save submission. Please try again.", err)
	}

	logger.L().Info("反馈已提交",
		zap.Uint("submission_id", sub.ID),
		zap.Uint("user_id", userID),
		zap.Stringp("type", (*string)(sub.Type)),
		zap.Uintp("form_id", sub.FormID))

	dispatch(ctx, notify.EventCreated, sub.ID)
	return sub.ID, nil
}

// Validate 执行附件引用以外的全部检查，不写入任何数据。
// 随提交一起上传文件时，先调用它再保存文件
func (s *SubmissionService) Validate(ctx context.Context, userID uint, req *types.SubmitRequest, hasAttachment bool) error {
	_, err := s.prepare(ctx, userID, req, hasAttachment)
	return err
}

// prepare 按固定顺序校验并构造待保存的记录
func (s *SubmissionService) prepare(ctx context.Context, userID uint, req *types.SubmitRequest, hasAttachment bool) (*model.Submission, error) {
	if userID == 0 {
		return nil, Unauthorized("You must be logged in to submit feedback.")
	}

	subject := textutil.SanitizeText(req.Subject)
	if subject == "" {
		return nil, Validation("Subject is required.")
	}

	target, form, err := s.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	message := textutil.SanitizeTextarea(req.Message)
	if form == nil && message == "" {
		return nil, Validation("Message is required.")
	}

	var formData datatypes.JSON
	if form != nil {
		cfg, err := formschema.Parse(form.FieldConfig)
		if err != nil {
			return nil, storageFailed("Failed to save submission. Please try again.", err)
		}
		values, err := cfg.ValidateValues(req.FormData, hasAttachment, config.GlobalConfig.Upload.IsEnabled())
		if err != nil {
			return nil, Validation(err.Error())
		}
		data, err := json.Marshal(values)
		if err != nil {
			return nil, storageFailed("Failed to save submission. Please try again.", err)
		}
		formData = datatypes.JSON(data)
	}

	sub := &model.Submission{
		UserID:    userID,
		ContextID: textutil.SanitizeText(req.ContextID),
		Subject:   subject,
		Message:   message,
		Status:    defaultStatus(),
		Metadata:  NormalizeMetadata(req.Metadata),
		FormData:  formData,
	}
	sub.SetTarget(target)
	return sub, nil
}

// resolveTarget 表单与类型只能提供一个
func (s *SubmissionService) resolveTarget(ctx context.Context, req *types.SubmitRequest) (model.Target, *model.Form, error) {
	hasForm := req.FormID != nil && *req.FormID > 0
	typ := model.SubmissionType(strings.TrimSpace(req.Type))

	if hasForm && typ != "" {
		return model.Target{}, nil, Validation("Provide either a form or a type, not both.")
	}

	if hasForm {
		form, err := Form.Get(ctx, *req.FormID)
		if err != nil {
			if KindOf(err) == KindNotFound {
				return model.Target{}, nil, Validation("Invalid form.")
			}
			return model.Target{}, nil, err
		}
		if !form.IsActive {
			return model.Target{}, nil, Validation("This form is currently inactive.")
		}
		return model.FormTarget(form.ID), form, nil
	}

	if typ != "" {
		if !typ.Valid() {
			return model.Target{}, nil, Validation("Invalid submission type.")
		}
		fb := config.GlobalConfig.Feedback
		if (typ == model.TypeComment && !fb.CommentsEnabled()) || (typ == model.TypeBug && !fb.BugsEnabled()) {
			return model.Target{}, nil, Validation("This feedback type is currently disabled.")
		}
		return model.LegacyTarget(typ), nil, nil
	}

	return model.Target{}, nil, Validation("Form or type is required.")
}

func checkAttachment(ctx context.Context, userID, attachmentID uint) error {
	if Files == nil {
		return Validation("File uploads are currently disabled.")
	}
	att, err := Files.Get(ctx, attachmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Validation("Attachment not found.")
		}
		return storageFailed("Failed to save submission. Please try again.", err)
	}
	if att.UserID != userID {
		return Validation("Attachment not found.")
	}
	return nil
}

// defaultStatus 配置值不合法时使用 new
func defaultStatus() model.Status {
	st := model.Status(config.GlobalConfig.Feedback.DefaultStatus)
	if !st.Valid() {
		return model.StatusNew
	}
	return st
}

// NormalizeMetadata 只接受 JSON 对象，字符串值递归清洗；无效时返回 nil
func NormalizeMetadata(raw json.RawMessage) datatypes.JSON {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil
		}
		raw = bytes.TrimSpace([]byte(inner))
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded == nil {
		return nil
	}
	out, err := json.Marshal(sanitizeValue(decoded))
	if err != nil {
		return nil
	}
	return datatypes.JSON(out)
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[textutil.SanitizeText(k)] = sanitizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeValue(item)
		}
		return out
	case string:
		return textutil.SanitizeText(val)
	default:
		return val
	}
}

// List 按条件筛选，返回当前页和总数
func (s *SubmissionService) List(ctx context.Context, q *types.SubmissionQuery) ([]model.Submission, int64, error) {
	base, err := s.filtered(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, storageFailed("Failed to load submissions.", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := q.Offset
	if q.Page > 0 {
		offset = (q.Page - 1) * limit
	}
	if offset < 0 {
		offset = 0
	}

	column, ok := sortColumns[q.OrderBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(q.Order, "asc") {
		direction = "ASC"
	}

	var items []model.Submission
	err = base.Session(&gorm.Session{}).
		Preload("User").
		Order(column + " " + direction).
		Order("id " + direction).
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, storageFailed("Failed to load submissions.", err)
	}
	return items, total, nil
}

// filtered 表单条件优先于分类条件；分类下没有表单时匹配没有表单的旧版提交
func (s *SubmissionService) filtered(ctx context.Context, q *types.SubmissionQuery) (*gorm.DB, error) {
	db := database.DB.WithContext(ctx).Model(&model.Submission{})

	if q.FormID > 0 {
		db = db.Where("form_id = ?", q.FormID)
	} else if q.CategoryID > 0 {
		var formIDs []uint
		if err := database.DB.WithContext(ctx).Model(&model.Form{}).
			Where("category_id = ?", q.CategoryID).
			Pluck("id", &formIDs).Error; err != nil {
			return nil, storageFailed("Failed to load submissions.", err)
		}
		if len(formIDs) > 0 {
			db = db.Where("form_id IN ?", formIDs)
		} else {
			db = db.Where("(form_id IS NULL OR form_id = 0)")
		}
	}

	if q.Type != "" {
		db = db.Where("type = ?", q.Type)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.UserID > 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.ContextID != "" {
		db = db.Where("context_id = ?", q.ContextID)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + escapeLike(search) + "%"
		db = db.Where("(subject LIKE ? ESCAPE '!' OR message LIKE ? ESCAPE '!')", like, like)
	}
	return db, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return r.Replace(s)
}

func (s *SubmissionService) Get(ctx context.Context, id uint) (*model.Submission, error) {
	var sub model.Submission
	if err := database.DB.WithContext(ctx).Preload("User").First(&sub, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Submission not found.")
		}
		return nil, storageFailed("Failed to load submission.", err)
	}
	return &sub, nil
}

// ListMine 当前用户自己的反馈
func (s *SubmissionService) ListMine(ctx context.Context, userID uint, page, size int) ([]model.Submission, int64, error) {
	if userID == 0 {
		return nil, 0, Unauthorized("You must be logged in to view feedback.")
	}
	return s.List(ctx, &types.SubmissionQuery{UserID: userID, Page: page, Limit: size})
}

// Reply 保存管理员回复并通知用户
func (s *SubmissionService) Reply(ctx context.Context, id uint, reply string) error {
	reply = textutil.SanitizeTextarea(reply)
	if reply == "" {
		return Validation("Reply cannot be empty.")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := database.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", id).
		Update("admin_reply", reply).Error
	if err != nil {
		return storageFailed("Failed to save reply.", err)
	}

	dispatch(ctx, notify.EventReplied, id)
	return nil
}

// ReplyCanned 复制预设回复的内容作为回复
func (s *SubmissionService) ReplyCanned(ctx context.Context, id, cannedID uint) error {
	canned, err := Canned.Get(ctx, cannedID)
	if err != nil {
		return err
	}
	return s.Reply(ctx, id, canned.Content)
}

// SetStatus 任意状态之间可切换；进入 resolved 时记录时间，离开时保留
func (s *SubmissionService) SetStatus(ctx context.Context, id uint, status string, notes string) error {
	st := model.Status(status)
	if !st.Valid() {
		return Validation("Invalid status.")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	updates := map[string]interface{}{"status": st}
	if st == model.StatusResolved {
		updates["resolved_at"] = time.Now()
	}
	if notes = textutil.SanitizeTextarea(notes); notes != "" {
		updates["resolution_notes"] = notes
	}

	err := database.DB.WithContext(ctx).Model(&model.Submission{}).
		Where("id = ?", id).
		Updates(updates).Error
	if err != nil {
		return storageFailed("Failed to update status.", err)
	}

	if st == model.StatusResolved {
		dispatch(ctx, notify.EventResolved, id)
	}
	return nil
}

// Delete 先删除记录，再释放附件
func (s *SubmissionService) Delete(ctx context.Context, id uint) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := database.DB.WithContext(ctx).Delete(&model.Submission{}, id).Error; err != nil {
		return storageFailed("Failed to delete submission.", err)
	}

	if sub.AttachmentID != nil && Files != nil {
		if err := Files.Delete(ctx, *sub.AttachmentID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.L().Warn("附件删除失败",
				zap.Uint("submission_id", id),
				zap.Uint("attachment_id", *sub.AttachmentID),
				zap.Error(err))
		}
	}
	return nil
}

// Bulk 逐条处理，单条失败不影响其他记录
func (s *SubmissionService) Bulk(ctx context.Context, ids []uint, action string) (*types.BulkResult, error) {
	if len(ids) == 0 {
		return nil, Validation("No submissions selected.")
	}
	if action != "delete" && !model.Status(action).Valid() {
		return nil, Validation("Invalid bulk action.")
	}

	result := &types.BulkResult{Errors: []types.BulkItemError{}}
	for _, id := range ids {
		var err error
		if action == "delete" {
			err = s.Delete(ctx, id)
		} else {
			err = s.SetStatus(ctx, id, action, "")
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, types.BulkItemError{ID: id, Msg: err.Error()})
			continue
		}
		result.Processed++
	}
	return result, nil
}

// Changelog 最近解决的缺陷；找不到的表单或分类条件会被忽略
func (s *SubmissionService) Changelog(ctx context.Context, q *types.ChangelogQuery) ([]model.Submission, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultChangelogLimit
	}
	query := &types.SubmissionQuery{
		Type:      string(model.TypeBug),
		Status:    string(model.StatusResolved),
		OrderBy:   "resolved_at",
		Order:     "desc",
		Limit:     limit,
		ContextID: textutil.SanitizeText(q.ContextID),
	}

	if q.Form != "" {
		form, err := Form.GetByShortcode(ctx, textutil.SanitizeText(q.Form))
		if err == nil {
			query.FormID = form.ID
		} else if KindOf(err) != KindNotFound {
			return nil, err
		}
	}
	if q.Category != "" {
		category, err := Category.GetBySlug(ctx, textutil.SanitizeText(q.Category))
		if err == nil {
			query.CategoryID = category.ID
		} else if KindOf(err) != KindNotFound {
			return nil, err
		}
	}

	items, _, err := s.List(ctx, query)
	return items, err
}
