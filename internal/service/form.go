package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/formschema"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
	"github.com/DroppedLink/feedback/internal/pkg/render"
	"github.com/DroppedLink/feedback/internal/pkg/textutil"
	"github.com/DroppedLink/feedback/internal/types"
)

var Form = new(FormService)

type FormService struct{}

// SubmitAction 渲染出的表单提交地址
const SubmitAction = "/api/v1/feedback/submit"

const msgFormModified = "This form was modified by someone else. Reload and try again."

// List categoryID 为 0 时返回全部表单
func (s *FormService) List(ctx context.Context, categoryID uint) ([]model.Form, error) {
	db := database.DB.WithContext(ctx).Model(&model.Form{})
	if categoryID > 0 {
		db = db.Where("category_id = ?", categoryID)
	}
	var forms []model.Form
	if err := db.Order("sort_order ASC, name ASC").Find(&forms).Error; err != nil {
		return nil, storageFailed("Failed to load forms.", err)
	}
	return forms, nil
}

// ListByCategory 分类 id 为 0 时返回空列表
func (s *FormService) ListByCategory(ctx context.Context, categoryID uint) ([]model.Form, error) {
	if categoryID == 0 {
		return []model.Form{}, nil
	}
	return s.List(ctx, categoryID)
}

func (s *FormService) Get(ctx context.Context, id uint) (*model.Form, error) {
	var form model.Form
	if err := database.DB.WithContext(ctx).First(&form, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Form not found.")
		}
		return nil, storageFailed("Failed to load form.", err)
	}
	return &form, nil
}

// GetByShortcode 只查找启用的表单
func (s *FormService) GetByShortcode(ctx context.Context, shortcode string) (*model.Form, error) {
	var form model.Form
	err := database.DB.WithContext(ctx).
		Where("shortcode = ? AND is_active = ?", shortcode, true).
		First(&form).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Form not found or inactive.")
		}
		return nil, storageFailed("Failed to load form.", err)
	}
	return &form, nil
}

// InputNames 表单中可以直接提交值的字段名，文件字段除外
func (s *FormService) InputNames(ctx context.Context, id uint) ([]string, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := formschema.Parse(form.FieldConfig)
	if err != nil {
		return nil, Validation("Invalid field configuration JSON.")
	}

	names := make([]string, 0, len(cfg.Fields))
	for i, f := range cfg.Fields {
		if !f.Type.Valid() || f.Type == formschema.TypeFile {
			continue
		}
		names = append(names, formschema.InputName(i, f))
	}
	return names, nil
}

// Save 新建或更新表单，校验顺序固定
func (s *FormService) Save(ctx context.Context, req *types.FormRequest) (uint, error) {
	name := textutil.SanitizeText(req.Name)
	if name == "" {
		return 0, Validation("Form name is required.")
	}
	if req.CategoryID == 0 {
		return 0, Validation("Category is required.")
	}

	shortcode := textutil.Slugify(req.Shortcode)
	if shortcode == "" {
		shortcode = textutil.Slugify(name)
	}
	slug := textutil.Slugify(req.Slug)
	if slug == "" {
		slug = textutil.Slugify(name)
	}
	if shortcode == "" || slug == "" {
		return 0, Validation("Form shortcode could not be derived from the name.")
	}

	db := database.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&model.Form{}).Where("shortcode = ? AND id <> ?", shortcode, req.ID).Count(&count).Error; err != nil {
		return 0, storageFailed("Failed to save form.", err)
	}
	if count > 0 {
		return 0, Conflict("A form with this shortcode already exists.")
	}

	fieldConfig, err := canonicalFieldConfig(req.FieldConfig)
	if err != nil {
		return 0, Validation("Invalid field configuration JSON.")
	}

	if err := db.Model(&model.Form{}).Where("slug = ? AND id <> ?", slug, req.ID).Count(&count).Error; err != nil {
		return 0, storageFailed("Failed to save form.", err)
	}
	if count > 0 {
		return 0, Conflict("A form with this slug already exists.")
	}

	if _, err := Category.Get(ctx, req.CategoryID); err != nil {
		if KindOf(err) == KindNotFound {
			return 0, Validation("Category not found.")
		}
		return 0, err
	}

	description := textutil.SanitizeTextarea(req.Description)

	if req.ID == 0 {
		form := model.Form{
			CategoryID:  req.CategoryID,
			Name:        name,
			Slug:        slug,
			Shortcode:   shortcode,
			Description: description,
			FieldConfig: fieldConfig,
			IsActive:    req.IsActive == nil || *req.IsActive,
			SortOrder:   req.SortOrder,
			Version:     1,
		}
		if err := db.Create(&form).Error; err != nil {
			return 0, storageFailed("Failed to create form.", err)
		}
		logger.L().Info("表单已创建", zap.Uint("form_id", form.ID), zap.String("shortcode", shortcode))
		return form.ID, nil
	}

	current, err := s.Get(ctx, req.ID)
	if err != nil {
		return 0, err
	}
	if req.Version != 0 && req.Version != current.Version {
		return 0, Conflict(msgFormModified)
	}

	updates := map[string]interface{}{
		"category_id":  req.CategoryID,
		"name":         name,
		"slug":         slug,
		"shortcode":    shortcode,
		"description":  description,
		"field_config": fieldConfig,
		"sort_order":   req.SortOrder,
		"version":      gorm.Expr("version + 1"),
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	q := db.Model(&model.Form{}).Where("id = ?", req.ID)
	if req.Version != 0 {
		q = q.Where("version = ?", req.Version)
	}
	result := q.Updates(updates)
	if result.Error != nil {
		return 0, storageFailed("Failed to update form.", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, Conflict(msgFormModified)
	}
	return req.ID, nil
}

// canonicalFieldConfig 解析后按规范格式重新编码，兼容以字符串形式提交的 JSON
func canonicalFieldConfig(raw json.RawMessage) (datatypes.JSON, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		raw = []byte(inner)
	}
	cfg, err := formschema.Parse(raw)
	if err != nil {
		return nil, err
	}
	out, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

// ApplyFieldOps 在当前字段配置上回放编辑操作。version 为 0 时以读取到的版本为准
func (s *FormService) ApplyFieldOps(ctx context.Context, id uint, ops []formschema.Op, version int) (*formschema.Config, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != 0 && version != form.Version {
		return nil, Conflict(msgFormModified)
	}

	cfg, err := formschema.Parse(form.FieldConfig)
	if err != nil {
		return nil, Validation("Invalid field configuration JSON.")
	}
	if err := cfg.Apply(ops...); err != nil {
		return nil, Validation(err.Error())
	}
	data, err := cfg.Marshal()
	if err != nil {
		return nil, storageFailed("Failed to update form.", err)
	}

	result := database.DB.WithContext(ctx).Model(&model.Form{}).
		Where("id = ? AND version = ?", id, form.Version).
		Updates(map[string]interface{}{
			"field_config": datatypes.JSON(data),
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, storageFailed("Failed to update form.", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, Conflict(msgFormModified)
	}
	return cfg, nil
}

// Delete 已有提交的表单不能删除，只能停用
func (s *FormService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return Validation("Invalid form ID.")
	}
	db := database.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&model.Submission{}).Where("form_id = ?", id).Count(&count).Error; err != nil {
		return storageFailed("Failed to delete form.", err)
	}
	if count > 0 {
		return Integrity("Cannot delete form with submissions. Archive it instead by setting it to inactive.")
	}

	result := db.Delete(&model.Form{}, id)
	if result.Error != nil {
		return storageFailed("Failed to delete form.", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFound("Form not found.")
	}
	return nil
}

// Render 按 shortcode 渲染表单，找不到或未启用时返回提示
func (s *FormService) Render(ctx context.Context, shortcode, contextID string) (template.HTML, error) {
	r := render.New(config.GlobalConfig.Upload, SubmitAction)
	form, err := s.GetByShortcode(ctx, shortcode)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return r.Form(nil, contextID)
		}
		return "", err
	}
	html, err := r.Form(form, textutil.SanitizeText(contextID))
	if err != nil {
		return "", storageFailed("Failed to render form.", err)
	}
	return html, nil
}
