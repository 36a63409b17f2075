package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/textutil"
	"github.com/DroppedLink/feedback/internal/types"
)

var Category = new(CategoryService)

type CategoryService struct{}

// List 按排序值和名称返回所有分类
func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := database.DB.WithContext(ctx).Order("sort_order ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, storageFailed("Failed to load categories.", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := database.DB.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Category not found.")
		}
		return nil, storageFailed("Failed to load category.", err)
	}
	return &category, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*model.Category, error) {
	var category model.Category
	if err := database.DB.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Category not found.")
		}
		return nil, storageFailed("Failed to load category.", err)
	}
	return &category, nil
}

// Save 新建或更新分类，返回分类 id
func (s *CategoryService) Save(ctx context.Context, req *types.CategoryRequest) (uint, error) {
	name := textutil.SanitizeText(req.Name)
	if name == "" {
		return 0, Validation("Category name is required.")
	}
	slug := textutil.Slugify(req.Slug)
	if slug == "" {
		slug = textutil.Slugify(name)
	}
	if slug == "" {
		return 0, Validation("Category slug could not be derived from the name.")
	}

	db := database.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&model.Category{}).Where("slug = ? AND id <> ?", slug, req.ID).Count(&count).Error; err != nil {
		return 0, storageFailed("Failed to save category.", err)
	}
	if count > 0 {
		return 0, Conflict("A category with this slug already exists.")
	}

	category := model.Category{
		Name:        name,
		Slug:        slug,
		Description: textutil.SanitizeTextarea(req.Description),
		SortOrder:   req.SortOrder,
	}

	if req.ID == 0 {
		if err := db.Create(&category).Error; err != nil {
			return 0, storageFailed("Failed to save category.", err)
		}
		return category.ID, nil
	}

	result := db.Model(&model.Category{}).Where("id = ?", req.ID).Updates(map[string]interface{}{
		"name":        category.Name,
		"slug":        category.Slug,
		"description": category.Description,
		"sort_order":  category.SortOrder,
	})
	if result.Error != nil {
		return 0, storageFailed("Failed to save category.", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, NotFound("Category not found.")
	}
	return req.ID, nil
}

// Delete 分类下还有表单时拒绝删除
func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return Validation("Invalid category ID.")
	}
	db := database.DB.WithContext(ctx)

	var count int64
	if err := db.Model(&model.Form{}).Where("category_id = ?", id).Count(&count).Error; err != nil {
		return storageFailed("Failed to delete category.", err)
	}
	if count > 0 {
		return Integrity("Cannot delete category with forms. Delete the forms first.")
	}

	result := db.Delete(&model.Category{}, id)
	if result.Error != nil {
		return storageFailed("Failed to delete category.", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFound("Category not found.")
	}
	return nil
}
