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

var Canned = new(CannedService)

type CannedService struct{}

func (s *CannedService) List(ctx context.Context) ([]model.CannedResponse, error) {
	var items []model.CannedResponse
	if err := database.DB.WithContext(ctx).Order("title ASC").Find(&items).Error; err != nil {
		return nil, storageFailed("Failed to load canned responses.", err)
	}
	return items, nil
}

func (s *CannedService) Get(ctx context.Context, id uint) (*model.CannedResponse, error) {
	var item model.CannedResponse
	if err := database.DB.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("Canned response not found.")
		}
		return nil, storageFailed("Failed to load canned response.", err)
	}
	return &item, nil
}

func (s *CannedService) Save(ctx context.Context, req *types.CannedRequest) (uint, error) {
	title := textutil.SanitizeText(req.Title)
	content := textutil.SanitizeTextarea(req.Content)
	if title == "" || content == "" {
		return 0, Validation("Title and content are required.")
	}

	db := database.DB.WithContext(ctx)
	if req.ID == 0 {
		item := model.CannedResponse{Title: title, Content: content}
		if err := db.Create(&item).Error; err != nil {
			return 0, storageFailed("Failed to save canned response.", err)
		}
		return item.ID, nil
	}

	result := db.Model(&model.CannedResponse{}).Where("id = ?", req.ID).
		Updates(map[string]interface{}{"title": title, "content": content})
	if result.Error != nil {
		return 0, storageFailed("Failed to save canned response.", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, NotFound("Canned response not found.")
	}
	return req.ID, nil
}

func (s *CannedService) Delete(ctx context.Context, id uint) error {
	result := database.DB.WithContext(ctx).Delete(&model.CannedResponse{}, id)
	if result.Error != nil {
		return storageFailed("Failed to delete canned response.", result.Error)
	}
	if result.RowsAffected == 0 {
		return NotFound("Canned response not found.")
	}
	return nil
}
