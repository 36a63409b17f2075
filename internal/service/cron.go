package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
)

const (
	orphanCheckInterval = time.Hour
	// OrphanAttachmentTTL 上传后超过该时间仍未关联到反馈的附件会被清理
	OrphanAttachmentTTL = 24 * time.Hour
)

// CronService 定时任务服务
type CronService struct {
	stopChan chan struct{}
}

var Cron = &CronService{
	stopChan: make(chan struct{}),
}

// Start 启动定时任务
func (s *CronService) Start() {
	go s.handleOrphanAttachments()
}

// Stop 停止定时任务
func (s *CronService) Stop() {
	close(s.stopChan)
}

// handleOrphanAttachments 定期清理单独上传后没有提交的附件
func (s *CronService) handleOrphanAttachments() {
	ticker := time.NewTicker(orphanCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := s.PurgeOrphanAttachments(context.Background(), OrphanAttachmentTTL)
			if err != nil {
				logger.Errorf("清理孤立附件失败: %v", err)
				continue
			}
			if n > 0 {
				logger.Infof("已清理 %d 个孤立附件", n)
			}

		case <-s.stopChan:
			return
		}
	}
}

// PurgeOrphanAttachments 删除早于 olderThan 且没有被任何反馈引用的附件，返回删除数量
func (s *CronService) PurgeOrphanAttachments(ctx context.Context, olderThan time.Duration) (int, error) {
	if Files == nil {
		return 0, nil
	}

	used := database.DB.Model(&model.Submission{}).
		Select("attachment_id").
		Where("attachment_id IS NOT NULL")

	var ids []uint
	err := database.DB.WithContext(ctx).Model(&model.Attachment{}).
		Where("created_at <= ?", time.Now().Add(-olderThan)).
		Where("id NOT IN (?)", used).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, id := range ids {
		if err := Files.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.L().Warn("孤立附件删除失败", zap.Uint("attachment_id", id), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
