package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/database"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
	"github.com/DroppedLink/feedback/internal/pkg/notify"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
)

// 外部依赖，启动时由 Init 注入
var (
	Files    storage.Store
	Notifier notify.Dispatcher = notify.Nop{}
)

func Init(files storage.Store, dispatcher notify.Dispatcher) {
	Files = files
	if dispatcher != nil {
		Notifier = dispatcher
	}
}

// dispatch 发送通知，失败只记录日志
func dispatch(ctx context.Context, event notify.Event, submissionID uint) {
	var sub model.Submission
	if err := database.DB.WithContext(ctx).Preload("User").First(&sub, submissionID).Error; err != nil {
		logger.L().Warn("通知加载反馈失败", zap.Uint("submission_id", submissionID), zap.Error(err))
		return
	}

	n := notify.Notice{Event: event, Submission: &sub, User: &sub.User}
	if sub.AttachmentID != nil && Files != nil {
		if att, err := Files.Get(ctx, *sub.AttachmentID); err == nil {
			n.AttachmentURL = Files.URL(att)
		}
	}

	if err := Notifier.Notify(ctx, n); err != nil {
		logger.L().Warn("通知发送失败",
			zap.String("event", string(event)),
			zap.Uint("submission_id", submissionID),
			zap.Error(err))
	}
}
