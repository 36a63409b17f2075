package service

import (
	"context"
	"errors"
	"io"

	"go.uber.org/zap"

	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
	"github.com/DroppedLink/feedback/internal/pkg/storage"
)

var Attachment = new(AttachmentService)

type AttachmentService struct{}

// Upload 保存附件，拒绝原因原样返回给调用方
func (s *AttachmentService) Upload(ctx context.Context, userID uint, file storage.Upload) (*model.Attachment, string, error) {
	if userID == 0 {
		return nil, "", Unauthorized("You must be logged in to upload files.")
	}
	if Files == nil {
		return nil, "", uploadFailed("File uploads are currently disabled.", nil)
	}

	att, err := Files.Save(ctx, userID, file)
	if err != nil {
		var ue *storage.UploadError
		if errors.As(err, &ue) {
			if ue.Reason == storage.ReasonTransport {
				return nil, "", storageFailed(ue.Msg, err)
			}
			return nil, "", uploadFailed(ue.Msg, err)
		}
		return nil, "", storageFailed("Failed to store uploaded file.", err)
	}
	return att, Files.URL(att), nil
}

// Open 管理员或上传者本人可以读取附件
func (s *AttachmentService) Open(ctx context.Context, id, userID uint, isAdmin bool) (*model.Attachment, io.ReadCloser, error) {
	if Files == nil {
		return nil, nil, NotFound("Attachment not found.")
	}
	att, rc, err := Files.Open(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, NotFound("Attachment not found.")
		}
		return nil, nil, storageFailed("Failed to load attachment.", err)
	}
	if !isAdmin && att.UserID != userID {
		rc.Close()
		return nil, nil, Forbidden("You do not have access to this attachment.")
	}
	return att, rc, nil
}

// Discard 提交失败时释放刚上传的附件，失败只记录日志
func (s *AttachmentService) Discard(ctx context.Context, id uint) {
	if Files == nil {
		return
	}
	if err := Files.Delete(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.L().Warn("释放附件失败", zap.Uint("attachment_id", id), zap.Error(err))
	}
}
