package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
	"github.com/DroppedLink/feedback/internal/pkg/logger"
)

// LocalStore 文件保存在本地目录，元数据保存在 attachments 表
type LocalStore struct {
	db  *gorm.DB
	cfg config.UploadConfig
}

var _ Store = (*LocalStore)(nil)

func NewLocal(db *gorm.DB, cfg config.UploadConfig) *LocalStore {
	return &LocalStore{db: db, cfg: cfg}
}

func (s *LocalStore) Save(ctx context.Context, userID uint, file Upload) (*model.Attachment, error) {
	if !s.cfg.IsEnabled() {
		return nil, &UploadError{Reason: ReasonDisabled, Msg: "File uploads are currently disabled."}
	}

	maxBytes := MaxFileSizeBytes(s.cfg)
	oversize := &UploadError{
		Reason: ReasonOversize,
		Msg:    fmt.Sprintf("File size exceeds maximum allowed size of %d MB.", MaxFileSizeMB(s.cfg)),
	}
	if file.Size > maxBytes {
		return nil, oversize
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(file.Name), "."))
	if !s.allowed(ext) {
		return nil, disallowed(s.cfg)
	}

	br := bufio.NewReaderSize(file.Reader, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, &UploadError{Reason: ReasonTransport, Msg: "Failed to read uploaded file.", Err: err}
	}
	contentType := http.DetectContentType(head)
	if !mimeMatches(ext, contentType) {
		return nil, &UploadError{Reason: ReasonDisallowedType, Msg: "Invalid file MIME type."}
	}

	if err := os.MkdirAll(s.cfg.Dir, 0755); err != nil {
		return nil, &UploadError{Reason: ReasonTransport, Msg: "Failed to store uploaded file.", Err: err}
	}
	stored := uuid.NewString() + "." + ext
	dst := filepath.Join(s.cfg.Dir, stored)

	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, &UploadError{Reason: ReasonTransport, Msg: "Failed to store uploaded file.", Err: err}
	}
	n, err := io.Copy(f, io.LimitReader(br, maxBytes+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst)
		return nil, &UploadError{Reason: ReasonTransport, Msg: "Failed to store uploaded file.", Err: err}
	}
	if n > maxBytes {
		os.Remove(dst)
		return nil, oversize
	}

	att := &model.Attachment{
		UserID:      userID,
		FileName:    filepath.Base(file.Name),
		StoredName:  stored,
		ContentType: contentType,
		Size:        n,
	}
	if err := s.db.WithContext(ctx).Create(att).Error; err != nil {
		os.Remove(dst)
		return nil, &UploadError{Reason: ReasonTransport, Msg: "Failed to store uploaded file.", Err: err}
	}

	logger.L().Info("附件已保存",
		zap.Uint("attachment_id", att.ID),
		zap.Uint("user_id", userID),
		zap.Int64("size", n))
	return att, nil
}

func (s *LocalStore) Get(ctx context.Context, id uint) (*model.Attachment, error) {
	var att model.Attachment
	if err := s.db.WithContext(ctx).First(&att, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &att, nil
}

func (s *LocalStore) Open(ctx context.Context, id uint) (*model.Attachment, io.ReadCloser, error) {
	att, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(filepath.Join(s.cfg.Dir, att.StoredName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return att, f, nil
}

func (s *LocalStore) URL(a *model.Attachment) string {
	if a == nil {
		return ""
	}
	return strings.TrimRight(s.cfg.BaseURL, "/") + "/" + path.Clean(a.StoredName)
}

// Delete 删除记录和文件，文件已不存在时不报错
func (s *LocalStore) Delete(ctx context.Context, id uint) error {
	att, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&model.Attachment{}, att.ID).Error; err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.cfg.Dir, att.StoredName)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *LocalStore) allowed(ext string) bool {
	if ext == "" {
		return false
	}
	for _, t := range AllowedTypes(s.cfg) {
		if t == ext {
			return true
		}
	}
	return false
}

// mimeMatches 图片扩展名必须是真实图片；非 html 扩展名不能是 html 内容
func mimeMatches(ext, sniffed string) bool {
	sniffed, _, _ = mime.ParseMediaType(sniffed)
	expected, _, _ := mime.ParseMediaType(mime.TypeByExtension("." + ext))

	if strings.HasPrefix(expected, "image/") && expected != "image/svg+xml" {
		return strings.HasPrefix(sniffed, "image/")
	}
	if sniffed == "text/html" && ext != "html" && ext != "htm" {
		return false
	}
	return true
}
