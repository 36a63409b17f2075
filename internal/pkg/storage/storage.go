// Package storage 保存用户上传的附件。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/DroppedLink/feedback/internal/config"
	"github.com/DroppedLink/feedback/internal/model"
)

// Upload 待保存的文件
type Upload struct {
	Name   string
	Size   int64 // 未知时为 -1
	Reader io.Reader
}

// Store 附件存储
type Store interface {
	Save(ctx context.Context, userID uint, file Upload) (*model.Attachment, error)
	Get(ctx context.Context, id uint) (*model.Attachment, error)
	Open(ctx context.Context, id uint) (*model.Attachment, io.ReadCloser, error)
	URL(a *model.Attachment) string
	Delete(ctx context.Context, id uint) error
}

type Reason string

const (
	ReasonDisabled       Reason = "disabled"
	ReasonOversize       Reason = "oversize"
	ReasonDisallowedType Reason = "disallowed_type"
	ReasonTransport      Reason = "transport"
)

// UploadError 上传被拒绝
type UploadError struct {
	Reason Reason
	Msg    string
	Err    error
}

func (e *UploadError) Error() string {
	return e.Msg
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

var ErrNotFound = errors.New("attachment not found")

const (
	minFileSizeMB = 1
	maxFileSizeMB = 200
)

const defaultFileTypes = "jpg,jpeg,png,gif,webp,svg,bmp,ico,pdf,doc,docx,xls,xlsx,ppt,pptx,txt,rtf,log,zip,rar,7z,tar,gz,tgz,bz2,xz,json,xml,csv,yaml,yml,ini,conf,cfg,config,properties,toml,env,md,markdown,rst,sql,db,sqlite,html,css,js,ts,jsx,tsx,py,php,rb,go,rs,c,cpp,h,hpp,java,kt,swift,sh,bash,ps1,bat,cmd,pl,lua,vbs,dockerfile,tf,tfvars,pem,crt,key,cer,dump,dmp,trace,pcap,pcapng,cap,patch,diff,bin,dat,mp4,mov,avi,webm,mkv,odt,ods,odp"

// MaxFileSizeMB 配置值限制在 1 到 200 之间
func MaxFileSizeMB(cfg config.UploadConfig) int {
	n := cfg.MaxFileSizeMB
	if n < minFileSizeMB {
		n = minFileSizeMB
	}
	if n > maxFileSizeMB {
		n = maxFileSizeMB
	}
	return n
}

func MaxFileSizeBytes(cfg config.UploadConfig) int64 {
	return int64(MaxFileSizeMB(cfg)) * 1024 * 1024
}

// AllowedTypes 小写去重后的扩展名列表，配置为空时使用默认列表
func AllowedTypes(cfg config.UploadConfig) []string {
	types := parseTypes(cfg.AllowedFileTypes)
	if len(types) == 0 {
		types = parseTypes(defaultFileTypes)
	}
	return types
}

func parseTypes(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		ext := strings.ToLower(strings.TrimSpace(part))
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	return out
}

// AcceptList 用于 <input type="file" accept="...">
func AcceptList(cfg config.UploadConfig) string {
	types := AllowedTypes(cfg)
	for i, t := range types {
		types[i] = "." + t
	}
	return strings.Join(types, ",")
}

func disallowed(cfg config.UploadConfig) *UploadError {
	return &UploadError{
		Reason: ReasonDisallowedType,
		Msg:    fmt.Sprintf("Invalid file type. Allowed types: %s", strings.Join(AllowedTypes(cfg), ",")),
	}
}
