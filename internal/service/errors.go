package service

import (
	"errors"

	"go.uber.org/zap"

	"github.com/DroppedLink/feedback/internal/pkg/logger"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindIntegrity
	KindUpload
	KindStorage
)

// Error 业务错误，Msg 可直接返回给调用方
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Msg: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Msg: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func Conflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Integrity(msg string) error {
	return &Error{Kind: KindIntegrity, Msg: msg}
}

func uploadFailed(msg string, err error) error {
	return &Error{Kind: KindUpload, Msg: msg, Err: err}
}

// storageFailed 记录底层错误，只向调用方返回通用提示
func storageFailed(msg string, err error) error {
	logger.L().Error(msg, zap.Error(err))
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// KindOf 非业务错误视为存储错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}
