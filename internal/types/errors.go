package types

import (
	"errors"
	"fmt"
)

// 基础错误类型
var (
	ErrDataInvalid     = errors.New("职业目录数据无效")
	ErrEmbeddingFailed = errors.New("文本向量化失败")
	ErrValidation      = errors.New("请求参数校验失败")
	ErrNotFound        = errors.New("未找到对应职业")
)

// CareerError 携带操作上下文的错误
type CareerError struct {
	Op      string
	BaseErr error
	Detail  string
}

func (e *CareerError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s): %s", e.BaseErr, e.Op, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s)", e.BaseErr, e.Op)
}

func (e *CareerError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *CareerError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewDataError 目录数据错误，启动阶段致命
func NewDataError(op, detail string) error {
	return &CareerError{Op: op, BaseErr: ErrDataInvalid, Detail: detail}
}

// NewEmbeddingError 向量化失败，当前请求失败，不重试
func NewEmbeddingError(op string, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &CareerError{Op: op, BaseErr: ErrEmbeddingFailed, Detail: detail}
}

func NewValidationError(op, detail string) error {
	return &CareerError{Op: op, BaseErr: ErrValidation, Detail: detail}
}

func NewNotFoundError(op, title string) error {
	return &CareerError{Op: op, BaseErr: ErrNotFound, Detail: fmt.Sprintf("title=%q", title)}
}
