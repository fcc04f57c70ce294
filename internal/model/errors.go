package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEntity 实体或存储接口的声明不合法
// 这类错误只影响出错的单元，其他单元照常生成
var ErrInvalidEntity = errors.New("无效实体")

// ErrInternal 生成器自身的缺陷，永远不会被当作 ErrInvalidEntity
var ErrInternal = errors.New("内部错误")

// EntityError 描述某个声明的违规
type EntityError struct {
	Type    string // 实体或存储接口名
	Member  string // 字段或方法名，可为空
	Message string
	Cause   error
}

func (e *EntityError) Error() string {
	var sb strings.Builder
	sb.WriteString(ErrInvalidEntity.Error())
	sb.WriteString(" ")
	sb.WriteString(e.Type)
	if e.Member != "" {
		sb.WriteString(".")
		sb.WriteString(e.Member)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *EntityError) Unwrap() error {
	return e.Cause
}

// Is 使 errors.Is(err, ErrInvalidEntity) 成立
func (e *EntityError) Is(target error) bool {
	return target == ErrInvalidEntity
}

// Invalidf 构造 EntityError
func Invalidf(typ, member, format string, args ...any) *EntityError {
	return &EntityError{Type: typ, Member: member, Message: fmt.Sprintf(format, args...)}
}

// Wrap 为 EntityError 附加底层原因
func (e *EntityError) Wrap(cause error) *EntityError {
	e.Cause = cause
	return e
}

// Internalf 构造内部错误
func Internalf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInternal, fmt.Sprintf(format, args...))
}
