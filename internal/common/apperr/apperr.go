package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类（对应不同的处理策略与 HTTP 状态码）。
type Kind int

const (
	KindInternal     Kind = iota // 未分类的内部错误
	KindInvalidInput             // 入参非法（含逐字段明细），调用方不应自动重试
	KindNotFound                 // 实体不存在
	KindConflict                 // 状态冲突（重复车牌、重复绑定等），需调用方先解决状态
	KindForbidden                // 身份无权访问该资源
	KindTransient                // 临时性故障（存储超时等），可重试
)

// Error 业务错误，携带分类与可选的逐字段明细。
type Error struct {
	Kind   Kind
	Msg    string
	Fields []string // 仅 KindInvalidInput 使用
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 保留底层错误链（errors.Is/As 可穿透）。
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, cause: cause}
}

// Invalid 入参错误，fields 为逐字段的校验信息。
func Invalid(msg string, fields ...string) *Error {
	return &Error{Kind: KindInvalidInput, Msg: msg, Fields: fields}
}

func NotFound(msg string) *Error  { return New(KindNotFound, msg) }
func Conflict(msg string) *Error  { return New(KindConflict, msg) }
func Forbidden(msg string) *Error { return New(KindForbidden, msg) }

// KindOf 提取错误分类；非 *Error 一律按 Internal 处理。
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsTransient 判断是否可重试。
func IsTransient(err error) bool {
	return KindOf(err) == KindTransient
}

// HTTPStatus 错误分类到 HTTP 状态码的映射。
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FieldsOf 返回逐字段明细（没有则为 nil）。
func FieldsOf(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
