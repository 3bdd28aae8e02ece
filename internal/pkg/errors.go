package pkg

import (
	"errors"
	"net/http"
)

// Kind 业务错误分类，传输层据此映射状态码
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindCapacityExceeded
	KindInvalidTransition
	KindValidation
	KindUnauthorized
)

var kindNames = map[Kind]string{
	KindInternal:          "internal",
	KindNotFound:          "not_found",
	KindForbidden:         "forbidden",
	KindConflict:          "conflict",
	KindCapacityExceeded:  "capacity_exceeded",
	KindInvalidTransition: "invalid_transition",
	KindValidation:        "validation",
	KindUnauthorized:      "unauthorized",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

type Error struct {
	Kind Kind
	Msg  string
}

func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func (e *Error) Error() string { return e.Msg }

// KindOf 取错误链上第一个 *Error 的分类，没有则视为 internal
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Validation 构造一次性的参数错误
func Validation(msg string) error {
	return NewError(KindValidation, msg)
}

// HTTPStatus 错误分类到状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict, KindCapacityExceeded, KindInvalidTransition:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
