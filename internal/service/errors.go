package service

import (
	"errors"
	"fmt"
)

// 业务错误分类,由 API 层映射为 HTTP 状态码
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// 冲突类错误,都可以用 errors.Is(err, ErrConflict) 判断
var (
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)
	ErrAlreadySettled    = fmt.Errorf("%w: already settled", ErrConflict)
	ErrRoomConflict      = fmt.Errorf("%w: room already booked", ErrConflict)
	ErrInsufficientFunds = fmt.Errorf("%w: insufficient undeposited cash", ErrConflict)
	ErrNoApprovers       = fmt.Errorf("%w: no approvers configured", ErrConflict)
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, what, id)
}
