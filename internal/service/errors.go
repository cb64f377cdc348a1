package service

import (
	"errors"
	"strings"
)

// 业务错误哨兵。transport 层统一映射成响应码，
// 不属于这里的一律按 Internal 处理（细节只进日志）。
var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("not a permitted party")
	ErrWrongState         = errors.New("incompatible task status")
	ErrNotOpen            = errors.New("task no longer available")
	ErrSelfAccept         = errors.New("cannot accept own task")
	ErrExpired            = errors.New("task has expired")
	ErrRateLimited        = errors.New("rate limited, retry later")
	ErrConflict           = errors.New("lost concurrent update")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrLevelTooLow        = errors.New("bronze level required")
	ErrAlreadyRated       = errors.New("already rated this task")
	ErrInvalidReceiver    = errors.New("receiver is not the other party")
	ErrAlreadyTerminal    = errors.New("task already completed or cancelled")
	ErrValidation         = errors.New("invalid input")
)

// IsDupKey 唯一冲突跨驱动判断（mysql/postgres/sqlite 文案各不相同）
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
