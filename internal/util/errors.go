package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrEmailRegistered    = errors.New("该邮箱已被注册")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrLessonNotFound     = errors.New("lesson not found")
	ErrSessionNotFound    = errors.New("no saved session")
	ErrInvalidSubmission  = errors.New("submission is missing required identifiers")
	ErrPlanNotActive      = errors.New("plan is not active")
	ErrUnsupportedAudio   = errors.New("unsupported audio file type")
	ErrLessonAlreadyExist = errors.New("lesson already scheduled in plan")
)

// InsufficientXPError 回放购买余额不足，带上所需花费方便前端展示
type InsufficientXPError struct {
	Required  int
	Available int
}

func (e *InsufficientXPError) Error() string {
	return fmt.Sprintf("insufficient XP: need %d, have %d", e.Required, e.Available)
}
