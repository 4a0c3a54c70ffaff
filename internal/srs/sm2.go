// Package srs 实现练习调度的纯计算核心：SM-2 记忆更新、
// 课后练习循环解析和循环日到练习模式的映射。
// 包内不做任何 IO，时间一律由调用方显式传入。
package srs

import (
	"math"
	"time"

	"lingua_edu_backend/internal/model"
)

const (
	// 3 分及以上算回忆成功
	PassThreshold = 3

	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxEaseFactor     = 2.6

	// 前两次成功复习使用固定短间隔
	FirstInterval  = 1
	SecondInterval = 6

	// 最大复习间隔 - 1 年
	MaxInterval = 365

	// 遗忘时 easeFactor 的惩罚
	LapsePenalty = 0.2
)

// NextState 按 SM-2 规则由 (评分, 先前记忆状态) 计算新的记忆状态。
// prior 为 nil 表示首次复习。纯函数，不写 Status 和 LastReviewedAt，
// 由提交流程统一填充。
func NextState(itemID string, kind model.ItemKind, grade int, prior *model.MemoryRecord, now time.Time) model.MemoryRecord {
	if grade < 0 {
		grade = 0
	}
	if grade > 5 {
		grade = 5
	}

	next := model.MemoryRecord{
		ItemID:     itemID,
		ItemKind:   kind,
		EaseFactor: DefaultEaseFactor,
	}
	if prior != nil {
		next.Interval = prior.Interval
		next.Repetition = prior.Repetition
		next.EaseFactor = prior.EaseFactor
	}

	if grade < PassThreshold {
		// 遗忘：重置重复计数，间隔回到 1 天
		next.Repetition = 0
		next.Interval = 1
		next.EaseFactor = clampEase(next.EaseFactor - LapsePenalty)
		next.DueDate = startOfDay(now).AddDate(0, 0, 1)
		return next
	}

	// 标准 SM-2 ease 调整：EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
	q := float64(grade)
	next.EaseFactor = clampEase(next.EaseFactor + (0.1 - (5.0-q)*(0.08+(5.0-q)*0.02)))

	switch next.Repetition {
	case 0:
		next.Interval = FirstInterval
	case 1:
		next.Interval = SecondInterval
	default:
		next.Interval = int(math.Round(float64(next.Interval) * next.EaseFactor))
	}
	if next.Interval > MaxInterval {
		next.Interval = MaxInterval
	}
	if next.Interval < 1 {
		next.Interval = 1
	}

	next.Repetition++
	next.DueDate = startOfDay(now).AddDate(0, 0, next.Interval)
	return next
}

func clampEase(ef float64) float64 {
	if ef < MinEaseFactor {
		return MinEaseFactor
	}
	if ef > MaxEaseFactor {
		return MaxEaseFactor
	}
	return ef
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween 日历日差值（b - a），按各自所在时区的零点计算。
// 四舍五入吸收夏令时造成的 23/25 小时天。
func DaysBetween(a, b time.Time) int {
	return int(math.Round(startOfDay(b).Sub(startOfDay(a)).Hours() / 24))
}

// IsDue 截止日期落在 today 当天或之前即视为到期
func IsDue(rec model.MemoryRecord, today time.Time) bool {
	return !rec.DueDate.After(endOfDay(today))
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Nanosecond)
}
