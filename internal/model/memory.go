package model

import (
	"time"
)

type ItemKind string

const (
	KindVocabulary ItemKind = "vocabulary"
	KindStructure  ItemKind = "structure"
)

type MemoryStatus string

const (
	StatusLearning MemoryStatus = "learning"
	StatusLearned  MemoryStatus = "learned"
	StatusMastered MemoryStatus = "mastered"
)

// 学习/已学/已掌握 的间隔阈值（天）
const (
	LearnedIntervalDays  = 7
	MasteredIntervalDays = 30
)

// MemoryRecord 一个学员对一个学习条目的长期记忆状态。
// 仅由结果提交流程修改，只覆盖不删除。
// swagger:model MemoryRecord
type MemoryRecord struct {
	ItemID         string       `json:"itemId"`
	ItemKind       ItemKind     `json:"itemKind"`
	Interval       int          `json:"interval"`   // 复习间隔（天）
	Repetition     int          `json:"repetition"` // 连续成功次数
	EaseFactor     float64      `json:"easeFactor"`
	DueDate        time.Time    `json:"dueDate"`
	LastReviewedAt *time.Time   `json:"lastReviewedAt,omitempty"`
	Status         MemoryStatus `json:"status"`
}

// StatusForInterval 由间隔推导记忆状态，阈值见上面的常量
func StatusForInterval(interval int) MemoryStatus {
	switch {
	case interval < LearnedIntervalDays:
		return StatusLearning
	case interval < MasteredIntervalDays:
		return StatusLearned
	default:
		return StatusMastered
	}
}

// ReviewedOn 判断该条目是否在指定日历日已复习过
func (m MemoryRecord) ReviewedOn(day time.Time) bool {
	if m.LastReviewedAt == nil {
		return false
	}
	y1, m1, d1 := m.LastReviewedAt.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
