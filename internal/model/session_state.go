package model

import (
	"time"
)

// SessionState 进行中练习的临时快照，存放在 Redis，
// 提交或显式放弃后删除，不落数据库。
// swagger:model SessionState
type SessionState struct {
	PlanID    string          `json:"planId"`
	LessonID  string          `json:"lessonId,omitempty"`
	Mode      string          `json:"mode"`
	CycleDay  int             `json:"cycleDay"`
	Position  int             `json:"position"` // 已答到第几题
	Answers   []AnswerSnippet `json:"answers"`
	StartedAt time.Time       `json:"startedAt"`
	SavedAt   time.Time       `json:"savedAt"`
}

// AnswerSnippet 会话快照内的单题作答
type AnswerSnippet struct {
	ItemID string   `json:"itemId"`
	Kind   ItemKind `json:"kind"`
	Grade  int      `json:"grade"` // 0..5
}
