package model

import (
	"time"
)

type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
)

// 每节课最多 6 天课后练习循环
const MaxPracticeDays = 6

// Plan 学员的学习计划聚合：排课列表 + SRS 记忆映射。
// 单个学员独占，跨请求的并发写入通过行锁串行化。
// swagger:model Plan
type Plan struct {
	UUIDBase
	StudentID uint                    `gorm:"index;type:bigint unsigned;not null" json:"studentId"`
	Status    PlanStatus              `gorm:"size:20;default:'active'" json:"status"`
	Lessons   []LessonRef             `gorm:"type:json;serializer:json" json:"lessons"`
	SRSMap    map[string]MemoryRecord `gorm:"type:json;serializer:json" json:"srsMap"`
}

func (Plan) TableName() string {
	return "plans"
}

// FindLesson 按 ID 查找课程引用，返回下标便于原地修改
func (p *Plan) FindLesson(lessonID string) (*LessonRef, int) {
	for i := range p.Lessons {
		if p.Lessons[i].ID == lessonID {
			return &p.Lessons[i], i
		}
	}
	return nil, -1
}

// LessonRef 计划内的一节课：排课日期、练习循环进度以及
// 内容流水线写入的条目/语法引用、测验和听力材料。
type LessonRef struct {
	ID                    string              `json:"id"`
	Title                 string              `json:"title"`
	ScheduledDate         time.Time           `json:"scheduledDate"`
	CompletedPracticeDays int                 `json:"completedPracticeDays"` // 0..6，单调递增
	LearningItemIDs       []string            `json:"learningItemsIds"`
	LearningStructureIDs  []string            `json:"learningStructureIds"`
	Quiz                  *Quiz               `json:"quiz,omitempty"`
	TranscriptSegments    []TranscriptSegment `json:"transcriptSegments,omitempty"`
	AudioURL              string              `json:"audioUrl,omitempty"`
	AudioDuration         float64             `json:"audioDuration,omitempty"` // 秒
}

// HasAudio 听力模式需要课程音频
func (l *LessonRef) HasAudio() bool {
	return l.AudioURL != ""
}

// Quiz 课程附带的预生成测验（由内容流水线产出，调度器只读）
type Quiz struct {
	Title     string         `json:"title,omitempty"`
	Questions []QuizQuestion `json:"questions"`
}

type QuizQuestion struct {
	ID      string   `json:"id"`
	ItemID  string   `json:"itemId,omitempty"` // 关联的词汇/语法条目，用于按记忆状态加权
	Kind    ItemKind `json:"kind,omitempty"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Answer  int      `json:"answer"`
}

// TranscriptSegment 听力互动模式的字幕分段
type TranscriptSegment struct {
	Start   float64  `json:"start"`
	End     float64  `json:"end"`
	Text    string   `json:"text"`
	ItemID  string   `json:"itemId,omitempty"`
	Options []string `json:"options,omitempty"`
	Answer  int      `json:"answer,omitempty"`
}
