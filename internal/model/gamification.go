package model

import (
	"time"
)

// Gamification 学员的激励状态：经验值、连续学习天数和学习热力图。
// 只由结果提交流程写入；回放购买会扣减 CurrentXP。
// swagger:model Gamification
type Gamification struct {
	BaseModel
	StudentID     uint           `gorm:"uniqueIndex;type:bigint unsigned;not null" json:"studentId"`
	CurrentXP     int            `gorm:"default:0" json:"currentXP"`
	StreakCurrent int            `gorm:"default:0" json:"streakCurrent"`
	StreakBest    int            `gorm:"default:0" json:"streakBest"`
	LastStudyDate *time.Time     `json:"lastStudyDate,omitempty"`
	Heatmap       map[string]int `gorm:"type:json;serializer:json" json:"studyHeatmap"` // 日期(2006-01-02) -> 当日完成的练习场次
}

func (Gamification) TableName() string {
	return "gamifications"
}
