package srs

import (
	"sort"
	"time"

	"lingua_edu_backend/internal/model"
)

// 循环日含义：0 = 上课日，1..6 = 课后练习日，7 = 空闲（纯复习）
const (
	ClassDay = 0
	IdleDay  = 7
)

// CycleResult 练习循环解析结果
type CycleResult struct {
	CycleDay     int
	ActiveLesson *model.LessonRef
	IsClassDay   bool
}

// ResolveCycle 由学员的排课和今天的日期决定当前处于哪节课的第几个练习日。
//
// 规则：今天有课则一律是上课日（优先于一切）；否则取最近一节
// 尚未练满 6 天的过去课程，下一练习日 = completedPracticeDays + 1，
// 但不允许超过已过天数（不能抢先练还没到的天；落后了可以按
// 自己的真实进度补练）。都不满足则回到空闲复习态。
func ResolveCycle(lessons []model.LessonRef, today time.Time) CycleResult {
	dated := make([]model.LessonRef, 0, len(lessons))
	for _, l := range lessons {
		if !l.ScheduledDate.IsZero() {
			dated = append(dated, l)
		}
	}
	sort.Slice(dated, func(i, j int) bool {
		return dated[i].ScheduledDate.After(dated[j].ScheduledDate)
	})

	for i := range dated {
		if DaysBetween(dated[i].ScheduledDate, today) == 0 {
			return CycleResult{CycleDay: ClassDay, ActiveLesson: &dated[i], IsClassDay: true}
		}
	}

	for i := range dated {
		daysSince := DaysBetween(dated[i].ScheduledDate, today)
		if daysSince <= 0 {
			continue // 未来的课
		}
		if dated[i].CompletedPracticeDays >= model.MaxPracticeDays {
			continue
		}
		nextDay := dated[i].CompletedPracticeDays + 1
		if nextDay <= model.MaxPracticeDays && nextDay <= daysSince {
			return CycleResult{CycleDay: nextDay, ActiveLesson: &dated[i]}
		}
		// 最近一节未练满的课也不可推进时，不再回溯更早的课
		break
	}

	return CycleResult{CycleDay: IdleDay}
}
