package service

import (
	"context"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/srs"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/logger"
	"lingua_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 经验值计分
const (
	XPPerCorrect      = 10
	XPPerStreakPoint  = 2
	CorrectGradeFloor = srs.PassThreshold
)

// GradedResult 一场会话里单个条目的评分
type GradedResult struct {
	ItemID string         `json:"itemId" binding:"required"`
	Kind   model.ItemKind `json:"kind"`
	Grade  int            `json:"grade" binding:"min=0,max=5"`
}

// ResultService 把打完分的会话结果一次性折算回
// 记忆映射、激励状态和课程循环进度。
type ResultService struct {
	PlanRepo    *repository.PlanRepository
	SessionRepo *repository.SessionStateRepository
	DB          *gorm.DB
}

func NewResultService(planRepo *repository.PlanRepository, sessionRepo *repository.SessionStateRepository, db *gorm.DB) *ResultService {
	return &ResultService{PlanRepo: planRepo, SessionRepo: sessionRepo, DB: db}
}

// SubmitResults 提交会话结果。isReplay 的历史回放完全无副作用。
// 其余情况在一个事务里锁定计划和激励记录，
// 经验值、连续天数、热力图、记忆状态、循环推进要么全部生效要么全部回滚。
func (s *ResultService) SubmitResults(ctx context.Context, planID string, results []GradedResult, isReplay bool, sessionStreak int, now time.Time) error {
	if planID == "" {
		return util.ErrInvalidSubmission
	}
	for _, r := range results {
		if r.ItemID == "" {
			return util.ErrInvalidSubmission
		}
	}

	if isReplay {
		return nil
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var plan model.Plan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&plan, "id = ?", planID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return util.ErrPlanNotFound
			}
			return err
		}

		gam, err := repository.LockGamification(tx, plan.StudentID)
		if err != nil {
			return err
		}

		applyXP(gam, results, sessionStreak)
		applyStreak(gam, now)
		applyHeatmap(gam, now)
		applyMemory(&plan, results, now)
		advanceCycle(&plan, now)

		if err := tx.Save(&plan).Error; err != nil {
			return err
		}
		return tx.Save(gam).Error
	})

	if err != nil {
		monitoring.ResultCommits.WithLabelValues("error").Inc()
		return err
	}
	monitoring.ResultCommits.WithLabelValues("ok").Inc()

	// 提交成功后丢弃会话快照；失败不影响已提交的结果
	if err := s.SessionRepo.Clear(ctx, planID); err != nil {
		logger.Log.Warn("failed to clear session state after commit",
			zap.String("planId", planID), zap.Error(err))
	}
	return nil
}

func applyXP(gam *model.Gamification, results []GradedResult, sessionStreak int) {
	correct := 0
	for _, r := range results {
		if r.Grade >= CorrectGradeFloor {
			correct++
		}
	}
	gam.CurrentXP += correct*XPPerCorrect + sessionStreak*XPPerStreakPoint
}

// applyStreak 按日历日差更新连续学习天数：
// 同一天不变，隔一天 +1，断档重置为 1
func applyStreak(gam *model.Gamification, now time.Time) {
	switch {
	case gam.LastStudyDate == nil:
		gam.StreakCurrent = 1
	default:
		switch srs.DaysBetween(*gam.LastStudyDate, now) {
		case 0:
			// 今天已算过
		case 1:
			gam.StreakCurrent++
		default:
			gam.StreakCurrent = 1
		}
	}
	if gam.StreakCurrent > gam.StreakBest {
		gam.StreakBest = gam.StreakCurrent
	}
	t := now
	gam.LastStudyDate = &t
}

// applyHeatmap 热力图按会话数计，不按条目数
func applyHeatmap(gam *model.Gamification, now time.Time) {
	if gam.Heatmap == nil {
		gam.Heatmap = map[string]int{}
	}
	gam.Heatmap[now.Format(util.DateFormat)]++
}

func applyMemory(plan *model.Plan, results []GradedResult, now time.Time) {
	if plan.SRSMap == nil {
		plan.SRSMap = map[string]model.MemoryRecord{}
	}
	for _, r := range results {
		var prior *model.MemoryRecord
		if rec, ok := plan.SRSMap[r.ItemID]; ok {
			prior = &rec
		}
		kind := r.Kind
		if kind == "" && prior != nil {
			kind = prior.ItemKind
		}
		if kind == "" {
			kind = model.KindVocabulary
		}
		next := srs.NextState(r.ItemID, kind, r.Grade, prior, now)
		t := now
		next.LastReviewedAt = &t
		next.Status = model.StatusForInterval(next.Interval)
		plan.SRSMap[r.ItemID] = next
	}
}

// advanceCycle 用与组装会话时相同的解析逻辑定位当天的活动课程，
// 找到且未练满 6 天时推进恰好一天
func advanceCycle(plan *model.Plan, now time.Time) {
	res := srs.ResolveCycle(plan.Lessons, now)
	if res.IsClassDay || res.ActiveLesson == nil {
		return
	}
	lesson, idx := plan.FindLesson(res.ActiveLesson.ID)
	if lesson == nil {
		return
	}
	if lesson.CompletedPracticeDays < model.MaxPracticeDays {
		plan.Lessons[idx].CompletedPracticeDays++
	}
}
