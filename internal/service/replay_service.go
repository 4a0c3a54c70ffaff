package service

import (
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/srs"
	"lingua_edu_backend/internal/util"
	"lingua_edu_backend/pkg/monitoring"

	"gorm.io/gorm"
)

// 回放计价
const (
	ReplayBaseCost      = 50
	ReplayCostPerDay    = 10 // 当前循环内每落后一天
	ReplayCostPerLesson = 1  // 历史课每过一天
)

// ReplayService 重开过去会话的计价与扣费。
// 回放本身不产生任何记忆/激励副作用，只是信息性的。
type ReplayService struct {
	PlanRepo *repository.PlanRepository
	DB       *gorm.DB
}

func NewReplayService(planRepo *repository.PlanRepository, db *gorm.DB) *ReplayService {
	return &ReplayService{PlanRepo: planRepo, DB: db}
}

// ReplayCost 计算回放花费。lessonID 非空时按历史课计价，
// 否则按当前循环内日差计价。
func ReplayCost(plan *model.Plan, replayDayIndex, currentDayIndex int, lessonID string, now time.Time) (int, error) {
	if lessonID != "" {
		lesson, _ := plan.FindLesson(lessonID)
		if lesson == nil {
			return 0, util.ErrLessonNotFound
		}
		daysSince := srs.DaysBetween(lesson.ScheduledDate, now)
		if daysSince < 0 {
			daysSince = 0
		}
		return ReplayBaseCost + daysSince*ReplayCostPerLesson, nil
	}

	behind := currentDayIndex - replayDayIndex
	if behind < 0 {
		behind = 0
	}
	return ReplayBaseCost + behind*ReplayCostPerDay, nil
}

// PurchaseReplay 原子地校验并扣减经验值，返回本次花费。
// 余额不足返回带所需花费的 InsufficientXPError，不落任何写入。
func (s *ReplayService) PurchaseReplay(planID string, replayDayIndex, currentDayIndex int, lessonID string, now time.Time) (int, error) {
	if planID == "" {
		return 0, util.ErrInvalidSubmission
	}

	plan, err := s.PlanRepo.FindByID(planID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, util.ErrPlanNotFound
		}
		return 0, err
	}

	cost, err := ReplayCost(plan, replayDayIndex, currentDayIndex, lessonID, now)
	if err != nil {
		return 0, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		gam, err := repository.LockGamification(tx, plan.StudentID)
		if err != nil {
			return err
		}
		if gam.CurrentXP < cost {
			return &util.InsufficientXPError{Required: cost, Available: gam.CurrentXP}
		}
		gam.CurrentXP -= cost
		return tx.Save(gam).Error
	})

	if err != nil {
		if _, ok := err.(*util.InsufficientXPError); ok {
			monitoring.ReplayPurchases.WithLabelValues("insufficient").Inc()
		} else {
			monitoring.ReplayPurchases.WithLabelValues("error").Inc()
		}
		return cost, err
	}

	monitoring.ReplayPurchases.WithLabelValues("ok").Inc()
	return cost, nil
}
