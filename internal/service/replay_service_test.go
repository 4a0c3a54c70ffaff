package service

import (
	"errors"
	"testing"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/util"
)

func TestReplayCostCurrentCycle(t *testing.T) {
	plan := &model.Plan{}
	now := day(2026, time.March, 10)

	tests := []struct {
		name       string
		replayDay  int
		currentDay int
		want       int
	}{
		{name: "three days behind", replayDay: 2, currentDay: 5, want: 80},
		{name: "one day behind", replayDay: 4, currentDay: 5, want: 60},
		{name: "same day", replayDay: 5, currentDay: 5, want: 50},
		{name: "negative diff clamps", replayDay: 6, currentDay: 5, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReplayCost(plan, tt.replayDay, tt.currentDay, "", now)
			if err != nil {
				t.Fatalf("ReplayCost: %v", err)
			}
			if got != tt.want {
				t.Fatalf("cost = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReplayCostPastLesson(t *testing.T) {
	now := day(2026, time.March, 15)
	plan := &model.Plan{
		Lessons: []model.LessonRef{
			{ID: "lesson-1", ScheduledDate: now.AddDate(0, 0, -10)},
			{ID: "lesson-2", ScheduledDate: now.AddDate(0, 0, 3)}, // 未来课按 0 天计
		},
	}

	got, err := ReplayCost(plan, 0, 0, "lesson-1", now)
	if err != nil {
		t.Fatalf("ReplayCost: %v", err)
	}
	if got != 60 {
		t.Fatalf("10-day-old lesson cost = %d, want 60", got)
	}

	got, err = ReplayCost(plan, 0, 0, "lesson-2", now)
	if err != nil {
		t.Fatalf("ReplayCost: %v", err)
	}
	if got != ReplayBaseCost {
		t.Fatalf("future lesson cost = %d, want base %d", got, ReplayBaseCost)
	}

	if _, err := ReplayCost(plan, 0, 0, "nope", now); !errors.Is(err, util.ErrLessonNotFound) {
		t.Fatalf("unknown lesson err = %v", err)
	}
}

func TestPurchaseReplayDebitsXP(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	planRepo, _, _, _ := newTestRepos(t, db, rdb)
	svc := NewReplayService(planRepo, db)

	mustCreate(t, db, &model.Plan{UUIDBase: model.UUIDBase{ID: "plan-1"}, StudentID: 7})
	mustCreate(t, db, &model.Gamification{StudentID: 7, CurrentXP: 100})

	cost, err := svc.PurchaseReplay("plan-1", 2, 5, "", day(2026, time.March, 10))
	if err != nil {
		t.Fatalf("PurchaseReplay: %v", err)
	}
	if cost != 80 {
		t.Fatalf("cost = %d, want 80", cost)
	}
	if gam := reloadGamification(t, db, 7); gam.CurrentXP != 20 {
		t.Fatalf("xp after purchase = %d, want 20", gam.CurrentXP)
	}
}

func TestPurchaseReplayInsufficientXP(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	planRepo, _, _, _ := newTestRepos(t, db, rdb)
	svc := NewReplayService(planRepo, db)

	mustCreate(t, db, &model.Plan{UUIDBase: model.UUIDBase{ID: "plan-1"}, StudentID: 7})
	mustCreate(t, db, &model.Gamification{StudentID: 7, CurrentXP: 10})

	_, err := svc.PurchaseReplay("plan-1", 2, 5, "", day(2026, time.March, 10))
	var insufficient *util.InsufficientXPError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientXPError", err)
	}
	if insufficient.Required != 80 || insufficient.Available != 10 {
		t.Fatalf("error payload = %+v", insufficient)
	}
	// 扣费失败不落任何写入
	if gam := reloadGamification(t, db, 7); gam.CurrentXP != 10 {
		t.Fatalf("xp = %d, must be untouched", gam.CurrentXP)
	}
}

func TestPurchaseReplayPlanNotFound(t *testing.T) {
	db := newTestDB(t)
	rdb := newTestRedis(t)
	planRepo, _, _, _ := newTestRepos(t, db, rdb)
	svc := NewReplayService(planRepo, db)

	if _, err := svc.PurchaseReplay("missing", 1, 2, "", time.Now()); !errors.Is(err, util.ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
}
