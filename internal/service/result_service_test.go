package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lingua_edu_backend/internal/model"
	"lingua_edu_backend/internal/repository"
	"lingua_edu_backend/internal/srs"
	"lingua_edu_backend/internal/util"

	"gorm.io/gorm"
)

func newResultFixture(t *testing.T) (*ResultService, *gorm.DB, *repository.SessionStateRepository) {
	t.Helper()
	db := newTestDB(t)
	rdb := newTestRedis(t)
	planRepo, _, _, sessionRepo := newTestRepos(t, db, rdb)
	return NewResultService(planRepo, sessionRepo, db), db, sessionRepo
}

func seedCommitPlan(t *testing.T, db *gorm.DB, classDate time.Time, srsMap map[string]model.MemoryRecord) {
	t.Helper()
	if srsMap == nil {
		srsMap = map[string]model.MemoryRecord{}
	}
	mustCreate(t, db, &model.Plan{
		UUIDBase:  model.UUIDBase{ID: "plan-1"},
		StudentID: 7,
		Lessons: []model.LessonRef{
			{ID: "lesson-1", ScheduledDate: classDate, LearningItemIDs: []string{"v1", "v2"}},
		},
		SRSMap: srsMap,
	})
}

func TestSubmitResultsCommitsEverything(t *testing.T) {
	svc, db, sessionRepo := newResultFixture(t)
	ctx := context.Background()

	classDate := day(2026, time.March, 2)
	now := classDate.AddDate(0, 0, 1)
	seedCommitPlan(t, db, classDate, nil)

	if err := sessionRepo.Save(ctx, &model.SessionState{PlanID: "plan-1", Mode: "flashcard"}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	results := []GradedResult{
		{ItemID: "v1", Kind: model.KindVocabulary, Grade: 5},
		{ItemID: "v2", Kind: model.KindVocabulary, Grade: 4},
		{ItemID: "s1", Kind: model.KindStructure, Grade: 2},
	}
	if err := svc.SubmitResults(ctx, "plan-1", results, false, 3, now); err != nil {
		t.Fatalf("SubmitResults: %v", err)
	}

	// 经验值：2 个正确 ×10 + 连击 3×2
	gam := reloadGamification(t, db, 7)
	if gam.CurrentXP != 26 {
		t.Fatalf("xp = %d, want 26", gam.CurrentXP)
	}
	if gam.StreakCurrent != 1 || gam.StreakBest != 1 {
		t.Fatalf("streak = %d/%d, want 1/1", gam.StreakCurrent, gam.StreakBest)
	}
	if gam.Heatmap[now.Format(util.DateFormat)] != 1 {
		t.Fatalf("heatmap = %v", gam.Heatmap)
	}

	plan := reloadPlan(t, db, "plan-1")
	rec, ok := plan.SRSMap["v1"]
	if !ok {
		t.Fatal("v1 memory record missing")
	}
	if rec.Repetition != 1 || rec.Interval != srs.FirstInterval {
		t.Fatalf("v1 after first success = rep %d interval %d", rec.Repetition, rec.Interval)
	}
	if rec.LastReviewedAt == nil || rec.Status != model.StatusLearning {
		t.Fatalf("v1 stamping = %+v", rec)
	}
	if fail, ok := plan.SRSMap["s1"]; !ok || fail.Repetition != 0 {
		t.Fatalf("failed item should reset repetition, got %+v", fail)
	}
	if plan.Lessons[0].CompletedPracticeDays != 1 {
		t.Fatalf("cycle should advance by one day, got %d", plan.Lessons[0].CompletedPracticeDays)
	}

	// 提交成功后会话快照被丢弃
	if _, err := sessionRepo.Get(ctx, "plan-1"); !errors.Is(err, util.ErrSessionNotFound) {
		t.Fatalf("session after commit = %v, want cleared", err)
	}
}

func TestSubmitResultsLapseResetsMemory(t *testing.T) {
	svc, db, _ := newResultFixture(t)

	classDate := day(2026, time.March, 2)
	now := classDate.AddDate(0, 0, 1)
	seedCommitPlan(t, db, classDate, map[string]model.MemoryRecord{
		"v1": {ItemID: "v1", ItemKind: model.KindVocabulary, Interval: 20, Repetition: 4, EaseFactor: 2.1},
	})

	err := svc.SubmitResults(context.Background(), "plan-1",
		[]GradedResult{{ItemID: "v1", Grade: 1}}, false, 0, now)
	if err != nil {
		t.Fatalf("SubmitResults: %v", err)
	}

	rec := reloadPlan(t, db, "plan-1").SRSMap["v1"]
	if rec.Repetition != 0 || rec.Interval != 1 {
		t.Fatalf("lapse = rep %d interval %d, want rep 0 interval 1", rec.Repetition, rec.Interval)
	}
	if rec.EaseFactor >= 2.1 {
		t.Fatalf("ease factor should drop below 2.1, got %v", rec.EaseFactor)
	}
	// 缺 Kind 的结果沿用既有记录的条目类型
	if rec.ItemKind != model.KindVocabulary {
		t.Fatalf("kind = %q", rec.ItemKind)
	}
}

func TestSubmitResultsReplayHasNoSideEffects(t *testing.T) {
	svc, db, sessionRepo := newResultFixture(t)
	ctx := context.Background()

	classDate := day(2026, time.March, 2)
	seedCommitPlan(t, db, classDate, map[string]model.MemoryRecord{
		"v1": {ItemID: "v1", ItemKind: model.KindVocabulary, Interval: 6, Repetition: 2, EaseFactor: 2.5},
	})
	mustCreate(t, db, &model.Gamification{StudentID: 7, CurrentXP: 100, StreakCurrent: 4, StreakBest: 9})
	if err := sessionRepo.Save(ctx, &model.SessionState{PlanID: "plan-1"}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	err := svc.SubmitResults(ctx, "plan-1",
		[]GradedResult{{ItemID: "v1", Grade: 5}}, true, 10, classDate.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("SubmitResults replay: %v", err)
	}

	gam := reloadGamification(t, db, 7)
	if gam.CurrentXP != 100 || gam.StreakCurrent != 4 {
		t.Fatalf("replay mutated gamification: %+v", gam)
	}
	plan := reloadPlan(t, db, "plan-1")
	if plan.SRSMap["v1"].Repetition != 2 || plan.Lessons[0].CompletedPracticeDays != 0 {
		t.Fatal("replay mutated plan state")
	}
	if _, err := sessionRepo.Get(ctx, "plan-1"); err != nil {
		t.Fatalf("replay should leave the session snapshot alone, got %v", err)
	}
}

func TestSubmitResultsStreakArithmetic(t *testing.T) {
	classDate := day(2026, time.March, 2)

	tests := []struct {
		name       string
		lastStudy  *time.Time
		prevStreak int
		prevBest   int
		wantStreak int
		wantBest   int
	}{
		{name: "first ever", lastStudy: nil, wantStreak: 1, wantBest: 1},
		{name: "same day keeps streak", lastStudy: timePtr(classDate.AddDate(0, 0, 3)), prevStreak: 5, prevBest: 5, wantStreak: 5, wantBest: 5},
		{name: "next day increments", lastStudy: timePtr(classDate.AddDate(0, 0, 2)), prevStreak: 5, prevBest: 5, wantStreak: 6, wantBest: 6},
		{name: "gap resets", lastStudy: timePtr(classDate), prevStreak: 5, prevBest: 9, wantStreak: 1, wantBest: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, _ := newResultFixture(t)
			now := classDate.AddDate(0, 0, 3)
			seedCommitPlan(t, db, classDate, nil)
			mustCreate(t, db, &model.Gamification{
				StudentID:     7,
				StreakCurrent: tt.prevStreak,
				StreakBest:    tt.prevBest,
				LastStudyDate: tt.lastStudy,
			})

			err := svc.SubmitResults(context.Background(), "plan-1",
				[]GradedResult{{ItemID: "v1", Grade: 4}}, false, 0, now)
			if err != nil {
				t.Fatalf("SubmitResults: %v", err)
			}

			gam := reloadGamification(t, db, 7)
			if gam.StreakCurrent != tt.wantStreak || gam.StreakBest != tt.wantBest {
				t.Fatalf("streak = %d/%d, want %d/%d", gam.StreakCurrent, gam.StreakBest, tt.wantStreak, tt.wantBest)
			}
			if gam.LastStudyDate == nil || !gam.LastStudyDate.Equal(now) {
				t.Fatalf("last study date = %v, want %v", gam.LastStudyDate, now)
			}
		})
	}
}

func TestSubmitResultsCycleCapsAtSixDays(t *testing.T) {
	svc, db, _ := newResultFixture(t)

	classDate := day(2026, time.March, 2)
	mustCreate(t, db, &model.Plan{
		UUIDBase:  model.UUIDBase{ID: "plan-1"},
		StudentID: 7,
		Lessons: []model.LessonRef{
			{ID: "lesson-1", ScheduledDate: classDate, CompletedPracticeDays: model.MaxPracticeDays},
		},
		SRSMap: map[string]model.MemoryRecord{},
	})

	err := svc.SubmitResults(context.Background(), "plan-1",
		[]GradedResult{{ItemID: "v1", Grade: 4}}, false, 0, classDate.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("SubmitResults: %v", err)
	}

	plan := reloadPlan(t, db, "plan-1")
	if plan.Lessons[0].CompletedPracticeDays != model.MaxPracticeDays {
		t.Fatalf("completed days = %d, must never exceed %d", plan.Lessons[0].CompletedPracticeDays, model.MaxPracticeDays)
	}
}

func TestSubmitResultsNoCycleAdvanceOnClassDay(t *testing.T) {
	svc, db, _ := newResultFixture(t)

	classDate := day(2026, time.March, 2)
	seedCommitPlan(t, db, classDate, nil)

	err := svc.SubmitResults(context.Background(), "plan-1",
		[]GradedResult{{ItemID: "v1", Grade: 4}}, false, 0, classDate)
	if err != nil {
		t.Fatalf("SubmitResults: %v", err)
	}

	plan := reloadPlan(t, db, "plan-1")
	if plan.Lessons[0].CompletedPracticeDays != 0 {
		t.Fatal("class day submission must not advance the practice cycle")
	}
}

func TestSubmitResultsValidation(t *testing.T) {
	svc, db, _ := newResultFixture(t)
	seedCommitPlan(t, db, day(2026, time.March, 2), nil)
	ctx := context.Background()

	if err := svc.SubmitResults(ctx, "", nil, false, 0, time.Now()); !errors.Is(err, util.ErrInvalidSubmission) {
		t.Fatalf("empty plan id err = %v", err)
	}
	err := svc.SubmitResults(ctx, "plan-1", []GradedResult{{ItemID: "", Grade: 3}}, false, 0, time.Now())
	if !errors.Is(err, util.ErrInvalidSubmission) {
		t.Fatalf("empty item id err = %v", err)
	}
	err = svc.SubmitResults(ctx, "missing", []GradedResult{{ItemID: "v1", Grade: 3}}, false, 0, time.Now())
	if !errors.Is(err, util.ErrPlanNotFound) {
		t.Fatalf("missing plan err = %v", err)
	}
}

func timePtr(t time.Time) *time.Time {
	return &t
}
