package srs

import (
	"testing"
	"time"

	"lingua_edu_backend/internal/model"
)

var testNow = time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

func TestNextStateFirstReview(t *testing.T) {
	rec := NextState("w1", model.KindVocabulary, 5, nil, testNow)

	if rec.Repetition != 1 {
		t.Errorf("repetition = %d, want 1", rec.Repetition)
	}
	if rec.Interval != FirstInterval {
		t.Errorf("interval = %d, want %d", rec.Interval, FirstInterval)
	}
	wantDue := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if !rec.DueDate.Equal(wantDue) {
		t.Errorf("dueDate = %v, want %v", rec.DueDate, wantDue)
	}
	if rec.ItemID != "w1" || rec.ItemKind != model.KindVocabulary {
		t.Errorf("identity not carried: %+v", rec)
	}
}

func TestNextStateLapseResetsRepetition(t *testing.T) {
	prior := &model.MemoryRecord{
		ItemID:     "w1",
		ItemKind:   model.KindVocabulary,
		Interval:   20,
		Repetition: 4,
		EaseFactor: 2.1,
	}

	rec := NextState("w1", model.KindVocabulary, 1, prior, testNow)

	if rec.Repetition != 0 {
		t.Errorf("repetition = %d, want 0", rec.Repetition)
	}
	if rec.Interval != 1 {
		t.Errorf("interval = %d, want 1", rec.Interval)
	}
	if rec.EaseFactor >= 2.1 {
		t.Errorf("easeFactor = %.2f, want < 2.1", rec.EaseFactor)
	}
	wantDue := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if !rec.DueDate.Equal(wantDue) {
		t.Errorf("dueDate = %v, want %v", rec.DueDate, wantDue)
	}
}

func TestNextStateSuccessGrowsInterval(t *testing.T) {
	first := NextState("w1", model.KindVocabulary, 5, nil, testNow)
	second := NextState("w1", model.KindVocabulary, 5, &first, testNow.AddDate(0, 0, 1))
	third := NextState("w1", model.KindVocabulary, 5, &second, testNow.AddDate(0, 0, 7))

	if !(first.Interval < second.Interval && second.Interval < third.Interval) {
		t.Errorf("intervals not strictly increasing: %d, %d, %d",
			first.Interval, second.Interval, third.Interval)
	}
	for _, rec := range []model.MemoryRecord{first, second, third} {
		if rec.EaseFactor < MinEaseFactor || rec.EaseFactor > MaxEaseFactor {
			t.Errorf("easeFactor %.2f out of [%v, %v]", rec.EaseFactor, MinEaseFactor, MaxEaseFactor)
		}
	}
}

func TestNextStateEaseFactorBand(t *testing.T) {
	tests := []struct {
		name  string
		grade int
		prior float64
		dir   int // -1 下降, 0 不变, +1 上升
	}{
		{"perfect raises", 5, 2.0, +1},
		{"hesitation holds", 4, 2.0, 0},
		{"difficult lowers", 3, 2.0, -1},
		{"floor holds at min", 3, MinEaseFactor, 0},
		{"ceiling holds at max", 5, MaxEaseFactor, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := &model.MemoryRecord{Interval: 6, Repetition: 2, EaseFactor: tt.prior}
			rec := NextState("w1", model.KindVocabulary, tt.grade, prior, testNow)
			diff := rec.EaseFactor - tt.prior
			switch {
			case tt.dir > 0 && diff <= 0:
				t.Errorf("easeFactor %.3f -> %.3f, want increase", tt.prior, rec.EaseFactor)
			case tt.dir < 0 && diff >= 0:
				t.Errorf("easeFactor %.3f -> %.3f, want decrease", tt.prior, rec.EaseFactor)
			case tt.dir == 0 && (diff > 0.001 || diff < -0.001):
				t.Errorf("easeFactor %.3f -> %.3f, want unchanged", tt.prior, rec.EaseFactor)
			}
		})
	}
}

func TestNextStateMatureIntervalUsesEase(t *testing.T) {
	prior := &model.MemoryRecord{Interval: 10, Repetition: 2, EaseFactor: 2.0}
	rec := NextState("w1", model.KindVocabulary, 4, prior, testNow)

	// round(10 * 2.0) = 20（4 分不改变 ease）
	if rec.Interval != 20 {
		t.Errorf("interval = %d, want 20", rec.Interval)
	}
	if rec.Repetition != 3 {
		t.Errorf("repetition = %d, want 3", rec.Repetition)
	}
}

func TestNextStateCapsAtMaxInterval(t *testing.T) {
	prior := &model.MemoryRecord{Interval: 300, Repetition: 9, EaseFactor: 2.5}
	rec := NextState("w1", model.KindVocabulary, 5, prior, testNow)
	if rec.Interval != MaxInterval {
		t.Errorf("interval = %d, want capped at %d", rec.Interval, MaxInterval)
	}
}

func TestNextStateClampsGrade(t *testing.T) {
	low := NextState("w1", model.KindVocabulary, -3, nil, testNow)
	if low.Repetition != 0 || low.Interval != 1 {
		t.Errorf("grade below 0 should behave as lapse, got %+v", low)
	}
	high := NextState("w1", model.KindVocabulary, 9, nil, testNow)
	perfect := NextState("w1", model.KindVocabulary, 5, nil, testNow)
	if high.EaseFactor != perfect.EaseFactor || high.Interval != perfect.Interval {
		t.Errorf("grade above 5 should behave as 5: %+v vs %+v", high, perfect)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", testNow, testNow.Add(5 * time.Hour), 0},
		{"next day early morning", testNow, time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC), 1},
		{"five days", testNow, testNow.AddDate(0, 0, 5), 5},
		{"negative", testNow, testNow.AddDate(0, 0, -2), -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.want {
				t.Errorf("DaysBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsDue(t *testing.T) {
	rec := model.MemoryRecord{DueDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)}
	if !IsDue(rec, testNow) {
		t.Error("record due today should be due")
	}
	rec.DueDate = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	if IsDue(rec, testNow) {
		t.Error("record due in two days should not be due")
	}
}

func TestStatusForInterval(t *testing.T) {
	tests := []struct {
		interval int
		want     model.MemoryStatus
	}{
		{0, model.StatusLearning},
		{6, model.StatusLearning},
		{7, model.StatusLearned},
		{29, model.StatusLearned},
		{30, model.StatusMastered},
		{365, model.StatusMastered},
	}
	for _, tt := range tests {
		if got := model.StatusForInterval(tt.interval); got != tt.want {
			t.Errorf("StatusForInterval(%d) = %s, want %s", tt.interval, got, tt.want)
		}
	}
}
