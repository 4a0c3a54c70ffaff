package srs

import "testing"

func TestModeForDay(t *testing.T) {
	tests := []struct {
		day  int
		want Mode
	}{
		{0, ModeReview},
		{1, ModeFlashcard},
		{2, ModeUnscramble},
		{3, ModeGapFill},
		{4, ModeFlashcard},
		{5, ModeQuiz},
		{6, ModeListening},
		{7, ModeReview},
		{42, ModeReview},
	}
	for _, tt := range tests {
		if got := ModeForDay(tt.day); got != tt.want {
			t.Errorf("ModeForDay(%d) = %s, want %s", tt.day, got, tt.want)
		}
	}
}

func TestDegradeMode(t *testing.T) {
	if got := DegradeMode(ModeListening, false); got != ModeQuiz {
		t.Errorf("listening without audio should degrade to quiz, got %s", got)
	}
	if got := DegradeMode(ModeListening, true); got != ModeListening {
		t.Errorf("listening with audio should stay, got %s", got)
	}
	if got := DegradeMode(ModeFlashcard, false); got != ModeFlashcard {
		t.Errorf("non-listening modes never degrade, got %s", got)
	}
}

func TestModePredicates(t *testing.T) {
	if ModeFlashcard.UsesStructures() {
		t.Error("flashcard mode must not pull structures")
	}
	if !ModeUnscramble.UsesStructures() || !ModeGapFill.UsesStructures() {
		t.Error("unscramble and gapfill pull structures")
	}
	if !ModeQuiz.IsFixedContent() || !ModeListening.IsFixedContent() {
		t.Error("quiz and listening use fixed pre-authored content")
	}
	if ModeReview.IsFixedContent() {
		t.Error("review mode is not fixed content")
	}
}
