package analysis

import (
	"testing"
	"time"

	"periodizer/internal/models"
)

func TestWeeklyProgress(t *testing.T) {
	logs := []models.PerformanceLog{
		{ExerciseID: "squat", Date: day0.AddDate(0, 0, -3), Weight: 100, Reps: 5, CompletionRate: 1},
		{ExerciseID: "squat", Date: day0.AddDate(0, 0, 2), Weight: 102, Reps: 5, CompletionRate: 1},
		{ExerciseID: "squat", Date: day0.AddDate(0, 0, 9), Weight: 102, Reps: 5, CompletionRate: 0.5},
		// current, incomplete week
		{ExerciseID: "squat", Date: day0.AddDate(0, 0, 15), Weight: 110, Reps: 5, CompletionRate: 1},
	}
	now := day0.AddDate(0, 0, 14).Add(time.Hour)

	got := WeeklyProgress(logs, day0, now, ModelEpley)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].PerformanceGain != 2 || got[0].Adherence != 100 || got[0].Sessions != 1 {
		t.Errorf("week 0 = %+v", got[0])
	}
	if got[1].PerformanceGain != 0 || got[1].Adherence != 50 {
		t.Errorf("week 1 = %+v", got[1])
	}
	if !got[1].WeekStart.Equal(day0.AddDate(0, 0, 7)) {
		t.Errorf("week 1 starts %v", got[1].WeekStart)
	}
}

func TestWeeklyProgress_EmptyWeek(t *testing.T) {
	got := WeeklyProgress(nil, day0, day0.AddDate(0, 0, 7), ModelEpley)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Adherence != 0 || got[0].PerformanceGain != 0 {
		t.Errorf("empty week = %+v", got[0])
	}
	if WeeklyProgress(nil, day0, day0.AddDate(0, 0, 6), ModelEpley) != nil {
		t.Error("expected no entries before the first full week")
	}
}
