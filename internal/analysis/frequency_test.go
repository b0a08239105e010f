package analysis

import (
	"slices"
	"testing"

	"periodizer/internal/models"
)

func dayNames(days []TrainingDay) []string {
	var out []string
	for _, d := range days {
		out = append(out, d.Name)
	}
	return out
}

func TestApplyFrequencyDeload(t *testing.T) {
	week := []TrainingDay{
		{Name: "push", MuscleGroups: []string{"chest", "triceps", "shoulders"}},
		{Name: "pull", MuscleGroups: []string{"back", "biceps"}},
		{Name: "legs", MuscleGroups: []string{"quads", "hamstrings"}},
	}

	tests := []struct {
		name    string
		flagged []string
		want    []string
	}{
		{"no flags", nil, []string{"push", "pull", "legs"}},
		{"any match removes the day", []string{"Chest"}, []string{"pull", "legs"}},
		{"two days", []string{"biceps", "hamstrings"}, []string{"push"}},
		{"all flagged keeps the least affected", []string{"chest", "back", "biceps", "quads"}, []string{"push"}},
		{"unknown group", []string{"calves"}, []string{"push", "pull", "legs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dayNames(ApplyFrequencyDeload(week, tt.flagged))
			if len(got) != len(tt.want) {
				t.Fatalf("ApplyFrequencyDeload = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ApplyFrequencyDeload = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestScheduleDeload(t *testing.T) {
	week := []TrainingDay{
		{Name: "push", MuscleGroups: []string{"chest", "triceps"}},
		{Name: "pull", MuscleGroups: []string{"back", "biceps"}},
		{Name: "legs", MuscleGroups: []string{"quads", "hamstrings"}},
	}
	flagged := []string{"quads"}

	tests := []struct {
		name    string
		rec     DeloadRecommendation
		days    []string
		removed []string
	}{
		{"frequency deload", DeloadRecommendation{IsRecommended: true, Type: models.DeloadFrequency}, []string{"push", "pull"}, []string{"legs"}},
		{"volume deload keeps days", DeloadRecommendation{IsRecommended: true, Type: models.DeloadVolume}, []string{"push", "pull", "legs"}, []string{}},
		{"not recommended", DeloadRecommendation{Type: models.DeloadFrequency}, []string{"push", "pull", "legs"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScheduleDeload(tt.rec, week, flagged)
			if !slices.Equal(dayNames(got.Days), tt.days) {
				t.Errorf("Days = %v, want %v", dayNames(got.Days), tt.days)
			}
			if !slices.Equal(got.Removed, tt.removed) {
				t.Errorf("Removed = %v, want %v", got.Removed, tt.removed)
			}
		})
	}
}
