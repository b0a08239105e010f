package analysis

import (
	"slices"
	"testing"

	"periodizer/internal/models"
)

func fatigueHistory(scores ...float64) []models.FatigueAssessment {
	out := make([]models.FatigueAssessment, len(scores))
	for i, s := range scores {
		out[i] = models.FatigueAssessment{OverallScore: s, Date: day0.AddDate(0, 0, i)}
	}
	return out
}

func TestEvaluateDeload_HighFatigueAndDecline(t *testing.T) {
	in := DeloadInput{
		Fatigue:            fatigueHistory(85, 85, 85, 85, 85, 85, 85),
		PerformanceDecline: 6,
		Readiness:          70,
		Soreness:           50,
		Stress:             50,
		SleepQuality:       60,
		AverageRPE:         8,
		WeeksSinceDeload:   3,
	}

	rec := EvaluateDeload(in)

	if !rec.IsRecommended {
		t.Fatal("expected a deload to be recommended")
	}
	if rec.Points != 5 {
		t.Errorf("Points = %v, want 5", rec.Points)
	}
	if !slices.Equal(rec.ReasonCodes, []string{"high_fatigue", "performance_decline"}) {
		t.Errorf("ReasonCodes = %v", rec.ReasonCodes)
	}
	if rec.VolumeTolerance != 44.5 || rec.IntensityTolerance != 45.5 {
		t.Errorf("tolerances = %v/%v, want 44.5/45.5", rec.VolumeTolerance, rec.IntensityTolerance)
	}
	if rec.Type != models.DeloadFrequency {
		t.Errorf("Type = %v, want frequency", rec.Type)
	}
	if rec.Urgency != UrgencyModerate {
		t.Errorf("Urgency = %v, want moderate", rec.Urgency)
	}
	if rec.DurationDays != 9 {
		t.Errorf("DurationDays = %d, want 9", rec.DurationDays)
	}
	if rec.Confidence != 0.9 {
		t.Errorf("Confidence = %v, want 0.9", rec.Confidence)
	}
	if rec.Adjustments.FrequencyMultiplier != 0.6 {
		t.Errorf("FrequencyMultiplier = %v, want 0.6", rec.Adjustments.FrequencyMultiplier)
	}
}

func TestEvaluateDeload_Threshold(t *testing.T) {
	tests := []struct {
		name string
		in   DeloadInput
		pts  float64
		want bool
	}{
		{
			name: "nothing fires",
			in:   DeloadInput{Fatigue: fatigueHistory(40), Readiness: 80, Soreness: 30, WeeksSinceDeload: 2},
			pts:  0,
			want: false,
		},
		{
			name: "fatigue and overdue",
			in:   DeloadInput{Fatigue: fatigueHistory(75), Readiness: 80, WeeksSinceDeload: 7},
			pts:  3,
			want: false,
		},
		{
			name: "fatigue, readiness and soreness",
			in:   DeloadInput{Fatigue: fatigueHistory(75), Readiness: 55, Soreness: 75, WeeksSinceDeload: 2},
			pts:  4,
			want: true,
		},
		{
			name: "decline and overdue",
			in:   DeloadInput{Fatigue: fatigueHistory(40), PerformanceDecline: 8, Readiness: 80, WeeksSinceDeload: 9},
			pts:  4,
			want: true,
		},
		{
			name: "boundaries are exclusive",
			in:   DeloadInput{Fatigue: fatigueHistory(70), PerformanceDecline: 5, Readiness: 60, Soreness: 70, WeeksSinceDeload: 6},
			pts:  0,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := EvaluateDeload(tt.in)
			if rec.Points != tt.pts {
				t.Errorf("Points = %v, want %v", rec.Points, tt.pts)
			}
			if rec.IsRecommended != tt.want {
				t.Errorf("IsRecommended = %v, want %v", rec.IsRecommended, tt.want)
			}
			if rec.IsRecommended != (rec.Points >= DeloadThreshold) {
				t.Errorf("IsRecommended = %v inconsistent with %v points", rec.IsRecommended, rec.Points)
			}
		})
	}
}

func TestEvaluateDeload_Types(t *testing.T) {
	tests := []struct {
		name string
		in   DeloadInput
		want models.DeloadType
	}{
		{
			name: "maximal effort forces complete rest",
			in:   DeloadInput{Fatigue: fatigueHistory(20), Readiness: 90, SleepQuality: 90, AverageRPE: 9.5},
			want: models.DeloadComplete,
		},
		{
			name: "everything exhausted",
			in:   DeloadInput{Fatigue: fatigueHistory(95), Readiness: 10, Soreness: 90, Stress: 90, SleepQuality: 10},
			want: models.DeloadComplete,
		},
		{
			name: "decline with moderate tolerances",
			in: DeloadInput{Fatigue: fatigueHistory(85), PerformanceDecline: 12, Readiness: 70,
				Soreness: 50, Stress: 50, SleepQuality: 60},
			want: models.DeloadActiveRecovery,
		},
		{
			name: "sore but not stressed",
			in: DeloadInput{Fatigue: fatigueHistory(60), Readiness: 80,
				Soreness: 100, Stress: 0, SleepQuality: 100},
			want: models.DeloadVolume,
		},
		{
			name: "stressed but not sore",
			in: DeloadInput{Fatigue: fatigueHistory(60), Readiness: 80,
				Soreness: 0, Stress: 100, SleepQuality: 30},
			want: models.DeloadIntensity,
		},
		{
			name: "fresh defaults to volume",
			in:   DeloadInput{Fatigue: fatigueHistory(10), Readiness: 100, SleepQuality: 100},
			want: models.DeloadVolume,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := EvaluateDeload(tt.in)
			if rec.Type != tt.want {
				t.Errorf("Type = %v, want %v (tolerance volume %v intensity %v)",
					rec.Type, tt.want, rec.VolumeTolerance, rec.IntensityTolerance)
			}
		})
	}
}

func TestEvaluateDeload_Urgency(t *testing.T) {
	in := DeloadInput{
		Fatigue:            fatigueHistory(92),
		PerformanceDecline: 16,
		Readiness:          35,
		WeeksSinceDeload:   13,
	}

	rec := EvaluateDeload(in)

	if rec.UrgencyPoints != 14 {
		t.Errorf("UrgencyPoints = %v, want 14", rec.UrgencyPoints)
	}
	if rec.Urgency != UrgencyCritical {
		t.Errorf("Urgency = %v, want critical", rec.Urgency)
	}
}

func TestEvaluateDeload_NoFatigueData(t *testing.T) {
	rec := EvaluateDeload(DeloadInput{PerformanceDecline: 8, Readiness: 50, WeeksSinceDeload: 2})

	if !rec.IsRecommended {
		t.Error("decline plus low readiness should still recommend a deload")
	}
	if !slices.Contains(rec.ReasonCodes, ReasonInsufficientData) {
		t.Errorf("ReasonCodes = %v, want %s", rec.ReasonCodes, ReasonInsufficientData)
	}
	if rec.Confidence != 0.52 {
		t.Errorf("Confidence = %v, want 0.52", rec.Confidence)
	}
}

func TestEvaluateDeload_AllCriteriaCombinations(t *testing.T) {
	points := []float64{2, 3, 1, 1, 1} // fatigue, decline, overdue, readiness, soreness

	for mask := 0; mask < 1<<len(points); mask++ {
		on := func(i int) bool { return mask&(1<<i) != 0 }
		in := DeloadInput{Fatigue: fatigueHistory(40), Readiness: 80, Soreness: 30, WeeksSinceDeload: 2}
		var want float64
		if on(0) {
			in.Fatigue = fatigueHistory(85)
		}
		if on(1) {
			in.PerformanceDecline = 8
		}
		if on(2) {
			in.WeeksSinceDeload = 8
		}
		if on(3) {
			in.Readiness = 50
		}
		if on(4) {
			in.Soreness = 80
		}
		for i, p := range points {
			if on(i) {
				want += p
			}
		}

		rec := EvaluateDeload(in)
		if rec.Points != want {
			t.Errorf("mask %05b: Points = %v, want %v", mask, rec.Points, want)
		}
		if rec.IsRecommended != (want >= DeloadThreshold) {
			t.Errorf("mask %05b: IsRecommended = %v with %v points", mask, rec.IsRecommended, want)
		}
		if again := EvaluateDeload(in); again.IsRecommended != rec.IsRecommended || again.Points != rec.Points {
			t.Errorf("mask %05b: repeated evaluation differs", mask)
		}
	}
}

func TestDeloadCriteria_OrderIndependent(t *testing.T) {
	reversed := slices.Clone(deloadCriteria)
	slices.Reverse(reversed)
	rotated := append(slices.Clone(deloadCriteria[2:]), deloadCriteria[:2]...)

	inputs := []deloadSignals{
		{},
		{fatigue: 85, hasFatigue: true, decline: 8, weeksSinceDeload: 8, readiness: 50, soreness: 80},
		{fatigue: 85, hasFatigue: true, readiness: 80, soreness: 80},
		{decline: 6, readiness: 55, weeksSinceDeload: 3},
	}
	for i, s := range inputs {
		want, fired := deloadCriteria.Evaluate(s)
		wantCodes := Codes(fired)
		slices.Sort(wantCodes)
		for _, p := range []Policy[deloadSignals]{reversed, rotated} {
			got, gotFired := p.Evaluate(s)
			codes := Codes(gotFired)
			slices.Sort(codes)
			if got != want || !slices.Equal(codes, wantCodes) {
				t.Errorf("input %d: permuted policy = %v %v, want %v %v", i, got, codes, want, wantCodes)
			}
		}
	}
}
