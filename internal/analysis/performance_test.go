package analysis

import (
	"math"
	"slices"
	"testing"

	"periodizer/internal/models"
)

func sessionLogs(exercise string, weights []float64, reps []int, rir, completion []float64) []models.PerformanceLog {
	logs := make([]models.PerformanceLog, len(weights))
	for i := range weights {
		logs[i] = models.PerformanceLog{
			ExerciseID:     exercise,
			Date:           day0.AddDate(0, 0, i*2),
			Weight:         weights[i],
			Reps:           reps[i],
			SetsCount:      3,
			RIR:            rir[i],
			RPE:            10 - rir[i],
			CompletionRate: completion[i],
		}
	}
	return logs
}

func TestEstimatePerformance_NoLogs(t *testing.T) {
	est := EstimatePerformance("squat", nil, ModelEpley)

	if est.Readiness != 0.7 {
		t.Errorf("Readiness = %v, want 0.7", est.Readiness)
	}
	if est.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", est.Confidence)
	}
	if !slices.Contains(est.Reasons, ReasonInsufficientData) {
		t.Errorf("Reasons = %v, want %s", est.Reasons, ReasonInsufficientData)
	}
}

func TestEstimatePerformance_SingleLog(t *testing.T) {
	logs := sessionLogs("squat", []float64{100}, []int{5}, []float64{2}, []float64{1})

	est := EstimatePerformance("squat", logs, ModelEpley)

	if est.Trend != 0 {
		t.Errorf("Trend = %v, want 0", est.Trend)
	}
	if math.Abs(est.Confidence-0.2) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.2", est.Confidence)
	}
	if math.Abs(est.OneRepMax-116.67) > 0.01 {
		t.Errorf("OneRepMax = %v, want 116.67", est.OneRepMax)
	}
}

func TestEstimatePerformance_Progressing(t *testing.T) {
	logs := sessionLogs("squat",
		[]float64{100, 102.5, 105, 107.5, 110},
		[]int{5, 5, 5, 5, 5},
		[]float64{2, 2, 2, 2, 2},
		[]float64{1, 1, 1, 1, 1},
	)
	// other exercises are ignored
	logs = append(logs, models.PerformanceLog{ExerciseID: "bench", Date: day0, Weight: 60, Reps: 5, CompletionRate: 0.2})

	est := EstimatePerformance("squat", logs, ModelEpley)

	if est.SampleSize != 5 {
		t.Errorf("SampleSize = %d, want 5", est.SampleSize)
	}
	if est.Trend <= 0 || est.IsDeclining() {
		t.Errorf("Trend = %v, want positive", est.Trend)
	}
	if math.Abs(est.Consistency-0.9663) > 0.001 {
		t.Errorf("Consistency = %v, want ~0.9663", est.Consistency)
	}
	if math.Abs(est.Readiness-0.7) > 1e-9 {
		t.Errorf("Readiness = %v, want 0.7", est.Readiness)
	}
	if len(est.FatigueIndicators) != 0 {
		t.Errorf("FatigueIndicators = %v, want none", est.FatigueIndicators)
	}
	if math.Abs(est.OneRepMax-128.33) > 0.01 {
		t.Errorf("OneRepMax = %v, want 128.33", est.OneRepMax)
	}
	if est.Confidence != 1 {
		t.Errorf("Confidence = %v, want 1", est.Confidence)
	}
}

func TestEstimatePerformance_Fatigued(t *testing.T) {
	logs := sessionLogs("squat",
		[]float64{100, 100, 100, 100, 100},
		[]int{8, 7, 6, 5, 4},
		[]float64{0, 0, 1, 1, 0},
		[]float64{1, 1, 1, 1, 0.6},
	)

	est := EstimatePerformance("squat", logs, ModelEpley)

	want := []string{IndicatorIncompleteSets, IndicatorDecliningReps}
	if !slices.Equal(est.FatigueIndicators, want) {
		t.Errorf("FatigueIndicators = %v, want %v", est.FatigueIndicators, want)
	}
	if math.Abs(est.Readiness-0.2) > 1e-9 {
		t.Errorf("Readiness = %v, want 0.2", est.Readiness)
	}
}

func TestEstimatePerformance_HighRIRBoostsReadiness(t *testing.T) {
	logs := sessionLogs("row",
		[]float64{60, 60, 60},
		[]int{10, 10, 10},
		[]float64{3, 3, 3},
		[]float64{1, 1, 1},
	)

	est := EstimatePerformance("row", logs, ModelEpley)

	if math.Abs(est.Readiness-0.9) > 1e-9 {
		t.Errorf("Readiness = %v, want 0.9", est.Readiness)
	}
}

func TestEstimatePerformance_UsesLatestWindow(t *testing.T) {
	// heavy early sessions fall outside the window
	logs := sessionLogs("dl",
		[]float64{200, 200, 150, 150, 150, 150, 150},
		[]int{5, 5, 5, 5, 5, 5, 5},
		[]float64{2, 2, 2, 2, 2, 2, 2},
		[]float64{1, 1, 1, 1, 1, 1, 1},
	)

	est := EstimatePerformance("dl", logs, ModelEpley)

	if est.SampleSize != PerformanceWindow {
		t.Errorf("SampleSize = %d, want %d", est.SampleSize, PerformanceWindow)
	}
	if est.Trend != 0 {
		t.Errorf("Trend = %v, want 0", est.Trend)
	}
	if est.Consistency != 1 {
		t.Errorf("Consistency = %v, want 1", est.Consistency)
	}
}

func TestExerciseIDs(t *testing.T) {
	logs := []models.PerformanceLog{{ExerciseID: "a"}, {ExerciseID: "b"}, {ExerciseID: "a"}, {ExerciseID: "c"}}
	got := ExerciseIDs(logs)
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("ExerciseIDs = %v, want [a b c]", got)
	}
}
