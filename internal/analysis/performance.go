package analysis

import (
	"sort"

	"periodizer/internal/models"
)

// PerformanceWindow is the number of most recent logs used for trend and readiness.
const PerformanceWindow = 5

// minTrendLogs is the fewest logs a trend can be fitted to.
const minTrendLogs = 2

// Fatigue indicators detected from an exercise's recent logs.
const (
	IndicatorRisingRIR      = "rising_rir"
	IndicatorIncompleteSets = "incomplete_sets"
	IndicatorDecliningReps  = "declining_reps"
)

const (
	baseReadiness = 0.7

	// per-session slope beyond which RIR/reps count as trending
	rirTrendSlope  = 0.25
	repsTrendSlope = -0.25
)

// PerformanceEstimate summarises one exercise's recent performance.
type PerformanceEstimate struct {
	ExerciseID        string         `json:"exercise_id"`
	Model             OneRepMaxModel `json:"model"`
	OneRepMax         float64        `json:"one_rep_max"`      // from the most recent log
	BestOneRepMax     float64        `json:"best_one_rep_max"` // best within the window
	Trend             float64        `json:"trend"`            // OLS slope of weights / mean weight, per session
	Consistency       float64        `json:"consistency"`      // 1 - CV(weights), floored at 0
	Readiness         float64        `json:"readiness"`        // 0-1
	FatigueIndicators []string       `json:"fatigue_indicators"`
	SampleSize        int            `json:"sample_size"`
	Confidence        float64        `json:"confidence"`
	Reasons           []string       `json:"reasons"`
}

// IsDeclining reports whether the weight trend is meaningfully negative.
func (e PerformanceEstimate) IsDeclining() bool {
	return e.Trend < decliningTrend
}

const decliningTrend = -0.01

// recentWindow is the view of recent logs the readiness rules look at.
type recentWindow struct {
	weights        []float64
	reps           []float64
	rir            []float64
	completion     []float64
	avgRIR         float64
	avgCompletion  float64
	lastCompletion float64
}

var readinessPolicy = Policy[recentWindow]{
	{
		Code:        "high_reps_in_reserve",
		Points:      0.2,
		Explanation: "average RIR of 3 or more leaves room to progress",
		Applies:     func(w recentWindow) bool { return w.avgRIR >= 3 },
	},
	{
		Code:        "near_failure",
		Points:      -0.3,
		Explanation: "average RIR of 1 or less means sets are taken close to failure",
		Applies:     func(w recentWindow) bool { return w.avgRIR <= 1 },
	},
}

var fatigueIndicatorPolicy = Policy[recentWindow]{
	{
		Code:        IndicatorRisingRIR,
		Points:      -0.1,
		Explanation: "reps in reserve trending upward across sessions",
		Applies: func(w recentWindow) bool {
			return len(w.rir) >= 3 && olsSlope(w.rir) > rirTrendSlope
		},
	},
	{
		Code:        IndicatorIncompleteSets,
		Points:      -0.1,
		Explanation: "the most recent session left prescribed sets incomplete",
		Applies:     func(w recentWindow) bool { return len(w.completion) > 0 && w.lastCompletion < 1 },
	},
	{
		Code:        IndicatorDecliningReps,
		Points:      -0.1,
		Explanation: "reps per set trending downward across sessions",
		Applies: func(w recentWindow) bool {
			return len(w.reps) >= 3 && olsSlope(w.reps) < repsTrendSlope
		},
	},
}

// EstimatePerformance derives the 1RM, trend, consistency and readiness for an exercise
// from its logs. Logs for other exercises are ignored; order does not matter.
func EstimatePerformance(exerciseID string, logs []models.PerformanceLog, model OneRepMaxModel) PerformanceEstimate {
	if model == "" {
		model = ModelEpley
	}
	est := PerformanceEstimate{
		ExerciseID: exerciseID,
		Model:      model,
		Readiness:  baseReadiness,
	}

	history := exerciseHistory(exerciseID, logs)
	if len(history) == 0 {
		est.Reasons = []string{ReasonInsufficientData}
		return est
	}

	recent := history
	if len(recent) > PerformanceWindow {
		recent = recent[len(recent)-PerformanceWindow:]
	}
	w := buildWindow(recent)

	est.SampleSize = len(recent)
	est.Confidence = clamp(float64(len(recent))/PerformanceWindow, 0, 1)

	last := recent[len(recent)-1]
	est.OneRepMax = OneRepMax(last.Weight, last.Reps, model)
	for _, l := range recent {
		if e1rm := OneRepMax(l.Weight, l.Reps, model); e1rm > est.BestOneRepMax {
			est.BestOneRepMax = e1rm
		}
	}

	if len(recent) >= minTrendLogs {
		est.Trend = normalizedSlope(w.weights)
		est.Consistency = clamp(1-coefficientOfVariation(w.weights), 0, 1)
	} else {
		est.Reasons = append(est.Reasons, ReasonInsufficientData)
	}

	est.Readiness, est.FatigueIndicators, est.Reasons = readiness(w, est.Reasons)
	return est
}

// readiness applies the readiness and fatigue-indicator policies on top of the base value.
func readiness(w recentWindow, reasons []string) (float64, []string, []string) {
	score := baseReadiness

	points, fired := readinessPolicy.Evaluate(w)
	score += points
	reasons = append(reasons, Codes(fired)...)

	if w.avgCompletion < 0.8 {
		score += (w.avgCompletion - 0.8) * 0.5
		reasons = append(reasons, "low_completion")
	}

	penalty, indicators := fatigueIndicatorPolicy.Evaluate(w)
	score += penalty
	codes := Codes(indicators)
	reasons = append(reasons, codes...)

	return clamp(score, 0, 1), codes, reasons
}

// exerciseHistory filters logs to one exercise and orders them by date.
func exerciseHistory(exerciseID string, logs []models.PerformanceLog) []models.PerformanceLog {
	history := make([]models.PerformanceLog, 0, len(logs))
	for _, l := range logs {
		if exerciseID == "" || l.ExerciseID == exerciseID {
			history = append(history, l)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.Before(history[j].Date)
	})
	return history
}

func buildWindow(recent []models.PerformanceLog) recentWindow {
	w := recentWindow{}
	for _, l := range recent {
		w.weights = append(w.weights, l.Weight)
		w.reps = append(w.reps, float64(l.Reps))
		w.rir = append(w.rir, l.RIR)
		w.completion = append(w.completion, l.CompletionRate)
	}
	w.avgRIR = mean(w.rir)
	w.avgCompletion = mean(w.completion)
	if len(w.completion) > 0 {
		w.lastCompletion = w.completion[len(w.completion)-1]
	}
	return w
}

// ExerciseIDs lists the distinct exercises in logs, in first-seen order.
func ExerciseIDs(logs []models.PerformanceLog) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, l := range logs {
		if !seen[l.ExerciseID] {
			seen[l.ExerciseID] = true
			ids = append(ids, l.ExerciseID)
		}
	}
	return ids
}
