package analysis

import (
	"sort"
	"time"

	"periodizer/internal/models"
)

const (
	// FatigueWindowDays bounds the history the fatigue engine looks at.
	FatigueWindowDays = 30
	trailingWeek      = 7 * 24 * time.Hour

	// neutral score used when no wellness snapshot is available
	defaultFatigueScore = 50.0

	trendPoints       = 7
	trendDeltaTrigger = 10.0

	shortSleepMinutes = 7 * 60
)

// fatigueAxis is one subjective input of the weighted mean.
type fatigueAxis struct {
	name     string
	weight   float64
	inverted bool // higher raw value means less fatigue
	value    func(models.WellnessSnapshot) *float64
}

var fatigueAxes = []fatigueAxis{
	{"perceived_fatigue", 0.25, false, func(s models.WellnessSnapshot) *float64 { return s.PerceivedFatigue }},
	{"sleep_quality", 0.20, true, func(s models.WellnessSnapshot) *float64 { return s.SleepQuality }},
	{"energy_level", 0.15, true, func(s models.WellnessSnapshot) *float64 { return s.EnergyLevel }},
	{"mood", 0.10, true, func(s models.WellnessSnapshot) *float64 { return s.Mood }},
	{"motivation", 0.10, true, func(s models.WellnessSnapshot) *float64 { return s.Motivation }},
	{"soreness", 0.10, false, func(s models.WellnessSnapshot) *float64 { return s.Soreness }},
	{"stress_level", 0.10, false, func(s models.WellnessSnapshot) *float64 { return s.StressLevel }},
}

// objectiveSignals are the trailing-week measurements behind the discrete penalties.
type objectiveSignals struct {
	performanceChange float64 // % e1RM change, trailing week vs the week before
	hasPerformance    bool
	avgCompletion     float64
	hasCompletion     bool
	avgSleepMinutes   float64
	hasSleep          bool
}

var fatiguePenaltyPolicy = Policy[objectiveSignals]{
	{
		Code:        "performance_decline",
		Points:      10,
		Explanation: "estimated strength dropped more than 10% over the trailing week",
		Applies:     func(s objectiveSignals) bool { return s.hasPerformance && s.performanceChange < -10 },
	},
	{
		Code:        "low_completion",
		Points:      5,
		Explanation: "average set completion below 80% over the trailing week",
		Applies:     func(s objectiveSignals) bool { return s.hasCompletion && s.avgCompletion < 0.8 },
	},
	{
		Code:        "short_sleep",
		Points:      10,
		Explanation: "average sleep under 7 hours over the trailing week",
		Applies:     func(s objectiveSignals) bool { return s.hasSleep && s.avgSleepMinutes < shortSleepMinutes },
	},
}

// CategorizeFatigue maps a 0-100 score to its category.
func CategorizeFatigue(score float64) models.FatigueCategory {
	switch {
	case score <= 25:
		return models.FatigueLow
	case score <= 50:
		return models.FatigueModerate
	case score < 75:
		return models.FatigueHigh
	default:
		return models.FatigueSevere
	}
}

// FatigueRecommendation returns the guidance text for a category.
func FatigueRecommendation(c models.FatigueCategory) string {
	switch c {
	case models.FatigueLow:
		return "Recovered - train as planned or push progression"
	case models.FatigueModerate:
		return "Normal training fatigue - continue the plan and monitor recovery"
	case models.FatigueHigh:
		return "Elevated fatigue - hold loads steady and prioritise sleep"
	default:
		return "Severe fatigue - reduce training load or take a deload"
	}
}

// SubjectiveScore is the weighted mean of the reported axes on a 0-100 scale.
// Absent axes are dropped and the remaining weights renormalised.
// coverage is the fraction of total weight that was reported.
func SubjectiveScore(s models.WellnessSnapshot) (score, coverage float64, ok bool) {
	var weighted, weights float64
	for _, a := range fatigueAxes {
		v := a.value(s)
		if v == nil {
			continue
		}
		x := clamp(*v, 1, 10)
		if a.inverted {
			x = 11 - x
		}
		weighted += a.weight * x
		weights += a.weight
	}
	if weights == 0 {
		return 0, 0, false
	}
	return clamp(weighted/weights*10, 0, 100), weights, true
}

// ScoreFatigue produces the fatigue assessment for asOf from up to 30 days of snapshots
// and logs. Records after asOf are ignored.
func ScoreFatigue(userID string, asOf time.Time, snapshots []models.WellnessSnapshot, logs []models.PerformanceLog) models.FatigueAssessment {
	asOf = models.Day(asOf)
	windowStart := asOf.AddDate(0, 0, -FatigueWindowDays)

	snaps := snapshotsBetween(snapshots, windowStart, asOf)
	inWindow := logsBetween(logs, windowStart, asOf)

	assessment := models.FatigueAssessment{
		UserID: userID,
		Date:   asOf,
		Trend:  models.TrendStable,
	}

	score, confidence, reasons, signals := dayScore(asOf, snaps, inWindow)
	assessment.OverallScore = round2(score)
	assessment.Confidence = round2(confidence)
	assessment.Reasons = reasons
	if signals.hasPerformance {
		assessment.PerformanceChange = round2(signals.performanceChange)
	}
	assessment.Category = CategorizeFatigue(assessment.OverallScore)
	assessment.RecommendationText = FatigueRecommendation(assessment.Category)

	assessment.Trend = fatigueTrend(snaps, inWindow)
	return assessment
}

// dayScore scores a single day: the latest snapshot on or before day plus the
// trailing-week penalties.
func dayScore(day time.Time, snaps []models.WellnessSnapshot, logs []models.PerformanceLog) (float64, float64, []string, objectiveSignals) {
	var reasons []string
	score := defaultFatigueScore
	confidence := 0.1

	latest, found := latestSnapshot(snaps, day)
	if found {
		if s, coverage, ok := SubjectiveScore(latest); ok {
			score = s
			staleDays := day.Sub(models.Day(latest.Date)).Hours() / 24
			confidence = coverage * clamp(1-staleDays/7, 0.2, 1)
		} else {
			found = false
		}
	}
	if !found {
		reasons = append(reasons, ReasonInsufficientData)
	}

	signals := trailingSignals(day, snaps, logs)
	penalty, fired := fatiguePenaltyPolicy.Evaluate(signals)
	reasons = append(reasons, Codes(fired)...)

	return clamp(score+penalty, 0, 100), confidence, reasons, signals
}

// fatigueTrend compares the mean of the latest seven daily scores with the seven before.
func fatigueTrend(snaps []models.WellnessSnapshot, logs []models.PerformanceLog) models.FatigueTrend {
	var daily []float64
	for _, s := range snaps {
		if _, _, ok := SubjectiveScore(s); !ok {
			continue
		}
		score, _, _, _ := dayScore(models.Day(s.Date), snaps, logs)
		daily = append(daily, score)
	}
	if len(daily) < 2 {
		return models.TrendStable
	}

	recent := lastN(daily, trendPoints)
	prior := daily[:len(daily)-len(recent)]
	prior = lastN(prior, trendPoints)
	if len(prior) == 0 {
		return models.TrendStable
	}

	diff := mean(recent) - mean(prior)
	switch {
	case diff > trendDeltaTrigger:
		return models.TrendWorsening
	case diff < -trendDeltaTrigger:
		return models.TrendImproving
	default:
		return models.TrendStable
	}
}

// trailingSignals gathers the objective measurements for the week ending on day.
func trailingSignals(day time.Time, snaps []models.WellnessSnapshot, logs []models.PerformanceLog) objectiveSignals {
	var sig objectiveSignals
	weekStart := day.Add(-trailingWeek)

	var sleep []float64
	for _, s := range snaps {
		d := models.Day(s.Date)
		if d.After(weekStart) && !d.After(day) && s.SleepDurationMinutes != nil {
			sleep = append(sleep, *s.SleepDurationMinutes)
		}
	}
	if len(sleep) > 0 {
		sig.avgSleepMinutes = mean(sleep)
		sig.hasSleep = true
	}

	week := logsBetween(logs, weekStart, day)
	if len(week) > 0 {
		var completion []float64
		for _, l := range week {
			completion = append(completion, l.CompletionRate)
		}
		sig.avgCompletion = mean(completion)
		sig.hasCompletion = true
	}

	sig.performanceChange, sig.hasPerformance = PerformanceChange(day, logs)
	return sig
}

// PerformanceChange is the mean per-exercise % change of estimated 1RM between the week
// ending on day and the week before it. ok is false when no exercise has data in both weeks.
func PerformanceChange(day time.Time, logs []models.PerformanceLog) (float64, bool) {
	weekStart := day.Add(-trailingWeek)
	priorStart := weekStart.Add(-trailingWeek)

	current := make(map[string][]float64)
	previous := make(map[string][]float64)
	for _, l := range logs {
		d := models.Day(l.Date)
		e1rm := OneRepMax(l.Weight, l.Reps, ModelEpley)
		if e1rm == 0 {
			continue
		}
		switch {
		case d.After(weekStart) && !d.After(day):
			current[l.ExerciseID] = append(current[l.ExerciseID], e1rm)
		case d.After(priorStart) && !d.After(weekStart):
			previous[l.ExerciseID] = append(previous[l.ExerciseID], e1rm)
		}
	}

	var changes []float64
	for id, cur := range current {
		prev, ok := previous[id]
		if !ok {
			continue
		}
		base := mean(prev)
		if base == 0 {
			continue
		}
		changes = append(changes, (mean(cur)-base)/base*100)
	}
	if len(changes) == 0 {
		return 0, false
	}
	return mean(changes), true
}

// AverageScore is the mean overall score of assessments, 0 when empty.
func AverageScore(assessments []models.FatigueAssessment) float64 {
	scores := make([]float64, 0, len(assessments))
	for _, a := range assessments {
		scores = append(scores, a.OverallScore)
	}
	return mean(scores)
}

func latestSnapshot(snaps []models.WellnessSnapshot, day time.Time) (models.WellnessSnapshot, bool) {
	var latest models.WellnessSnapshot
	found := false
	for _, s := range snaps {
		d := models.Day(s.Date)
		if d.After(day) {
			continue
		}
		if !found || d.After(models.Day(latest.Date)) {
			latest = s
			found = true
		}
	}
	return latest, found
}

// snapshotsBetween returns snapshots with from <= day <= to, ordered by date.
func snapshotsBetween(snaps []models.WellnessSnapshot, from, to time.Time) []models.WellnessSnapshot {
	out := make([]models.WellnessSnapshot, 0, len(snaps))
	for _, s := range snaps {
		d := models.Day(s.Date)
		if !d.Before(from) && !d.After(to) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// logsBetween returns logs with from < day <= to.
func logsBetween(logs []models.PerformanceLog, from, to time.Time) []models.PerformanceLog {
	out := make([]models.PerformanceLog, 0, len(logs))
	for _, l := range logs {
		d := models.Day(l.Date)
		if d.After(from) && !d.After(to) {
			out = append(out, l)
		}
	}
	return out
}
