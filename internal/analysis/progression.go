package analysis

import (
	"fmt"
	"math"

	"periodizer/internal/models"
)

// ExperienceLevel scales the weight increment: newer lifters progress faster.
type ExperienceLevel string

const (
	Beginner     ExperienceLevel = "beginner"
	Intermediate ExperienceLevel = "intermediate"
	Advanced     ExperienceLevel = "advanced"
	Expert       ExperienceLevel = "expert"
)

var experienceMultiplier = map[ExperienceLevel]float64{
	Beginner:     1.2,
	Intermediate: 1.0,
	Advanced:     0.8,
	Expert:       0.6,
}

// ParseExperienceLevel maps a config value to a level; empty means intermediate.
func ParseExperienceLevel(s string) (ExperienceLevel, error) {
	if s == "" {
		return Intermediate, nil
	}
	if _, ok := experienceMultiplier[ExperienceLevel(s)]; !ok {
		return "", fmt.Errorf("%w: unknown experience level %q", ErrInvalidInput, s)
	}
	return ExperienceLevel(s), nil
}

// DefaultBaseIncrement is the weight step, in mass units, before the experience multiplier.
const DefaultBaseIncrement = 2.5

const (
	minRestSeconds  = 30
	restStepSeconds = 15
	deloadPercent   = -10.0
)

// Action is the kind of change a progression recommendation makes.
type Action string

const (
	ActionIncreaseWeight Action = "increase_weight"
	ActionIncreaseReps   Action = "increase_reps"
	ActionIncreaseSets   Action = "increase_sets"
	ActionDecreaseRest   Action = "decrease_rest"
	ActionMaintain       Action = "maintain"
	ActionDeload         Action = "deload"
)

// ExerciseState is the current prescription for one exercise.
type ExerciseState struct {
	ExerciseID   string  `json:"exercise_id"`
	TargetWeight float64 `json:"target_weight"`
	TargetReps   int     `json:"target_reps"`
	TargetSets   int     `json:"target_sets"`
	RestSeconds  int     `json:"rest_seconds"`
}

// ProgressionRecommendation is the next-session change for one exercise.
// Delta is in the action's unit: mass units, reps, sets, or percent for deload (negative).
// For decrease_rest Delta is the number of seconds to take off.
//
// WithinPhase is set on an increase_reps recommendation whose reps already sit at the
// phase maximum: it holds the nearest change that stays inside the phase ranges.
type ProgressionRecommendation struct {
	ExerciseID  string                     `json:"exercise_id"`
	Action      Action                     `json:"action"`
	Delta       float64                    `json:"delta"`
	Confidence  float64                    `json:"confidence"`
	Reasons     []string                   `json:"reasons"`
	Alternative *ProgressionRecommendation `json:"alternative,omitempty"`
	WithinPhase *ProgressionRecommendation `json:"within_phase,omitempty"`
}

// progressionSignals is the flattened view the progression rules evaluate.
type progressionSignals struct {
	readiness  float64
	indicators int
	declining  bool
}

// progressionPolicy is first-match. Deload precedes maintain so that very low readiness
// is not swallowed by the broader maintain rule. Points carry the confidence.
var progressionPolicy = Policy[progressionSignals]{
	{
		Code:        "very_low_readiness",
		Points:      0.9,
		Explanation: "readiness below 0.3",
		Applies:     func(s progressionSignals) bool { return s.readiness < 0.3 },
	},
	{
		Code:        "low_readiness",
		Points:      0.8,
		Explanation: "readiness below 0.4 or two or more fatigue indicators",
		Applies: func(s progressionSignals) bool {
			return s.readiness < 0.4 || s.indicators >= 2
		},
	},
	{
		Code:        "ready_to_progress",
		Explanation: "readiness of 0.7 or more with a non-declining trend",
		Applies: func(s progressionSignals) bool {
			return s.readiness >= 0.7 && !s.declining
		},
	},
}

// RecommendProgression decides the next-session change for one exercise.
func RecommendProgression(state ExerciseState, est PerformanceEstimate, fatigue models.FatigueAssessment,
	phase models.PeriodizationPhase, level ExperienceLevel, baseIncrement float64) ProgressionRecommendation {
	if baseIncrement <= 0 {
		baseIncrement = DefaultBaseIncrement
	}
	mult, ok := experienceMultiplier[level]
	if !ok {
		mult = 1
	}

	s := progressionSignals{
		readiness:  est.Readiness,
		indicators: len(est.FatigueIndicators),
		declining:  est.IsDeclining(),
	}

	rec := ProgressionRecommendation{ExerciseID: state.ExerciseID}
	if fatigue.Category != "" {
		rec.Reasons = append(rec.Reasons, "fatigue_"+string(fatigue.Category))
	}

	// Too few sessions: readiness is still the default, so only the smallest step is offered.
	if est.SampleSize < minTrendLogs {
		rec.Reasons = append(rec.Reasons, ReasonInsufficientData)
		rec = conservative(state, phase, rec)
		rec.Confidence = round2(rec.Confidence * est.Confidence)
		return rec
	}

	rule, ok := progressionPolicy.First(s)
	if !ok {
		return conservative(state, phase, rec)
	}
	rec.Reasons = append(rec.Reasons, rule.Code)

	switch rule.Code {
	case "very_low_readiness":
		rec.Action = ActionDeload
		rec.Delta = deloadPercent
		rec.Confidence = rule.Points
	case "low_readiness":
		rec.Action = ActionMaintain
		rec.Confidence = rule.Points
	default:
		rec.Action = ActionIncreaseWeight
		rec.Delta = round2(baseIncrement * mult)
		rec.Confidence = round2(math.Min(0.9, est.Readiness+0.1))
		alt := conservative(state, phase, ProgressionRecommendation{ExerciseID: state.ExerciseID})
		rec.Alternative = &alt
	}
	return rec
}

// conservative adds one rep. When reps already sit at the phase maximum the result also
// carries the within-phase option: a set, or failing that shorter rest. Ranges left at
// zero are treated as unbounded.
func conservative(state ExerciseState, phase models.PeriodizationPhase, rec ProgressionRecommendation) ProgressionRecommendation {
	rec.Action = ActionIncreaseReps
	rec.Delta = 1
	rec.Confidence = 0.6
	rec.Reasons = append(rec.Reasons, "conservative")

	if phase.RepsRange[1] == 0 || state.TargetReps < phase.RepsRange[1] {
		return rec
	}
	rec.Reasons = append(rec.Reasons, "reps_at_phase_max")

	alt := ProgressionRecommendation{ExerciseID: state.ExerciseID, Confidence: rec.Confidence}
	switch {
	case phase.SetsRange[1] == 0 || state.TargetSets < phase.SetsRange[1]:
		alt.Action = ActionIncreaseSets
		alt.Delta = 1
		alt.Reasons = []string{"reps_at_phase_max"}
	case state.RestSeconds > max(phase.RestRangeSeconds[0], minRestSeconds):
		alt.Action = ActionDecreaseRest
		alt.Delta = restStepSeconds
		alt.Reasons = []string{"reps_at_phase_max", "sets_at_phase_max"}
	default:
		alt.Action = ActionMaintain
		alt.Reasons = []string{"phase_limits_reached"}
	}
	rec.WithinPhase = &alt
	return rec
}

// ExerciseSet is one prescribed set. Actual values are nil until the set is performed.
type ExerciseSet struct {
	TargetWeight float64  `json:"target_weight"`
	TargetReps   int      `json:"target_reps"`
	RestSeconds  int      `json:"rest_seconds"`
	ActualWeight *float64 `json:"actual_weight,omitempty"`
	ActualReps   *int     `json:"actual_reps,omitempty"`
	Completed    bool     `json:"completed"`
	Notes        string   `json:"notes,omitempty"`
}

// Apply returns set with only the field the recommendation targets changed.
// increase_sets and maintain leave a single set untouched; see ApplyToSets.
func (r ProgressionRecommendation) Apply(set ExerciseSet) ExerciseSet {
	switch r.Action {
	case ActionIncreaseWeight:
		set.TargetWeight = round2(set.TargetWeight + r.Delta)
	case ActionIncreaseReps:
		set.TargetReps += int(r.Delta)
	case ActionDecreaseRest:
		set.RestSeconds = max(minRestSeconds, set.RestSeconds-int(math.Abs(r.Delta)))
	case ActionDeload:
		set.TargetWeight = round2(set.TargetWeight * (1 + r.Delta/100))
	}
	return set
}

// ApplyToSets applies r to every set; increase_sets appends copies of the last set.
func (r ProgressionRecommendation) ApplyToSets(sets []ExerciseSet) []ExerciseSet {
	out := make([]ExerciseSet, 0, len(sets)+1)
	for _, s := range sets {
		out = append(out, r.Apply(s))
	}
	if r.Action == ActionIncreaseSets && len(sets) > 0 {
		extra := sets[len(sets)-1]
		extra.ActualWeight, extra.ActualReps, extra.Completed = nil, nil, false
		for i := 0; i < int(r.Delta); i++ {
			out = append(out, extra)
		}
	}
	return out
}

// TrainingVolume sums weight x reps across sets, preferring actual over target values.
func TrainingVolume(sets []ExerciseSet) float64 {
	var total float64
	for _, s := range sets {
		w := s.TargetWeight
		if s.ActualWeight != nil {
			w = *s.ActualWeight
		}
		reps := s.TargetReps
		if s.ActualReps != nil {
			reps = *s.ActualReps
		}
		total += w * float64(reps)
	}
	return total
}

// SessionPrescription is the starting prescription for an exercise in a phase.
type SessionPrescription struct {
	ExerciseID       string           `json:"exercise_id"`
	Phase            models.PhaseType `json:"phase"`
	IntensityPercent float64          `json:"intensity_percent"`
	Weight           float64          `json:"weight"`
	Sets             int              `json:"sets"`
	Reps             int              `json:"reps"`
	RestSeconds      int              `json:"rest_seconds"`
}

// fatigueLoadScale trims load above a fatigue score of 50, down to 0.75 at 100.
func fatigueLoadScale(score float64) float64 {
	return 1 - clamp(score-50, 0, 50)/200
}

// PrescribeSession derives weight, sets, reps and rest from the phase ranges. Load is the
// intensity midpoint of oneRepMax scaled by fatigue and rounded to the plate increment.
// Deload phases use the range minima.
func PrescribeSession(exerciseID string, phase models.PeriodizationPhase, oneRepMax float64,
	fatigue models.FatigueAssessment, plateIncrement float64) SessionPrescription {
	p := SessionPrescription{ExerciseID: exerciseID, Phase: phase.Type}

	if phase.Type == models.PhaseDeload {
		p.IntensityPercent = phase.IntensityRange[0]
		p.Sets = phase.SetsRange[0]
		p.Reps = phase.RepsRange[0]
		p.RestSeconds = phase.RestRangeSeconds[0]
	} else {
		p.IntensityPercent = round2((phase.IntensityRange[0] + phase.IntensityRange[1]) / 2 * fatigueLoadScale(fatigue.OverallScore))
		p.Reps = midpoint(phase.RepsRange)
		switch fatigue.Category {
		case models.FatigueLow:
			p.Sets = phase.SetsRange[1]
			p.RestSeconds = phase.RestRangeSeconds[0]
		case models.FatigueHigh, models.FatigueSevere:
			p.Sets = phase.SetsRange[0]
			p.RestSeconds = phase.RestRangeSeconds[1]
		default:
			p.Sets = midpoint(phase.SetsRange)
			p.RestSeconds = midpoint(phase.RestRangeSeconds)
		}
	}
	p.Weight = WorkingWeight(oneRepMax, p.IntensityPercent, plateIncrement)
	return p
}

func midpoint(r [2]int) int {
	return int(math.Round(float64(r[0]+r[1]) / 2))
}
