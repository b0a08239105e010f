package analysis

import (
	"math"

	"periodizer/internal/models"
)

// DeloadThreshold is the criteria points at which a deload is recommended.
const DeloadThreshold = 4

// Urgency grades how soon a recommended deload should start.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyModerate Urgency = "moderate"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// DeloadInput carries the signals the deload decision is made on.
// Fatigue, soreness, stress, sleep quality and readiness are 0-100; decline is a percentage.
type DeloadInput struct {
	Fatigue            []models.FatigueAssessment // up to 7 days
	Plan               models.PeriodizationPlan
	PerformanceDecline float64
	Readiness          float64
	Soreness           float64
	Stress             float64
	SleepQuality       float64
	AverageRPE         float64
	WeeksSinceDeload   int
}

// FatigueScore is the average overall score over the supplied history.
func (in DeloadInput) FatigueScore() float64 {
	return AverageScore(in.Fatigue)
}

// DeloadAdjustments are the multipliers applied to the regular prescription during a deload.
type DeloadAdjustments struct {
	VolumeMultiplier    float64 `json:"volume_multiplier"`
	IntensityMultiplier float64 `json:"intensity_multiplier"`
	FrequencyMultiplier float64 `json:"frequency_multiplier"`
}

// DeloadRecommendation is the outcome of EvaluateDeload.
type DeloadRecommendation struct {
	IsRecommended      bool              `json:"is_recommended"`
	Points             float64           `json:"points"`
	UrgencyPoints      float64           `json:"urgency_points"`
	Urgency            Urgency           `json:"urgency"`
	Type               models.DeloadType `json:"type"`
	DurationDays       int               `json:"duration_days"`
	VolumeTolerance    float64           `json:"volume_tolerance"`
	IntensityTolerance float64           `json:"intensity_tolerance"`
	Adjustments        DeloadAdjustments `json:"adjustments"`
	FatigueScore       float64           `json:"fatigue_score"`
	ReasonCodes        []string          `json:"reason_codes"`
	Confidence         float64           `json:"confidence"`
}

// deloadSignals is the flattened view the rule tables evaluate.
type deloadSignals struct {
	fatigue            float64
	hasFatigue         bool
	decline            float64
	weeksSinceDeload   int
	readiness          float64
	soreness           float64
	stress             float64
	sleepQuality       float64
	averageRPE         float64
	volumeTolerance    float64
	intensityTolerance float64
}

var deloadCriteria = Policy[deloadSignals]{
	{
		Code:        "high_fatigue",
		Points:      2,
		Explanation: "average fatigue above 70",
		Applies:     func(s deloadSignals) bool { return s.hasFatigue && s.fatigue > 70 },
	},
	{
		Code:        "performance_decline",
		Points:      3,
		Explanation: "performance declined more than 5%",
		Applies:     func(s deloadSignals) bool { return s.decline > 5 },
	},
	{
		Code:        "overdue_deload",
		Points:      1,
		Explanation: "more than 6 weeks since the last deload",
		Applies:     func(s deloadSignals) bool { return s.weeksSinceDeload > 6 },
	},
	{
		Code:        "low_readiness",
		Points:      1,
		Explanation: "readiness below 60",
		Applies:     func(s deloadSignals) bool { return s.readiness < 60 },
	},
	{
		Code:        "high_soreness",
		Points:      1,
		Explanation: "soreness above 70",
		Applies:     func(s deloadSignals) bool { return s.soreness > 70 },
	},
}

var (
	fatigueUrgencyBands   = []Band{{90, 4}, {80, 3}, {70, 2}, {60, 1}}
	declineUrgencyBands   = []Band{{15, 4}, {10, 3}, {5, 2}, {2, 1}}
	weeksUrgencyBands     = []Band{{12, 3}, {8, 2}, {6, 1}}
	readinessUrgencyBands = []Band{{40, 3}, {50, 2}, {60, 1}}
	fatigueDurationBands  = []Band{{90, 3}, {80, 2}, {70, 1}}
)

// deloadTypePolicy picks the deload type; the first matching rule wins.
var deloadTypePolicy = Policy[deloadSignals]{
	{
		Code:        string(models.DeloadComplete),
		Explanation: "both tolerances very low or sessions at maximal effort",
		Applies: func(s deloadSignals) bool {
			return (s.volumeTolerance < 30 && s.intensityTolerance < 30) || s.averageRPE >= 9.5
		},
	},
	{
		Code:        string(models.DeloadActiveRecovery),
		Explanation: "elevated performance decline with moderate tolerances",
		Applies: func(s deloadSignals) bool {
			return s.decline > 10 && moderate(s.volumeTolerance) && moderate(s.intensityTolerance)
		},
	},
	{
		Code:        string(models.DeloadVolume),
		Explanation: "low volume tolerance, intensity still tolerated",
		Applies: func(s deloadSignals) bool {
			return s.volumeTolerance < 40 && s.intensityTolerance >= 60
		},
	},
	{
		Code:        string(models.DeloadIntensity),
		Explanation: "low intensity tolerance, volume still tolerated",
		Applies: func(s deloadSignals) bool {
			return s.intensityTolerance < 40 && s.volumeTolerance >= 60
		},
	},
	{
		Code:        string(models.DeloadFrequency),
		Explanation: "both tolerances moderate",
		Applies: func(s deloadSignals) bool {
			return moderate(s.volumeTolerance) && moderate(s.intensityTolerance)
		},
	},
}

func moderate(tolerance float64) bool {
	return tolerance >= 40 && tolerance < 70
}

var baseDeloadDays = map[models.DeloadType]float64{
	models.DeloadVolume:         7,
	models.DeloadIntensity:      7,
	models.DeloadFrequency:      7,
	models.DeloadComplete:       5,
	models.DeloadActiveRecovery: 6,
}

var urgencyMultiplier = map[Urgency]float64{
	UrgencyLow:      1,
	UrgencyModerate: 1,
	UrgencyHigh:     1.5,
	UrgencyCritical: 2,
}

// DefaultDeloadAdjustments are the prescription multipliers per deload type.
var DefaultDeloadAdjustments = map[models.DeloadType]DeloadAdjustments{
	models.DeloadVolume:         {VolumeMultiplier: 0.5, IntensityMultiplier: 1.0, FrequencyMultiplier: 1.0},
	models.DeloadIntensity:      {VolumeMultiplier: 1.0, IntensityMultiplier: 0.65, FrequencyMultiplier: 1.0},
	models.DeloadFrequency:      {VolumeMultiplier: 1.0, IntensityMultiplier: 1.0, FrequencyMultiplier: 0.6},
	models.DeloadComplete:       {VolumeMultiplier: 0, IntensityMultiplier: 0, FrequencyMultiplier: 0},
	models.DeloadActiveRecovery: {VolumeMultiplier: 0.4, IntensityMultiplier: 0.5, FrequencyMultiplier: 0.8},
}

// EvaluateDeload decides whether a deload is due and, if so, its type and length.
// Type, duration and urgency are filled in even when IsRecommended is false.
func EvaluateDeload(in DeloadInput) DeloadRecommendation {
	s := deloadSignals{
		fatigue:          in.FatigueScore(),
		hasFatigue:       len(in.Fatigue) > 0,
		decline:          in.PerformanceDecline,
		weeksSinceDeload: in.WeeksSinceDeload,
		readiness:        in.Readiness,
		soreness:         in.Soreness,
		stress:           in.Stress,
		sleepQuality:     in.SleepQuality,
		averageRPE:       in.AverageRPE,
	}
	s.volumeTolerance, s.intensityTolerance = tolerances(s)

	points, fired := deloadCriteria.Evaluate(s)
	rec := DeloadRecommendation{
		IsRecommended:      points >= DeloadThreshold,
		Points:             points,
		FatigueScore:       round2(s.fatigue),
		VolumeTolerance:    round2(s.volumeTolerance),
		IntensityTolerance: round2(s.intensityTolerance),
		ReasonCodes:        Codes(fired),
	}
	if !s.hasFatigue {
		rec.ReasonCodes = append(rec.ReasonCodes, ReasonInsufficientData)
	}

	rec.UrgencyPoints = urgencyPoints(s)
	rec.Urgency = urgencyFor(rec.UrgencyPoints)

	rec.Type = models.DeloadVolume
	if r, ok := deloadTypePolicy.First(s); ok {
		rec.Type = models.DeloadType(r.Code)
	}
	rec.Adjustments = DefaultDeloadAdjustments[rec.Type]
	rec.DurationDays = deloadDuration(rec.Type, rec.Urgency, s.fatigue)

	rec.Confidence = deloadConfidence(points, s.hasFatigue)
	return rec
}

// tolerances derives volume and intensity tolerance (0-100, higher tolerates more).
func tolerances(s deloadSignals) (volume, intensity float64) {
	sleepDeficit := 100 - s.sleepQuality
	readinessDeficit := 100 - s.readiness

	volume = 100 - (0.3*s.fatigue + 0.4*s.soreness + 0.1*sleepDeficit + 0.2*readinessDeficit)
	intensity = 100 - (0.3*s.fatigue + 0.3*s.stress + 0.2*sleepDeficit + 0.2*readinessDeficit)
	return clamp(volume, 0, 100), clamp(intensity, 0, 100)
}

func urgencyPoints(s deloadSignals) float64 {
	var pts float64
	if s.hasFatigue {
		pts += bandAbove(s.fatigue, fatigueUrgencyBands)
	}
	pts += bandAbove(s.decline, declineUrgencyBands)
	pts += bandAbove(float64(s.weeksSinceDeload), weeksUrgencyBands)
	pts += bandBelow(s.readiness, readinessUrgencyBands)
	return pts
}

func urgencyFor(points float64) Urgency {
	switch {
	case points >= 10:
		return UrgencyCritical
	case points >= 7:
		return UrgencyHigh
	case points >= 4:
		return UrgencyModerate
	default:
		return UrgencyLow
	}
}

func deloadDuration(t models.DeloadType, u Urgency, fatigue float64) int {
	days := baseDeloadDays[t]*urgencyMultiplier[u] + bandAbove(fatigue, fatigueDurationBands)
	return int(math.Round(days))
}

func deloadConfidence(points float64, hasFatigue bool) float64 {
	c := 0.5 + 0.08*points
	if !hasFatigue {
		c -= 0.3
	}
	return round2(clamp(c, 0.1, 0.95))
}
