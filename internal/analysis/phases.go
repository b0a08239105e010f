package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"periodizer/internal/models"
)

// PhaseTemplates holds the default parameters for each phase type.
var PhaseTemplates = map[models.PhaseType]models.PeriodizationPhase{
	models.PhaseAnatomicalAdaptation: {
		Type:             models.PhaseAnatomicalAdaptation,
		VolumeMultiplier: 0.9,
		IntensityRange:   [2]float64{50, 65},
		SetsRange:        [2]int{2, 3},
		RepsRange:        [2]int{12, 15},
		RestRangeSeconds: [2]int{45, 90},
	},
	models.PhaseHypertrophy: {
		Type:             models.PhaseHypertrophy,
		VolumeMultiplier: 1.0,
		IntensityRange:   [2]float64{65, 80},
		SetsRange:        [2]int{3, 4},
		RepsRange:        [2]int{8, 12},
		RestRangeSeconds: [2]int{60, 90},
	},
	models.PhaseStrength: {
		Type:             models.PhaseStrength,
		VolumeMultiplier: 0.8,
		IntensityRange:   [2]float64{80, 90},
		SetsRange:        [2]int{4, 5},
		RepsRange:        [2]int{4, 6},
		RestRangeSeconds: [2]int{180, 300},
	},
	models.PhasePower: {
		Type:             models.PhasePower,
		VolumeMultiplier: 0.6,
		IntensityRange:   [2]float64{85, 95},
		SetsRange:        [2]int{5, 6},
		RepsRange:        [2]int{2, 4},
		RestRangeSeconds: [2]int{180, 300},
	},
	models.PhasePeaking: {
		Type:             models.PhasePeaking,
		VolumeMultiplier: 0.5,
		IntensityRange:   [2]float64{90, 100},
		SetsRange:        [2]int{3, 5},
		RepsRange:        [2]int{1, 3},
		RestRangeSeconds: [2]int{240, 360},
	},
	models.PhaseDeload: {
		Type:             models.PhaseDeload,
		VolumeMultiplier: 0.4,
		IntensityRange:   [2]float64{50, 60},
		SetsRange:        [2]int{2, 3},
		RepsRange:        [2]int{6, 8},
		RestRangeSeconds: [2]int{60, 90},
	},
	models.PhaseTransition: {
		Type:             models.PhaseTransition,
		VolumeMultiplier: 0.5,
		IntensityRange:   [2]float64{40, 60},
		SetsRange:        [2]int{1, 2},
		RepsRange:        [2]int{10, 15},
		RestRangeSeconds: [2]int{60, 120},
	},
}

// GoalTemplate splits a plan's weeks across phases.
type GoalTemplate struct {
	Goal   string
	Blocks []GoalBlock
}

// GoalBlock is one phase of a goal template and its share of the total weeks.
type GoalBlock struct {
	Phase        models.PhaseType
	WeeksPercent float64
}

// GoalTemplates are the standard plan shapes.
var GoalTemplates = map[string]GoalTemplate{
	"strength": {
		Goal: "strength",
		Blocks: []GoalBlock{
			{models.PhaseAnatomicalAdaptation, 0.15},
			{models.PhaseHypertrophy, 0.25},
			{models.PhaseStrength, 0.35},
			{models.PhasePeaking, 0.25},
		},
	},
	"hypertrophy": {
		Goal: "hypertrophy",
		Blocks: []GoalBlock{
			{models.PhaseAnatomicalAdaptation, 0.15},
			{models.PhaseHypertrophy, 0.60},
			{models.PhaseStrength, 0.25},
		},
	},
	"power": {
		Goal: "power",
		Blocks: []GoalBlock{
			{models.PhaseHypertrophy, 0.25},
			{models.PhaseStrength, 0.35},
			{models.PhasePower, 0.25},
			{models.PhasePeaking, 0.15},
		},
	},
	"general": {
		Goal: "general",
		Blocks: []GoalBlock{
			{models.PhaseAnatomicalAdaptation, 0.25},
			{models.PhaseHypertrophy, 0.50},
			{models.PhaseTransition, 0.25},
		},
	},
}

// NewPhase instantiates a phase from its template.
func NewPhase(t models.PhaseType, weeks int) (models.PeriodizationPhase, error) {
	tpl, ok := PhaseTemplates[t]
	if !ok {
		return models.PeriodizationPhase{}, fmt.Errorf("%w: unknown phase type %q", ErrInvalidInput, t)
	}
	if weeks < 1 {
		return models.PeriodizationPhase{}, fmt.Errorf("%w: phase duration must be at least 1 week, got %d", ErrInvalidInput, weeks)
	}
	tpl.ID = uuid.NewString()
	tpl.DurationWeeks = weeks
	return tpl, nil
}

// NewPlan builds a plan for goal spanning totalWeeks, starting at phase 0.
func NewPlan(userID, goal string, totalWeeks int, settings models.AdaptiveSettings, now time.Time) (models.PeriodizationPlan, error) {
	tpl, ok := GoalTemplates[goal]
	if !ok {
		return models.PeriodizationPlan{}, fmt.Errorf("%w: unknown goal %q", ErrInvalidInput, goal)
	}
	if totalWeeks < len(tpl.Blocks) {
		return models.PeriodizationPlan{}, fmt.Errorf("%w: %s plan needs at least %d weeks, got %d",
			ErrInvalidInput, goal, len(tpl.Blocks), totalWeeks)
	}

	phases := make([]models.PeriodizationPhase, 0, len(tpl.Blocks))
	used := 0
	for i, b := range tpl.Blocks {
		weeks := int(math.Round(float64(totalWeeks) * b.WeeksPercent))
		if weeks < 1 {
			weeks = 1
		}
		remaining := len(tpl.Blocks) - i - 1
		if used+weeks > totalWeeks-remaining {
			weeks = totalWeeks - remaining - used
		}
		// Last phase gets remaining weeks
		if i == len(tpl.Blocks)-1 {
			weeks = totalWeeks - used
		}
		phase, err := NewPhase(b.Phase, weeks)
		if err != nil {
			return models.PeriodizationPlan{}, err
		}
		phases = append(phases, phase)
		used += weeks
	}

	now = now.UTC()
	plan := models.PeriodizationPlan{
		ID:                 uuid.NewString(),
		UserID:             userID,
		TotalDurationWeeks: totalWeeks,
		CurrentPhaseIndex:  0,
		Phases:             phases,
		AdaptiveSettings:   settings,
		PhaseStartedAt:     now,
		CreatedAt:          now,
		LastAdjustedAt:     now,
	}
	return plan, ValidatePlan(plan)
}

// ValidatePlan checks the structural invariants of a plan.
func ValidatePlan(p models.PeriodizationPlan) error {
	if len(p.Phases) == 0 {
		return fmt.Errorf("%w: plan %s has no phases", ErrInvalidPlanState, p.ID)
	}
	if p.CurrentPhaseIndex < 0 || p.CurrentPhaseIndex >= len(p.Phases) {
		return fmt.Errorf("%w: plan %s phase index %d out of range [0,%d)",
			ErrInvalidPlanState, p.ID, p.CurrentPhaseIndex, len(p.Phases))
	}
	for i, ph := range p.Phases {
		if err := validatePhase(ph); err != nil {
			return fmt.Errorf("phase %d: %w", i, err)
		}
	}
	return nil
}

func validatePhase(ph models.PeriodizationPhase) error {
	if !ph.Type.Valid() {
		return fmt.Errorf("%w: unknown phase type %q", ErrInvalidInput, ph.Type)
	}
	if ph.DurationWeeks < 1 {
		return fmt.Errorf("%w: duration %d weeks", ErrInvalidInput, ph.DurationWeeks)
	}
	if ph.IntensityRange[0] > ph.IntensityRange[1] ||
		ph.SetsRange[0] > ph.SetsRange[1] ||
		ph.RepsRange[0] > ph.RepsRange[1] ||
		ph.RestRangeSeconds[0] > ph.RestRangeSeconds[1] {
		return fmt.Errorf("%w: inverted range in %s phase", ErrInvalidInput, ph.Type)
	}
	return nil
}
