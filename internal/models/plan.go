package models

import "time"

// PhaseType identifies the adaptation a phase is oriented toward.
type PhaseType string

const (
	PhaseAnatomicalAdaptation PhaseType = "anatomical_adaptation"
	PhaseHypertrophy          PhaseType = "hypertrophy"
	PhaseStrength             PhaseType = "strength"
	PhasePower                PhaseType = "power"
	PhasePeaking              PhaseType = "peaking"
	PhaseDeload               PhaseType = "deload"
	PhaseTransition           PhaseType = "transition"
)

// Valid reports whether p is a known phase type.
func (p PhaseType) Valid() bool {
	switch p {
	case PhaseAnatomicalAdaptation, PhaseHypertrophy, PhaseStrength, PhasePower,
		PhasePeaking, PhaseDeload, PhaseTransition:
		return true
	}
	return false
}

// PeriodizationPhase is a multi-week block with volume/intensity/rep targets.
type PeriodizationPhase struct {
	ID               string     `json:"id"`
	Type             PhaseType  `json:"type"`
	DurationWeeks    int        `json:"duration_weeks"`
	VolumeMultiplier float64    `json:"volume_multiplier"`
	IntensityRange   [2]float64 `json:"intensity_range"` // % of 1RM
	SetsRange        [2]int     `json:"sets_range"`
	RepsRange        [2]int     `json:"reps_range"`
	RestRangeSeconds [2]int     `json:"rest_range_seconds"`
}

// AdaptiveSettings are the per-plan thresholds for non-time phase transitions.
type AdaptiveSettings struct {
	FatigueThreshold   float64 `json:"fatigue_threshold"`   // 0-100 fatigue score
	ProgressThreshold  float64 `json:"progress_threshold"`  // % e1RM gain per week
	AdherenceThreshold float64 `json:"adherence_threshold"` // 0-100
}

// PeriodizationPlan is a user's ordered sequence of phases.
type PeriodizationPlan struct {
	ID                 string               `json:"id"`
	UserID             string               `json:"user_id"`
	TotalDurationWeeks int                  `json:"total_duration_weeks"`
	CurrentPhaseIndex  int                  `json:"current_phase_index"`
	Phases             []PeriodizationPhase `json:"phases"`
	AdaptiveSettings   AdaptiveSettings     `json:"adaptive_settings"`
	PhaseStartedAt     time.Time            `json:"phase_started_at"`
	Completed          bool                 `json:"completed"`
	CreatedAt          time.Time            `json:"created_at"`
	LastAdjustedAt     time.Time            `json:"last_adjusted_at"`
}

// CurrentPhase returns the active phase, or false when the index is out of range.
func (p *PeriodizationPlan) CurrentPhase() (PeriodizationPhase, bool) {
	if p.CurrentPhaseIndex < 0 || p.CurrentPhaseIndex >= len(p.Phases) {
		return PeriodizationPhase{}, false
	}
	return p.Phases[p.CurrentPhaseIndex], true
}

// ScheduledWeeks sums the phase durations. It may drift from TotalDurationWeeks
// once deloads are inserted.
func (p *PeriodizationPlan) ScheduledWeeks() int {
	total := 0
	for _, ph := range p.Phases {
		total += ph.DurationWeeks
	}
	return total
}

// Clone returns a deep copy so callers can mutate phases without aliasing.
func (p PeriodizationPlan) Clone() PeriodizationPlan {
	phases := make([]PeriodizationPhase, len(p.Phases))
	copy(phases, p.Phases)
	p.Phases = phases
	return p
}

// PhaseHistoryEntry records which phase was active when. Rows are never rewritten.
type PhaseHistoryEntry struct {
	PlanID     string     `json:"plan_id"`
	PhaseIndex int        `json:"phase_index"`
	PhaseType  PhaseType  `json:"phase_type"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Trigger    string     `json:"trigger"`
}
