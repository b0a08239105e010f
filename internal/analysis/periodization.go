package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"periodizer/internal/models"
)

// Trigger names the criterion that caused a phase transition.
type Trigger string

const (
	TriggerNone      Trigger = ""
	TriggerTime      Trigger = "time"
	TriggerFatigue   Trigger = "fatigue"
	TriggerProgress  Trigger = "progress"
	TriggerAdherence Trigger = "adherence"
	TriggerManual    Trigger = "manual"
)

// ErrStaleTransition is returned when a transition is applied to a plan that has
// already moved past the transition's source phase.
var ErrStaleTransition = errors.New("stale transition")

const (
	progressEntries  = 3
	adherenceEntries = 2
)

// ProgressEntry is one week of progress within the current phase.
type ProgressEntry struct {
	WeekStart       time.Time `json:"week_start"`
	PerformanceGain float64   `json:"performance_gain"` // % e1RM change vs the previous week
	Adherence       float64   `json:"adherence"`        // 0-100
	Sessions        int       `json:"sessions"`
}

// TransitionInput is everything the state machine needs to evaluate one plan.
type TransitionInput struct {
	Plan     models.PeriodizationPlan
	Now      time.Time
	Fatigue  []models.FatigueAssessment // trailing 7 days
	Progress []ProgressEntry            // current phase, oldest first
	Deload   *DeloadInput               // nil skips deload insertion
}

// PhaseTransition is the state machine's decision. Evaluating it does not change the plan.
type PhaseTransition struct {
	ShouldTransition bool                  `json:"should_transition"`
	FromPhase        int                   `json:"from_phase"`
	ToPhase          int                   `json:"to_phase"`
	FromType         models.PhaseType      `json:"from_type"`
	ToType           models.PhaseType      `json:"to_type,omitempty"`
	Trigger          Trigger               `json:"trigger"`
	Confidence       float64               `json:"confidence"`
	Reasons          []string              `json:"reasons"`
	ElapsedWeeks     int                   `json:"elapsed_weeks"`
	PhaseCompletion  float64               `json:"phase_completion"`
	InsertDeload     bool                  `json:"insert_deload"`
	Deload           *DeloadRecommendation `json:"deload,omitempty"`
	PlanComplete     bool                  `json:"plan_complete"`
}

// transitionSignals is the flattened view the transition rules evaluate.
type transitionSignals struct {
	elapsedWeeks  int
	durationWeeks int
	completion    float64

	avgFatigue float64
	hasFatigue bool

	avgGain     float64
	hasProgress bool

	avgAdherence float64
	hasAdherence bool

	settings models.AdaptiveSettings
}

// transitionRules are ordered by confidence; the first match wins. Points carry the confidence.
var transitionRules = Policy[transitionSignals]{
	{
		Code:        string(TriggerTime),
		Points:      0.9,
		Explanation: "scheduled phase duration reached",
		Applies: func(s transitionSignals) bool {
			return s.elapsedWeeks >= s.durationWeeks
		},
	},
	{
		Code:        string(TriggerFatigue),
		Points:      0.85,
		Explanation: "7-day fatigue above threshold late in the phase",
		Applies: func(s transitionSignals) bool {
			return s.hasFatigue && s.avgFatigue > s.settings.FatigueThreshold && s.completion >= 0.75
		},
	},
	{
		Code:        string(TriggerProgress),
		Points:      0.75,
		Explanation: "progress stalled in the second half of the phase",
		Applies: func(s transitionSignals) bool {
			return s.hasProgress && s.avgGain < s.settings.ProgressThreshold && s.completion >= 0.5
		},
	},
	{
		Code:        string(TriggerAdherence),
		Points:      0.7,
		Explanation: "adherence below threshold in the second half of the phase",
		Applies: func(s transitionSignals) bool {
			return s.hasAdherence && s.avgAdherence < s.settings.AdherenceThreshold && s.completion >= 0.5
		},
	},
}

// ElapsedWeeks is the number of whole weeks since the current phase started.
func ElapsedWeeks(plan models.PeriodizationPlan, now time.Time) int {
	d := now.Sub(plan.PhaseStartedAt)
	if d <= 0 {
		return 0
	}
	return int(d / trailingWeek)
}

// EvaluatePhaseTransition decides whether the plan should leave its current phase.
// It is deterministic: identical inputs give an identical result.
func EvaluatePhaseTransition(in TransitionInput) (PhaseTransition, error) {
	plan := in.Plan
	if err := ValidatePlan(plan); err != nil {
		return PhaseTransition{}, err
	}

	current := plan.Phases[plan.CurrentPhaseIndex]
	s := transitionSignals{
		elapsedWeeks:  ElapsedWeeks(plan, in.Now),
		durationWeeks: current.DurationWeeks,
		settings:      plan.AdaptiveSettings,
	}
	s.completion = math.Min(1, float64(s.elapsedWeeks)/float64(current.DurationWeeks))

	if len(in.Fatigue) > 0 {
		s.avgFatigue = AverageScore(in.Fatigue)
		s.hasFatigue = true
	}
	if len(in.Progress) >= progressEntries {
		var gains []float64
		for _, p := range in.Progress[len(in.Progress)-progressEntries:] {
			gains = append(gains, p.PerformanceGain)
		}
		s.avgGain = mean(gains)
		s.hasProgress = true
	}
	if len(in.Progress) >= adherenceEntries {
		var adherence []float64
		for _, p := range in.Progress[len(in.Progress)-adherenceEntries:] {
			adherence = append(adherence, p.Adherence)
		}
		s.avgAdherence = mean(adherence)
		s.hasAdherence = true
	}

	tr := PhaseTransition{
		FromPhase:       plan.CurrentPhaseIndex,
		ToPhase:         plan.CurrentPhaseIndex,
		FromType:        current.Type,
		ElapsedWeeks:    s.elapsedWeeks,
		PhaseCompletion: round2(s.completion),
		PlanComplete:    plan.Completed,
	}
	if plan.Completed {
		tr.Reasons = []string{"plan_complete"}
		return tr, nil
	}
	if !s.hasFatigue || !s.hasProgress {
		tr.Reasons = append(tr.Reasons, ReasonInsufficientData)
	}

	rule, ok := transitionRules.First(s)
	if !ok {
		return tr, nil
	}

	tr.ShouldTransition = true
	tr.Trigger = Trigger(rule.Code)
	tr.Confidence = rule.Points
	tr.Reasons = append(tr.Reasons, rule.Code)
	tr.ToPhase = plan.CurrentPhaseIndex + 1

	if in.Deload != nil {
		din := *in.Deload
		din.Plan = plan
		rec := EvaluateDeload(din)
		tr.Deload = &rec

		nextIsDeload := tr.ToPhase < len(plan.Phases) && plan.Phases[tr.ToPhase].Type == models.PhaseDeload
		if rec.IsRecommended && !nextIsDeload {
			tr.InsertDeload = true
			tr.ToType = models.PhaseDeload
			tr.Reasons = append(tr.Reasons, "deload_inserted")
			return tr, nil
		}
	}

	if tr.ToPhase >= len(plan.Phases) {
		tr.PlanComplete = true
		tr.Reasons = append(tr.Reasons, "plan_complete")
		return tr, nil
	}
	tr.ToType = plan.Phases[tr.ToPhase].Type
	return tr, nil
}

// AppliedTransition is the result of executing a transition.
type AppliedTransition struct {
	Plan        models.PeriodizationPlan
	DeloadEvent *models.DeloadEvent       // set only when a deload phase was inserted
	History     *models.PhaseHistoryEntry // the phase that just ended
}

// ApplyTransition executes tr against plan and returns the updated copy.
// Applying the same transition twice at the same instant yields the same plan.
func ApplyTransition(plan models.PeriodizationPlan, tr PhaseTransition, now time.Time) (AppliedTransition, error) {
	now = now.UTC()
	if !tr.ShouldTransition {
		return AppliedTransition{Plan: plan}, nil
	}
	if err := ValidatePlan(plan); err != nil {
		return AppliedTransition{}, err
	}
	if plan.LastAdjustedAt.Equal(now) && (plan.CurrentPhaseIndex == tr.ToPhase || plan.Completed) {
		return AppliedTransition{Plan: plan}, nil
	}
	if plan.CurrentPhaseIndex != tr.FromPhase || plan.Completed {
		return AppliedTransition{}, fmt.Errorf("%w: plan %s is at phase %d, transition is from %d",
			ErrStaleTransition, plan.ID, plan.CurrentPhaseIndex, tr.FromPhase)
	}

	next := plan.Clone()
	ended := now
	out := AppliedTransition{
		History: &models.PhaseHistoryEntry{
			PlanID:     plan.ID,
			PhaseIndex: plan.CurrentPhaseIndex,
			PhaseType:  plan.Phases[plan.CurrentPhaseIndex].Type,
			StartedAt:  plan.PhaseStartedAt,
			EndedAt:    &ended,
			Trigger:    string(tr.Trigger),
		},
	}

	switch {
	case tr.InsertDeload && tr.Deload != nil:
		weeks := int(math.Ceil(float64(tr.Deload.DurationDays) / 7))
		phase, err := NewPhase(models.PhaseDeload, max(weeks, 1))
		if err != nil {
			return AppliedTransition{}, err
		}
		phase.ID = deloadPhaseID(plan.ID, tr.FromPhase, now)

		at := tr.FromPhase + 1
		next.Phases = slices.Insert(next.Phases, at, phase)
		next.CurrentPhaseIndex = at
		next.PhaseStartedAt = now

		out.DeloadEvent = &models.DeloadEvent{
			ID:                    DeloadEventID(plan.ID, tr.FromPhase, now),
			PlanID:                plan.ID,
			Date:                  models.Day(now),
			Type:                  tr.Deload.Type,
			DurationDays:          tr.Deload.DurationDays,
			ReasonCodes:           tr.Deload.ReasonCodes,
			FatigueScoreAtTrigger: tr.Deload.FatigueScore,
		}
	case tr.PlanComplete:
		next.Completed = true
	default:
		next.CurrentPhaseIndex = tr.ToPhase
		next.PhaseStartedAt = now
	}

	next.LastAdjustedAt = now
	out.Plan = next
	return out, nil
}

// OverridePhase moves the plan to index on explicit user request.
func OverridePhase(plan models.PeriodizationPlan, index int, now time.Time) (AppliedTransition, error) {
	now = now.UTC()
	if err := ValidatePlan(plan); err != nil {
		return AppliedTransition{}, err
	}
	if index < 0 || index >= len(plan.Phases) {
		return AppliedTransition{}, fmt.Errorf("%w: phase index %d out of range [0,%d)", ErrInvalidInput, index, len(plan.Phases))
	}

	ended := now
	out := AppliedTransition{
		History: &models.PhaseHistoryEntry{
			PlanID:     plan.ID,
			PhaseIndex: plan.CurrentPhaseIndex,
			PhaseType:  plan.Phases[plan.CurrentPhaseIndex].Type,
			StartedAt:  plan.PhaseStartedAt,
			EndedAt:    &ended,
			Trigger:    string(TriggerManual),
		},
	}
	next := plan.Clone()
	next.CurrentPhaseIndex = index
	next.PhaseStartedAt = now
	next.Completed = false
	next.LastAdjustedAt = now
	out.Plan = next
	return out, nil
}

// WeeksSinceDeload counts whole weeks since the latest deload, or since the plan
// was created when it has none.
func WeeksSinceDeload(plan models.PeriodizationPlan, events []models.DeloadEvent, now time.Time) int {
	last := plan.CreatedAt
	for _, e := range events {
		if e.PlanID == plan.ID && e.Date.After(last) {
			last = e.Date
		}
	}
	d := now.Sub(last)
	if d <= 0 {
		return 0
	}
	return int(d / trailingWeek)
}

var idNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("periodizer"))

// DeloadEventID is stable for a plan, source phase and day so retried writes collapse.
func DeloadEventID(planID string, fromPhase int, at time.Time) string {
	key := fmt.Sprintf("deload-event/%s/%d/%s", planID, fromPhase, models.Day(at).Format(time.DateOnly))
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}

func deloadPhaseID(planID string, fromPhase int, at time.Time) string {
	key := fmt.Sprintf("deload-phase/%s/%d/%s", planID, fromPhase, models.Day(at).Format(time.DateOnly))
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}
