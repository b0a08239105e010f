package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periodizer/internal/analysis"
	"periodizer/internal/models"
	"periodizer/internal/store"
)

// TransitionOutcome is the result of advancing a plan.
type TransitionOutcome struct {
	Transition  analysis.PhaseTransition `json:"transition"`
	Plan        models.PeriodizationPlan `json:"plan"`
	DeloadEvent *models.DeloadEvent      `json:"deload_event,omitempty"`
	Applied     bool                     `json:"applied"`
	Attempts    int                      `json:"attempts"`
}

// CreatePlan builds a plan from the goal template and stores it.
func (s *Service) CreatePlan(ctx context.Context, userID, goal string, weeks int) (models.PeriodizationPlan, error) {
	plan, err := analysis.NewPlan(userID, goal, weeks, s.adaptive, s.now())
	if err != nil {
		return models.PeriodizationPlan{}, err
	}
	if err := s.store.CreatePlan(ctx, plan); err != nil {
		return models.PeriodizationPlan{}, fmt.Errorf("saving plan: %w", err)
	}
	s.log.Info("plan created", "user_id", userID, "plan_id", plan.ID, "goal", goal,
		"weeks", weeks, "phases", len(plan.Phases))
	return plan, nil
}

// GetPlan returns a stored plan.
func (s *Service) GetPlan(ctx context.Context, planID string) (*models.PeriodizationPlan, error) {
	return s.store.GetPlan(ctx, planID)
}

// ActivePlan returns the user's latest plan that has not completed.
func (s *Service) ActivePlan(ctx context.Context, userID string) (*models.PeriodizationPlan, error) {
	return s.store.GetActivePlan(ctx, userID)
}

// ActivePlans returns every plan that has not completed.
func (s *Service) ActivePlans(ctx context.Context) ([]models.PeriodizationPlan, error) {
	return s.store.ListActivePlans(ctx)
}

// EvaluateTransition reports what AdvancePlan would do now without changing anything.
func (s *Service) EvaluateTransition(ctx context.Context, planID string) (analysis.PhaseTransition, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return analysis.PhaseTransition{}, err
	}
	in, _, err := s.transitionInput(ctx, *plan, s.now().UTC())
	if err != nil {
		return analysis.PhaseTransition{}, err
	}
	return analysis.EvaluatePhaseTransition(in)
}

// AdvancePlan evaluates the plan and applies any transition. A concurrent update
// between read and write is retried against the fresh plan.
func (s *Service) AdvancePlan(ctx context.Context, planID string) (TransitionOutcome, error) {
	for attempt := 1; attempt <= MaxTransitionAttempts; attempt++ {
		out, err := s.advanceOnce(ctx, planID)
		out.Attempts = attempt
		if errors.Is(err, store.ErrConcurrentModification) {
			s.log.Warn("plan changed during transition, retrying", "plan_id", planID, "attempt", attempt)
			continue
		}
		return out, err
	}
	return TransitionOutcome{}, fmt.Errorf("advancing plan %s after %d attempts: %w",
		planID, MaxTransitionAttempts, store.ErrConcurrentModification)
}

func (s *Service) advanceOnce(ctx context.Context, planID string) (TransitionOutcome, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return TransitionOutcome{}, err
	}
	now := s.now().UTC()

	in, today, err := s.transitionInput(ctx, *plan, now)
	if err != nil {
		return TransitionOutcome{}, err
	}
	tr, err := analysis.EvaluatePhaseTransition(in)
	if err != nil {
		return TransitionOutcome{}, err
	}
	out := TransitionOutcome{Transition: tr, Plan: *plan}
	if !tr.ShouldTransition {
		return out, nil
	}

	applied, err := analysis.ApplyTransition(*plan, tr, now)
	if err != nil {
		return TransitionOutcome{}, err
	}
	if err := s.store.SaveTransition(ctx, applied.Plan, plan.LastAdjustedAt, applied.History, applied.DeloadEvent); err != nil {
		return TransitionOutcome{}, err
	}
	if err := s.store.SaveAssessment(ctx, today); err != nil {
		return TransitionOutcome{}, fmt.Errorf("saving assessment: %w", err)
	}

	out.Plan = applied.Plan
	out.DeloadEvent = applied.DeloadEvent
	out.Applied = true
	s.log.Info("phase transition applied", "user_id", plan.UserID, "plan_id", plan.ID,
		"trigger", tr.Trigger, "from", tr.FromType, "to", tr.ToType,
		"deload", tr.InsertDeload, "complete", tr.PlanComplete)
	return out, nil
}

// OverridePhase moves the plan to index at the user's request.
func (s *Service) OverridePhase(ctx context.Context, planID string, index int) (models.PeriodizationPlan, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return models.PeriodizationPlan{}, err
	}
	applied, err := analysis.OverridePhase(*plan, index, s.now())
	if err != nil {
		return models.PeriodizationPlan{}, err
	}
	if err := s.store.SaveTransition(ctx, applied.Plan, plan.LastAdjustedAt, applied.History, nil); err != nil {
		return models.PeriodizationPlan{}, err
	}
	s.log.Info("phase overridden", "user_id", plan.UserID, "plan_id", plan.ID,
		"from", plan.CurrentPhaseIndex, "to", index)
	return applied.Plan, nil
}

// EvaluateDeload runs the deload decision for a plan on current data.
func (s *Service) EvaluateDeload(ctx context.Context, planID string) (analysis.DeloadRecommendation, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return analysis.DeloadRecommendation{}, err
	}
	in, _, err := s.transitionInput(ctx, *plan, s.now().UTC())
	if err != nil {
		return analysis.DeloadRecommendation{}, err
	}
	return analysis.EvaluateDeload(*in.Deload), nil
}

// ScheduleDeload evaluates the plan's deload and, for a frequency deload, removes the days
// of week that train any of the flagged muscle groups.
func (s *Service) ScheduleDeload(ctx context.Context, planID string, week []analysis.TrainingDay, flagged []string) (analysis.DeloadSchedule, error) {
	rec, err := s.EvaluateDeload(ctx, planID)
	if err != nil {
		return analysis.DeloadSchedule{}, err
	}
	out := analysis.ScheduleDeload(rec, week, flagged)
	if len(out.Removed) > 0 {
		s.log.Info("frequency deload scheduled", "plan_id", planID, "removed", out.Removed)
	}
	return out, nil
}

// PlanHistory returns ended phases and executed deloads for a plan.
func (s *Service) PlanHistory(ctx context.Context, planID string) ([]models.PhaseHistoryEntry, []models.DeloadEvent, error) {
	if _, err := s.store.GetPlan(ctx, planID); err != nil {
		return nil, nil, err
	}
	history, err := s.store.ListPhaseHistory(ctx, planID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing phase history: %w", err)
	}
	events, err := s.store.ListDeloadEvents(ctx, planID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing deload events: %w", err)
	}
	return history, events, nil
}

// exerciseContext is what a per-exercise recommendation needs.
type exerciseContext struct {
	phase    models.PeriodizationPhase
	estimate analysis.PerformanceEstimate
	fatigue  models.FatigueAssessment
}

func (s *Service) exerciseContext(ctx context.Context, userID, exerciseID string) (exerciseContext, error) {
	plan, err := s.store.GetActivePlan(ctx, userID)
	if err != nil {
		return exerciseContext{}, err
	}
	phase, ok := plan.CurrentPhase()
	if !ok {
		return exerciseContext{}, fmt.Errorf("%w: plan %s has no current phase", analysis.ErrInvalidPlanState, plan.ID)
	}

	day := models.Day(s.now())
	w, err := s.fetchWindow(ctx, userID, day, PerformanceHistoryDays)
	if err != nil {
		return exerciseContext{}, err
	}
	return exerciseContext{
		phase:    phase,
		estimate: analysis.EstimatePerformance(exerciseID, w.logs, s.model),
		fatigue:  analysis.ScoreFatigue(userID, day, w.snapshots, w.logs),
	}, nil
}

// RecommendProgression suggests the next change for one exercise in the user's active phase.
func (s *Service) RecommendProgression(ctx context.Context, userID string, state analysis.ExerciseState) (analysis.ProgressionRecommendation, error) {
	if state.ExerciseID == "" {
		return analysis.ProgressionRecommendation{}, fmt.Errorf("%w: exercise id is required", analysis.ErrInvalidInput)
	}
	ec, err := s.exerciseContext(ctx, userID, state.ExerciseID)
	if err != nil {
		return analysis.ProgressionRecommendation{}, err
	}
	rec := analysis.RecommendProgression(state, ec.estimate, ec.fatigue, ec.phase, s.level, s.engine.BaseIncrement)
	s.log.Debug("progression recommended", "user_id", userID, "exercise", state.ExerciseID,
		"action", rec.Action, "delta", rec.Delta)
	return rec, nil
}

// PrescribeSession builds today's loading for one exercise.
func (s *Service) PrescribeSession(ctx context.Context, userID, exerciseID string) (analysis.SessionPrescription, error) {
	if exerciseID == "" {
		return analysis.SessionPrescription{}, fmt.Errorf("%w: exercise id is required", analysis.ErrInvalidInput)
	}
	ec, err := s.exerciseContext(ctx, userID, exerciseID)
	if err != nil {
		return analysis.SessionPrescription{}, err
	}
	oneRM := ec.estimate.BestOneRepMax
	if oneRM == 0 {
		oneRM = ec.estimate.OneRepMax
	}
	return analysis.PrescribeSession(exerciseID, ec.phase, oneRM, ec.fatigue, s.engine.PlateIncrement), nil
}

// PhaseWeek is the 1-based week of the current phase at now.
func PhaseWeek(plan models.PeriodizationPlan, now time.Time) int {
	return analysis.ElapsedWeeks(plan, now) + 1
}
