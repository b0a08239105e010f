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

// ExerciseSummary is one exercise's line in a progress report.
type ExerciseSummary struct {
	ExerciseID   string                       `json:"exercise_id"`
	Estimate     analysis.PerformanceEstimate `json:"estimate"`
	WeeklyVolume float64                      `json:"weekly_volume"`
	LastTrained  time.Time                    `json:"last_trained"`
}

// Report is a user's training status over the last ReportDays days.
type Report struct {
	UserID      string                     `json:"user_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Unit        string                     `json:"unit"`
	Plan        *models.PeriodizationPlan  `json:"plan,omitempty"`
	PhaseWeek   int                        `json:"phase_week,omitempty"`
	Transition  *analysis.PhaseTransition  `json:"transition,omitempty"`
	Latest      *models.FatigueAssessment  `json:"latest,omitempty"`
	Fatigue     []models.FatigueAssessment `json:"fatigue"`
	Exercises   []ExerciseSummary          `json:"exercises"`
	Deloads     []models.DeloadEvent       `json:"deloads"`
}

// BuildReport gathers what the report renderer shows. A user with no active plan
// still gets fatigue and exercise sections.
func (s *Service) BuildReport(ctx context.Context, userID string) (*Report, error) {
	now := s.now().UTC()
	day := models.Day(now)
	r := &Report{UserID: userID, GeneratedAt: now, Unit: s.engine.Unit}

	fatigue, err := s.store.ListAssessments(ctx, userID, day.AddDate(0, 0, -ReportDays), day)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	r.Fatigue = fatigue
	if len(fatigue) > 0 {
		latest := fatigue[len(fatigue)-1]
		r.Latest = &latest
	}

	w, err := s.fetchWindow(ctx, userID, day, PerformanceHistoryDays)
	if err != nil {
		return nil, err
	}
	for _, id := range analysis.ExerciseIDs(w.logs) {
		r.Exercises = append(r.Exercises, summarizeExercise(id, w.logs, day, s.model))
	}

	plan, err := s.store.GetActivePlan(ctx, userID)
	switch {
	case errors.Is(err, store.ErrPlanNotFound):
		return r, nil
	case err != nil:
		return nil, err
	}
	r.Plan = plan
	r.PhaseWeek = PhaseWeek(*plan, now)

	in, _, err := s.transitionInput(ctx, *plan, now)
	if err != nil {
		return nil, err
	}
	tr, err := analysis.EvaluatePhaseTransition(in)
	if err != nil {
		return nil, err
	}
	r.Transition = &tr

	if r.Deloads, err = s.store.ListDeloadEvents(ctx, plan.ID); err != nil {
		return nil, fmt.Errorf("listing deload events: %w", err)
	}
	return r, nil
}

func summarizeExercise(id string, logs []models.PerformanceLog, day time.Time, model analysis.OneRepMaxModel) ExerciseSummary {
	sum := ExerciseSummary{ExerciseID: id, Estimate: analysis.EstimatePerformance(id, logs, model)}
	weekStart := day.AddDate(0, 0, -7)
	var sets []analysis.ExerciseSet
	for _, l := range logs {
		if l.ExerciseID != id {
			continue
		}
		if l.Date.After(sum.LastTrained) {
			sum.LastTrained = l.Date
		}
		if !l.Date.After(weekStart) {
			continue
		}
		for range l.SetsCount {
			sets = append(sets, analysis.ExerciseSet{TargetWeight: l.Weight, TargetReps: l.Reps, Completed: true})
		}
	}
	sum.WeeklyVolume = analysis.TrainingVolume(sets)
	return sum
}
