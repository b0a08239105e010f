package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"periodizer/internal/analysis"
	"periodizer/internal/models"
)

// planWindow is everything stored that a plan evaluation reads.
type planWindow struct {
	snapshots   []models.WellnessSnapshot
	logs        []models.PerformanceLog
	assessments []models.FatigueAssessment
	deloads     []models.DeloadEvent
}

func (s *Service) fetchPlanWindow(ctx context.Context, plan models.PeriodizationPlan, day time.Time) (planWindow, error) {
	logsFrom := day.AddDate(0, 0, -PerformanceHistoryDays)
	if baseline := models.Day(plan.PhaseStartedAt).AddDate(0, 0, -7); baseline.Before(logsFrom) {
		logsFrom = baseline
	}
	var w planWindow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snaps, err := s.store.ListWellness(gctx, plan.UserID, day.AddDate(0, 0, -FatigueHistoryDays), day)
		if err != nil {
			return fmt.Errorf("listing wellness: %w", err)
		}
		w.snapshots = snaps
		return nil
	})
	g.Go(func() error {
		logs, err := s.store.ListPerformanceLogs(gctx, plan.UserID, logsFrom, day)
		if err != nil {
			return fmt.Errorf("listing performance logs: %w", err)
		}
		w.logs = logs
		return nil
	})
	g.Go(func() error {
		list, err := s.store.ListAssessments(gctx, plan.UserID, day.AddDate(0, 0, -(TransitionFatigueDays-1)), day.AddDate(0, 0, -1))
		if err != nil {
			return fmt.Errorf("listing assessments: %w", err)
		}
		w.assessments = list
		return nil
	})
	g.Go(func() error {
		events, err := s.store.ListDeloadEvents(gctx, plan.ID)
		if err != nil {
			return fmt.Errorf("listing deload events: %w", err)
		}
		w.deloads = events
		return nil
	})
	if err := g.Wait(); err != nil {
		return planWindow{}, err
	}
	return w, nil
}

// transitionInput assembles the state machine's input for plan at now. Today's fatigue
// is scored fresh; the previous six days come from stored assessments.
func (s *Service) transitionInput(ctx context.Context, plan models.PeriodizationPlan, now time.Time) (analysis.TransitionInput, models.FatigueAssessment, error) {
	day := models.Day(now)
	w, err := s.fetchPlanWindow(ctx, plan, day)
	if err != nil {
		return analysis.TransitionInput{}, models.FatigueAssessment{}, err
	}

	today := analysis.ScoreFatigue(plan.UserID, day, w.snapshots, w.logs)
	fatigue := append(w.assessments, today)
	deload := buildDeloadInput(plan, fatigue, today, w, day, s.model)

	return analysis.TransitionInput{
		Plan:     plan,
		Now:      now,
		Fatigue:  fatigue,
		Progress: analysis.WeeklyProgress(w.logs, plan.PhaseStartedAt, now, s.model),
		Deload:   &deload,
	}, today, nil
}

// buildDeloadInput derives the deload engine's 0-100 signals from stored history.
// Signals without data fall back to neutral values.
func buildDeloadInput(plan models.PeriodizationPlan, fatigue []models.FatigueAssessment, today models.FatigueAssessment,
	w planWindow, day time.Time, model analysis.OneRepMaxModel) analysis.DeloadInput {
	in := analysis.DeloadInput{
		Fatigue:            fatigue,
		Plan:               plan,
		PerformanceDecline: max(0, -today.PerformanceChange),
		Readiness:          NeutralReadiness,
		Soreness:           NeutralSignal,
		Stress:             NeutralSignal,
		SleepQuality:       NeutralSignal,
		WeeksSinceDeload:   analysis.WeeksSinceDeload(plan, w.deloads, day),
	}

	if ids := analysis.ExerciseIDs(w.logs); len(ids) > 0 {
		var total float64
		for _, id := range ids {
			total += analysis.EstimatePerformance(id, w.logs, model).Readiness
		}
		in.Readiness = total / float64(len(ids)) * 100
	}

	if snap, ok := latestOnOrBefore(w.snapshots, day); ok {
		if snap.Soreness != nil {
			in.Soreness = *snap.Soreness * AxisToPercent
		}
		if snap.StressLevel != nil {
			in.Stress = *snap.StressLevel * AxisToPercent
		}
		if snap.SleepQuality != nil {
			in.SleepQuality = *snap.SleepQuality * AxisToPercent
		}
	}

	weekStart := day.AddDate(0, 0, -7)
	var rpeSum float64
	var n int
	for _, l := range w.logs {
		if l.Date.After(weekStart) && !l.Date.After(day) {
			rpeSum += l.RPE
			n++
		}
	}
	if n > 0 {
		in.AverageRPE = rpeSum / float64(n)
	}
	return in
}

func latestOnOrBefore(snaps []models.WellnessSnapshot, day time.Time) (models.WellnessSnapshot, bool) {
	var latest models.WellnessSnapshot
	found := false
	for _, s := range snaps {
		if s.Date.After(day) {
			continue
		}
		if !found || s.Date.After(latest.Date) {
			latest, found = s, true
		}
	}
	return latest, found
}
