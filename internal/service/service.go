// Package service wires the analysis engine to persistence: it fetches the
// windows of records each decision needs, runs the engine and stores results.
package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"periodizer/internal/analysis"
	"periodizer/internal/config"
	"periodizer/internal/logger"
	"periodizer/internal/models"
)

// Store is the persistence the service depends on.
type Store interface {
	UpsertWellness(ctx context.Context, w models.WellnessSnapshot) error
	ListWellness(ctx context.Context, userID string, from, to time.Time) ([]models.WellnessSnapshot, error)
	SavePerformanceLogs(ctx context.Context, logs []models.PerformanceLog) error
	ListPerformanceLogs(ctx context.Context, userID string, from, to time.Time) ([]models.PerformanceLog, error)
	SaveAssessment(ctx context.Context, a models.FatigueAssessment) error
	ListAssessments(ctx context.Context, userID string, from, to time.Time) ([]models.FatigueAssessment, error)
	CreatePlan(ctx context.Context, p models.PeriodizationPlan) error
	GetPlan(ctx context.Context, id string) (*models.PeriodizationPlan, error)
	GetActivePlan(ctx context.Context, userID string) (*models.PeriodizationPlan, error)
	ListActivePlans(ctx context.Context) ([]models.PeriodizationPlan, error)
	SaveTransition(ctx context.Context, p models.PeriodizationPlan, expected time.Time,
		history *models.PhaseHistoryEntry, event *models.DeloadEvent) error
	ListPhaseHistory(ctx context.Context, planID string) ([]models.PhaseHistoryEntry, error)
	ListDeloadEvents(ctx context.Context, planID string) ([]models.DeloadEvent, error)
}

// Service runs engine operations against stored data.
type Service struct {
	store    Store
	log      *logger.Logger
	engine   config.EngineConfig
	adaptive models.AdaptiveSettings
	model    analysis.OneRepMaxModel
	level    analysis.ExperienceLevel
	now      func() time.Time
}

// New creates a service from the engine and adaptive sections of cfg.
func New(st Store, log *logger.Logger, cfg config.Config) (*Service, error) {
	model, err := analysis.ParseOneRepMaxModel(cfg.Engine.OneRepMaxModel)
	if err != nil {
		return nil, err
	}
	level, err := analysis.ParseExperienceLevel(cfg.Engine.ExperienceLevel)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:  st,
		log:    log,
		engine: cfg.Engine,
		adaptive: models.AdaptiveSettings{
			FatigueThreshold:   cfg.Adaptive.FatigueThreshold,
			ProgressThreshold:  cfg.Adaptive.ProgressThreshold,
			AdherenceThreshold: cfg.Adaptive.AdherenceThreshold,
		},
		model: model,
		level: level,
		now:   time.Now,
	}, nil
}

// SetClock replaces the service's time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// window is the raw history for one user up to a day.
type window struct {
	snapshots []models.WellnessSnapshot
	logs      []models.PerformanceLog
}

// fetchWindow reads snapshots and logs for the days days ending on day, concurrently.
func (s *Service) fetchWindow(ctx context.Context, userID string, day time.Time, days int) (window, error) {
	from := day.AddDate(0, 0, -days)
	var w window

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snaps, err := s.store.ListWellness(gctx, userID, from, day)
		if err != nil {
			return fmt.Errorf("listing wellness: %w", err)
		}
		w.snapshots = snaps
		return nil
	})
	g.Go(func() error {
		logs, err := s.store.ListPerformanceLogs(gctx, userID, from, day)
		if err != nil {
			return fmt.Errorf("listing performance logs: %w", err)
		}
		w.logs = logs
		return nil
	})
	if err := g.Wait(); err != nil {
		return window{}, err
	}
	return w, nil
}

// AssessFatigue scores and stores the user's fatigue for day.
func (s *Service) AssessFatigue(ctx context.Context, userID string, day time.Time) (models.FatigueAssessment, error) {
	day = models.Day(day)
	w, err := s.fetchWindow(ctx, userID, day, FatigueHistoryDays)
	if err != nil {
		return models.FatigueAssessment{}, err
	}

	a := analysis.ScoreFatigue(userID, day, w.snapshots, w.logs)
	if err := s.store.SaveAssessment(ctx, a); err != nil {
		return models.FatigueAssessment{}, fmt.Errorf("saving assessment: %w", err)
	}
	s.log.Debug("fatigue assessed", "user_id", userID, "date", day.Format(time.DateOnly),
		"score", a.OverallScore, "category", a.Category, "confidence", a.Confidence)
	return a, nil
}

// EstimatePerformance estimates one exercise from the user's recent logs.
func (s *Service) EstimatePerformance(ctx context.Context, userID, exerciseID string) (analysis.PerformanceEstimate, error) {
	day := models.Day(s.now())
	logs, err := s.store.ListPerformanceLogs(ctx, userID, day.AddDate(0, 0, -PerformanceHistoryDays), day)
	if err != nil {
		return analysis.PerformanceEstimate{}, fmt.Errorf("listing performance logs: %w", err)
	}
	return analysis.EstimatePerformance(exerciseID, logs, s.model), nil
}
