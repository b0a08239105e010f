package service

import (
	"context"
	"fmt"

	"periodizer/internal/ingest"
	"periodizer/internal/models"
)

// RecordWellness stores a check-in and recomputes that day's fatigue assessment.
func (s *Service) RecordWellness(ctx context.Context, raw ingest.RawWellness) (models.FatigueAssessment, error) {
	snap, err := ingest.NormalizeWellness(raw)
	if err != nil {
		return models.FatigueAssessment{}, err
	}
	if err := s.store.UpsertWellness(ctx, snap); err != nil {
		return models.FatigueAssessment{}, fmt.Errorf("saving wellness: %w", err)
	}
	return s.AssessFatigue(ctx, snap.UserID, snap.Date)
}

// RecordSession stores a workout's per-exercise logs and recomputes that day's assessment.
func (s *Service) RecordSession(ctx context.Context, raw ingest.RawSession) ([]models.PerformanceLog, error) {
	logs, err := ingest.NormalizeSession(raw, s.engine.Unit)
	if err != nil {
		return nil, err
	}
	if err := s.store.SavePerformanceLogs(ctx, logs); err != nil {
		return nil, fmt.Errorf("saving performance logs: %w", err)
	}
	if len(logs) > 0 {
		if _, err := s.AssessFatigue(ctx, raw.UserID, logs[0].Date); err != nil {
			return nil, err
		}
	}
	s.log.Info("session recorded", "user_id", raw.UserID, "exercises", len(logs))
	return logs, nil
}
