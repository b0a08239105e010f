package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"periodizer/internal/models"
)

const assessmentColumns = `user_id, date, overall_score, category, trend, recommendation,
	confidence, reasons, performance_change`

// SaveAssessment stores the assessment for its user and day, replacing a previous one.
// Assessments are derived, so recomputing simply overwrites.
func (s *Store) SaveAssessment(ctx context.Context, a models.FatigueAssessment) error {
	reasons, err := json.Marshal(nonNil(a.Reasons))
	if err != nil {
		return fmt.Errorf("encoding reasons: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO fatigue_assessments (`+assessmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			overall_score = excluded.overall_score,
			category = excluded.category,
			trend = excluded.trend,
			recommendation = excluded.recommendation,
			confidence = excluded.confidence,
			reasons = excluded.reasons,
			performance_change = excluded.performance_change
	`),
		a.UserID, formatDay(a.Date), a.OverallScore, string(a.Category), string(a.Trend),
		a.RecommendationText, a.Confidence, string(reasons), a.PerformanceChange,
	)
	return err
}

// GetAssessment retrieves the assessment for a user and day.
func (s *Store) GetAssessment(ctx context.Context, userID string, day time.Time) (*models.FatigueAssessment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+assessmentColumns+`
		FROM fatigue_assessments
		WHERE user_id = ? AND date = ?
	`), userID, formatDay(day))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list, err := scanAssessments(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrAssessmentNotFound
	}
	return &list[0], nil
}

// ListAssessments returns a user's assessments with from <= date <= to, oldest first.
func (s *Store) ListAssessments(ctx context.Context, userID string, from, to time.Time) ([]models.FatigueAssessment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+assessmentColumns+`
		FROM fatigue_assessments
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`), userID, formatDay(from), formatDay(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAssessments(rows)
}

func scanAssessments(rows *sql.Rows) ([]models.FatigueAssessment, error) {
	var list []models.FatigueAssessment
	for rows.Next() {
		var a models.FatigueAssessment
		var date, category, trend, reasons string
		err := rows.Scan(
			&a.UserID, &date, &a.OverallScore, &category, &trend, &a.RecommendationText,
			&a.Confidence, &reasons, &a.PerformanceChange,
		)
		if err != nil {
			return nil, err
		}
		if a.Date, err = parseDay(date); err != nil {
			return nil, err
		}
		a.Category = models.FatigueCategory(category)
		a.Trend = models.FatigueTrend(trend)
		if err := json.Unmarshal([]byte(reasons), &a.Reasons); err != nil {
			return nil, fmt.Errorf("decoding reasons: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
