package store

import (
	"context"
	"fmt"
	"time"

	"periodizer/internal/models"
)

// SavePerformanceLogs appends logs in one transaction. Logs are never rewritten: a log
// whose ID already exists is skipped, so re-ingesting a session is safe.
func (s *Store) SavePerformanceLogs(ctx context.Context, logs []models.PerformanceLog) error {
	if len(logs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO performance_logs (
			id, user_id, session_id, exercise_id, date, weight, reps, sets_count, rir, rpe, completion_rate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`))
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, l := range logs {
		_, err := stmt.ExecContext(ctx,
			l.ID, l.UserID, l.SessionID, l.ExerciseID, formatDay(l.Date), l.Weight, l.Reps, l.SetsCount,
			l.RIR, l.RPE, l.CompletionRate,
		)
		if err != nil {
			return fmt.Errorf("inserting log %s: %w", l.ID, err)
		}
	}

	return tx.Commit()
}

// ListPerformanceLogs returns a user's logs with from <= date <= to, oldest first.
func (s *Store) ListPerformanceLogs(ctx context.Context, userID string, from, to time.Time) ([]models.PerformanceLog, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, user_id, session_id, exercise_id, date, weight, reps, sets_count, rir, rpe, completion_rate
		FROM performance_logs
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date, exercise_id, id
	`), userID, formatDay(from), formatDay(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.PerformanceLog
	for rows.Next() {
		var l models.PerformanceLog
		var date string
		err := rows.Scan(
			&l.ID, &l.UserID, &l.SessionID, &l.ExerciseID, &date, &l.Weight, &l.Reps, &l.SetsCount,
			&l.RIR, &l.RPE, &l.CompletionRate,
		)
		if err != nil {
			return nil, err
		}
		if l.Date, err = parseDay(date); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
