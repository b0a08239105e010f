package store

import (
	"context"
	"database/sql"
	"time"

	"periodizer/internal/models"
)

const wellnessColumns = `user_id, date, perceived_fatigue, sleep_quality, mood, motivation,
	energy_level, soreness, stress_level, resting_heart_rate, hrv, sleep_duration_minutes`

// UpsertWellness stores a snapshot, replacing any existing one for the same user and day.
func (s *Store) UpsertWellness(ctx context.Context, w models.WellnessSnapshot) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO wellness_snapshots (`+wellnessColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			perceived_fatigue = excluded.perceived_fatigue,
			sleep_quality = excluded.sleep_quality,
			mood = excluded.mood,
			motivation = excluded.motivation,
			energy_level = excluded.energy_level,
			soreness = excluded.soreness,
			stress_level = excluded.stress_level,
			resting_heart_rate = excluded.resting_heart_rate,
			hrv = excluded.hrv,
			sleep_duration_minutes = excluded.sleep_duration_minutes
	`),
		w.UserID, formatDay(w.Date), w.PerceivedFatigue, w.SleepQuality, w.Mood, w.Motivation,
		w.EnergyLevel, w.Soreness, w.StressLevel, w.RestingHeartRate, w.HRV, w.SleepDurationMinutes,
	)
	return err
}

// ListWellness returns a user's snapshots with from <= date <= to, oldest first.
func (s *Store) ListWellness(ctx context.Context, userID string, from, to time.Time) ([]models.WellnessSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+wellnessColumns+`
		FROM wellness_snapshots
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date
	`), userID, formatDay(from), formatDay(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWellness(rows)
}

func scanWellness(rows *sql.Rows) ([]models.WellnessSnapshot, error) {
	var snaps []models.WellnessSnapshot
	for rows.Next() {
		var w models.WellnessSnapshot
		var date string
		err := rows.Scan(
			&w.UserID, &date, &w.PerceivedFatigue, &w.SleepQuality, &w.Mood, &w.Motivation,
			&w.EnergyLevel, &w.Soreness, &w.StressLevel, &w.RestingHeartRate, &w.HRV, &w.SleepDurationMinutes,
		)
		if err != nil {
			return nil, err
		}
		if w.Date, err = parseDay(date); err != nil {
			return nil, err
		}
		snaps = append(snaps, w)
	}
	return snaps, rows.Err()
}
