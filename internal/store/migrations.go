package store

// migrate runs all database migrations. The DDL is shared by sqlite and postgres.
func (s *Store) migrate() error {
	migrations := []string{
		// Daily wellness check-ins, one per user per day
		`CREATE TABLE IF NOT EXISTS wellness_snapshots (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			perceived_fatigue DOUBLE PRECISION,
			sleep_quality DOUBLE PRECISION,
			mood DOUBLE PRECISION,
			motivation DOUBLE PRECISION,
			energy_level DOUBLE PRECISION,
			soreness DOUBLE PRECISION,
			stress_level DOUBLE PRECISION,
			resting_heart_rate DOUBLE PRECISION,
			hrv DOUBLE PRECISION,
			sleep_duration_minutes DOUBLE PRECISION,
			PRIMARY KEY (user_id, date)
		)`,

		// Per-exercise session summaries
		`CREATE TABLE IF NOT EXISTS performance_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			session_id TEXT NOT NULL DEFAULT '',
			exercise_id TEXT NOT NULL,
			date TEXT NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			reps INTEGER NOT NULL,
			sets_count INTEGER NOT NULL,
			rir DOUBLE PRECISION NOT NULL,
			rpe DOUBLE PRECISION NOT NULL,
			completion_rate DOUBLE PRECISION NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_performance_logs_user_date ON performance_logs(user_id, date)`,

		// Derived daily fatigue assessments
		`CREATE TABLE IF NOT EXISTS fatigue_assessments (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			overall_score DOUBLE PRECISION NOT NULL,
			category TEXT NOT NULL,
			trend TEXT NOT NULL,
			recommendation TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			reasons TEXT NOT NULL,
			performance_change DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (user_id, date)
		)`,

		// Periodization plans; phases are stored as a JSON array
		`CREATE TABLE IF NOT EXISTS plans (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			total_duration_weeks INTEGER NOT NULL,
			current_phase_index INTEGER NOT NULL,
			phases TEXT NOT NULL,
			fatigue_threshold DOUBLE PRECISION NOT NULL,
			progress_threshold DOUBLE PRECISION NOT NULL,
			adherence_threshold DOUBLE PRECISION NOT NULL,
			phase_started_at TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			last_adjusted_at TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_plans_user ON plans(user_id)`,

		// Append-only record of which phase was active when
		`CREATE TABLE IF NOT EXISTS phase_history (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL,
			phase_index INTEGER NOT NULL,
			phase_type TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			trigger_code TEXT NOT NULL,
			FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_phase_history_plan ON phase_history(plan_id)`,

		// Append-only deload events
		`CREATE TABLE IF NOT EXISTS deload_events (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL,
			date TEXT NOT NULL,
			type TEXT NOT NULL,
			duration_days INTEGER NOT NULL,
			reason_codes TEXT NOT NULL,
			fatigue_score DOUBLE PRECISION NOT NULL,
			FOREIGN KEY (plan_id) REFERENCES plans(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_deload_events_plan ON deload_events(plan_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
