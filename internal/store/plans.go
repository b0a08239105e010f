package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"periodizer/internal/models"
)

const planColumns = `id, user_id, total_duration_weeks, current_phase_index, phases,
	fatigue_threshold, progress_threshold, adherence_threshold,
	phase_started_at, completed, created_at, last_adjusted_at`

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// CreatePlan inserts a new plan.
func (s *Store) CreatePlan(ctx context.Context, p models.PeriodizationPlan) error {
	phases, err := json.Marshal(p.Phases)
	if err != nil {
		return fmt.Errorf("encoding phases: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		p.ID, p.UserID, p.TotalDurationWeeks, p.CurrentPhaseIndex, string(phases),
		p.AdaptiveSettings.FatigueThreshold, p.AdaptiveSettings.ProgressThreshold, p.AdaptiveSettings.AdherenceThreshold,
		formatTime(p.PhaseStartedAt), boolToInt64(p.Completed), formatTime(p.CreatedAt), formatTime(p.LastAdjustedAt),
	)
	return err
}

// GetPlan retrieves a plan by ID.
func (s *Store) GetPlan(ctx context.Context, id string) (*models.PeriodizationPlan, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+planColumns+`
		FROM plans
		WHERE id = ?
	`), id)

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

// GetActivePlan retrieves the user's most recently created plan that is not completed.
func (s *Store) GetActivePlan(ctx context.Context, userID string) (*models.PeriodizationPlan, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+planColumns+`
		FROM plans
		WHERE user_id = ? AND completed = 0
		ORDER BY created_at DESC
		LIMIT 1
	`), userID)

	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	return p, err
}

// ListActivePlans returns every plan that is not completed, oldest first.
func (s *Store) ListActivePlans(ctx context.Context) ([]models.PeriodizationPlan, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+planColumns+`
		FROM plans
		WHERE completed = 0
		ORDER BY created_at
	`))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []models.PeriodizationPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// UpdatePlan writes p if the stored plan was last adjusted at expected.
// It returns ErrConcurrentModification when another writer got there first.
func (s *Store) UpdatePlan(ctx context.Context, p models.PeriodizationPlan, expected time.Time) error {
	return s.updatePlan(ctx, s.db, p, expected)
}

func (s *Store) updatePlan(ctx context.Context, ex execer, p models.PeriodizationPlan, expected time.Time) error {
	phases, err := json.Marshal(p.Phases)
	if err != nil {
		return fmt.Errorf("encoding phases: %w", err)
	}

	result, err := ex.ExecContext(ctx, s.rebind(`
		UPDATE plans SET
			total_duration_weeks = ?,
			current_phase_index = ?,
			phases = ?,
			fatigue_threshold = ?,
			progress_threshold = ?,
			adherence_threshold = ?,
			phase_started_at = ?,
			completed = ?,
			last_adjusted_at = ?
		WHERE id = ? AND last_adjusted_at = ?
	`),
		p.TotalDurationWeeks, p.CurrentPhaseIndex, string(phases),
		p.AdaptiveSettings.FatigueThreshold, p.AdaptiveSettings.ProgressThreshold, p.AdaptiveSettings.AdherenceThreshold,
		formatTime(p.PhaseStartedAt), boolToInt64(p.Completed), formatTime(p.LastAdjustedAt),
		p.ID, formatTime(expected),
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 1 {
		return nil
	}

	var exists int
	err = ex.QueryRowContext(ctx, s.rebind(`SELECT 1 FROM plans WHERE id = ?`), p.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlanNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: plan %s", ErrConcurrentModification, p.ID)
}

// SaveTransition persists an applied phase transition atomically: the plan update
// (optimistic on expected), the history row for the phase that ended and, when present,
// the deload event. History and event inserts ignore rows that already exist.
func (s *Store) SaveTransition(ctx context.Context, p models.PeriodizationPlan, expected time.Time,
	history *models.PhaseHistoryEntry, event *models.DeloadEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.updatePlan(ctx, tx, p, expected); err != nil {
		return err
	}
	if history != nil {
		if err := s.insertHistory(ctx, tx, *history); err != nil {
			return fmt.Errorf("inserting phase history: %w", err)
		}
	}
	if event != nil {
		if err := s.insertDeloadEvent(ctx, tx, *event); err != nil {
			return fmt.Errorf("inserting deload event: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) insertHistory(ctx context.Context, ex execer, h models.PhaseHistoryEntry) error {
	var ended *string
	if h.EndedAt != nil {
		v := formatTime(*h.EndedAt)
		ended = &v
	}
	_, err := ex.ExecContext(ctx, s.rebind(`
		INSERT INTO phase_history (id, plan_id, phase_index, phase_type, started_at, ended_at, trigger_code)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`),
		historyID(h), h.PlanID, h.PhaseIndex, string(h.PhaseType), formatTime(h.StartedAt), ended, h.Trigger,
	)
	return err
}

func (s *Store) insertDeloadEvent(ctx context.Context, ex execer, e models.DeloadEvent) error {
	reasons, err := json.Marshal(nonNil(e.ReasonCodes))
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx, s.rebind(`
		INSERT INTO deload_events (id, plan_id, date, type, duration_days, reason_codes, fatigue_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`),
		e.ID, e.PlanID, formatDay(e.Date), string(e.Type), e.DurationDays, string(reasons), e.FatigueScoreAtTrigger,
	)
	return err
}

// ListPhaseHistory returns a plan's history, oldest first.
func (s *Store) ListPhaseHistory(ctx context.Context, planID string) ([]models.PhaseHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT plan_id, phase_index, phase_type, started_at, ended_at, trigger_code
		FROM phase_history
		WHERE plan_id = ?
		ORDER BY started_at, phase_index
	`), planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.PhaseHistoryEntry
	for rows.Next() {
		var h models.PhaseHistoryEntry
		var phaseType, started string
		var ended *string
		if err := rows.Scan(&h.PlanID, &h.PhaseIndex, &phaseType, &started, &ended, &h.Trigger); err != nil {
			return nil, err
		}
		h.PhaseType = models.PhaseType(phaseType)
		if h.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if ended != nil {
			t, err := parseTime(*ended)
			if err != nil {
				return nil, err
			}
			h.EndedAt = &t
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// ListDeloadEvents returns a plan's deload events, oldest first.
func (s *Store) ListDeloadEvents(ctx context.Context, planID string) ([]models.DeloadEvent, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT id, plan_id, date, type, duration_days, reason_codes, fatigue_score
		FROM deload_events
		WHERE plan_id = ?
		ORDER BY date
	`), planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.DeloadEvent
	for rows.Next() {
		var e models.DeloadEvent
		var date, deloadType, reasons string
		if err := rows.Scan(&e.ID, &e.PlanID, &date, &deloadType, &e.DurationDays, &reasons, &e.FatigueScoreAtTrigger); err != nil {
			return nil, err
		}
		if e.Date, err = parseDay(date); err != nil {
			return nil, err
		}
		e.Type = models.DeloadType(deloadType)
		if err := json.Unmarshal([]byte(reasons), &e.ReasonCodes); err != nil {
			return nil, fmt.Errorf("decoding reason codes: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanPlan(row scanner) (*models.PeriodizationPlan, error) {
	var p models.PeriodizationPlan
	var phases, phaseStarted, created, adjusted string
	var completed int64

	err := row.Scan(
		&p.ID, &p.UserID, &p.TotalDurationWeeks, &p.CurrentPhaseIndex, &phases,
		&p.AdaptiveSettings.FatigueThreshold, &p.AdaptiveSettings.ProgressThreshold, &p.AdaptiveSettings.AdherenceThreshold,
		&phaseStarted, &completed, &created, &adjusted,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(phases), &p.Phases); err != nil {
		return nil, fmt.Errorf("decoding phases of plan %s: %w", p.ID, err)
	}
	p.Completed = completed != 0
	if p.PhaseStartedAt, err = parseTime(phaseStarted); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.LastAdjustedAt, err = parseTime(adjusted); err != nil {
		return nil, err
	}
	return &p, nil
}

var historyNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("periodizer/phase-history"))

// historyID is stable for a plan, phase index and start so retried writes collapse.
func historyID(h models.PhaseHistoryEntry) string {
	key := fmt.Sprintf("%s/%d/%s", h.PlanID, h.PhaseIndex, formatTime(h.StartedAt))
	return uuid.NewSHA1(historyNamespace, []byte(key)).String()
}
