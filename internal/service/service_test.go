package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periodizer/internal/analysis"
	"periodizer/internal/config"
	"periodizer/internal/ingest"
	"periodizer/internal/models"
	"periodizer/internal/store"
)

var t0 = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	st, err := store.Open(store.DriverSQLite, ":memory:")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

func setupTestService(t *testing.T, st Store) (*Service, *clock) {
	t.Helper()

	svc, err := New(st, nil, config.DefaultConfig())
	require.NoError(t, err)
	c := &clock{now: t0}
	svc.SetClock(c.Now)
	return svc, c
}

// conflictStore fails the first conflicts SaveTransition calls as if another writer won.
type conflictStore struct {
	*store.Store
	conflicts int
	calls     int
}

func (c *conflictStore) SaveTransition(ctx context.Context, p models.PeriodizationPlan, expected time.Time,
	history *models.PhaseHistoryEntry, event *models.DeloadEvent) error {
	c.calls++
	if c.conflicts > 0 {
		c.conflicts--
		return fmt.Errorf("%w: plan %s", store.ErrConcurrentModification, p.ID)
	}
	return c.Store.SaveTransition(ctx, p, expected, history, event)
}

func severeSnapshot(userID string, day time.Time) models.WellnessSnapshot {
	return models.WellnessSnapshot{
		UserID:           userID,
		Date:             day,
		PerceivedFatigue: models.Float(8),
		SleepQuality:     models.Float(3),
		EnergyLevel:      models.Float(3),
		Mood:             models.Float(5),
		Motivation:       models.Float(5),
		Soreness:         models.Float(8),
		StressLevel:      models.Float(7),
	}
}

func squatLog(userID string, day time.Time, weight float64) models.PerformanceLog {
	return models.PerformanceLog{
		ID:             ingest.LogID(userID, day.Format(time.DateOnly), "squat"),
		UserID:         userID,
		ExerciseID:     "squat",
		Date:           day,
		Weight:         weight,
		Reps:           5,
		SetsCount:      3,
		RIR:            2,
		RPE:            8,
		CompletionRate: 1,
	}
}

func TestNew_RejectsUnknownModel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Engine.OneRepMaxModel = "wathan"
	_, err := New(setupTestStore(t), nil, cfg)
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestRecordWellness(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	svc, _ := setupTestService(t, st)

	a, err := svc.RecordWellness(ctx, ingest.RawWellness{
		UserID:           "u1",
		Date:             "2026-03-02",
		PerceivedFatigue: models.Float(8),
		SleepQuality:     models.Float(3),
		EnergyLevel:      models.Float(3),
		Mood:             models.Float(5),
		Motivation:       models.Float(5),
		Soreness:         models.Float(8),
		StressLevel:      models.Float(7),
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, a.OverallScore)
	assert.Equal(t, models.FatigueSevere, a.Category)

	stored, err := st.GetAssessment(ctx, "u1", models.Day(t0))
	require.NoError(t, err)
	assert.Equal(t, a.OverallScore, stored.OverallScore)
}

func TestRecordWellness_Invalid(t *testing.T) {
	svc, _ := setupTestService(t, setupTestStore(t))

	_, err := svc.RecordWellness(context.Background(), ingest.RawWellness{UserID: "u1", Date: "yesterday"})
	assert.ErrorIs(t, err, ingest.ErrInvalidRecord)
}

func TestRecordSession_ConvertsUnits(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	svc, _ := setupTestService(t, st)

	logs, err := svc.RecordSession(ctx, ingest.RawSession{
		UserID: "u1",
		Date:   "2026-03-02",
		Unit:   ingest.UnitLB,
		Sets: []ingest.RawSet{
			{ExerciseID: "squat", Weight: 135, Reps: 5, Completed: true, Warmup: true},
			{ExerciseID: "squat", Weight: 225, Reps: 5, Completed: true},
			{ExerciseID: "squat", Weight: 225, Reps: 5, Completed: true},
		},
	})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.InDelta(t, 102.06, logs[0].Weight, 0.001)
	assert.Equal(t, 2, logs[0].SetsCount)

	stored, err := st.ListPerformanceLogs(ctx, "u1", models.Day(t0), models.Day(t0))
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestRecordSession_SameDaySessionsAppend(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	svc, _ := setupTestService(t, st)

	heavy := ingest.RawSession{
		UserID: "u1",
		Date:   "2026-03-02",
		Sets:   []ingest.RawSet{{ExerciseID: "squat", Weight: 100, Reps: 5, Completed: true}},
	}
	light := ingest.RawSession{
		UserID: "u1",
		Date:   "2026-03-02",
		Sets:   []ingest.RawSet{{ExerciseID: "squat", Weight: 60, Reps: 10, Completed: true}},
	}

	_, err := svc.RecordSession(ctx, heavy)
	require.NoError(t, err)
	_, err = svc.RecordSession(ctx, light)
	require.NoError(t, err)
	// resubmitting the first session is a no-op
	_, err = svc.RecordSession(ctx, heavy)
	require.NoError(t, err)

	stored, err := st.ListPerformanceLogs(ctx, "u1", models.Day(t0), models.Day(t0))
	require.NoError(t, err)
	require.Len(t, stored, 2)
	weights := []float64{stored[0].Weight, stored[1].Weight}
	assert.ElementsMatch(t, []float64{100, 60}, weights)
}

func TestCreatePlan(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupTestService(t, setupTestStore(t))

	plan, err := svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)
	assert.Len(t, plan.Phases, 4)
	assert.Equal(t, 70.0, plan.AdaptiveSettings.FatigueThreshold)

	got, err := svc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, plan.ID, got.ID)

	_, err = svc.CreatePlan(ctx, "u1", "marathon", 12)
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestAdvancePlan_NothingDue(t *testing.T) {
	ctx := context.Background()
	svc, c := setupTestService(t, setupTestStore(t))
	plan, err := svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)

	c.now = t0.Add(5 * 24 * time.Hour)
	out, err := svc.AdvancePlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.False(t, out.Applied)
	assert.Equal(t, 0, out.Plan.CurrentPhaseIndex)
	assert.Contains(t, out.Transition.Reasons, analysis.ReasonInsufficientData)
}

func TestAdvancePlan_TimeTrigger(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	svc, c := setupTestService(t, st)
	plan, err := svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)

	c.now = t0.Add(15 * 24 * time.Hour)

	preview, err := svc.EvaluateTransition(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, preview.ShouldTransition)
	unchanged, err := svc.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, unchanged.CurrentPhaseIndex, "evaluation must not change the plan")

	out, err := svc.AdvancePlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, analysis.TriggerTime, out.Transition.Trigger)
	assert.Equal(t, 1, out.Plan.CurrentPhaseIndex)
	assert.Equal(t, models.PhaseHypertrophy, out.Transition.ToType)
	assert.Nil(t, out.DeloadEvent)

	history, events, err := svc.PlanHistory(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "time", history[0].Trigger)
	assert.Empty(t, events)

	// the new phase just started
	again, err := svc.AdvancePlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, 1, again.Plan.CurrentPhaseIndex)
}

func TestAdvancePlan_InsertsDeload(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	svc, c := setupTestService(t, st)
	plan, err := svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)

	c.now = t0.Add(15 * 24 * time.Hour)
	today := models.Day(c.now)
	for i := 6; i >= 0; i-- {
		require.NoError(t, st.UpsertWellness(ctx, severeSnapshot("u1", today.AddDate(0, 0, -i))))
	}
	require.NoError(t, st.SavePerformanceLogs(ctx, []models.PerformanceLog{
		squatLog("u1", today.AddDate(0, 0, -8), 100),
		squatLog("u1", today.AddDate(0, 0, -1), 85),
	}))

	rec, err := svc.EvaluateDeload(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, rec.IsRecommended)
	assert.Contains(t, rec.ReasonCodes, "performance_decline")

	out, err := svc.AdvancePlan(ctx, plan.ID)
	require.NoError(t, err)
	require.True(t, out.Applied)
	assert.True(t, out.Transition.InsertDeload)
	require.NotNil(t, out.DeloadEvent)
	require.Len(t, out.Plan.Phases, 5)
	assert.Equal(t, 1, out.Plan.CurrentPhaseIndex)
	assert.Equal(t, models.PhaseDeload, out.Plan.Phases[1].Type)
	assert.Equal(t, models.PhaseHypertrophy, out.Plan.Phases[2].Type)

	_, events, err := svc.PlanHistory(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, out.DeloadEvent.ID, events[0].ID)

	stored, err := st.GetAssessment(ctx, "u1", today)
	require.NoError(t, err)
	assert.Equal(t, models.FatigueSevere, stored.Category)
}

func TestAdvancePlan_RetriesConflicts(t *testing.T) {
	ctx := context.Background()
	cs := &conflictStore{Store: setupTestStore(t), conflicts: 1}
	svc, c := setupTestService(t, cs)
	plan, err := svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)
	c.now = t0.Add(15 * 24 * time.Hour)

	out, err := svc.AdvancePlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 2, cs.calls)
}

func TestAdvancePlan_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	cs := &conflictStore{Store: setupTestStore(t), conflicts: 10}
	svc, c := setupTestService(t, cs)
	plan, err := svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)
	c.now = t0.Add(15 * 24 * time.Hour)

	_, err = svc.AdvancePlan(ctx, plan.ID)
	assert.ErrorIs(t, err, store.ErrConcurrentModification)
	assert.Equal(t, MaxTransitionAttempts, cs.calls)
}

func TestAdvancePlan_UnknownPlan(t *testing.T) {
	svc, _ := setupTestService(t, setupTestStore(t))

	_, err := svc.AdvancePlan(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrPlanNotFound)
}

func TestOverridePhase(t *testing.T) {
	ctx := context.Background()
	svc, c := setupTestService(t, setupTestStore(t))
	plan, err := svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)
	c.now = t0.Add(time.Hour)

	got, err := svc.OverridePhase(ctx, plan.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentPhaseIndex)
	assert.True(t, got.PhaseStartedAt.Equal(c.now))

	history, _, err := svc.PlanHistory(ctx, plan.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "manual", history[0].Trigger)

	_, err = svc.OverridePhase(ctx, plan.ID, 9)
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestRecommendProgression(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	svc, _ := setupTestService(t, st)
	state := analysis.ExerciseState{ExerciseID: "squat", TargetWeight: 100, TargetReps: 8, TargetSets: 3, RestSeconds: 90}

	_, err := svc.RecommendProgression(ctx, "u1", state)
	assert.ErrorIs(t, err, store.ErrPlanNotFound)

	_, err = svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)

	rec, err := svc.RecommendProgression(ctx, "u1", state)
	require.NoError(t, err)
	assert.Equal(t, "squat", rec.ExerciseID)
	// no logged sessions yet
	assert.Equal(t, analysis.ActionIncreaseReps, rec.Action)
	assert.Zero(t, rec.Confidence)
	assert.Contains(t, rec.Reasons, analysis.ReasonInsufficientData)

	_, err = svc.RecommendProgression(ctx, "u1", analysis.ExerciseState{})
	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
}

func TestPrescribeSession(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	svc, _ := setupTestService(t, st)
	_, err := svc.CreatePlan(ctx, "u1", "strength", 12)
	require.NoError(t, err)
	require.NoError(t, st.SavePerformanceLogs(ctx, []models.PerformanceLog{
		squatLog("u1", models.Day(t0).AddDate(0, 0, -2), 100),
	}))

	p, err := svc.PrescribeSession(ctx, "u1", "squat")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseAnatomicalAdaptation, p.Phase)
	assert.Greater(t, p.Weight, 0.0)
	assert.Less(t, p.Weight, 116.67)
}

func TestBuildReport(t *testing.T) {
	ctx := context.Background()
	st := setupTestStore(t)
	svc, _ := setupTestService(t, st)
	day := models.Day(t0)
	require.NoError(t, st.SavePerformanceLogs(ctx, []models.PerformanceLog{
		squatLog("u1", day.AddDate(0, 0, -9), 95),
		squatLog("u1", day.AddDate(0, 0, -2), 100),
	}))
	_, err := svc.AssessFatigue(ctx, "u1", day)
	require.NoError(t, err)

	r, err := svc.BuildReport(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, r.Plan)
	require.Len(t, r.Exercises, 1)
	assert.Equal(t, 1500.0, r.Exercises[0].WeeklyVolume)
	require.NotNil(t, r.Latest)

	_, err = svc.CreatePlan(ctx, "u1", "general", 8)
	require.NoError(t, err)
	r, err = svc.BuildReport(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, r.Plan)
	assert.Equal(t, 1, r.PhaseWeek)
	assert.NotNil(t, r.Transition)
}
