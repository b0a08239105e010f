// Package api exposes engine operations over HTTP, one request and response per operation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"periodizer/internal/analysis"
	"periodizer/internal/ingest"
	"periodizer/internal/logger"
	"periodizer/internal/models"
	"periodizer/internal/service"
)

// Engine is the subset of the service the handlers call.
type Engine interface {
	RecordWellness(ctx context.Context, raw ingest.RawWellness) (models.FatigueAssessment, error)
	RecordSession(ctx context.Context, raw ingest.RawSession) ([]models.PerformanceLog, error)
	AssessFatigue(ctx context.Context, userID string, day time.Time) (models.FatigueAssessment, error)
	EstimatePerformance(ctx context.Context, userID, exerciseID string) (analysis.PerformanceEstimate, error)
	RecommendProgression(ctx context.Context, userID string, state analysis.ExerciseState) (analysis.ProgressionRecommendation, error)
	PrescribeSession(ctx context.Context, userID, exerciseID string) (analysis.SessionPrescription, error)
	CreatePlan(ctx context.Context, userID, goal string, weeks int) (models.PeriodizationPlan, error)
	GetPlan(ctx context.Context, planID string) (*models.PeriodizationPlan, error)
	ActivePlan(ctx context.Context, userID string) (*models.PeriodizationPlan, error)
	EvaluateTransition(ctx context.Context, planID string) (analysis.PhaseTransition, error)
	AdvancePlan(ctx context.Context, planID string) (service.TransitionOutcome, error)
	OverridePhase(ctx context.Context, planID string, index int) (models.PeriodizationPlan, error)
	EvaluateDeload(ctx context.Context, planID string) (analysis.DeloadRecommendation, error)
	ScheduleDeload(ctx context.Context, planID string, week []analysis.TrainingDay, flagged []string) (analysis.DeloadSchedule, error)
	PlanHistory(ctx context.Context, planID string) ([]models.PhaseHistoryEntry, []models.DeloadEvent, error)
	BuildReport(ctx context.Context, userID string) (*service.Report, error)
}

type Handler struct {
	log *logger.Logger
	svc Engine
}

func NewHandler(log *logger.Logger, svc Engine) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		log: log.With("handler", "api"),
		svc: svc,
	}
}

// fail writes err with its mapped status. Server-side failures are logged.
func (h *Handler) fail(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
	}
	RespondError(c, status, code, err)
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_input", fmt.Errorf("invalid payload: %w", err))
		return false
	}
	return true
}

// POST /api/wellness
func (h *Handler) RecordWellness(c *gin.Context) {
	var raw ingest.RawWellness
	if !h.bind(c, &raw) {
		return
	}
	a, err := h.svc.RecordWellness(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, a)
}

// POST /api/sessions
func (h *Handler) RecordSession(c *gin.Context) {
	var raw ingest.RawSession
	if !h.bind(c, &raw) {
		return
	}
	logs, err := h.svc.RecordSession(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"logs": logs})
}

// GET /api/users/:user_id/fatigue
// Optional query: date (YYYY-MM-DD), defaults to today.
func (h *Handler) AssessFatigue(c *gin.Context) {
	day := time.Now()
	if q := c.Query("date"); q != "" {
		d, err := ingest.ParseDate(q)
		if err != nil {
			h.fail(c, err)
			return
		}
		day = d
	}
	a, err := h.svc.AssessFatigue(c.Request.Context(), c.Param("user_id"), day)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, a)
}

// GET /api/users/:user_id/exercises/:exercise_id/estimate
func (h *Handler) EstimatePerformance(c *gin.Context) {
	est, err := h.svc.EstimatePerformance(c.Request.Context(), c.Param("user_id"), c.Param("exercise_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, est)
}

// GET /api/users/:user_id/exercises/:exercise_id/prescription
func (h *Handler) PrescribeSession(c *gin.Context) {
	p, err := h.svc.PrescribeSession(c.Request.Context(), c.Param("user_id"), c.Param("exercise_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, p)
}

// POST /api/users/:user_id/progression
func (h *Handler) RecommendProgression(c *gin.Context) {
	var state analysis.ExerciseState
	if !h.bind(c, &state) {
		return
	}
	rec, err := h.svc.RecommendProgression(c.Request.Context(), c.Param("user_id"), state)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, rec)
}

// GET /api/users/:user_id/plan
func (h *Handler) ActivePlan(c *gin.Context) {
	p, err := h.svc.ActivePlan(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, p)
}

// GET /api/users/:user_id/report
func (h *Handler) Report(c *gin.Context) {
	r, err := h.svc.BuildReport(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, r)
}

type createPlanRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Goal   string `json:"goal" binding:"required"`
	Weeks  int    `json:"weeks" binding:"required,min=1"`
}

// POST /api/plans
func (h *Handler) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.svc.CreatePlan(c.Request.Context(), req.UserID, req.Goal, req.Weeks)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// GET /api/plans/:id
func (h *Handler) GetPlan(c *gin.Context) {
	p, err := h.svc.GetPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, p)
}

// GET /api/plans/:id/transition
// Dry run: reports the decision without applying it.
func (h *Handler) EvaluateTransition(c *gin.Context) {
	tr, err := h.svc.EvaluateTransition(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, tr)
}

// POST /api/plans/:id/advance
func (h *Handler) AdvancePlan(c *gin.Context) {
	out, err := h.svc.AdvancePlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, out)
}

type overrideRequest struct {
	PhaseIndex *int `json:"phase_index" binding:"required"`
}

// POST /api/plans/:id/override
func (h *Handler) OverridePhase(c *gin.Context) {
	var req overrideRequest
	if !h.bind(c, &req) {
		return
	}
	p, err := h.svc.OverridePhase(c.Request.Context(), c.Param("id"), *req.PhaseIndex)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, p)
}

// GET /api/plans/:id/deload
func (h *Handler) EvaluateDeload(c *gin.Context) {
	rec, err := h.svc.EvaluateDeload(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, rec)
}

type deloadScheduleRequest struct {
	Days    []analysis.TrainingDay `json:"days" binding:"required,min=1"`
	Flagged []string               `json:"flagged_muscle_groups"`
}

// POST /api/plans/:id/deload/schedule
func (h *Handler) ScheduleDeload(c *gin.Context) {
	var req deloadScheduleRequest
	if !h.bind(c, &req) {
		return
	}
	out, err := h.svc.ScheduleDeload(c.Request.Context(), c.Param("id"), req.Days, req.Flagged)
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, out)
}

// GET /api/plans/:id/history
func (h *Handler) PlanHistory(c *gin.Context) {
	history, events, err := h.svc.PlanHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	RespondOK(c, gin.H{"phases": history, "deloads": events})
}

func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
