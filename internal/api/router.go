package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errNoRoute = errors.New("no such route")

func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.log))
	router.NoRoute(func(c *gin.Context) {
		RespondError(c, http.StatusNotFound, "not_found", errNoRoute)
	})

	router.GET("/healthcheck", HealthCheck)

	api := router.Group("/api")
	{
		api.POST("/wellness", h.RecordWellness)
		api.POST("/sessions", h.RecordSession)

		api.POST("/plans", h.CreatePlan)
		api.GET("/plans/:id", h.GetPlan)
		api.GET("/plans/:id/transition", h.EvaluateTransition)
		api.POST("/plans/:id/advance", h.AdvancePlan)
		api.POST("/plans/:id/override", h.OverridePhase)
		api.GET("/plans/:id/deload", h.EvaluateDeload)
		api.POST("/plans/:id/deload/schedule", h.ScheduleDeload)
		api.GET("/plans/:id/history", h.PlanHistory)

		api.GET("/users/:user_id/fatigue", h.AssessFatigue)
		api.GET("/users/:user_id/plan", h.ActivePlan)
		api.GET("/users/:user_id/report", h.Report)
		api.POST("/users/:user_id/progression", h.RecommendProgression)
		api.GET("/users/:user_id/exercises/:exercise_id/estimate", h.EstimatePerformance)
		api.GET("/users/:user_id/exercises/:exercise_id/prescription", h.PrescribeSession)
	}

	return router
}
