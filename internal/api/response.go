package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"periodizer/internal/analysis"
	"periodizer/internal/ingest"
	"periodizer/internal/store"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// classify maps engine and store errors onto a status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, analysis.ErrInvalidInput), errors.Is(err, ingest.ErrInvalidRecord):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, store.ErrPlanNotFound), errors.Is(err, store.ErrAssessmentNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, store.ErrConcurrentModification), errors.Is(err, analysis.ErrStaleTransition):
		return http.StatusConflict, "concurrent_modification"
	case errors.Is(err, analysis.ErrInvalidPlanState):
		return http.StatusUnprocessableEntity, "invalid_plan_state"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
