package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/scheduler"
)

// SchedulerRunner runs one scheduler pass over every user.
type SchedulerRunner interface {
	RunOnce(ctx context.Context, asOf time.Time) (*scheduler.RunResult, error)
}

// SchedulerHandler exposes the recurring scheduler to internal callers
// such as a cron job.
type SchedulerHandler struct {
	runner SchedulerRunner
}

// NewSchedulerHandler creates a new SchedulerHandler.
func NewSchedulerHandler(runner SchedulerRunner) *SchedulerHandler {
	return &SchedulerHandler{runner: runner}
}

var errRunInProgress = &apperrors.AppError{
	Code:       "SCHEDULER_BUSY",
	Message:    "A scheduler run is already in progress",
	StatusCode: http.StatusConflict,
}

// Run triggers one scheduler pass
// @Summary     Run scheduler
// @Description Materialize due recurring transactions for every user. Requires the internal API key.
// @Tags        internal
// @Produce     json
// @Security    APIKeyAuth
// @Param       as_of query string false "Process entries due on or before this date (YYYY-MM-DD, default today)"
// @Success     200 {object} scheduler.RunResult "Run summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     409 {object} ErrorResponse "Run already in progress"
// @Router      /internal/scheduler/run [post]
func (h *SchedulerHandler) Run(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"), "as_of")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var at time.Time
	if asOf != nil {
		at = *asOf
	}

	result, err := h.runner.RunOnce(c.Request.Context(), at)
	if err != nil {
		if errors.Is(err, scheduler.ErrAlreadyRunning) {
			respondWithError(c, errRunInProgress)
			return
		}
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, result)
}
