package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/huangang/feedback360/internal/models"
	"github.com/huangang/feedback360/pkg/logger"
	"github.com/huangang/feedback360/pkg/response"
)

// toAppError maps domain sentinel errors to their HTTP representation.
func toAppError(err error) *response.AppError {
	switch {
	case errors.Is(err, models.ErrValidation):
		return response.NewValidationError(err.Error())
	case errors.Is(err, models.ErrUnknownReviewer):
		return response.NewUnknownReviewer(err.Error())
	case errors.Is(err, models.ErrDuplicateSubmission):
		return response.NewConflict("duplicate_submission", err.Error())
	case errors.Is(err, models.ErrBusy):
		return response.NewConflict("busy", err.Error())
	case errors.Is(err, models.ErrNotFound):
		return response.NewNotFound(err.Error())
	case errors.Is(err, models.ErrAgentCall):
		return response.NewAgentFailure(err.Error())
	}
	return nil
}

// fail writes err as an API error. Unmapped errors are logged and hidden behind a 500.
func fail(c *gin.Context, err error) {
	if appErr := toAppError(err); appErr != nil {
		response.Error(c, appErr)
		return
	}
	logger.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	response.Error(c, err)
}
