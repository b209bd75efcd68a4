package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/feedback360/internal/services"
	"github.com/huangang/feedback360/pkg/response"
)

type FeedbackHandler struct {
	service *services.AssessmentService
}

func NewFeedbackHandler(service *services.AssessmentService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// Submit handles POST /api/assessments/:id/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req services.SubmissionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	a, err := h.service.SubmitFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, gin.H{
		"assessment_id": a.ID,
		"status":        a.Status,
		"responses":     len(a.Submissions),
		"reviewers":     len(a.Reviewers),
	})
}
