package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/feedback360/internal/services"
	"github.com/huangang/feedback360/pkg/response"
)

type AssessmentHandler struct {
	service *services.AssessmentService
}

func NewAssessmentHandler(service *services.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: service}
}

// Create handles POST /api/assessments
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req services.CreateAssessmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.service.Create(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		fail(c, err)
		return
	}
	response.Created(c, out)
}

// List handles GET /api/assessments
func (h *AssessmentHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"items": items,
		"total": len(items),
	})
}

// Get handles GET /api/assessments/:id
func (h *AssessmentHandler) Get(c *gin.Context) {
	a, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, a)
}

// Summary handles GET /api/assessments/:id/summary
func (h *AssessmentHandler) Summary(c *gin.Context) {
	view, err := h.service.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, view)
}

// Report handles GET /api/assessments/:id/report and sends the plain-text report as a download.
func (h *AssessmentHandler) Report(c *gin.Context) {
	filename, text, err := h.service.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

// Analyze handles POST /api/assessments/:id/analyze
func (h *AssessmentHandler) Analyze(c *gin.Context) {
	a, err := h.service.Analyze(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, services.RenderSummary(a))
}

type resendRequest struct {
	PendingOnly *bool `json:"pending_only"`
}

// Resend handles POST /api/assessments/:id/resend
// pending_only defaults to true and may come from the query string or the body.
func (h *AssessmentHandler) Resend(c *gin.Context) {
	pendingOnly := true
	if v := c.Query("pending_only"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, "pending_only must be a boolean")
			return
		}
		pendingOnly = parsed
	} else if c.Request.ContentLength > 0 {
		var req resendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request body: "+err.Error())
			return
		}
		if req.PendingOnly != nil {
			pendingOnly = *req.PendingOnly
		}
	}

	out, err := h.service.ResendInvitations(c.Request.Context(), c.Param("id"), pendingOnly)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, out)
}
