package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/feedback360/internal/services"
	"github.com/huangang/feedback360/internal/utils"
	"github.com/huangang/feedback360/pkg/response"
)

type ViewHandler struct {
	router *services.ViewRouter
}

func NewViewHandler(router *services.ViewRouter) *ViewHandler {
	return &ViewHandler{router: router}
}

// Resolve handles GET /api/view. It always answers 200; a bad link resolves to the default view.
func (h *ViewHandler) Resolve(c *gin.Context) {
	params := utils.ParamsFromQuery(c.Request.URL.Query())
	response.Success(c, h.router.ResolveView(c.Request.Context(), params))
}
