package main

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/feedback360/internal/handlers"
	"github.com/huangang/feedback360/internal/middleware"
	"github.com/huangang/feedback360/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) *middleware.RateLimiter {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.App.AllowedOrigins...))

	// Rate limiter for the public write routes
	publicLimiter := middleware.NewRateLimiter(2, 10)

	healthHandler := handlers.NewHealthHandler(svc.db, svc.taskQueue, svc.hub)
	r.GET("/health", healthHandler.CheckHealth)

	assessmentHandler := handlers.NewAssessmentHandler(svc.assessment)
	feedbackHandler := handlers.NewFeedbackHandler(svc.assessment)
	viewHandler := handlers.NewViewHandler(svc.views)
	sseHandler := handlers.NewSSEHandler(svc.hub)

	api := r.Group("/api")
	{
		// Reviewer entry point
		api.GET("/view", viewHandler.Resolve)

		// SSE Events
		api.GET("/events/assessments", sseHandler.StreamAssessmentEvents)

		// Assessments
		api.GET("/assessments", assessmentHandler.List)
		api.GET("/assessments/:id", assessmentHandler.Get)
		api.GET("/assessments/:id/summary", assessmentHandler.Summary)
		api.GET("/assessments/:id/report", assessmentHandler.Report)
		api.POST("/assessments/:id/analyze", assessmentHandler.Analyze)
		api.POST("/assessments/:id/resend", assessmentHandler.Resend)

		limited := api.Group("", publicLimiter.Middleware())
		{
			limited.POST("/assessments", assessmentHandler.Create)
			limited.POST("/assessments/:id/feedback", feedbackHandler.Submit)
		}
	}

	return publicLimiter
}
