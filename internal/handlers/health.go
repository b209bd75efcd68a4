package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/feedback360/internal/services"
	"gorm.io/gorm"
)

// HealthHandler provides enhanced health check endpoints.
type HealthHandler struct {
	db    *gorm.DB // nil with the in-memory repository
	queue services.TaskQueue
	hub   *services.SSEHub
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, hub *services.SSEHub) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, hub: hub}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Storage check
	storage := "memory"
	if h.db != nil {
		storage = "ok"
		sqlDB, err := h.db.DB()
		if err != nil {
			storage = "error: " + err.Error()
			overall = "unhealthy"
		} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
			storage = "error: " + err.Error()
			overall = "unhealthy"
		}
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	sseClients := 0
	if h.hub != nil {
		sseClients = h.hub.ClientCount()
	}

	status := 200
	if overall != "healthy" {
		status = 503
	}
	c.JSON(status, gin.H{
		"status":  overall,
		"service": "feedback360",
		"components": gin.H{
			"storage":     storage,
			"queue_mode":  queueMode,
			"sse_clients": sseClients,
		},
	})
}
