package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"gorm.io/gorm"
)

// HealthHandler reports subsystem status.
type HealthHandler struct {
	db    *gorm.DB
	queue services.TaskQueue
	llm   services.TextGenerator
}

func NewHealthHandler(db *gorm.DB, queue services.TaskQueue, llm services.TextGenerator) *HealthHandler {
	return &HealthHandler{db: db, queue: queue, llm: llm}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := 200

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}
	if overall != "healthy" {
		status = 503
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	model := "none"
	if h.llm != nil {
		model = h.llm.ModelName()
	}

	var pending int64
	h.db.WithContext(c.Request.Context()).Table("project_content").
		Where("transcription_status IN ? AND deleted_at IS NULL", []string{"pending", "processing"}).
		Count(&pending)

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "launchdeck",
		"components": gin.H{
			"database":               dbStatus,
			"queue_mode":             queueMode,
			"llm_model":              model,
			"pending_transcriptions": pending,
		},
	})
}
