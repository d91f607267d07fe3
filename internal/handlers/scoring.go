package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/middleware"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
)

type ScoringHandler struct {
	scoringService *services.ScoringService
}

func NewScoringHandler(db *gorm.DB, llm services.TextGenerator, timeout time.Duration) *ScoringHandler {
	return &ScoringHandler{scoringService: services.NewScoringService(db, llm, timeout)}
}

// Generate scores the project's public snapshot. The body is read raw so that
// validation runs before the session check.
// POST /api/projects/:id/scoring
func (h *ScoringHandler) Generate(c *gin.Context) {
	start := time.Now()
	elapsed := func() gin.H { return gin.H{"processing_time_ms": time.Since(start).Milliseconds()} }

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("project_id", c.Param("id")).Msg("[Scoring] panic recovered")
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Response{
				Error:    "Internal server error",
				Metadata: elapsed(),
			})
		}
	}()

	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, response.NewBadRequest("Invalid request body"))
		return
	}

	result, err := h.scoringService.Generate(c.Request.Context(), middleware.GetSession(c), c.Param("id"), body)
	if err != nil {
		if result != nil {
			response.ErrorWithMeta(c, err, result.Metadata)
			return
		}
		response.ErrorWithMeta(c, err, elapsed())
		return
	}
	response.SuccessWithMeta(c, result.Record, result.Metadata)
}

// Latest returns the scoring of the public snapshot
// GET /api/projects/:id/scoring
func (h *ScoringHandler) Latest(c *gin.Context) {
	record, err := h.scoringService.Latest(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, record)
}

// Preflight answers OPTIONS when the CORS middleware did not.
// OPTIONS /api/projects/:id/scoring
func (h *ScoringHandler) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}
