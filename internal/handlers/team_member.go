package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/middleware"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
)

type TeamMemberHandler struct {
	teamService *services.TeamMemberService
}

func NewTeamMemberHandler(db *gorm.DB, views *services.ViewCache) *TeamMemberHandler {
	return &TeamMemberHandler{teamService: services.NewTeamMemberService(db, views)}
}

// GET /api/projects/:id/team-members
func (h *TeamMemberHandler) List(c *gin.Context) {
	members, err := h.teamService.List(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// POST /api/projects/:id/team-members
func (h *TeamMemberHandler) Create(c *gin.Context) {
	var req services.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	member, err := h.teamService.Create(c.Request.Context(), middleware.GetSession(c), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// PUT /api/projects/:id/team-members/:memberID
func (h *TeamMemberHandler) Update(c *gin.Context) {
	var req services.TeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	member, err := h.teamService.Update(c.Request.Context(), middleware.GetSession(c), c.Param("id"), c.Param("memberID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// DELETE /api/projects/:id/team-members/:memberID
func (h *TeamMemberHandler) Delete(c *gin.Context) {
	if err := h.teamService.Delete(c.Request.Context(), middleware.GetSession(c), c.Param("id"), c.Param("memberID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
