package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/middleware"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService     *services.ProjectService
	publicationService *services.PublicationService
}

func NewProjectHandler(db *gorm.DB, views *services.ViewCache, blobs services.BlobStore) *ProjectHandler {
	return &ProjectHandler{
		projectService:     services.NewProjectService(db, views),
		publicationService: services.NewPublicationService(db, views, blobs),
	}
}

// List returns published projects
// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	var req services.ProjectListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.projectService.ListPublic(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// ListMine returns every project the caller collaborates on
// GET /api/projects/mine
func (h *ProjectHandler) ListMine(c *gin.Context) {
	items, err := h.projectService.ListMine(c.Request.Context(), middleware.GetSession(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// Get returns a project by id or slug
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	view, err := h.projectService.Get(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, view)
}

// Create starts a project with its first draft snapshot
// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	view, err := h.projectService.Create(c.Request.Context(), middleware.GetSession(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Update edits the draft snapshot
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req services.SnapshotFields
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	draft, err := h.projectService.Update(c.Request.Context(), middleware.GetSession(c), c.Param("id"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, draft)
}

// Versions lists snapshots
// GET /api/projects/:id/snapshots
func (h *ProjectHandler) Versions(c *gin.Context) {
	versions, err := h.projectService.Versions(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, versions)
}

type togglePublicationRequest struct {
	IsCurrentlyPublic *bool `json:"is_currently_public" binding:"required"`
}

// TogglePublication flips the project's visibility
// POST /api/projects/:id/publication
func (h *ProjectHandler) TogglePublication(c *gin.Context) {
	var req togglePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	result, err := h.publicationService.TogglePublication(c.Request.Context(), middleware.GetSession(c), c.Param("id"), *req.IsCurrentlyPublic)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// PublishDraft promotes the draft snapshot
// POST /api/projects/:id/publish
func (h *ProjectHandler) PublishDraft(c *gin.Context) {
	result, err := h.publicationService.PublishDraft(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if errors.Is(err, services.ErrNoDraftToPublish) {
		response.Fail(c, err.Error())
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Delete removes the project with its files
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.publicationService.DeleteProject(c.Request.Context(), middleware.GetSession(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// Profile returns a user's public profile
// GET /api/users/:id/profile
func (h *ProjectHandler) Profile(c *gin.Context) {
	profile, err := h.projectService.Profile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, profile)
}
