package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/middleware"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
)

const maxUploadBytes = 25 << 20

type ContentHandler struct {
	contentService *services.ContentService
}

func NewContentHandler(db *gorm.DB, blobs services.BlobStore, queue services.TaskQueue, views *services.ViewCache) *ContentHandler {
	return &ContentHandler{contentService: services.NewContentService(db, blobs, queue, views)}
}

// List returns the documents the caller may read
// GET /api/projects/:id/contents
func (h *ContentHandler) List(c *gin.Context) {
	contents, err := h.contentService.List(c.Request.Context(), middleware.GetSession(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, contents)
}

// Get returns one document
// GET /api/projects/:id/contents/:contentID
func (h *ContentHandler) Get(c *gin.Context) {
	content, err := h.contentService.Get(c.Request.Context(), middleware.GetSession(c), c.Param("id"), c.Param("contentID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, content)
}

// Create accepts either a multipart upload with a "file" part or a JSON body
// with inline text.
// POST /api/projects/:id/contents
func (h *ContentHandler) Create(c *gin.Context) {
	var req services.ContentRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}

	var upload *services.UploadedFile
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err == nil {
			if header.Size > maxUploadBytes {
				response.BadRequest(c, fmt.Sprintf("file exceeds %d MiB", maxUploadBytes>>20))
				return
			}
			f, err := header.Open()
			if err != nil {
				response.BadRequest(c, "failed to read uploaded file")
				return
			}
			defer f.Close()
			upload = &services.UploadedFile{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Body:        f,
			}
		}
	}

	content, err := h.contentService.Create(c.Request.Context(), middleware.GetSession(c), c.Param("id"), &req, upload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, content)
}

// Update edits document fields and revalidates the project view
// PUT /api/projects/:id/contents/:contentID
func (h *ContentHandler) Update(c *gin.Context) {
	var req services.ContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	content, err := h.contentService.Update(c.Request.Context(), middleware.GetSession(c), c.Param("id"), c.Param("contentID"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, content)
}

// Delete tombstones a document
// DELETE /api/projects/:id/contents/:contentID
func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.contentService.Delete(c.Request.Context(), middleware.GetSession(c), c.Param("id"), c.Param("contentID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
