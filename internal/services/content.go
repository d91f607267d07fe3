package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentService manages project documents. Rows are tombstoned on delete.
type ContentService struct {
	db        *gorm.DB
	perms     *PermissionService
	snapshots *SnapshotService
	blobs     BlobStore
	queue     TaskQueue
	views     *ViewCache
}

func NewContentService(db *gorm.DB, blobs BlobStore, queue TaskQueue, views *ViewCache) *ContentService {
	return &ContentService{
		db:        db,
		perms:     NewPermissionService(db),
		snapshots: NewSnapshotService(db),
		blobs:     blobs,
		queue:     queue,
		views:     views,
	}
}

type ContentRequest struct {
	Title       *string             `json:"title" form:"title" binding:"omitempty,min=1,max=300"`
	ContentType *models.ContentType `json:"content_type" form:"content_type"`
	Description *string             `json:"description" form:"description"`
	Content     *string             `json:"content" form:"content"`
	IsPublic    *bool               `json:"is_public" form:"is_public"`
}

// UploadedFile is a file received with a content request.
type UploadedFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

func (r *ContentRequest) apply(c *models.ProjectContent) error {
	if r.ContentType != nil && !r.ContentType.IsValid() {
		return response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "content_type", Message: "unknown content type"}})
	}
	if r.Title != nil {
		c.Title = strings.TrimSpace(*r.Title)
	}
	if r.ContentType != nil {
		c.ContentType = *r.ContentType
	}
	if r.Description != nil {
		c.Description = *r.Description
	}
	if r.Content != nil {
		c.Content = *r.Content
	}
	if r.IsPublic != nil {
		c.IsPublic = *r.IsPublic
	}
	return nil
}

func (s *ContentService) uniqueSlug(tx *gorm.DB, projectID, title string) (string, error) {
	base := slugOr(title, "document")
	candidate := base
	for i := 2; i < 1000; i++ {
		var count int64
		// Tombstoned rows still hold their slug in the unique index.
		if err := tx.Unscoped().Model(&models.ProjectContent{}).
			Where("project_id = ? AND slug = ?", projectID, candidate).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", response.NewConflict("could not allocate a unique document slug")
}

// List returns live documents. Viewers and anonymous callers of public
// projects only see public documents.
func (s *ContentService) List(ctx context.Context, session *Session, projectID string) ([]models.ProjectContent, error) {
	onlyPublic, err := s.readAccess(ctx, session, projectID)
	if err != nil {
		return nil, err
	}
	query := s.db.WithContext(ctx).Where("project_id = ?", projectID)
	if onlyPublic {
		query = query.Where("is_public = ?", true)
	}
	var contents []models.ProjectContent
	err = query.Order("created_at ASC").Find(&contents).Error
	return contents, err
}

// readAccess returns whether the caller is limited to public documents.
func (s *ContentService) readAccess(ctx context.Context, session *Session, projectID string) (bool, error) {
	if session != nil && s.perms.CheckRole(ctx, session.UserID, projectID, models.RoleEditor) {
		return false, nil
	}
	if err := s.perms.RequireReadable(ctx, session, projectID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ContentService) find(ctx context.Context, projectID, contentID string) (*models.ProjectContent, error) {
	var content models.ProjectContent
	if err := s.db.WithContext(ctx).Where("id = ? AND project_id = ?", contentID, projectID).First(&content).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Document not found")
		}
		return nil, err
	}
	return &content, nil
}

func (s *ContentService) Get(ctx context.Context, session *Session, projectID, contentID string) (*models.ProjectContent, error) {
	onlyPublic, err := s.readAccess(ctx, session, projectID)
	if err != nil {
		return nil, err
	}
	content, err := s.find(ctx, projectID, contentID)
	if err != nil {
		return nil, err
	}
	if onlyPublic && !content.IsPublic {
		return nil, response.NewNotFound("Document not found")
	}
	return content, nil
}

// Create stores a document, uploads its file if one is given, lists it on the
// draft and queues transcription.
func (s *ContentService) Create(ctx context.Context, session *Session, projectID string, req *ContentRequest, file *UploadedFile) (*models.ProjectContent, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleEditor); err != nil {
		return nil, err
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "title", Message: "required"}})
	}

	content := &models.ProjectContent{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		ContentType: models.ContentOther,
		FileURLs:    datatypes.JSONSlice[string]{},
		IsPublic:    true,
		AuthorID:    session.UserID,
	}
	if err := req.apply(content); err != nil {
		return nil, err
	}

	switch {
	case file != nil:
		if s.blobs == nil {
			return nil, response.NewServerError("file storage is not configured")
		}
		key := ContentKey(projectID, content.ID, file.Filename)
		url, err := s.blobs.Put(ctx, key, file.Body, file.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload failed: %w", err)
		}
		content.StorageKey = key
		content.MimeType = file.ContentType
		content.FileURLs = datatypes.JSONSlice[string]{url}
		content.TranscriptionStatus = models.TranscriptionPending
	case strings.TrimSpace(content.Content) != "":
		content.TranscriptionStatus = models.TranscriptionSkipped
	default:
		return nil, response.NewBadRequest("Either a file or content text is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, err := s.uniqueSlug(tx, projectID, content.Title)
		if err != nil {
			return err
		}
		content.Slug = slug
		return tx.Create(content).Error
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.snapshots.EditDraft(ctx, projectID, session.UserID, func(snap *models.Snapshot) error {
		snap.Contents = appendUnique(snap.Contents, content.ID)
		return nil
	}); err != nil {
		return nil, err
	}

	if content.TranscriptionStatus == models.TranscriptionPending && s.queue != nil {
		if err := s.queue.Enqueue(&TranscriptionTask{ContentID: content.ID, ProjectID: projectID}); err != nil {
			logger.Warnf("[Content] failed to enqueue transcription for %s: %v", content.ID, err)
		}
	}
	return content, nil
}

// Update edits document metadata or its text in place.
func (s *ContentService) Update(ctx context.Context, session *Session, projectID, contentID string, req *ContentRequest) (*models.ProjectContent, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleEditor); err != nil {
		return nil, err
	}
	content, err := s.find(ctx, projectID, contentID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return nil, response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "title", Message: "must not be empty"}})
	}
	if err := req.apply(content); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(content).Error; err != nil {
		return nil, err
	}
	revalidateProjectView(ctx, s.db, s.views, projectID)
	return content, nil
}

// Delete tombstones the document and drops it from the draft. Its file stays
// in storage for older snapshots.
func (s *ContentService) Delete(ctx context.Context, session *Session, projectID, contentID string) error {
	if err := s.perms.Require(ctx, session, projectID, models.RoleEditor); err != nil {
		return err
	}
	content, err := s.find(ctx, projectID, contentID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(content).Error; err != nil {
		return err
	}
	_, err = s.snapshots.EditDraft(ctx, projectID, session.UserID, func(snap *models.Snapshot) error {
		snap.Contents = removeID(snap.Contents, contentID)
		return nil
	})
	return err
}
