package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PublicationService moves projects between unpublished, draft-pending and
// published, and deletes them.
type PublicationService struct {
	db    *gorm.DB
	perms *PermissionService
	views *ViewCache
	blobs BlobStore
}

func NewPublicationService(db *gorm.DB, views *ViewCache, blobs BlobStore) *PublicationService {
	return &PublicationService{
		db:    db,
		perms: NewPermissionService(db),
		views: views,
		blobs: blobs,
	}
}

type TogglePublicationResult struct {
	ProjectID         string  `json:"project_id"`
	IsPublic          bool    `json:"is_public"`
	PublicSnapshotID  *string `json:"public_snapshot_id"`
	Verified          bool    `json:"verified"`
	VerificationError string  `json:"verification_error,omitempty"`
}

type PublishDraftResult struct {
	ProjectID        string `json:"project_id"`
	PublicSnapshotID string `json:"public_snapshot_id"`
}

func (s *PublicationService) loadProject(ctx context.Context, projectID string) (*models.Project, error) {
	var project models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// TogglePublication flips is_public. Going public for the first time also
// promotes the draft in the same update.
func (s *PublicationService) TogglePublication(ctx context.Context, session *Session, projectID string, isCurrentlyPublic bool) (*TogglePublicationResult, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleOwner); err != nil {
		return nil, err
	}
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	target := !isCurrentlyPublic
	updates := map[string]interface{}{"is_public": target}
	var promote string
	if target && project.PublicSnapshotID == nil {
		if project.NewSnapshotID == nil {
			return nil, response.NewBadRequest("Project has no snapshot to publish")
		}
		promote = *project.NewSnapshotID
		updates["public_snapshot_id"] = promote
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Project{}).Where("id = ?", projectID).Updates(updates).Error; err != nil {
			return err
		}
		if promote != "" {
			return lockSnapshot(tx, promote)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &TogglePublicationResult{ProjectID: projectID, IsPublic: target, PublicSnapshotID: project.PublicSnapshotID, Verified: true}
	if promote != "" {
		result.PublicSnapshotID = &promote
	}

	var check models.Project
	if err := s.db.WithContext(ctx).Select("is_public").Where("id = ?", projectID).First(&check).Error; err != nil {
		result.Verified = false
		result.VerificationError = fmt.Sprintf("could not verify publication status: %v", err)
	} else if check.IsPublic != target {
		result.Verified = false
		result.VerificationError = fmt.Sprintf("publication status verification failed: expected is_public=%t, got %t", target, check.IsPublic)
	}
	if !result.Verified {
		logger.Warnf("[Publication] %s: %s", projectID, result.VerificationError)
	}

	s.views.RevalidateAfterChange(project, session.UserID, true)
	logger.Infof("[Publication] project %s is_public=%t (first publish: %t)", projectID, target, promote != "")
	return result, nil
}

// PublishDraft promotes new_snapshot_id to public_snapshot_id and locks it.
func (s *PublicationService) PublishDraft(ctx context.Context, session *Session, projectID string) (*PublishDraftResult, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleOwner); err != nil {
		return nil, err
	}
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasDraft() {
		return nil, ErrNoDraftToPublish
	}

	published, err := s.publishAtomic(ctx, projectID)
	if err != nil {
		return nil, err
	}

	s.views.RevalidateAfterChange(project, session.UserID, true)
	logger.Infof("[Publish] project %s now public at snapshot %s", projectID, published)
	return &PublishDraftResult{ProjectID: projectID, PublicSnapshotID: published}, nil
}

// publishAtomic uses the publish_project_draft function on postgres and an
// equivalent locked transaction elsewhere.
func (s *PublicationService) publishAtomic(ctx context.Context, projectID string) (string, error) {
	db := s.db.WithContext(ctx)

	if db.Dialector.Name() == "postgres" {
		var published *string
		if err := db.Raw("SELECT publish_project_draft(?)", projectID).Scan(&published).Error; err != nil {
			return "", err
		}
		if published == nil {
			return "", ErrNoDraftToPublish
		}
		return *published, nil
	}

	var published string
	err := db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", projectID).First(&project).Error; err != nil {
			return err
		}
		if !project.HasDraft() {
			return ErrNoDraftToPublish
		}
		published = *project.NewSnapshotID
		if err := lockSnapshot(tx, published); err != nil {
			return err
		}
		return tx.Model(&models.Project{}).Where("id = ?", projectID).
			Update("public_snapshot_id", published).Error
	})
	return published, err
}

// DeleteProject removes stored files first, then the project and its rows.
// File deletion is best effort.
func (s *PublicationService) DeleteProject(ctx context.Context, session *Session, projectID string) error {
	if err := s.perms.Require(ctx, session, projectID, models.RoleOwner); err != nil {
		return err
	}
	project, err := s.loadProject(ctx, projectID)
	if err != nil {
		return err
	}

	if s.blobs != nil {
		if n, err := s.blobs.DeletePrefix(ctx, ProjectPrefix(projectID)); err != nil {
			logger.Warnf("[Publication] failed to delete files for project %s: %v", projectID, err)
		} else {
			logger.Infof("[Publication] deleted %d files for project %s", n, projectID)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snapshotIDs := tx.Model(&models.Snapshot{}).Select("id").Where("project_id = ?", projectID)
		steps := []func() error{
			func() error {
				return tx.Where("snapshot_id IN (?)", snapshotIDs).Delete(&models.ProjectScoring{}).Error
			},
			func() error { return tx.Where("project_id = ?", projectID).Delete(&models.Snapshot{}).Error },
			func() error { return tx.Where("project_id = ?", projectID).Delete(&models.ProjectPermission{}).Error },
			func() error { return tx.Unscoped().Where("project_id = ?", projectID).Delete(&models.TeamMember{}).Error },
			func() error {
				return tx.Unscoped().Where("project_id = ?", projectID).Delete(&models.ProjectContent{}).Error
			},
			func() error { return tx.Where("id = ?", projectID).Delete(&models.Project{}).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.views.RevalidateAfterChange(project, session.UserID, false)
	logger.Infof("[Publication] project %s deleted by %s", projectID, session.UserID)
	return nil
}
