package services

import (
	"context"
	"errors"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"gorm.io/gorm"
)

// PermissionService answers role questions for a (user, project) pair.
type PermissionService struct {
	db *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// RoleOf returns the caller's role on the project.
func (s *PermissionService) RoleOf(ctx context.Context, userID, projectID string) (models.Role, error) {
	var perm models.ProjectPermission
	err := s.db.WithContext(ctx).
		Select("role").
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&perm).Error
	if err != nil {
		return "", err
	}
	return perm.Role, nil
}

// CheckRole reports whether userID holds at least required on the project.
// A missing row and a lookup error both deny.
func (s *PermissionService) CheckRole(ctx context.Context, userID, projectID string, required models.Role) bool {
	if userID == "" || projectID == "" {
		return false
	}
	role, err := s.RoleOf(ctx, userID, projectID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warnf("[Permission] role lookup failed for project %s: %v", projectID, err)
		}
		return false
	}
	return role.AtLeast(required)
}

// Require checks the session and then the role, returning the error to report.
func (s *PermissionService) Require(ctx context.Context, session *Session, projectID string, required models.Role) error {
	if err := requireSession(session); err != nil {
		return err
	}
	if !s.CheckRole(ctx, session.UserID, projectID, required) {
		return permissionDenied(required)
	}
	return nil
}

// RequireReadable lets anyone read a public project and members of any role
// read a private one.
func (s *PermissionService) RequireReadable(ctx context.Context, session *Session, projectID string) error {
	if session != nil && s.CheckRole(ctx, session.UserID, projectID, models.RoleViewer) {
		return nil
	}
	var project models.Project
	if err := s.db.WithContext(ctx).Select("id", "is_public").Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	if project.IsPublic {
		return nil
	}
	if err := requireSession(session); err != nil {
		return err
	}
	return permissionDenied(models.RoleViewer)
}
