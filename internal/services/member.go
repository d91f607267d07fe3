package services

import (
	"context"
	"errors"
	"strings"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
)

// MemberService manages who holds which role on a project. There is always
// exactly one owner; ownership only moves through TransferOwnership.
type MemberService struct {
	db    *gorm.DB
	perms *PermissionService
}

func NewMemberService(db *gorm.DB) *MemberService {
	return &MemberService{db: db, perms: NewPermissionService(db)}
}

type InviteMemberRequest struct {
	Email string      `json:"email" binding:"required,email"`
	Role  models.Role `json:"role" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role models.Role `json:"role" binding:"required"`
}

type TransferOwnershipRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

var (
	errOwnerRowImmutable = response.NewBadRequest("The owner's role cannot be changed or removed; transfer ownership instead")
	errOwnerNotGrantable = response.NewBadRequest("Role owner can only be assigned by transferring ownership")
	errMemberNotFound    = response.NewNotFound("Member not found")
)

func checkAssignableRole(role models.Role) error {
	if role == models.RoleOwner {
		return errOwnerNotGrantable
	}
	if !role.IsValid() {
		return response.NewBadRequest("Invalid role; must be viewer, editor or admin")
	}
	return nil
}

// List returns the project's permissions with their users.
func (s *MemberService) List(ctx context.Context, session *Session, projectID string) ([]models.ProjectPermission, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleViewer); err != nil {
		return nil, err
	}
	var perms []models.ProjectPermission
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Preload("User").
		Order("created_at ASC").
		Find(&perms).Error
	return perms, err
}

// Invite grants an existing user a non-owner role.
func (s *MemberService) Invite(ctx context.Context, session *Session, projectID string, req *InviteMemberRequest) (*models.ProjectPermission, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := checkAssignableRole(req.Role); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("User not found")
		}
		return nil, err
	}

	perm := &models.ProjectPermission{ProjectID: projectID, UserID: user.ID, Role: req.Role}
	if err := s.db.WithContext(ctx).Create(perm).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("User is already a member of this project")
		}
		return nil, err
	}
	perm.User = &user

	logger.Infof("[Member] %s invited %s to project %s as %s", session.UserID, user.ID, projectID, req.Role)
	return perm, nil
}

func (s *MemberService) findMember(ctx context.Context, projectID, userID string) (*models.ProjectPermission, error) {
	var perm models.ProjectPermission
	if err := s.db.WithContext(ctx).Where("project_id = ? AND user_id = ?", projectID, userID).First(&perm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errMemberNotFound
		}
		return nil, err
	}
	return &perm, nil
}

// UpdateRole changes a non-owner member's role.
func (s *MemberService) UpdateRole(ctx context.Context, session *Session, projectID, userID string, role models.Role) (*models.ProjectPermission, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := checkAssignableRole(role); err != nil {
		return nil, err
	}
	perm, err := s.findMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if perm.Role == models.RoleOwner {
		return nil, errOwnerRowImmutable
	}

	if err := s.db.WithContext(ctx).Model(perm).Update("role", role).Error; err != nil {
		return nil, err
	}
	perm.Role = role
	return perm, nil
}

// Remove revokes a non-owner member's access.
func (s *MemberService) Remove(ctx context.Context, session *Session, projectID, userID string) error {
	if err := s.perms.Require(ctx, session, projectID, models.RoleAdmin); err != nil {
		return err
	}
	perm, err := s.findMember(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if perm.Role == models.RoleOwner {
		return errOwnerRowImmutable
	}
	return s.db.WithContext(ctx).Delete(perm).Error
}

// TransferOwnership makes another member the owner and demotes the caller to admin.
func (s *MemberService) TransferOwnership(ctx context.Context, session *Session, projectID, newOwnerID string) error {
	if err := s.perms.Require(ctx, session, projectID, models.RoleOwner); err != nil {
		return err
	}
	if newOwnerID == session.UserID {
		return response.NewBadRequest("You already own this project")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ProjectPermission{}).
			Where("project_id = ? AND user_id = ?", projectID, newOwnerID).
			Update("role", models.RoleOwner)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errMemberNotFound
		}
		return tx.Model(&models.ProjectPermission{}).
			Where("project_id = ? AND user_id = ?", projectID, session.UserID).
			Update("role", models.RoleAdmin).Error
	})
	if err != nil {
		return err
	}

	logger.Infof("[Member] ownership of project %s moved from %s to %s", projectID, session.UserID, newOwnerID)
	return nil
}
