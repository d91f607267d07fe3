package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TeamMemberService manages the people listed on a project. Members are
// tombstoned so older snapshots can still render them.
type TeamMemberService struct {
	db        *gorm.DB
	perms     *PermissionService
	snapshots *SnapshotService
	views     *ViewCache
}

func NewTeamMemberService(db *gorm.DB, views *ViewCache) *TeamMemberService {
	return &TeamMemberService{
		db:        db,
		perms:     NewPermissionService(db),
		snapshots: NewSnapshotService(db),
		views:     views,
	}
}

type TeamMemberRequest struct {
	Name          *string                  `json:"name" binding:"omitempty,min=1,max=200"`
	Email         *string                  `json:"email" binding:"omitempty,email"`
	UserID        *string                  `json:"user_id"`
	Positions     *[]string                `json:"positions"`
	IsFounder     *bool                    `json:"is_founder"`
	EquityPercent *float64                 `json:"equity_percent" binding:"omitempty,min=0,max=100"`
	Country       *string                  `json:"country"`
	City          *string                  `json:"city"`
	LinkedInURL   *string                  `json:"linkedin_url"`
	TwitterURL    *string                  `json:"twitter_url"`
	GitHubURL     *string                  `json:"github_url"`
	WebsiteURL    *string                  `json:"website_url"`
	Status        *models.TeamMemberStatus `json:"status"`
	JoinedAt      *time.Time               `json:"joined_at"`
	DepartedAt    *time.Time               `json:"departed_at"`
}

func (r *TeamMemberRequest) apply(m *models.TeamMember) error {
	if r.Status != nil && !r.Status.IsValid() {
		return response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "status", Message: "must be ghost, invited, active or inactive"}})
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&m.Name, r.Name)
	set(&m.Email, r.Email)
	set(&m.Country, r.Country)
	set(&m.City, r.City)
	set(&m.LinkedInURL, r.LinkedInURL)
	set(&m.TwitterURL, r.TwitterURL)
	set(&m.GitHubURL, r.GitHubURL)
	set(&m.WebsiteURL, r.WebsiteURL)
	if r.UserID != nil {
		m.UserID = r.UserID
	}
	if r.Positions != nil {
		m.Positions = datatypes.JSONSlice[string](nonEmpty(*r.Positions))
	}
	if r.IsFounder != nil {
		m.IsFounder = *r.IsFounder
	}
	if r.EquityPercent != nil {
		m.EquityPercent = r.EquityPercent
	}
	if r.Status != nil {
		m.Status = *r.Status
	}
	if r.JoinedAt != nil {
		m.JoinedAt = r.JoinedAt
	}
	if r.DepartedAt != nil {
		m.DepartedAt = r.DepartedAt
	}
	if m.Positions == nil {
		m.Positions = datatypes.JSONSlice[string]{}
	}
	return nil
}

// List returns live members, founders first. Public projects show their team
// to everyone.
func (s *TeamMemberService) List(ctx context.Context, session *Session, projectID string) ([]models.TeamMember, error) {
	if err := s.perms.RequireReadable(ctx, session, projectID); err != nil {
		return nil, err
	}
	var members []models.TeamMember
	err := s.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("is_founder DESC").
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// Create adds a member and lists it on the project's draft.
func (s *TeamMemberService) Create(ctx context.Context, session *Session, projectID string, req *TeamMemberRequest) (*models.TeamMember, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleEditor); err != nil {
		return nil, err
	}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		return nil, response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "name", Message: "required"}})
	}

	member := &models.TeamMember{ProjectID: projectID, Status: models.MemberGhost}
	if err := req.apply(member); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(member).Error; err != nil {
		return nil, err
	}

	if _, err := s.snapshots.EditDraft(ctx, projectID, session.UserID, func(snap *models.Snapshot) error {
		snap.TeamMembers = appendUnique(snap.TeamMembers, member.ID)
		return nil
	}); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *TeamMemberService) find(ctx context.Context, projectID, memberID string) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := s.db.WithContext(ctx).Where("id = ? AND project_id = ?", memberID, projectID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Team member not found")
		}
		return nil, err
	}
	return &member, nil
}

// Update edits a member in place. Member rows are shared by every snapshot
// that lists them.
func (s *TeamMemberService) Update(ctx context.Context, session *Session, projectID, memberID string, req *TeamMemberRequest) (*models.TeamMember, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleEditor); err != nil {
		return nil, err
	}
	member, err := s.find(ctx, projectID, memberID)
	if err != nil {
		return nil, err
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "name", Message: "must not be empty"}})
	}
	if err := req.apply(member); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(member).Error; err != nil {
		return nil, err
	}
	revalidateProjectView(ctx, s.db, s.views, projectID)
	return member, nil
}

// Delete tombstones the member and drops it from the draft.
func (s *TeamMemberService) Delete(ctx context.Context, session *Session, projectID, memberID string) error {
	if err := s.perms.Require(ctx, session, projectID, models.RoleEditor); err != nil {
		return err
	}
	member, err := s.find(ctx, projectID, memberID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(member).Error; err != nil {
		return err
	}
	_, err = s.snapshots.EditDraft(ctx, projectID, session.UserID, func(snap *models.Snapshot) error {
		snap.TeamMembers = removeID(snap.TeamMembers, memberID)
		return nil
	})
	return err
}
