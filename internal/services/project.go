package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ProjectService struct {
	db        *gorm.DB
	perms     *PermissionService
	snapshots *SnapshotService
	views     *ViewCache
}

func NewProjectService(db *gorm.DB, views *ViewCache) *ProjectService {
	return &ProjectService{
		db:        db,
		perms:     NewPermissionService(db),
		snapshots: NewSnapshotService(db),
		views:     views,
	}
}

type ProjectListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status"`
	Country  string `form:"country"`
}

// ProjectCard is a project with the snapshot it is shown with.
type ProjectCard struct {
	models.Project
	Snapshot *models.Snapshot `json:"snapshot"`
	Role     models.Role      `json:"role,omitempty"`
}

type ProjectListResponse struct {
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
	Items    []ProjectCard `json:"items"`
}

// SnapshotFields are the editable display fields. Nil means unchanged.
type SnapshotFields struct {
	Name           *string               `json:"name" binding:"omitempty,min=1,max=200"`
	Slogan         *string               `json:"slogan" binding:"omitempty,max=300"`
	Description    *string               `json:"description"`
	Status         *models.ProjectStatus `json:"status"`
	Country        *string               `json:"country" binding:"omitempty,max=100"`
	City           *string               `json:"city" binding:"omitempty,max=100"`
	RepositoryURLs *[]string             `json:"repository_urls"`
	WebsiteURLs    *[]string             `json:"website_urls"`
	LogoURL        *string               `json:"logo_url"`
	BannerURL      *string               `json:"banner_url"`
	VideoURLs      *[]string             `json:"video_urls"`
}

type CreateProjectRequest struct {
	SnapshotFields
	Slug string `json:"slug" binding:"omitempty,max=200"`
}

// ProjectView is a single project as seen by the caller.
type ProjectView struct {
	Project        models.Project          `json:"project"`
	PublicSnapshot *models.Snapshot        `json:"public_snapshot"`
	Draft          *models.Snapshot        `json:"draft,omitempty"`
	State          models.PublicationState `json:"state"`
	Role           models.Role             `json:"role,omitempty"`
}

func (f *SnapshotFields) validate() error {
	if f.Status != nil && !f.Status.IsValid() {
		return response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "status", Message: "unknown project status"}})
	}
	if f.Name != nil && strings.TrimSpace(*f.Name) == "" {
		return response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "name", Message: "must not be empty"}})
	}
	return nil
}

func (f *SnapshotFields) apply(snap *models.Snapshot) {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setList := func(dst *datatypes.JSONSlice[string], src *[]string) {
		if src != nil {
			*dst = datatypes.JSONSlice[string](nonEmpty(*src))
			if *dst == nil {
				*dst = datatypes.JSONSlice[string]{}
			}
		}
	}
	setString(&snap.Name, f.Name)
	setString(&snap.Slogan, f.Slogan)
	setString(&snap.Description, f.Description)
	setString(&snap.Country, f.Country)
	setString(&snap.City, f.City)
	setString(&snap.LogoURL, f.LogoURL)
	setString(&snap.BannerURL, f.BannerURL)
	if f.Status != nil {
		snap.Status = *f.Status
	}
	setList(&snap.RepositoryURLs, f.RepositoryURLs)
	setList(&snap.WebsiteURLs, f.WebsiteURLs)
	setList(&snap.VideoURLs, f.VideoURLs)
}

const maxSlugLength = 80

// Slugify transliterates s to ASCII and joins its words with hyphens.
func Slugify(s string) string {
	return slugOr(s, "project")
}

func slugOr(s, fallback string) string {
	out := slug.Make(s)
	if len(out) > maxSlugLength {
		out = strings.TrimRight(out[:maxSlugLength], "-")
	}
	if out == "" {
		return fallback
	}
	return out
}

func (s *ProjectService) uniqueSlug(tx *gorm.DB, base string) (string, error) {
	candidate := base
	for i := 2; i < 1000; i++ {
		var count int64
		if err := tx.Model(&models.Project{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", response.NewConflict("could not allocate a unique slug")
}

// Create makes the caller owner of a new project with an unlocked first snapshot.
func (s *ProjectService) Create(ctx context.Context, session *Session, req *CreateProjectRequest) (*ProjectView, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if req.Name == nil {
		return nil, response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "name", Message: "required"}})
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	var project models.Project
	var snapshot models.Snapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		base := Slugify(req.Slug)
		if strings.TrimSpace(req.Slug) == "" {
			base = Slugify(*req.Name)
		}
		projectSlug, err := s.uniqueSlug(tx, base)
		if err != nil {
			return err
		}

		project = models.Project{Slug: projectSlug, CreatedBy: session.UserID}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		snapshot = models.Snapshot{
			ProjectID:      project.ID,
			Version:        1,
			Status:         models.StatusIdea,
			RepositoryURLs: datatypes.JSONSlice[string]{},
			WebsiteURLs:    datatypes.JSONSlice[string]{},
			VideoURLs:      datatypes.JSONSlice[string]{},
			Contents:       datatypes.JSONSlice[string]{},
			TeamMembers:    datatypes.JSONSlice[string]{},
			CreatedBy:      session.UserID,
		}
		req.apply(&snapshot)
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}

		project.NewSnapshotID = &snapshot.ID
		if err := tx.Model(&project).Update("new_snapshot_id", snapshot.ID).Error; err != nil {
			return err
		}

		return tx.Create(&models.ProjectPermission{
			ProjectID: project.ID,
			UserID:    session.UserID,
			Role:      models.RoleOwner,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("A project with this slug already exists")
		}
		return nil, err
	}

	s.views.RevalidateProfile(session.UserID)
	logger.Infof("[Project] %s created by %s (slug=%s)", project.ID, session.UserID, project.Slug)
	return &ProjectView{
		Project: project,
		Draft:   &snapshot,
		State:   project.State(),
		Role:    models.RoleOwner,
	}, nil
}

// Resolve finds a project by id or slug.
func (s *ProjectService) Resolve(ctx context.Context, idOrSlug string) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Where("id = ? OR slug = ?", idOrSlug, idOrSlug).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// Get returns the project as the caller may see it. Private projects are
// hidden from callers without a role.
func (s *ProjectService) Get(ctx context.Context, session *Session, idOrSlug string) (*ProjectView, error) {
	var role models.Role
	if session != nil {
		project, err := s.Resolve(ctx, idOrSlug)
		if err != nil {
			return nil, err
		}
		if r, err := s.perms.RoleOf(ctx, session.UserID, project.ID); err == nil {
			role = r
		}
		if role != "" {
			return s.buildView(ctx, project, role)
		}
	}

	key := projectViewKey(idOrSlug)
	if cached, ok := s.views.Get(key); ok {
		return cached.(*ProjectView), nil
	}

	project, err := s.Resolve(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	if !project.IsPublic {
		return nil, ErrProjectNotFound
	}
	view, err := s.buildView(ctx, project, "")
	if err != nil {
		return nil, err
	}
	s.views.Set(key, view)
	return view, nil
}

func (s *ProjectService) buildView(ctx context.Context, project *models.Project, role models.Role) (*ProjectView, error) {
	view := &ProjectView{Project: *project, State: project.State(), Role: role}

	public, err := s.snapshots.GetOptional(ctx, project.PublicSnapshotID)
	if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
		return nil, err
	}
	view.PublicSnapshot = public

	if role.AtLeast(models.RoleEditor) && project.HasDraft() {
		draft, err := s.snapshots.GetOptional(ctx, project.NewSnapshotID)
		if err != nil && !errors.Is(err, ErrSnapshotNotFound) {
			return nil, err
		}
		view.Draft = draft
	}
	return view, nil
}

// ListPublic returns published projects with their public snapshot.
func (s *ProjectService) ListPublic(ctx context.Context, req *ProjectListRequest) (*ProjectListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 12
	}

	key := fmt.Sprintf("%s:%d:%d:%s:%s", publicProjectListKey, req.Page, req.PageSize, req.Status, req.Country)
	if cached, ok := s.views.Get(key); ok {
		return cached.(*ProjectListResponse), nil
	}

	query := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("projects.is_public = ? AND projects.public_snapshot_id IS NOT NULL", true)
	if req.Status != "" || req.Country != "" {
		query = query.Joins("JOIN snapshots ON snapshots.id = projects.public_snapshot_id")
		if req.Status != "" {
			query = query.Where("snapshots.status = ?", req.Status)
		}
		if req.Country != "" {
			query = query.Where("snapshots.country = ?", req.Country)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var projects []models.Project
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("projects.updated_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	items, err := s.cards(ctx, projects, func(p *models.Project) *string { return p.PublicSnapshotID }, nil)
	if err != nil {
		return nil, err
	}

	resp := &ProjectListResponse{Total: total, Page: req.Page, PageSize: req.PageSize, Items: items}
	s.views.Set(key, resp)
	return resp, nil
}

// ListMine returns every project the caller holds a role on.
func (s *ProjectService) ListMine(ctx context.Context, session *Session) ([]ProjectCard, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}

	var perms []models.ProjectPermission
	if err := s.db.WithContext(ctx).Where("user_id = ?", session.UserID).Find(&perms).Error; err != nil {
		return nil, err
	}
	if len(perms) == 0 {
		return []ProjectCard{}, nil
	}
	roles := make(map[string]models.Role, len(perms))
	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		roles[p.ProjectID] = p.Role
		ids = append(ids, p.ProjectID)
	}

	var projects []models.Project
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("updated_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}

	// Collaborators see their latest edit.
	latest := func(p *models.Project) *string {
		if p.NewSnapshotID != nil {
			return p.NewSnapshotID
		}
		return p.PublicSnapshotID
	}
	return s.cards(ctx, projects, latest, roles)
}

func (s *ProjectService) cards(ctx context.Context, projects []models.Project, pick func(*models.Project) *string, roles map[string]models.Role) ([]ProjectCard, error) {
	var snapIDs []string
	for i := range projects {
		if id := pick(&projects[i]); id != nil {
			snapIDs = append(snapIDs, *id)
		}
	}

	byID := make(map[string]*models.Snapshot, len(snapIDs))
	if len(snapIDs) > 0 {
		var snaps []models.Snapshot
		if err := s.db.WithContext(ctx).Where("id IN ?", snapIDs).Find(&snaps).Error; err != nil {
			return nil, err
		}
		for i := range snaps {
			byID[snaps[i].ID] = &snaps[i]
		}
	}

	items := make([]ProjectCard, 0, len(projects))
	for i := range projects {
		card := ProjectCard{Project: projects[i], Role: roles[projects[i].ID]}
		if id := pick(&projects[i]); id != nil {
			card.Snapshot = byID[*id]
		}
		items = append(items, card)
	}
	return items, nil
}

// Update applies field changes to the draft, creating a new version when the
// current one is locked.
func (s *ProjectService) Update(ctx context.Context, session *Session, projectID string, fields *SnapshotFields) (*models.Snapshot, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleEditor); err != nil {
		return nil, err
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}

	draft, err := s.snapshots.EditDraft(ctx, projectID, session.UserID, func(snap *models.Snapshot) error {
		fields.apply(snap)
		return nil
	})
	if err != nil {
		return nil, err
	}

	revalidateProjectView(ctx, s.db, s.views, projectID)
	s.views.RevalidateList()
	return draft, nil
}

// Versions lists the project's snapshots for collaborators.
func (s *ProjectService) Versions(ctx context.Context, session *Session, projectID string) ([]models.Snapshot, error) {
	if err := s.perms.Require(ctx, session, projectID, models.RoleViewer); err != nil {
		return nil, err
	}
	return s.snapshots.ListVersions(ctx, projectID)
}

func revalidateProjectView(ctx context.Context, db *gorm.DB, views *ViewCache, projectID string) {
	if views == nil {
		return
	}
	var project models.Project
	if err := db.WithContext(ctx).Select("id", "slug").Where("id = ?", projectID).First(&project).Error; err != nil {
		logger.Warnf("[ViewCache] revalidate project %s: %v", projectID, err)
		return
	}
	views.RevalidateProject(&project)
}

// PublicProfile is a user as shown to anyone, with the published projects they own.
type PublicProfile struct {
	User     models.User   `json:"user"`
	Projects []ProjectCard `json:"projects"`
}

// Profile returns the public profile of userID. Cached until the user or one
// of their projects changes.
func (s *ProjectService) Profile(ctx context.Context, userID string) (*PublicProfile, error) {
	key := profileViewKey(userID)
	if cached, ok := s.views.Get(key); ok {
		return cached.(*PublicProfile), nil
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", userID, true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("User not found")
		}
		return nil, err
	}
	user.Email = ""

	var projects []models.Project
	owned := s.db.WithContext(ctx).Model(&models.ProjectPermission{}).
		Select("project_id").
		Where("user_id = ? AND role = ?", userID, models.RoleOwner)
	if err := s.db.WithContext(ctx).
		Where("id IN (?) AND is_public = ? AND public_snapshot_id IS NOT NULL", owned, true).
		Order("updated_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	cards, err := s.cards(ctx, projects, func(p *models.Project) *string { return p.PublicSnapshotID }, nil)
	if err != nil {
		return nil, err
	}
	profile := &PublicProfile{User: user, Projects: cards}
	s.views.Set(key, profile)
	return profile, nil
}
