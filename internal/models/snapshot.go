package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProjectStatus is the lifecycle stage a startup reports for itself.
type ProjectStatus string

const (
	StatusIdea        ProjectStatus = "idea"
	StatusConcept     ProjectStatus = "concept"
	StatusPrototype   ProjectStatus = "prototype"
	StatusMVP         ProjectStatus = "mvp"
	StatusBeta        ProjectStatus = "beta"
	StatusLaunched    ProjectStatus = "launched"
	StatusGrowing     ProjectStatus = "growing"
	StatusScaling     ProjectStatus = "scaling"
	StatusEstablished ProjectStatus = "established"
	StatusAcquired    ProjectStatus = "acquired"
	StatusClosed      ProjectStatus = "closed"
)

// ProjectStatuses lists the stages in lifecycle order.
var ProjectStatuses = []ProjectStatus{
	StatusIdea, StatusConcept, StatusPrototype, StatusMVP, StatusBeta, StatusLaunched,
	StatusGrowing, StatusScaling, StatusEstablished, StatusAcquired, StatusClosed,
}

// IsValid reports whether s is a known stage.
func (s ProjectStatus) IsValid() bool {
	for _, st := range ProjectStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Snapshot is one version of a project's display content. Once locked it is
// never written again.
type Snapshot struct {
	ID             string                      `gorm:"primaryKey;size:36" json:"id"`
	ProjectID      string                      `gorm:"size:36;not null;uniqueIndex:idx_snapshot_project_version" json:"project_id"`
	Version        int                         `gorm:"not null;uniqueIndex:idx_snapshot_project_version" json:"version"`
	Name           string                      `gorm:"size:200;not null" json:"name"`
	Slogan         string                      `gorm:"size:300" json:"slogan"`
	Description    string                      `gorm:"type:text" json:"description"`
	Status         ProjectStatus               `gorm:"size:30;default:idea" json:"status"`
	Country        string                      `gorm:"size:100" json:"country"`
	City           string                      `gorm:"size:100" json:"city"`
	RepositoryURLs datatypes.JSONSlice[string] `json:"repository_urls"`
	WebsiteURLs    datatypes.JSONSlice[string] `json:"website_urls"`
	LogoURL        string                      `gorm:"size:500" json:"logo_url"`
	BannerURL      string                      `gorm:"size:500" json:"banner_url"`
	VideoURLs      datatypes.JSONSlice[string] `json:"video_urls"`
	Contents       datatypes.JSONSlice[string] `json:"contents"`
	TeamMembers    datatypes.JSONSlice[string] `json:"team_members"`
	IsLocked       bool                        `gorm:"default:false" json:"is_locked"`
	ScoringID      *string                     `gorm:"size:36" json:"scoring_id"`
	CreatedBy      string                      `gorm:"size:36" json:"created_by"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

func (Snapshot) TableName() string { return "snapshots" }

// NextVersion returns an unlocked copy of the content fields with the version
// bumped. Identity, lock and scoring link are not carried over.
func (s *Snapshot) NextVersion(createdBy string) *Snapshot {
	return &Snapshot{
		ProjectID:      s.ProjectID,
		Version:        s.Version + 1,
		Name:           s.Name,
		Slogan:         s.Slogan,
		Description:    s.Description,
		Status:         s.Status,
		Country:        s.Country,
		City:           s.City,
		RepositoryURLs: cloneStrings(s.RepositoryURLs),
		WebsiteURLs:    cloneStrings(s.WebsiteURLs),
		LogoURL:        s.LogoURL,
		BannerURL:      s.BannerURL,
		VideoURLs:      cloneStrings(s.VideoURLs),
		Contents:       cloneStrings(s.Contents),
		TeamMembers:    cloneStrings(s.TeamMembers),
		CreatedBy:      createdBy,
	}
}

func cloneStrings(in []string) datatypes.JSONSlice[string] {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
