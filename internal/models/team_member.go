package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TeamMemberStatus tracks whether a listed person is actually on the team.
type TeamMemberStatus string

const (
	MemberGhost    TeamMemberStatus = "ghost"
	MemberInvited  TeamMemberStatus = "invited"
	MemberActive   TeamMemberStatus = "active"
	MemberInactive TeamMemberStatus = "inactive"
)

func (s TeamMemberStatus) IsValid() bool {
	switch s {
	case MemberGhost, MemberInvited, MemberActive, MemberInactive:
		return true
	}
	return false
}

// TeamMember is a person listed on a project's team. Rows are tombstoned, never
// removed, because published snapshots keep referencing them.
type TeamMember struct {
	ID            string                      `gorm:"primaryKey;size:36" json:"id"`
	ProjectID     string                      `gorm:"size:36;not null;index" json:"project_id"`
	UserID        *string                     `gorm:"size:36" json:"user_id"`
	Name          string                      `gorm:"size:200;not null" json:"name"`
	Email         string                      `gorm:"size:255" json:"email"`
	Positions     datatypes.JSONSlice[string] `json:"positions"`
	IsFounder     bool                        `gorm:"default:false" json:"is_founder"`
	EquityPercent *float64                    `json:"equity_percent"`
	Country       string                      `gorm:"size:100" json:"country"`
	City          string                      `gorm:"size:100" json:"city"`
	LinkedInURL   string                      `gorm:"size:500" json:"linkedin_url"`
	TwitterURL    string                      `gorm:"size:500" json:"twitter_url"`
	GitHubURL     string                      `gorm:"size:500" json:"github_url"`
	WebsiteURL    string                      `gorm:"size:500" json:"website_url"`
	Status        TeamMemberStatus            `gorm:"size:20;default:ghost" json:"status"`
	JoinedAt      *time.Time                  `json:"joined_at"`
	DepartedAt    *time.Time                  `json:"departed_at"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}

func (TeamMember) TableName() string { return "team_members" }
