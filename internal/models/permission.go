package models

import "time"

// Role is a project-scoped privilege level.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

var roleRanks = map[Role]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
	RoleOwner:  4,
}

// Rank returns the role's position in viewer < editor < admin < owner, 0 if unknown.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r grants at least the privileges of required.
func (r Role) AtLeast(required Role) bool {
	rank := r.Rank()
	return rank > 0 && rank >= required.Rank()
}

func (r Role) IsValid() bool {
	return r.Rank() > 0
}

// ProjectPermission grants a user a role on a project.
type ProjectPermission struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID string    `gorm:"size:36;not null;uniqueIndex:idx_permission_project_user" json:"project_id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_permission_project_user;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      Role      `gorm:"size:20;not null;default:viewer" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProjectPermission) TableName() string { return "project_permissions" }
