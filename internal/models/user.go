package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents an account that can own or collaborate on projects
type User struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Email       string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string         `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP users
	DisplayName string         `gorm:"size:100" json:"display_name"`
	Bio         string         `gorm:"type:text" json:"bio"`
	AvatarURL   string         `gorm:"size:500" json:"avatar_url"`
	Country     string         `gorm:"size:100" json:"country"`
	City        string         `gorm:"size:100" json:"city"`
	WebsiteURL  string         `gorm:"size:500" json:"website_url"`
	AuthType    string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	LastLogin   *time.Time     `json:"last_login"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }
