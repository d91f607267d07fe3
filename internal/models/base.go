package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ensureID assigns a new UUID to id when it is empty.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error              { ensureID(&u.ID); return nil }
func (p *Project) BeforeCreate(tx *gorm.DB) error           { ensureID(&p.ID); return nil }
func (s *Snapshot) BeforeCreate(tx *gorm.DB) error          { ensureID(&s.ID); return nil }
func (p *ProjectPermission) BeforeCreate(tx *gorm.DB) error { ensureID(&p.ID); return nil }
func (m *TeamMember) BeforeCreate(tx *gorm.DB) error        { ensureID(&m.ID); return nil }
func (c *ProjectContent) BeforeCreate(tx *gorm.DB) error    { ensureID(&c.ID); return nil }
func (s *ProjectScoring) BeforeCreate(tx *gorm.DB) error    { ensureID(&s.ID); return nil }
