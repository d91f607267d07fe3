package models

import (
	"time"
)

// Project is a startup project. Its display fields live in snapshots; the
// project row only points at the published and the draft snapshot.
type Project struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	Slug             string    `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	IsPublic         bool      `gorm:"default:false" json:"is_public"`
	PublicSnapshotID *string   `gorm:"size:36" json:"public_snapshot_id"`
	NewSnapshotID    *string   `gorm:"size:36" json:"new_snapshot_id"`
	CreatedBy        string    `gorm:"size:36;index" json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Project) TableName() string { return "projects" }

// PublicationState describes where a project sits in the publish lifecycle.
type PublicationState string

const (
	StateUnpublished  PublicationState = "unpublished"
	StateDraftPending PublicationState = "draft_pending"
	StatePublished    PublicationState = "published"
)

// State derives the publication state from the two snapshot pointers.
func (p *Project) State() PublicationState {
	if p.PublicSnapshotID == nil {
		return StateUnpublished
	}
	if p.NewSnapshotID != nil && *p.NewSnapshotID != *p.PublicSnapshotID {
		return StateDraftPending
	}
	return StatePublished
}

// HasDraft reports whether there is a draft that differs from the public snapshot.
func (p *Project) HasDraft() bool {
	if p.NewSnapshotID == nil {
		return false
	}
	return p.PublicSnapshotID == nil || *p.NewSnapshotID != *p.PublicSnapshotID
}
