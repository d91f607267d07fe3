package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentType classifies an uploaded project document.
type ContentType string

const (
	ContentPitchDeck      ContentType = "pitch_deck"
	ContentBusinessPlan   ContentType = "business_plan"
	ContentFinancials     ContentType = "financials"
	ContentTechnical      ContentType = "technical"
	ContentMarketResearch ContentType = "market_research"
	ContentLegal          ContentType = "legal"
	ContentOther          ContentType = "other"
)

func (t ContentType) IsValid() bool {
	switch t {
	case ContentPitchDeck, ContentBusinessPlan, ContentFinancials, ContentTechnical,
		ContentMarketResearch, ContentLegal, ContentOther:
		return true
	}
	return false
}

// Transcription states for the text extracted from an uploaded file.
const (
	TranscriptionPending    = "pending"
	TranscriptionProcessing = "processing"
	TranscriptionCompleted  = "completed"
	TranscriptionFailed     = "failed"
	TranscriptionSkipped    = "skipped"
)

// ProjectContent is a document attached to a project. Tombstoned, never removed.
type ProjectContent struct {
	ID                  string                      `gorm:"primaryKey;size:36" json:"id"`
	ProjectID           string                      `gorm:"size:36;not null;uniqueIndex:idx_content_project_slug" json:"project_id"`
	Title               string                      `gorm:"size:300;not null" json:"title"`
	Slug                string                      `gorm:"size:300;not null;uniqueIndex:idx_content_project_slug" json:"slug"`
	ContentType         ContentType                 `gorm:"size:30;default:other" json:"content_type"`
	Content             string                      `gorm:"type:text" json:"content"`
	Description         string                      `gorm:"type:text" json:"description"`
	FileURLs            datatypes.JSONSlice[string] `json:"file_urls"`
	StorageKey          string                      `gorm:"size:500" json:"-"`
	MimeType            string                      `gorm:"size:100" json:"mime_type"`
	TranscriptionStatus string                      `gorm:"size:20;default:pending" json:"transcription_status"`
	IsPublic            bool                        `gorm:"not null" json:"is_public"`
	AuthorID            string                      `gorm:"size:36" json:"author_id"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
	DeletedAt           gorm.DeletedAt              `gorm:"index" json:"-"`
}

func (ProjectContent) TableName() string { return "project_content" }
