package models

import "time"

const (
	ScoringCompleted = "completed"
	ScoringFailed    = "failed"
)

// ProjectScoring is the AI investment assessment of one published snapshot.
// Sub-scores are in [0,100]; execution_risk is lower-is-better.
type ProjectScoring struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	SnapshotID       string    `gorm:"size:36;not null;uniqueIndex" json:"snapshot_id"`
	Status           string    `gorm:"size:20;not null" json:"status"`
	AIModelVersion   string    `gorm:"size:100" json:"ai_model_version"`
	InvestmentRating *float64  `json:"investment_rating"`
	MarketPotential  *float64  `json:"market_potential"`
	TeamCompetency   *float64  `json:"team_competency"`
	TechInnovation   *float64  `json:"tech_innovation"`
	BusinessModel    *float64  `json:"business_model"`
	ExecutionRisk    *float64  `json:"execution_risk"`
	Score            *float64  `json:"score"`
	Summary          string    `gorm:"type:text" json:"summary"`
	Research         string    `gorm:"type:text" json:"research"`
	CreatedAt        time.Time `json:"created_at"`
}

func (ProjectScoring) TableName() string { return "project_scoring" }
