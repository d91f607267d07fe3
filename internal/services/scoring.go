package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"gorm.io/gorm"
)

// FallbackModelVersion tags records built from placeholder data.
const FallbackModelVersion = "fallback-mock-v1"

// LLM error kinds reported in scoring metadata.
const (
	LLMErrorTimeout       = "timeout"
	LLMErrorAPI           = "api_error"
	LLMErrorMissingAPIKey = "missing_api_key"
	LLMErrorParse         = "parse_error"
)

const scoringPromptTemplate = `You are an experienced venture capital analyst. Assess the startup described below as an investment opportunity.

Score each dimension from 0 to 100:
- investment_rating: overall attractiveness as an investment (higher is better)
- market_potential: size and growth of the addressable market (higher is better)
- team_competency: ability of the team to execute (higher is better)
- tech_innovation: novelty and defensibility of the technology (higher is better)
- business_model: clarity and viability of how the company makes money (higher is better)
- execution_risk: risk that the plan fails in execution (LOWER is better)
- score: your overall score

Reply with a single JSON object and nothing else, using exactly these keys:
{"investment_rating": 0, "market_potential": 0, "team_competency": 0, "tech_innovation": 0, "business_model": 0, "execution_risk": 0, "score": 0, "summary": "two or three paragraphs", "research": "key risks, comparable companies and open questions"}

---

{{project}}
`

// BuildScoringPrompt interpolates the project document into the fixed template.
func BuildScoringPrompt(markdown string) string {
	return strings.Replace(scoringPromptTemplate, "{{project}}", markdown, 1)
}

// ScoringRequest is the body of a scoring request.
type ScoringRequest struct {
	Force bool `json:"force"`
}

// ScoringMetadata describes how a scoring record was produced.
type ScoringMetadata struct {
	ProcessingTimeMs int64    `json:"processing_time_ms"`
	ContentCount     int      `json:"content_count"`
	TeamMemberCount  int      `json:"team_member_count"`
	AIUsed           bool     `json:"ai_used"`
	LLMError         string   `json:"llm_error,omitempty"`
	LLMErrorType     string   `json:"llm_error_type,omitempty"`
	Validation       string   `json:"validation,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
	Model            string   `json:"model,omitempty"`
}

type ScoringResult struct {
	Record   *models.ProjectScoring
	Metadata ScoringMetadata
}

// ScoringService generates AI investment assessments for published snapshots.
type ScoringService struct {
	db      *gorm.DB
	perms   *PermissionService
	llm     TextGenerator
	timeout time.Duration
	now     func() time.Time
}

func NewScoringService(db *gorm.DB, llm TextGenerator, timeout time.Duration) *ScoringService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ScoringService{
		db:      db,
		perms:   NewPermissionService(db),
		llm:     llm,
		timeout: timeout,
		now:     time.Now,
	}
}

type fieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ParseScoringRequest validates a {force?: boolean} body. An empty body is {}.
func ParseScoringRequest(body []byte) (*ScoringRequest, error) {
	req := &ScoringRequest{}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, response.NewBadRequest("Invalid request body").
			WithDetails([]fieldViolation{{Field: "body", Message: "expected a JSON object"}})
	}

	if raw, ok := fields["force"]; ok {
		if err := json.Unmarshal(raw, &req.Force); err != nil || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, response.NewBadRequest("Invalid request body").
				WithDetails([]fieldViolation{{Field: "force", Message: "expected boolean"}})
		}
	}
	return req, nil
}

// Generate runs the scoring workflow for the project's public snapshot.
// On a persistence failure the returned result still carries metadata.
func (s *ScoringService) Generate(ctx context.Context, session *Session, projectID string, body []byte) (*ScoringResult, error) {
	start := s.now()
	result := &ScoringResult{}
	finish := func() {
		result.Metadata.ProcessingTimeMs = s.now().Sub(start).Milliseconds()
	}
	defer finish()

	if _, err := uuid.Parse(projectID); err != nil {
		return nil, response.NewBadRequest("Invalid project ID format").
			WithDetails([]fieldViolation{{Field: "id", Message: "expected a UUID"}})
	}
	req, err := ParseScoringRequest(body)
	if err != nil {
		return nil, err
	}
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if !s.perms.CheckRole(ctx, session.UserID, projectID, models.RoleAdmin) {
		return nil, response.NewForbidden("Permission denied: scoring requires admin or owner role")
	}

	db := s.db.WithContext(ctx)

	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if project.PublicSnapshotID == nil {
		return nil, response.NewBadRequest("Project has no published snapshot to score")
	}

	var snapshot models.Snapshot
	if err := db.Where("id = ?", *project.PublicSnapshotID).First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	contents, err := s.loadContents(ctx, snapshot.Contents)
	if err != nil {
		return nil, err
	}
	members, err := s.loadTeam(ctx, snapshot.TeamMembers)
	if err != nil {
		return nil, err
	}
	result.Metadata.ContentCount = len(contents)
	result.Metadata.TeamMemberCount = len(members)

	markdown := RenderProjectMarkdown(ProjectDocument{
		Project:     &project,
		Snapshot:    &snapshot,
		Contents:    contents,
		TeamMembers: members,
	}, s.now())

	if !req.Force {
		var existing models.ProjectScoring
		err := db.Where("snapshot_id = ?", snapshot.ID).First(&existing).Error
		if err == nil {
			return nil, conflictWith(&existing)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		if err := db.Model(&models.Snapshot{}).Where("id = ?", snapshot.ID).Update("scoring_id", nil).Error; err != nil {
			logger.Warnf("[Scoring] failed to clear scoring_id on snapshot %s: %v", snapshot.ID, err)
		}
		if err := db.Where("snapshot_id = ?", snapshot.ID).Delete(&models.ProjectScoring{}).Error; err != nil {
			return nil, response.NewServerError(err.Error())
		}
	}

	payload, modelVersion := s.assess(ctx, BuildScoringPrompt(markdown), &result.Metadata)

	record := &models.ProjectScoring{
		SnapshotID:       snapshot.ID,
		Status:           models.ScoringCompleted,
		AIModelVersion:   modelVersion,
		InvestmentRating: payload.InvestmentRating,
		MarketPotential:  payload.MarketPotential,
		TeamCompetency:   payload.TeamCompetency,
		TechInnovation:   payload.TechInnovation,
		BusinessModel:    payload.BusinessModel,
		ExecutionRisk:    payload.ExecutionRisk,
		Score:            AggregateScore(payload),
		Summary:          payload.Summary,
		Research:         payload.Research,
	}

	if err := db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.ProjectScoring
			if db.Where("snapshot_id = ?", snapshot.ID).First(&existing).Error == nil {
				return nil, conflictWith(&existing)
			}
			return nil, response.NewConflict("Scoring already exists for this snapshot")
		}
		logger.Errorf("[Scoring] failed to persist scoring for snapshot %s: %v", snapshot.ID, err)
		finish()
		return result, response.NewServerError(err.Error())
	}

	if err := db.Model(&models.Snapshot{}).Where("id = ?", snapshot.ID).Update("scoring_id", record.ID).Error; err != nil {
		logger.Warnf("[Scoring] failed to link scoring %s to snapshot %s: %v", record.ID, snapshot.ID, err)
	}

	result.Record = record
	logger.Infof("[Scoring] project %s snapshot %s scored (ai_used=%t, model=%s)",
		projectID, snapshot.ID, result.Metadata.AIUsed, modelVersion)
	return result, nil
}

// assess calls the LLM once and falls back to placeholder data on any failure.
func (s *ScoringService) assess(ctx context.Context, prompt string, meta *ScoringMetadata) (ScoringPayload, string) {
	fail := func(kind string, err error) (ScoringPayload, string) {
		meta.AIUsed = false
		meta.LLMErrorType = kind
		meta.LLMError = err.Error()
		logger.Warnf("[Scoring] LLM %s: %v; using fallback data", kind, err)
		return FallbackPayload(), FallbackModelVersion
	}

	if s.llm == nil {
		return fail(LLMErrorMissingAPIKey, ErrMissingAPIKey)
	}
	meta.Model = s.llm.ModelName()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.llm.Generate(callCtx, prompt)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingAPIKey):
			return fail(LLMErrorMissingAPIKey, err)
		case errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
			return fail(LLMErrorTimeout, errors.New("LLM request timed out after "+s.timeout.String()))
		default:
			return fail(LLMErrorAPI, err)
		}
	}

	outcome, err := ParseScoringResponse(text)
	if err != nil {
		return fail(LLMErrorParse, err)
	}

	meta.AIUsed = true
	meta.Validation = string(outcome.Tier)
	meta.Warnings = outcome.Warnings
	if outcome.Tier == ParseCoerced {
		logger.Warnf("[Scoring] LLM response coerced: %s", strings.Join(outcome.Warnings, "; "))
	}
	return outcome.Payload, s.llm.ModelName()
}

func conflictWith(existing *models.ProjectScoring) error {
	return response.NewConflict("Scoring already exists for this snapshot; set force to regenerate").
		WithDetails(map[string]interface{}{
			"id":         existing.ID,
			"status":     existing.Status,
			"created_at": existing.CreatedAt,
		})
}

func (s *ScoringService) loadContents(ctx context.Context, ids []string) ([]models.ProjectContent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var contents []models.ProjectContent
	err := s.db.WithContext(ctx).
		Where("id IN ? AND is_public = ?", ids, true).
		Order("created_at ASC").
		Find(&contents).Error
	return contents, err
}

func (s *ScoringService) loadTeam(ctx context.Context, ids []string) ([]models.TeamMember, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var members []models.TeamMember
	err := s.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("is_founder DESC").
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// Latest returns the scoring of the project's public snapshot. Private
// projects require viewer access.
func (s *ScoringService) Latest(ctx context.Context, session *Session, projectID string) (*models.ProjectScoring, error) {
	db := s.db.WithContext(ctx)

	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	if !project.IsPublic {
		if err := s.perms.Require(ctx, session, projectID, models.RoleViewer); err != nil {
			return nil, err
		}
	}
	if project.PublicSnapshotID == nil {
		return nil, response.NewNotFound("Project has no published snapshot")
	}

	var record models.ProjectScoring
	if err := db.Where("snapshot_id = ?", *project.PublicSnapshotID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("Scoring not found")
		}
		return nil, err
	}
	return &record, nil
}
