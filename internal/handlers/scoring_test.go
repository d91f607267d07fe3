package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestScoring_OwnerEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")
	env.publish(t, owner, pid)

	w := env.do(t, http.MethodPost, "/api/projects/"+pid+"/scoring", owner, `{}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.True(t, body.Success)
	assert.Equal(t, true, body.Metadata["ai_used"])
	assert.Contains(t, body.Metadata, "processing_time_ms")

	var record models.ProjectScoring
	require.NoError(t, json.Unmarshal(body.Data, &record))
	assert.Equal(t, models.ScoringCompleted, record.Status)
	for _, score := range []*float64{record.InvestmentRating, record.MarketPotential, record.TeamCompetency,
		record.TechInnovation, record.BusinessModel, record.ExecutionRisk, record.Score} {
		if score != nil {
			assert.GreaterOrEqual(t, *score, 0.0)
			assert.LessOrEqual(t, *score, 100.0)
		}
	}
	assert.Equal(t, 100.0, *record.MarketPotential)
	assert.Equal(t, 0.0, *record.ExecutionRisk)

	latest := env.do(t, http.MethodGet, "/api/projects/"+pid+"/scoring", "", nil)
	require.Equal(t, http.StatusOK, latest.Code, latest.Body.String())
}

func TestScoring_SecondRequestConflicts(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")
	env.publish(t, owner, pid)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/projects/"+pid+"/scoring", owner, nil).Code)

	w := env.do(t, http.MethodPost, "/api/projects/"+pid+"/scoring", owner, `{"force": false}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.NotEmpty(t, body.Details)
	assert.Equal(t, 1, env.llm.calls)

	w = env.do(t, http.MethodPost, "/api/projects/"+pid+"/scoring", owner, `{"force": true}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, env.llm.calls)
}

func TestScoring_FallbackOnProviderError(t *testing.T) {
	env := newTestEnv(t)
	env.llm.err = errors.New("upstream 502")
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")
	env.publish(t, owner, pid)

	w := env.do(t, http.MethodPost, "/api/projects/"+pid+"/scoring", owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, false, body.Metadata["ai_used"])
	assert.Equal(t, "upstream 502", body.Metadata["llm_error"])
}

func TestScoring_PersistenceFailureKeepsMetadata(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")
	env.publish(t, owner, pid)

	require.NoError(t, env.db.Callback().Create().Before("gorm:create").Register("test:fail_scoring_insert", func(tx *gorm.DB) {
		if tx.Statement.Table == "project_scoring" {
			tx.AddError(errors.New("disk full"))
		}
	}))

	w := env.do(t, http.MethodPost, "/api/projects/"+pid+"/scoring", owner, nil)
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Contains(t, body.Error, "disk full")
	assert.Equal(t, true, body.Metadata["ai_used"])
	assert.Contains(t, body.Metadata, "processing_time_ms")
	assert.Contains(t, body.Metadata, "content_count")
	assert.Equal(t, 1, env.llm.calls)

	var count int64
	env.db.Model(&models.ProjectScoring{}).Count(&count)
	assert.Zero(t, count)
}

func TestScoring_RequestGates(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	stranger := env.signUp(t, "stranger@example.com")
	pid := env.createProject(t, owner, "Rocket")

	tests := []struct {
		name   string
		path   string
		token  string
		body   string
		status int
	}{
		{"malformed id", "/api/projects/not-a-uuid/scoring", owner, `{}`, http.StatusBadRequest},
		{"malformed body", "/api/projects/" + pid + "/scoring", owner, `{"force":`, http.StatusBadRequest},
		{"wrong force type", "/api/projects/" + pid + "/scoring", owner, `{"force":"yes"}`, http.StatusBadRequest},
		{"anonymous", "/api/projects/" + pid + "/scoring", "", `{}`, http.StatusUnauthorized},
		{"not a member", "/api/projects/" + pid + "/scoring", stranger, `{}`, http.StatusForbidden},
		{"unpublished", "/api/projects/" + pid + "/scoring", owner, `{}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode(t, w)
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Error)
			assert.Contains(t, body.Metadata, "processing_time_ms")
		})
	}
	assert.Zero(t, env.llm.calls)
}

func TestScoring_Preflight(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, "/api/projects/00000000-0000-0000-0000-000000000000/scoring", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "authorization, apikey, content-type")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}
