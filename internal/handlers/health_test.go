package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckHealth(t *testing.T) {
	env := newTestEnv(t)
	h := NewHealthHandler(env.db, services.NewSyncQueue(), env.llm)

	r := gin.New()
	r.GET("/health", h.CheckHealth)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Status     string                 `json:"status"`
		Components map[string]interface{} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "ok", body.Components["database"])
	assert.Equal(t, "sync", body.Components["queue_mode"])
	assert.Equal(t, "stub-model", body.Components["llm_model"])
	assert.Equal(t, float64(0), body.Components["pending_transcriptions"])
}

func TestCheckHealth_DatabaseDown(t *testing.T) {
	env := newTestEnv(t)
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	r := gin.New()
	r.GET("/health", NewHealthHandler(env.db, nil, nil).CheckHealth)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
