package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/launchdeck/launchdeck/backend/internal/middleware"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/launchdeck/launchdeck/backend/internal/utils"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handler-testing")
}

type stubGenerator struct {
	reply string
	err   error
	calls int
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	return g.reply, g.err
}

func (g *stubGenerator) ModelName() string { return "stub-model" }

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	llm    *stubGenerator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := models.Open(&config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.Migrate(db))

	views := services.NewViewCache(time.Minute)
	blobs := services.NewLocalStore(t.TempDir(), "/uploads")
	queue := services.NewSyncQueue()
	queue.SetProcessor(services.NewTranscriptionService(db, blobs).Process)
	llm := &stubGenerator{reply: `{"investment_rating": 70, "market_potential": 120, "team_competency": 60,
"tech_innovation": 55, "business_model": 65, "execution_risk": -3, "score": 66,
"summary": "Solid.", "research": "Few competitors."}`}

	projects := NewProjectHandler(db, views, blobs)
	contents := NewContentHandler(db, blobs, queue, views)
	scoring := NewScoringHandler(db, llm, time.Second)

	r := gin.New()
	r.Use(middleware.CORS())
	api := r.Group("/api")
	api.GET("/projects/:id", middleware.OptionalAuth(), projects.Get)
	api.POST("/projects", middleware.AuthRequired(), projects.Create)
	api.POST("/projects/:id/publication", middleware.AuthRequired(), projects.TogglePublication)
	api.POST("/projects/:id/publish", middleware.AuthRequired(), projects.PublishDraft)
	api.POST("/projects/:id/contents", middleware.AuthRequired(), contents.Create)
	api.POST("/projects/:id/scoring", middleware.OptionalAuth(), scoring.Generate)
	api.OPTIONS("/projects/:id/scoring", scoring.Preflight)
	api.GET("/projects/:id/scoring", middleware.OptionalAuth(), scoring.Latest)

	return &testEnv{db: db, router: r, llm: llm}
}

// signUp creates an active local user and returns a bearer token for them.
func (e *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()
	user := &models.User{Email: email, DisplayName: email, AuthType: "local", IsActive: true}
	require.NoError(t, e.db.Create(user).Error)
	token, err := utils.GenerateToken(user.ID, email, 1)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// envelope mirrors response.Response with the payload left raw.
type envelope struct {
	Success  bool                   `json:"success"`
	Data     json.RawMessage        `json:"data"`
	Error    string                 `json:"error"`
	Details  json.RawMessage        `json:"details"`
	Metadata map[string]interface{} `json:"metadata"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// createProject creates a project over HTTP and returns its id.
func (e *testEnv) createProject(t *testing.T, token, name string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/projects", token, map[string]interface{}{"name": name, "slogan": "Ship faster"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view services.ProjectView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	return view.Project.ID
}

func (e *testEnv) publish(t *testing.T, token, projectID string) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/projects/"+projectID+"/publication", token, map[string]bool{"is_currently_public": false})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

