package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_PrivateHiddenFromAnonymous(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")

	w := env.do(t, http.MethodGet, "/api/projects/"+pid, "", nil)
	assert.NotEqual(t, http.StatusOK, w.Code)

	env.publish(t, owner, pid)
	w = env.do(t, http.MethodGet, "/api/projects/"+pid, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var view services.ProjectView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &view))
	require.NotNil(t, view.PublicSnapshot)
	assert.Equal(t, "Rocket", view.PublicSnapshot.Name)
	assert.Nil(t, view.Draft)
}

func TestProject_PublishWithoutDraftIsActionFailure(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")
	env.publish(t, owner, pid)

	w := env.do(t, http.MethodPost, "/api/projects/"+pid+"/publish", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "No draft to publish", body.Error)
}

func TestProject_TogglePublicationValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")

	w := env.do(t, http.MethodPost, "/api/projects/"+pid+"/publication", owner, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/projects/"+pid+"/publication", "", `{"is_currently_public": false}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContent_MultipartUploadIsTranscribed(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	require.NoError(t, form.WriteField("title", "Pitch notes"))
	require.NoError(t, form.WriteField("content_type", string(models.ContentPitchDeck)))
	part, err := form.CreateFormFile("file", "notes.md")
	require.NoError(t, err)
	_, err = part.Write([]byte("# Notes\nWe sell rockets."))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req, err := http.NewRequest(http.MethodPost, "/api/projects/"+pid+"/contents", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+owner)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created models.ProjectContent
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "pitch-notes", created.Slug)

	// the in-process queue transcribes in the background
	var stored models.ProjectContent
	require.Eventually(t, func() bool {
		stored = models.ProjectContent{}
		return env.db.Where("id = ?", created.ID).First(&stored).Error == nil &&
			stored.TranscriptionStatus == models.TranscriptionCompleted
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, stored.Content, "We sell rockets.")
}

func TestContent_RequiresFileOrText(t *testing.T) {
	env := newTestEnv(t)
	owner := env.signUp(t, "owner@example.com")
	pid := env.createProject(t, owner, "Rocket")

	w := env.do(t, http.MethodPost, "/api/projects/"+pid+"/contents", owner, map[string]string{"title": "Empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Either a file or content text is required", decode(t, w).Error)
}
