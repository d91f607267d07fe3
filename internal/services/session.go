package services

import (
	"errors"
	"fmt"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
)

// Session identifies the caller of one request. It is built from the bearer
// token for every request and never shared between requests.
type Session struct {
	UserID string
	Email  string
}

var (
	ErrNotAuthenticated = response.NewUnauthorized("User not authenticated")
	ErrProjectNotFound  = response.NewNotFound("Project not found")
	ErrSnapshotNotFound = response.NewNotFound("Snapshot not found")
	ErrSnapshotLocked   = response.NewConflict("Snapshot is locked")

	// ErrNoDraftToPublish is an expected outcome of PublishDraft, reported as a
	// failed action rather than an HTTP error.
	ErrNoDraftToPublish = errors.New("No draft to publish")
)

func requireSession(session *Session) error {
	if session == nil || session.UserID == "" {
		return ErrNotAuthenticated
	}
	return nil
}

func permissionDenied(required models.Role) error {
	return response.NewForbidden(fmt.Sprintf("Permission denied: requires %s role or higher", required))
}
