package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) *Session {
	t.Helper()
	user := &models.User{Email: email, DisplayName: email, AuthType: "local", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return &Session{UserID: user.ID, Email: email}
}

func strPtr(s string) *string { return &s }

// createProject makes owner the owner of a fresh unpublished project.
func createProject(t *testing.T, db *gorm.DB, owner *Session, name string) *ProjectView {
	t.Helper()
	view, err := NewProjectService(db, NewViewCache(0)).Create(context.Background(), owner, &CreateProjectRequest{
		SnapshotFields: SnapshotFields{Name: strPtr(name), Slogan: strPtr("Ship faster")},
	})
	require.NoError(t, err)
	return view
}

func grant(t *testing.T, db *gorm.DB, projectID string, member *Session, role models.Role) {
	t.Helper()
	require.NoError(t, db.Create(&models.ProjectPermission{ProjectID: projectID, UserID: member.UserID, Role: role}).Error)
}

func loadProject(t *testing.T, db *gorm.DB, id string) *models.Project {
	t.Helper()
	var p models.Project
	require.NoError(t, db.Where("id = ?", id).First(&p).Error)
	return &p
}

func loadSnapshot(t *testing.T, db *gorm.DB, id string) models.Snapshot {
	t.Helper()
	var s models.Snapshot
	require.NoError(t, db.Where("id = ?", id).First(&s).Error)
	return s
}
