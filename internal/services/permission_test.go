package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionService_CheckRole(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	editor := createUser(t, db, "editor@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	project := createProject(t, db, owner, "Rocket")
	grant(t, db, project.Project.ID, editor, models.RoleEditor)

	perms := NewPermissionService(db)
	pid := project.Project.ID

	assert.True(t, perms.CheckRole(ctx, owner.UserID, pid, models.RoleOwner))
	assert.True(t, perms.CheckRole(ctx, editor.UserID, pid, models.RoleViewer))
	assert.True(t, perms.CheckRole(ctx, editor.UserID, pid, models.RoleEditor))
	assert.False(t, perms.CheckRole(ctx, editor.UserID, pid, models.RoleAdmin))
	assert.False(t, perms.CheckRole(ctx, stranger.UserID, pid, models.RoleViewer))
	assert.False(t, perms.CheckRole(ctx, "", pid, models.RoleViewer))
	assert.False(t, perms.CheckRole(ctx, owner.UserID, "missing", models.RoleViewer))
}

func TestPermissionService_Require(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	project := createProject(t, db, owner, "Rocket")
	grant(t, db, project.Project.ID, viewer, models.RoleViewer)

	perms := NewPermissionService(db)

	err := perms.Require(ctx, nil, project.Project.ID, models.RoleViewer)
	assert.Equal(t, http.StatusUnauthorized, response.StatusOf(err))

	err = perms.Require(ctx, viewer, project.Project.ID, models.RoleEditor)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, response.StatusOf(err))
	assert.Equal(t, "Permission denied: requires editor role or higher", err.Error())

	assert.NoError(t, perms.Require(ctx, owner, project.Project.ID, models.RoleOwner))
}

func TestPermissionService_RequireReadable(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	viewer := createUser(t, db, "viewer@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	pid := createProject(t, db, owner, "Rocket").Project.ID
	grant(t, db, pid, viewer, models.RoleViewer)
	perms := NewPermissionService(db)

	assert.NoError(t, perms.RequireReadable(ctx, viewer, pid))
	assert.Equal(t, http.StatusUnauthorized, response.StatusOf(perms.RequireReadable(ctx, nil, pid)))
	assert.Equal(t, http.StatusForbidden, response.StatusOf(perms.RequireReadable(ctx, stranger, pid)))
	assert.ErrorIs(t, perms.RequireReadable(ctx, stranger, "00000000-0000-0000-0000-000000000000"), ErrProjectNotFound)

	require.NoError(t, db.Model(&models.Project{}).Where("id = ?", pid).Update("is_public", true).Error)
	assert.NoError(t, perms.RequireReadable(ctx, nil, pid))
	assert.NoError(t, perms.RequireReadable(ctx, stranger, pid))
}
