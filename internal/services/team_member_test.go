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

func TestTeamMemberService_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	project := createProject(t, db, owner, "Rocket")
	pid := project.Project.ID
	draftID := *project.Project.NewSnapshotID
	svc := NewTeamMemberService(db, NewViewCache(0))

	founder := true
	member, err := svc.Create(ctx, owner, pid, &TeamMemberRequest{
		Name:      strPtr("Alex"),
		IsFounder: &founder,
		Positions: &[]string{"CEO", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MemberGhost, member.Status)
	assert.Equal(t, []string{"CEO"}, []string(member.Positions))
	assert.Contains(t, []string(loadSnapshot(t, db, draftID).TeamMembers), member.ID)

	status := models.MemberActive
	updated, err := svc.Update(ctx, owner, pid, member.ID, &TeamMemberRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.MemberActive, updated.Status)

	bad := models.TeamMemberStatus("retired")
	_, err = svc.Update(ctx, owner, pid, member.ID, &TeamMemberRequest{Status: &bad})
	assert.Error(t, err)

	require.NoError(t, svc.Delete(ctx, owner, pid, member.ID))
	assert.NotContains(t, []string(loadSnapshot(t, db, draftID).TeamMembers), member.ID)

	list, err := svc.List(ctx, owner, pid)
	require.NoError(t, err)
	assert.Empty(t, list)

	var tombstoned int64
	db.Unscoped().Model(&models.TeamMember{}).Where("id = ?", member.ID).Count(&tombstoned)
	assert.Equal(t, int64(1), tombstoned)
}

func TestTeamMemberService_ListVisibility(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "owner@example.com")
	stranger := createUser(t, db, "stranger@example.com")
	pid := createProject(t, db, owner, "Rocket").Project.ID
	svc := NewTeamMemberService(db, NewViewCache(0))

	_, err := svc.Create(ctx, owner, pid, &TeamMemberRequest{Name: strPtr("Alex")})
	require.NoError(t, err)

	_, err = svc.List(ctx, nil, pid)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = svc.List(ctx, stranger, pid)
	assert.Equal(t, http.StatusForbidden, response.StatusOf(err))

	_, err = NewPublicationService(db, nil, nil).TogglePublication(ctx, owner, pid, false)
	require.NoError(t, err)

	members, err := svc.List(ctx, nil, pid)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Alex", members[0].Name)

	members, err = svc.List(ctx, stranger, pid)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
