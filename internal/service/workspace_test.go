package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorkspace(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "ada")

	ws, admin, general := f.workspace(t, owner)

	assert.Equal(t, "Acme Corp", ws.Name)
	assert.Equal(t, owner, ws.OwnerID)
	assert.Len(t, ws.JoinCode, joinCodeLength)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, defaultChannelName, general.Name)
}

func TestCreateWorkspaceValidatesName(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "ada")

	for _, name := range []string{"", "  ab  ", strings.Repeat("x", maxNameLength+1)} {
		_, err := f.svc.Workspaces.Create(f.ctx, owner, name)
		assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err), "name %q", name)
	}
	_, err := f.svc.Workspaces.Create(f.ctx, uuid.Nil, "Acme")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Zero(t, f.store.Counts()["workspaces"])
}

func TestCreateWorkspaceCompensatesOnFailure(t *testing.T) {
	for _, op := range []string{"members.Create", "channels.Create"} {
		t.Run(op, func(t *testing.T) {
			f := newFixture(t)
			owner := f.user(t, "ada")
			boom := errors.New("boom")
			f.store.FailOn(op, boom)

			ws, err := f.svc.Workspaces.Create(f.ctx, owner, "Acme")
			assert.Nil(t, ws)
			assert.ErrorIs(t, err, apperr.ErrCreateWorkspaceFailed)
			assert.ErrorIs(t, err, boom)

			counts := f.store.Counts()
			assert.Zero(t, counts["workspaces"])
			assert.Zero(t, counts["members"])
			assert.Zero(t, counts["channels"])
		})
	}
}

func TestJoinWorkspace(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "ada")
	bob := f.user(t, "bob")
	ws, _, _ := f.workspace(t, owner)

	_, err := f.svc.Workspaces.Join(f.ctx, bob, ws.ID, "nope00")
	assert.ErrorIs(t, err, apperr.ErrInvalidJoinCode)

	_, err = f.svc.Workspaces.Join(f.ctx, bob, ws.ID, "  "+strings.ToUpper(ws.JoinCode)+" ")
	require.NoError(t, err)

	m, err := f.svc.Members.Current(f.ctx, bob, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, models.RoleMember, m.Role)

	_, err = f.svc.Workspaces.Join(f.ctx, bob, ws.ID, ws.JoinCode)
	assert.ErrorIs(t, err, apperr.ErrAlreadyMember)

	_, err = f.svc.Workspaces.Join(f.ctx, owner, ws.ID, ws.JoinCode)
	assert.ErrorIs(t, err, apperr.ErrAlreadyMember)

	_, err = f.svc.Workspaces.Join(f.ctx, bob, uuid.New(), ws.JoinCode)
	assert.ErrorIs(t, err, apperr.ErrWorkspaceNotFound)
}

func TestRotateJoinCode(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "ada")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	ws, _, _ := f.workspace(t, owner)
	f.join(t, ws, bob)

	f.svc.Workspaces.newJoinCode = func() (string, error) { return "zzzzzz", nil }

	_, err := f.svc.Workspaces.RotateJoinCode(f.ctx, bob, ws.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	rotated, err := f.svc.Workspaces.RotateJoinCode(f.ctx, owner, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "zzzzzz", rotated.JoinCode)

	_, err = f.svc.Workspaces.Join(f.ctx, carol, ws.ID, ws.JoinCode)
	assert.ErrorIs(t, err, apperr.ErrInvalidJoinCode)
	_, err = f.svc.Workspaces.Join(f.ctx, carol, ws.ID, "ZZZZZZ")
	assert.NoError(t, err)
}

func TestUpdateWorkspaceIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "ada")
	bob := f.user(t, "bob")
	ws, _, _ := f.workspace(t, owner)
	f.join(t, ws, bob)

	_, err := f.svc.Workspaces.Update(f.ctx, bob, ws.ID, "Hijacked")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	updated, err := f.svc.Workspaces.Update(f.ctx, owner, ws.ID, "  Acme Labs ")
	require.NoError(t, err)
	assert.Equal(t, "Acme Labs", updated.Name)
}

func TestWorkspaceReadsForOutsiders(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "ada")
	stranger := f.user(t, "eve")
	ws, _, _ := f.workspace(t, owner)

	got, err := f.svc.Workspaces.Get(f.ctx, stranger, ws.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	info, err := f.svc.Workspaces.GetInfo(f.ctx, stranger, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, models.WorkspaceInfo{Name: "Acme Corp", IsMember: false}, *info)

	info, err = f.svc.Workspaces.GetInfo(f.ctx, stranger, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, info)

	list, err := f.svc.Workspaces.ListForPrincipal(f.ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = f.svc.Workspaces.ListForPrincipal(f.ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ws.ID, list[0].ID)
}

func TestJoinCodeAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := newJoinCode()
		require.NoError(t, err)
		require.Len(t, code, joinCodeLength)
		for _, r := range code {
			assert.Contains(t, joinCodeAlphabet, string(r))
		}
	}
}
