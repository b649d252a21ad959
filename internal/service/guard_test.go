package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	ws := uuid.New()
	admin := &models.Member{ID: uuid.New(), WorkspaceID: ws, Role: models.RoleAdmin}
	member := &models.Member{ID: uuid.New(), WorkspaceID: ws, Role: models.RoleMember}

	assert.ErrorIs(t, Authorize(nil, models.RoleMember), apperr.ErrUnauthorized)
	assert.NoError(t, Authorize(member, models.RoleMember))
	assert.NoError(t, Authorize(admin, models.RoleMember))
	assert.NoError(t, Authorize(admin, models.RoleAdmin))
	assert.ErrorIs(t, Authorize(member, models.RoleAdmin), apperr.ErrUnauthorized)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(Authorize(admin, models.Role("owner"))))
}

func TestCanRemoveMember(t *testing.T) {
	ws := uuid.New()
	admin := &models.Member{ID: uuid.New(), WorkspaceID: ws, Role: models.RoleAdmin}
	otherAdmin := &models.Member{ID: uuid.New(), WorkspaceID: ws, Role: models.RoleAdmin}
	member := &models.Member{ID: uuid.New(), WorkspaceID: ws, Role: models.RoleMember}
	otherMember := &models.Member{ID: uuid.New(), WorkspaceID: ws, Role: models.RoleMember}
	foreign := &models.Member{ID: uuid.New(), WorkspaceID: uuid.New(), Role: models.RoleAdmin}

	cases := []struct {
		name   string
		actor  *models.Member
		target *models.Member
		want   error
	}{
		{name: "no actor", actor: nil, target: member, want: apperr.ErrUnauthorized},
		{name: "other workspace", actor: foreign, target: member, want: apperr.ErrUnauthorized},
		{name: "member leaves", actor: member, target: member, want: nil},
		{name: "admin leaves", actor: admin, target: admin, want: apperr.ErrRemoveSelfAdmin},
		{name: "member removes member", actor: member, target: otherMember, want: apperr.ErrUnauthorized},
		{name: "member removes admin", actor: member, target: admin, want: apperr.ErrUnauthorized},
		{name: "admin removes member", actor: admin, target: member, want: nil},
		{name: "admin removes admin", actor: admin, target: otherAdmin, want: apperr.ErrAdminRemoveAdmin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanRemoveMember(tc.actor, tc.target)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCanChangeRole(t *testing.T) {
	ws := uuid.New()
	admin := &models.Member{ID: uuid.New(), WorkspaceID: ws, Role: models.RoleAdmin}
	member := &models.Member{ID: uuid.New(), WorkspaceID: ws, Role: models.RoleMember}

	assert.NoError(t, CanChangeRole(admin, member, models.RoleAdmin))
	assert.NoError(t, CanChangeRole(admin, admin, models.RoleMember))
	assert.ErrorIs(t, CanChangeRole(member, member, models.RoleAdmin), apperr.ErrUnauthorized)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(CanChangeRole(admin, member, "owner")))
}
