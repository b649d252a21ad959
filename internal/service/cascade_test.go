package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// team is a workspace with an admin and two members, a conversation
// between the members, and some content everywhere.
type team struct {
	ws        *models.Workspace
	general   *models.Channel
	ada       uuid.UUID
	bob       uuid.UUID
	eve       uuid.UUID
	adaM      *models.Member
	bobM      *models.Member
	eveM      *models.Member
	conv      *models.Conversation
	bobRoot   *models.Message
	adaReply  *models.Message
	adaRoot   *models.Message
	convByEve *models.Message
	convByBob *models.Message
}

func newTeam(t *testing.T, f *fixture) *team {
	t.Helper()
	tm := &team{}
	tm.ada = f.user(t, "ada")
	tm.bob = f.user(t, "bob")
	tm.eve = f.user(t, "eve")
	tm.ws, tm.adaM, tm.general = f.workspace(t, tm.ada)
	tm.bobM = f.join(t, tm.ws, tm.bob)
	tm.eveM = f.join(t, tm.ws, tm.eve)

	conv, err := f.svc.Conversations.CreateOrGet(f.ctx, tm.bob, tm.ws.ID, tm.eveM.ID)
	require.NoError(t, err)
	tm.conv = conv

	tm.bobRoot = f.post(t, tm.bob, NewMessage{Body: "hello", ChannelID: &tm.general.ID})
	tm.adaReply = f.post(t, tm.ada, NewMessage{Body: "welcome", ParentMessageID: &tm.bobRoot.ID})
	tm.adaRoot = f.post(t, tm.ada, NewMessage{Body: "standup at 10", ChannelID: &tm.general.ID})
	tm.convByEve = f.post(t, tm.eve, NewMessage{Body: "hi bob", ConversationID: &conv.ID})
	tm.convByBob = f.post(t, tm.bob, NewMessage{Body: "hi eve", ConversationID: &conv.ID})

	f.react(t, tm.eve, tm.bobRoot.ID, "wave")
	f.react(t, tm.bob, tm.adaRoot.ID, "ok")
	f.react(t, tm.eve, tm.adaRoot.ID, "ok")
	f.react(t, tm.bob, tm.convByEve.ID, "heart")
	return tm
}

// assertNoDangling checks that every reaction points at a live message and
// member, and every message at a live member.
func assertNoDangling(t *testing.T, f *fixture, workspaceID uuid.UUID) {
	t.Helper()
	reactions, err := f.repos.Reactions.ListByWorkspace(f.ctx, workspaceID)
	require.NoError(t, err)
	for _, r := range reactions {
		msg, err := f.repos.Messages.GetByID(f.ctx, r.MessageID)
		require.NoError(t, err)
		assert.NotNil(t, msg, "reaction %s on deleted message", r.ID)
		m, err := f.repos.Members.GetByID(f.ctx, r.MemberID)
		require.NoError(t, err)
		assert.NotNil(t, m, "reaction %s by deleted member", r.ID)
	}
	messages, err := f.repos.Messages.ListByWorkspace(f.ctx, workspaceID)
	require.NoError(t, err)
	for _, msg := range messages {
		m, err := f.repos.Members.GetByID(f.ctx, msg.MemberID)
		require.NoError(t, err)
		assert.NotNil(t, m, "message %s by deleted member", msg.ID)
		if msg.ParentMessageID != nil {
			parent, err := f.repos.Messages.GetByID(f.ctx, *msg.ParentMessageID)
			require.NoError(t, err)
			assert.NotNil(t, parent, "reply %s under deleted message", msg.ID)
		}
	}
}

func phaseStates(r *CascadeReport) map[string]PhaseState {
	out := make(map[string]PhaseState, len(r.Phases))
	for _, p := range r.Phases {
		out[p.Collection] = p.State
	}
	return out
}

func TestDeleteWorkspaceEmptiesEveryCollection(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)

	report, err := f.svc.Workspaces.Remove(f.ctx, tm.ada, tm.ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "workspace", report.Root)

	counts := f.store.Counts()
	for _, c := range []string{"workspaces", "members", "channels", "conversations", "messages", "reactions"} {
		assert.Zero(t, counts[c], c)
	}
	assert.Equal(t, 3, counts["users"])

	ws, err := f.repos.Workspaces.GetByID(f.ctx, tm.ws.ID)
	require.NoError(t, err)
	assert.Nil(t, ws)
}

func TestDeleteWorkspaceIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)
	before := f.store.Counts()

	_, err := f.svc.Workspaces.Remove(f.ctx, tm.bob, tm.ws.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, before, f.store.Counts())

	_, err = f.svc.Workspaces.Remove(f.ctx, tm.ada, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrWorkspaceNotFound)
}

func TestDeleteWorkspaceResumesAfterFailure(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)
	f.store.FailOn("messages.DeleteByIDs", errors.New("connection reset"))

	report, err := f.svc.Workspaces.Remove(f.ctx, tm.ada, tm.ws.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	require.NotNil(t, report)
	assert.Equal(t, map[string]PhaseState{
		"reactions":     PhaseDone,
		"messages":      PhaseInProgress,
		"conversations": PhasePending,
		"channels":      PhasePending,
		"members":       PhasePending,
	}, phaseStates(report))

	counts := f.store.Counts()
	assert.Zero(t, counts["reactions"])
	assert.Equal(t, 5, counts["messages"])
	assert.Equal(t, 1, counts["workspaces"])

	f.store.Clear()
	report, err = f.svc.Workspaces.Remove(f.ctx, tm.ada, tm.ws.ID)
	require.NoError(t, err)
	assert.Equal(t, PhaseSkipped, phaseStates(report)["reactions"])
	assert.Equal(t, PhaseDone, phaseStates(report)["messages"])
	assert.Zero(t, f.store.Counts()["messages"])
	assert.Zero(t, f.store.Counts()["workspaces"])
}

func TestDeleteWorkspaceOwnerFinishesAfterRootFailure(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)
	f.store.FailOn("workspaces.Delete", errors.New("connection reset"))

	report, err := f.svc.Workspaces.Remove(f.ctx, tm.ada, tm.ws.ID)
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, PhaseDone, phaseStates(report)["members"])
	counts := f.store.Counts()
	assert.Zero(t, counts["members"])
	assert.Equal(t, 1, counts["workspaces"])

	f.store.Clear()

	// With every member gone only the owner may finish the sweep.
	_, err = f.svc.Workspaces.Remove(f.ctx, tm.bob, tm.ws.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 1, f.store.Counts()["workspaces"])

	report, err = f.svc.Workspaces.Remove(f.ctx, tm.ada, tm.ws.ID)
	require.NoError(t, err)
	for collection, state := range phaseStates(report) {
		assert.Equal(t, PhaseSkipped, state, collection)
	}
	assert.Zero(t, f.store.Counts()["workspaces"])
}

func TestDeleteWorkspaceOwnerNeedsAdminWhileMembersRemain(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)

	_, err := f.svc.Members.UpdateRole(f.ctx, tm.ada, tm.bobM.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = f.svc.Members.UpdateRole(f.ctx, tm.ada, tm.adaM.ID, models.RoleMember)
	require.NoError(t, err)
	_, err = f.svc.Members.Remove(f.ctx, tm.ada, tm.adaM.ID)
	require.NoError(t, err)

	// ada still owns the workspace but left it while others stayed.
	_, err = f.svc.Workspaces.Remove(f.ctx, tm.ada, tm.ws.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.Equal(t, 1, f.store.Counts()["workspaces"])
}

type vanishingWorkspaces struct {
	repository.WorkspaceRepository
}

// Delete removes the row twice, so the second call sees it gone.
func (v vanishingWorkspaces) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	if _, err := v.WorkspaceRepository.Delete(ctx, id); err != nil {
		return 0, err
	}
	return v.WorkspaceRepository.Delete(ctx, id)
}

func TestDeleteWorkspaceReportsVanishedRoot(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)
	f.repos.Workspaces = vanishingWorkspaces{f.repos.Workspaces}

	_, err := f.svc.Workspaces.Remove(f.ctx, tm.ada, tm.ws.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInconsistency, apperr.KindOf(err))
}

func TestDeleteMemberRemovesTheirFootprint(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)

	report, err := f.svc.Members.Remove(f.ctx, tm.ada, tm.bobM.ID)
	require.NoError(t, err)
	assert.Equal(t, "member", report.Root)

	got, err := f.repos.Members.GetByID(f.ctx, tm.bobM.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// bobRoot, the reply under it and both conversation messages are gone.
	for _, id := range []uuid.UUID{tm.bobRoot.ID, tm.adaReply.ID, tm.convByEve.ID, tm.convByBob.ID} {
		msg, err := f.repos.Messages.GetByID(f.ctx, id)
		require.NoError(t, err)
		assert.Nil(t, msg)
	}
	msg, err := f.repos.Messages.GetByID(f.ctx, tm.adaRoot.ID)
	require.NoError(t, err)
	assert.NotNil(t, msg)

	conv, err := f.repos.Conversations.GetByID(f.ctx, tm.conv.ID)
	require.NoError(t, err)
	assert.Nil(t, conv)

	// Only eve's reaction on adaRoot survives.
	reactions, err := f.repos.Reactions.ListByWorkspace(f.ctx, tm.ws.ID)
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, tm.eveM.ID, reactions[0].MemberID)
	assert.Equal(t, tm.adaRoot.ID, reactions[0].MessageID)

	assertNoDangling(t, f, tm.ws.ID)
}

func TestDeleteMemberRules(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)

	_, err := f.svc.Members.Remove(f.ctx, tm.bob, tm.eveM.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.svc.Members.Remove(f.ctx, tm.ada, tm.adaM.ID)
	assert.ErrorIs(t, err, apperr.ErrRemoveSelfAdmin)

	_, err = f.svc.Members.UpdateRole(f.ctx, tm.ada, tm.eveM.ID, models.RoleAdmin)
	require.NoError(t, err)
	_, err = f.svc.Members.Remove(f.ctx, tm.ada, tm.eveM.ID)
	assert.ErrorIs(t, err, apperr.ErrAdminRemoveAdmin)

	_, err = f.svc.Members.Remove(f.ctx, tm.ada, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrMemberNotFound)

	stranger := f.user(t, "mallory")
	_, err = f.svc.Members.Remove(f.ctx, stranger, tm.bobM.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	// A plain member may leave.
	_, err = f.svc.Members.Remove(f.ctx, tm.bob, tm.bobM.ID)
	require.NoError(t, err)
	assertNoDangling(t, f, tm.ws.ID)
}

func TestDeleteChannel(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)
	random, err := f.svc.Channels.Create(f.ctx, tm.ada, tm.ws.ID, "random")
	require.NoError(t, err)
	keep := f.post(t, tm.bob, NewMessage{Body: "elsewhere", ChannelID: &random.ID})

	_, err = f.svc.Channels.Remove(f.ctx, tm.bob, tm.general.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = f.svc.Channels.Remove(f.ctx, tm.ada, tm.general.ID)
	require.NoError(t, err)

	remaining, err := f.repos.Messages.ListByWorkspace(f.ctx, tm.ws.ID)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, m := range remaining {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{keep.ID, tm.convByEve.ID, tm.convByBob.ID}, ids)

	reactions, err := f.repos.Reactions.ListByWorkspace(f.ctx, tm.ws.ID)
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, tm.convByEve.ID, reactions[0].MessageID)
	assertNoDangling(t, f, tm.ws.ID)
}

func TestDeleteMessage(t *testing.T) {
	f := newFixture(t)
	tm := newTeam(t, f)

	_, err := f.svc.Messages.Remove(f.ctx, tm.ada, tm.bobRoot.ID)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	report, err := f.svc.Messages.Remove(f.ctx, tm.bob, tm.bobRoot.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]PhaseState{"reactions": PhaseDone, "replies": PhaseDone}, phaseStates(report))

	reply, err := f.repos.Messages.GetByID(f.ctx, tm.adaReply.ID)
	require.NoError(t, err)
	assert.Nil(t, reply)

	_, err = f.svc.Messages.Remove(f.ctx, tm.bob, tm.bobRoot.ID)
	assert.ErrorIs(t, err, apperr.ErrMessageNotFound)
	assertNoDangling(t, f, tm.ws.ID)
}

func TestUnion(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	assert.Equal(t, []uuid.UUID{a, b, c}, union([]uuid.UUID{a, b}, []uuid.UUID{b, a, c}, nil))
	assert.Empty(t, union())
}
