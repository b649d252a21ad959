package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"github.com/manideeprkummitha/team-collab/internal/repository/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	ctx   context.Context
	store *memory.Store
	repos *repository.Repositories
	svc   *Services
}

func newFixture(t *testing.T, opts ...memory.Option) *fixture {
	t.Helper()
	store := memory.New(opts...)
	repos := store.Repositories()
	return &fixture{
		ctx:   context.Background(),
		store: store,
		repos: repos,
		svc:   New(Deps{Repos: repos, Logger: zaptest.NewLogger(t)}),
	}
}

// user registers an account and returns its principal id.
func (f *fixture) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := f.svc.Users.Sync(f.ctx, id, name, name+"@example.com", "")
	require.NoError(t, err)
	return id
}

// workspace creates a workspace owned by owner and returns it with the
// owner's admin member and the general channel.
func (f *fixture) workspace(t *testing.T, owner uuid.UUID) (*models.Workspace, *models.Member, *models.Channel) {
	t.Helper()
	ws, err := f.svc.Workspaces.Create(f.ctx, owner, "Acme Corp")
	require.NoError(t, err)
	admin, err := f.repos.Members.GetByWorkspaceAndPrincipal(f.ctx, ws.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, admin)
	channels, err := f.repos.Channels.ListByWorkspace(f.ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	return ws, admin, &channels[0]
}

func (f *fixture) join(t *testing.T, ws *models.Workspace, principal uuid.UUID) *models.Member {
	t.Helper()
	_, err := f.svc.Workspaces.Join(f.ctx, principal, ws.ID, ws.JoinCode)
	require.NoError(t, err)
	m, err := f.repos.Members.GetByWorkspaceAndPrincipal(f.ctx, ws.ID, principal)
	require.NoError(t, err)
	require.NotNil(t, m)
	return m
}

func (f *fixture) post(t *testing.T, principal uuid.UUID, in NewMessage) *models.Message {
	t.Helper()
	msg, err := f.svc.Messages.Create(f.ctx, principal, in)
	require.NoError(t, err)
	return msg
}

func (f *fixture) react(t *testing.T, principal, messageID uuid.UUID, value string) {
	t.Helper()
	r, err := f.svc.Reactions.Toggle(f.ctx, principal, messageID, value)
	require.NoError(t, err)
	require.NotNil(t, r)
}

// steppingClock advances by step on every call.
func steppingClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
