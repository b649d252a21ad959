package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/cache"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"github.com/manideeprkummitha/team-collab/internal/repository/memory"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newCachedFixture(t *testing.T) (*fixture, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := memory.New()
	repos := store.Repositories()
	f := &fixture{
		ctx:   context.Background(),
		store: store,
		repos: repos,
		svc: New(Deps{
			Repos:  repos,
			Cache:  cache.NewMemberCacheWithClient(client, time.Minute),
			Logger: zaptest.NewLogger(t),
		}),
	}
	return f, mr
}

func TestResolveMemberReadsThroughCache(t *testing.T) {
	f, _ := newCachedFixture(t)
	owner := f.user(t, "ada")
	ws, admin, _ := f.workspace(t, owner)

	got, err := f.svc.Resolver.ResolveMember(f.ctx, owner, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, admin.ID, got.ID)

	// A warm entry answers even when the store is down.
	f.store.FailOn("members.GetByWorkspaceAndPrincipal", errors.New("db down"))
	got, err = f.svc.Resolver.ResolveMember(f.ctx, owner, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, admin.ID, got.ID)
}

func TestResolveMemberDoesNotCacheAbsence(t *testing.T) {
	f, mr := newCachedFixture(t)
	owner := f.user(t, "ada")
	stranger := f.user(t, "bob")
	ws, _, _ := f.workspace(t, owner)

	got, err := f.svc.Resolver.ResolveMember(f.ctx, stranger, ws.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, mr.Keys())

	f.join(t, ws, stranger)
	got, err = f.svc.Resolver.ResolveMember(f.ctx, stranger, ws.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRoleChangeInvalidatesCache(t *testing.T) {
	f, _ := newCachedFixture(t)
	owner := f.user(t, "ada")
	bob := f.user(t, "bob")
	ws, _, _ := f.workspace(t, owner)
	member := f.join(t, ws, bob)

	_, err := f.svc.Resolver.ResolveMember(f.ctx, bob, ws.ID)
	require.NoError(t, err)

	_, err = f.svc.Members.UpdateRole(f.ctx, owner, member.ID, "admin")
	require.NoError(t, err)

	got, err := f.svc.Resolver.ResolveMember(f.ctx, bob, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsAdmin())
}

func TestWorkspaceDeleteClearsCachedMembers(t *testing.T) {
	f, mr := newCachedFixture(t)
	owner := f.user(t, "ada")
	bob := f.user(t, "bob")
	ws, _, _ := f.workspace(t, owner)
	f.join(t, ws, bob)

	for _, p := range []uuid.UUID{owner, bob} {
		_, err := f.svc.Resolver.ResolveMember(f.ctx, p, ws.ID)
		require.NoError(t, err)
	}
	require.Len(t, mr.Keys(), 2)

	_, err := f.svc.Workspaces.Remove(f.ctx, owner, ws.ID)
	require.NoError(t, err)
	assert.Empty(t, mr.Keys())

	got, err := f.svc.Resolver.ResolveMember(f.ctx, bob, ws.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolveMemberNilIDs(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.Resolver.ResolveMember(f.ctx, uuid.Nil, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

// racingMembers runs during once, right after the first store read.
type racingMembers struct {
	repository.MemberRepository
	during func()
}

func (r *racingMembers) GetByWorkspaceAndPrincipal(ctx context.Context, workspaceID, principalID uuid.UUID) (*models.Member, error) {
	m, err := r.MemberRepository.GetByWorkspaceAndPrincipal(ctx, workspaceID, principalID)
	if r.during != nil {
		during := r.during
		r.during = nil
		during()
	}
	return m, err
}

func TestInvalidationDuringFillDropsStaleEntry(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "ada")
	bob := f.user(t, "bob")
	ws, _, _ := f.workspace(t, owner)
	member := f.join(t, ws, bob)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	members := &racingMembers{MemberRepository: f.repos.Members}
	resolver := NewResolver(members, cache.NewMemberCacheWithClient(client, time.Minute), zaptest.NewLogger(t))
	members.during = func() {
		require.NoError(t, f.repos.Members.UpdateRole(f.ctx, member.ID, models.RoleAdmin))
		resolver.Forget(f.ctx, ws.ID, bob)
	}

	got, err := resolver.ResolveMember(f.ctx, bob, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RoleMember, got.Role)
	assert.Empty(t, mr.Keys())

	got, err = resolver.ResolveMember(f.ctx, bob, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.RoleAdmin, got.Role)
}
