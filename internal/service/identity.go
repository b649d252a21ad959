package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
)

// Resolver maps (principal, workspace) to the acting member.
//
// The cache is filled after a store read, so an invalidation can land
// between the read and the write and leave a stale entry behind for a
// whole TTL. Every invalidation bumps epoch before it deletes; a fill that
// sees epoch move while it was in flight deletes what it just wrote.
type Resolver struct {
	members repository.MemberRepository
	cache   MemberCache
	logger  *zap.Logger
	epoch   atomic.Uint64
}

func NewResolver(members repository.MemberRepository, cache MemberCache, logger *zap.Logger) *Resolver {
	return &Resolver{members: members, cache: cache, logger: logger}
}

// ResolveMember returns nil, nil when the principal has no membership in
// the workspace. Cache failures are logged and fall through to the store.
func (r *Resolver) ResolveMember(ctx context.Context, principalID, workspaceID uuid.UUID) (*models.Member, error) {
	if principalID == uuid.Nil || workspaceID == uuid.Nil {
		return nil, nil
	}

	if r.cache != nil {
		m, err := r.cache.Get(ctx, workspaceID, principalID)
		if err != nil {
			r.logger.Warn("member cache read failed", zap.Error(err),
				zap.String("workspace_id", workspaceID.String()))
		} else if m != nil {
			return m, nil
		}
	}

	epoch := r.epoch.Load()
	m, err := r.members.GetByWorkspaceAndPrincipal(ctx, workspaceID, principalID)
	if err != nil {
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	if m == nil {
		return nil, nil
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, m); err != nil {
			r.logger.Warn("member cache write failed", zap.Error(err),
				zap.String("member_id", m.ID.String()))
		}
		if r.epoch.Load() != epoch {
			r.Forget(ctx, workspaceID, principalID)
		}
	}
	return m, nil
}

// Require resolves the acting member and applies the base guard.
func (r *Resolver) Require(ctx context.Context, principalID, workspaceID uuid.UUID, required models.Role) (*models.Member, error) {
	m, err := r.ResolveMember(ctx, principalID, workspaceID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(m, required); err != nil {
		return nil, err
	}
	return m, nil
}

// Forget drops one cached membership after it changed.
func (r *Resolver) Forget(ctx context.Context, workspaceID, principalID uuid.UUID) {
	if r.cache == nil {
		return
	}
	r.epoch.Add(1)
	if err := r.cache.Invalidate(ctx, workspaceID, principalID); err != nil {
		r.logger.Warn("member cache invalidation failed", zap.Error(err),
			zap.String("workspace_id", workspaceID.String()),
			zap.String("principal_id", principalID.String()))
	}
}

// ForgetWorkspace drops every cached membership of a workspace.
func (r *Resolver) ForgetWorkspace(ctx context.Context, workspaceID uuid.UUID) {
	if r.cache == nil {
		return
	}
	r.epoch.Add(1)
	if err := r.cache.InvalidateWorkspace(ctx, workspaceID); err != nil {
		r.logger.Warn("workspace cache invalidation failed", zap.Error(err),
			zap.String("workspace_id", workspaceID.String()))
	}
}
