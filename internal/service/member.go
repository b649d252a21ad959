package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
)

type MemberService struct {
	repos    *repository.Repositories
	resolver *Resolver
	cascade  *Coordinator
	logger   *zap.Logger
}

func NewMemberService(repos *repository.Repositories, resolver *Resolver, cascade *Coordinator, logger *zap.Logger) *MemberService {
	return &MemberService{repos: repos, resolver: resolver, cascade: cascade, logger: logger}
}

// Current is the caller's own member in the workspace, or nil.
func (s *MemberService) Current(ctx context.Context, principalID, workspaceID uuid.UUID) (*models.Member, error) {
	return s.resolver.ResolveMember(ctx, principalID, workspaceID)
}

// List returns the workspace's members with their accounts. Non-members
// get an empty list. Members whose account is missing are left out.
func (s *MemberService) List(ctx context.Context, principalID, workspaceID uuid.UUID) ([]models.MemberWithUser, error) {
	out := make([]models.MemberWithUser, 0)

	caller, err := s.resolver.ResolveMember(ctx, principalID, workspaceID)
	if err != nil || caller == nil {
		return out, err
	}

	members, err := s.repos.Members.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	principals := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		principals = append(principals, m.PrincipalID)
	}
	users, err := s.repos.Users.GetByIDs(ctx, principals)
	if err != nil {
		return nil, fmt.Errorf("load member accounts: %w", err)
	}

	for _, m := range members {
		u, ok := users[m.PrincipalID]
		if !ok {
			s.logger.Warn("member without account",
				zap.String("member_id", m.ID.String()),
				zap.String("principal_id", m.PrincipalID.String()))
			continue
		}
		out = append(out, models.MemberWithUser{Member: m, User: u})
	}
	return out, nil
}

// Get returns nil unless the caller belongs to the member's workspace.
func (s *MemberService) Get(ctx context.Context, principalID, memberID uuid.UUID) (*models.MemberWithUser, error) {
	m, err := s.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if m == nil {
		return nil, nil
	}
	caller, err := s.resolver.ResolveMember(ctx, principalID, m.WorkspaceID)
	if err != nil || caller == nil {
		return nil, err
	}
	u, err := s.repos.Users.GetByID(ctx, m.PrincipalID)
	if err != nil {
		return nil, fmt.Errorf("get member account: %w", err)
	}
	if u == nil {
		return nil, nil
	}
	return &models.MemberWithUser{Member: *m, User: *u}, nil
}

// UpdateRole changes a member's role. Admin only.
func (s *MemberService) UpdateRole(ctx context.Context, principalID, memberID uuid.UUID, role models.Role) (*models.Member, error) {
	target, err := s.repos.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if target == nil {
		return nil, apperr.ErrMemberNotFound
	}
	actor, err := s.resolver.ResolveMember(ctx, principalID, target.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if err := CanChangeRole(actor, target, role); err != nil {
		return nil, err
	}

	if err := s.repos.Members.UpdateRole(ctx, memberID, role); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to update member")
	}
	s.resolver.Forget(ctx, target.WorkspaceID, target.PrincipalID)

	s.logger.Info("member role changed",
		zap.String("member_id", memberID.String()),
		zap.String("role", string(role)),
	)
	target.Role = role
	return target, nil
}

// Remove deletes a member and its content.
func (s *MemberService) Remove(ctx context.Context, principalID, memberID uuid.UUID) (*CascadeReport, error) {
	return s.cascade.DeleteMember(ctx, principalID, memberID)
}
