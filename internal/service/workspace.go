package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultChannelName = "general"
	minNameLength      = 3
	maxNameLength      = 80
)

type WorkspaceService struct {
	repos       *repository.Repositories
	resolver    *Resolver
	cascade     *Coordinator
	logger      *zap.Logger
	newJoinCode func() (string, error)
}

func NewWorkspaceService(repos *repository.Repositories, resolver *Resolver, cascade *Coordinator, logger *zap.Logger) *WorkspaceService {
	return &WorkspaceService{
		repos:       repos,
		resolver:    resolver,
		cascade:     cascade,
		logger:      logger,
		newJoinCode: newJoinCode,
	}
}

func validName(what, name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n < minNameLength || n > maxNameLength {
		return "", apperr.Newf(apperr.KindInvalid, "%s name must be %d to %d characters", what, minNameLength, maxNameLength)
	}
	return name, nil
}

// Create inserts the workspace, its first admin member and the general
// channel. The store offers no multi-row transaction, so each completed
// step registers an undo and a failure runs them in reverse.
func (s *WorkspaceService) Create(ctx context.Context, principalID uuid.UUID, name string) (*models.Workspace, error) {
	if principalID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	name, err := validName("workspace", name)
	if err != nil {
		return nil, err
	}
	code, err := s.newJoinCode()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, apperr.ErrCreateWorkspaceFailed.Msg)
	}

	var undo []func(context.Context) error
	fail := func(step string, cause error) error {
		s.logger.Error("create workspace failed", zap.String("step", step), zap.Error(cause))
		// Cleanup must run even when the caller has gone away.
		cleanupCtx := context.WithoutCancel(ctx)
		for i := len(undo) - 1; i >= 0; i-- {
			if err := undo[i](cleanupCtx); err != nil {
				s.logger.Error("create workspace compensation failed", zap.Error(err))
			}
		}
		return apperr.Wrap(cause, apperr.KindInternal, apperr.ErrCreateWorkspaceFailed.Msg)
	}

	ws, err := s.repos.Workspaces.Create(ctx, name, principalID, code)
	if err != nil {
		return nil, fail("workspace", err)
	}
	undo = append(undo, func(ctx context.Context) error {
		_, err := s.repos.Workspaces.Delete(ctx, ws.ID)
		return err
	})

	member, err := s.repos.Members.Create(ctx, ws.ID, principalID, models.RoleAdmin)
	if err != nil {
		return nil, fail("member", err)
	}
	undo = append(undo, func(ctx context.Context) error {
		_, err := s.repos.Members.DeleteByIDs(ctx, []uuid.UUID{member.ID})
		return err
	})

	if _, err := s.repos.Channels.Create(ctx, ws.ID, defaultChannelName); err != nil {
		return nil, fail("channel", err)
	}

	s.logger.Info("workspace created",
		zap.String("workspace_id", ws.ID.String()),
		zap.String("owner_id", principalID.String()),
	)
	return ws, nil
}

// Update renames a workspace. Admin only.
func (s *WorkspaceService) Update(ctx context.Context, principalID, workspaceID uuid.UUID, name string) (*models.Workspace, error) {
	name, err := validName("workspace", name)
	if err != nil {
		return nil, err
	}
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Require(ctx, principalID, workspaceID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.repos.Workspaces.UpdateName(ctx, workspaceID, name); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to update workspace")
	}
	ws.Name = name
	return ws, nil
}

// Remove deletes the workspace and everything in it. Admin only.
func (s *WorkspaceService) Remove(ctx context.Context, principalID, workspaceID uuid.UUID) (*CascadeReport, error) {
	return s.cascade.DeleteWorkspace(ctx, principalID, workspaceID)
}

// RotateJoinCode replaces the join code; the old one stops working at once.
// Admin only.
func (s *WorkspaceService) RotateJoinCode(ctx context.Context, principalID, workspaceID uuid.UUID) (*models.Workspace, error) {
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Require(ctx, principalID, workspaceID, models.RoleAdmin); err != nil {
		return nil, err
	}
	code, err := s.newJoinCode()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to rotate join code")
	}
	if err := s.repos.Workspaces.UpdateJoinCode(ctx, workspaceID, code); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to rotate join code")
	}
	ws.JoinCode = code
	return ws, nil
}

// Join adds the principal as a plain member when code matches the stored
// join code, ignoring case.
func (s *WorkspaceService) Join(ctx context.Context, principalID, workspaceID uuid.UUID, code string) (*models.Workspace, error) {
	if principalID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if normalizeJoinCode(code) != ws.JoinCode {
		return nil, apperr.ErrInvalidJoinCode
	}

	// Go to the store, not the cache: uniqueness is decided here.
	existing, err := s.repos.Members.GetByWorkspaceAndPrincipal(ctx, workspaceID, principalID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to join workspace")
	}
	if existing != nil {
		return nil, apperr.ErrAlreadyMember
	}

	member, err := s.repos.Members.Create(ctx, workspaceID, principalID, models.RoleMember)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to join workspace")
	}
	s.resolver.Forget(ctx, workspaceID, principalID)

	s.logger.Info("member joined",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("member_id", member.ID.String()),
	)
	return ws, nil
}

// ListForPrincipal returns every workspace the principal belongs to.
func (s *WorkspaceService) ListForPrincipal(ctx context.Context, principalID uuid.UUID) ([]models.Workspace, error) {
	memberships, err := s.repos.Members.ListByPrincipal(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	workspaceIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		workspaceIDs = append(workspaceIDs, m.WorkspaceID)
	}
	workspaces, err := s.repos.Workspaces.ListByIDs(ctx, workspaceIDs)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return workspaces, nil
}

// Get returns nil unless the principal is a member.
func (s *WorkspaceService) Get(ctx context.Context, principalID, workspaceID uuid.UUID) (*models.Workspace, error) {
	member, err := s.resolver.ResolveMember(ctx, principalID, workspaceID)
	if err != nil || member == nil {
		return nil, err
	}
	ws, err := s.repos.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, nil
}

// GetInfo is the preview shown before joining. It returns nil when the
// workspace does not exist.
func (s *WorkspaceService) GetInfo(ctx context.Context, principalID, workspaceID uuid.UUID) (*models.WorkspaceInfo, error) {
	ws, err := s.repos.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	if ws == nil {
		return nil, nil
	}
	member, err := s.resolver.ResolveMember(ctx, principalID, workspaceID)
	if err != nil {
		return nil, err
	}
	return &models.WorkspaceInfo{Name: ws.Name, IsMember: member != nil}, nil
}

func (s *WorkspaceService) load(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	ws, err := s.repos.Workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	if ws == nil {
		return nil, apperr.ErrWorkspaceNotFound
	}
	return ws, nil
}
