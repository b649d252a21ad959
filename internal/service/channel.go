package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
)

type ChannelService struct {
	repos    *repository.Repositories
	resolver *Resolver
	cascade  *Coordinator
	logger   *zap.Logger
}

func NewChannelService(repos *repository.Repositories, resolver *Resolver, cascade *Coordinator, logger *zap.Logger) *ChannelService {
	return &ChannelService{repos: repos, resolver: resolver, cascade: cascade, logger: logger}
}

// channelName lower-cases name and joins words with "-", so "Project  X"
// becomes "project-x".
func channelName(name string) (string, error) {
	name = strings.ToLower(strings.Join(strings.Fields(name), "-"))
	return validName("channel", name)
}

// Create adds a channel. Admin only.
func (s *ChannelService) Create(ctx context.Context, principalID, workspaceID uuid.UUID, name string) (*models.Channel, error) {
	name, err := channelName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Require(ctx, principalID, workspaceID, models.RoleAdmin); err != nil {
		return nil, err
	}
	ch, err := s.repos.Channels.Create(ctx, workspaceID, name)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to create channel")
	}
	return ch, nil
}

// List returns the workspace's channels oldest first, or nothing for a
// non-member.
func (s *ChannelService) List(ctx context.Context, principalID, workspaceID uuid.UUID) ([]models.Channel, error) {
	member, err := s.resolver.ResolveMember(ctx, principalID, workspaceID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return make([]models.Channel, 0), nil
	}
	channels, err := s.repos.Channels.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

// Get returns nil unless the caller is a member of the channel's workspace.
func (s *ChannelService) Get(ctx context.Context, principalID, channelID uuid.UUID) (*models.Channel, error) {
	ch, err := s.repos.Channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if ch == nil {
		return nil, nil
	}
	member, err := s.resolver.ResolveMember(ctx, principalID, ch.WorkspaceID)
	if err != nil || member == nil {
		return nil, err
	}
	return ch, nil
}

// Update renames a channel. Admin only.
func (s *ChannelService) Update(ctx context.Context, principalID, channelID uuid.UUID, name string) (*models.Channel, error) {
	name, err := channelName(name)
	if err != nil {
		return nil, err
	}
	ch, err := s.repos.Channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if ch == nil {
		return nil, apperr.ErrChannelNotFound
	}
	if _, err := s.resolver.Require(ctx, principalID, ch.WorkspaceID, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.repos.Channels.UpdateName(ctx, channelID, name); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to update channel")
	}
	ch.Name = name
	return ch, nil
}

// Remove deletes a channel and its messages. Admin only.
func (s *ChannelService) Remove(ctx context.Context, principalID, channelID uuid.UUID) (*CascadeReport, error) {
	return s.cascade.DeleteChannel(ctx, principalID, channelID)
}
