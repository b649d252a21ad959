// Package service holds the authorization, lifecycle, cascade and message
// aggregation logic. Every operation takes the acting principal id from the
// verified token and re-resolves the member server-side.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
)

// MemberCache is a read-through cache of positive membership lookups.
type MemberCache interface {
	Get(ctx context.Context, workspaceID, principalID uuid.UUID) (*models.Member, error)
	Set(ctx context.Context, m *models.Member) error
	Invalidate(ctx context.Context, workspaceID, principalID uuid.UUID) error
	InvalidateWorkspace(ctx context.Context, workspaceID uuid.UUID) error
}

// ImageURLResolver turns a stored image key into a URL clients can fetch.
type ImageURLResolver interface {
	ImageURL(ctx context.Context, objectKey string) (string, error)
}

// Deps is everything the services need. Cache and Images may be nil.
type Deps struct {
	Repos  *repository.Repositories
	Cache  MemberCache
	Images ImageURLResolver
	Logger *zap.Logger
}

type Services struct {
	Resolver      *Resolver
	Cascade       *Coordinator
	Workspaces    *WorkspaceService
	Members       *MemberService
	Channels      *ChannelService
	Messages      *MessageService
	Reactions     *ReactionService
	Conversations *ConversationService
	Users         *UserService
}

func New(d Deps) *Services {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	resolver := NewResolver(d.Repos.Members, d.Cache, logger)
	cascade := NewCoordinator(d.Repos, resolver, logger)

	return &Services{
		Resolver:      resolver,
		Cascade:       cascade,
		Workspaces:    NewWorkspaceService(d.Repos, resolver, cascade, logger),
		Members:       NewMemberService(d.Repos, resolver, cascade, logger),
		Channels:      NewChannelService(d.Repos, resolver, cascade, logger),
		Messages:      NewMessageService(d.Repos, resolver, cascade, d.Images, logger),
		Reactions:     NewReactionService(d.Repos, resolver, logger),
		Conversations: NewConversationService(d.Repos, resolver, logger),
		Users:         NewUserService(d.Repos.Users, logger),
	}
}
