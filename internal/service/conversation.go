package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
)

type ConversationService struct {
	repos    *repository.Repositories
	resolver *Resolver
	logger   *zap.Logger
}

func NewConversationService(repos *repository.Repositories, resolver *Resolver, logger *zap.Logger) *ConversationService {
	return &ConversationService{repos: repos, resolver: resolver, logger: logger}
}

// CreateOrGet returns the direct conversation between the caller and
// otherMemberID, creating it on first use. A member may open a
// conversation with themself.
func (s *ConversationService) CreateOrGet(ctx context.Context, principalID, workspaceID, otherMemberID uuid.UUID) (*models.Conversation, error) {
	self, err := s.resolver.Require(ctx, principalID, workspaceID, models.RoleMember)
	if err != nil {
		return nil, err
	}

	other, err := s.repos.Members.GetByID(ctx, otherMemberID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load member")
	}
	if other == nil || other.WorkspaceID != workspaceID {
		return nil, apperr.ErrMemberNotFound
	}

	existing, err := s.repos.Conversations.FindBetween(ctx, workspaceID, self.ID, other.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to find conversation")
	}
	if existing != nil {
		return existing, nil
	}

	conv, err := s.repos.Conversations.Create(ctx, workspaceID, self.ID, other.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to create conversation")
	}
	s.logger.Info("conversation created",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("conversation_id", conv.ID.String()),
	)
	return conv, nil
}
