package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/manideeprkummitha/team-collab/internal/apperr"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
	"go.uber.org/zap"
)

type ReactionService struct {
	repos    *repository.Repositories
	resolver *Resolver
	logger   *zap.Logger
}

func NewReactionService(repos *repository.Repositories, resolver *Resolver, logger *zap.Logger) *ReactionService {
	return &ReactionService{repos: repos, resolver: resolver, logger: logger}
}

// Toggle keeps at most one reaction per (member, message). Reacting with
// the value already held removes it and returns nil; any other value
// replaces what the member had.
func (s *ReactionService) Toggle(ctx context.Context, principalID, messageID uuid.UUID, value string) (*models.Reaction, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, apperr.New(apperr.KindInvalid, "reaction value is required")
	}

	msg, err := s.repos.Messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load message")
	}
	if msg == nil {
		return nil, apperr.ErrMessageNotFound
	}
	member, err := s.resolver.Require(ctx, principalID, msg.WorkspaceID, models.RoleMember)
	if err != nil {
		return nil, err
	}
	visible, err := canSeeConversation(ctx, s.repos.Conversations, member, msg.ConversationID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load conversation")
	}
	if !visible {
		return nil, apperr.ErrUnauthorized
	}

	existing, err := s.repos.Reactions.ListByMemberAndMessage(ctx, member.ID, messageID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to load reactions")
	}
	toggledOff := false
	stale := make([]uuid.UUID, 0, len(existing))
	for _, r := range existing {
		if r.Value == value {
			toggledOff = true
		}
		stale = append(stale, r.ID)
	}
	if _, err := s.repos.Reactions.DeleteByIDs(ctx, stale); err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to update reaction")
	}
	if toggledOff {
		return nil, nil
	}

	r, err := s.repos.Reactions.Create(ctx, &models.Reaction{
		WorkspaceID: msg.WorkspaceID,
		MessageID:   messageID,
		MemberID:    member.ID,
		Value:       value,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to update reaction")
	}
	return r, nil
}
