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

type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserService(users repository.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// Me returns the caller's account, or nil before the first Sync.
func (s *UserService) Me(ctx context.Context, principalID uuid.UUID) (*models.User, error) {
	u, err := s.users.GetByID(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Sync stores the profile the identity provider reported for the caller.
func (s *UserService) Sync(ctx context.Context, principalID uuid.UUID, name, email, image string) (*models.User, error) {
	if principalID == uuid.Nil {
		return nil, apperr.ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.KindInvalid, "name is required")
	}
	u, err := s.users.Upsert(ctx, &models.User{
		ID:    principalID,
		Name:  name,
		Email: strings.TrimSpace(email),
		Image: strings.TrimSpace(image),
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindInternal, "failed to save profile")
	}
	return u, nil
}
