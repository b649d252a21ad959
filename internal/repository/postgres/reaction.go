package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manideeprkummitha/team-collab/internal/models"
)

type ReactionStore struct {
	pool *pgxpool.Pool
}

func NewReactionStore(pool *pgxpool.Pool) *ReactionStore {
	return &ReactionStore{pool: pool}
}

const reactionColumns = `id, workspace_id, message_id, member_id, value, created_at`

func scanReaction(row pgx.Row) (*models.Reaction, error) {
	var r models.Reaction
	if err := row.Scan(&r.ID, &r.WorkspaceID, &r.MessageID, &r.MemberID, &r.Value, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *ReactionStore) Create(ctx context.Context, r *models.Reaction) (*models.Reaction, error) {
	query := `
		INSERT INTO reactions (workspace_id, message_id, member_id, value, created_at)
		VALUES ($1, $2, $3, $4, clock_timestamp())
		RETURNING ` + reactionColumns

	saved, err := scanReaction(s.pool.QueryRow(ctx, query, r.WorkspaceID, r.MessageID, r.MemberID, r.Value))
	if err != nil {
		return nil, fmt.Errorf("insert reaction: %w", err)
	}
	return saved, nil
}

func (s *ReactionStore) ListByMessages(ctx context.Context, messageIDs []uuid.UUID) ([]models.Reaction, error) {
	if len(messageIDs) == 0 {
		return make([]models.Reaction, 0), nil
	}
	query := `
		SELECT ` + reactionColumns + `
		FROM reactions
		WHERE message_id = ANY($1)
		ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, messageIDs)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	return collect(rows, scanReaction, "reaction")
}

func (s *ReactionStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Reaction, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reactionColumns+` FROM reactions WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list workspace reactions: %w", err)
	}
	return collect(rows, scanReaction, "reaction")
}

func (s *ReactionStore) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Reaction, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+reactionColumns+` FROM reactions WHERE member_id = $1`, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member reactions: %w", err)
	}
	return collect(rows, scanReaction, "reaction")
}

func (s *ReactionStore) ListByMemberAndMessage(ctx context.Context, memberID, messageID uuid.UUID) ([]models.Reaction, error) {
	query := `
		SELECT ` + reactionColumns + `
		FROM reactions
		WHERE member_id = $1 AND message_id = $2
		ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, memberID, messageID)
	if err != nil {
		return nil, fmt.Errorf("list member reactions on message: %w", err)
	}
	return collect(rows, scanReaction, "reaction")
}

func (s *ReactionStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return deleteByIDs(ctx, s.pool, "reactions", ids)
}
