package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manideeprkummitha/team-collab/internal/models"
)

type ConversationStore struct {
	pool *pgxpool.Pool
}

func NewConversationStore(pool *pgxpool.Pool) *ConversationStore {
	return &ConversationStore{pool: pool}
}

const conversationColumns = `id, workspace_id, member_one_id, member_two_id, created_at`

func scanConversation(row pgx.Row) (*models.Conversation, error) {
	var c models.Conversation
	if err := row.Scan(&c.ID, &c.WorkspaceID, &c.MemberOneID, &c.MemberTwoID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *ConversationStore) Create(ctx context.Context, workspaceID, memberOneID, memberTwoID uuid.UUID) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (workspace_id, member_one_id, member_two_id, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING ` + conversationColumns

	c, err := scanConversation(s.pool.QueryRow(ctx, query, workspaceID, memberOneID, memberTwoID))
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	query := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`

	c, err := scanConversation(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationStore) FindBetween(ctx context.Context, workspaceID, a, b uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + `
		FROM conversations
		WHERE workspace_id = $1
		  AND ((member_one_id = $2 AND member_two_id = $3)
		    OR (member_one_id = $3 AND member_two_id = $2))
		ORDER BY created_at
		LIMIT 1`

	c, err := scanConversation(s.pool.QueryRow(ctx, query, workspaceID, a, b))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return c, nil
}

func (s *ConversationStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return collect(rows, scanConversation, "conversation")
}

// ListByMember unions the two slot indexes rather than OR-ing them so each
// branch stays an index scan.
func (s *ConversationStore) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Conversation, error) {
	query := `
		SELECT ` + conversationColumns + ` FROM conversations WHERE member_one_id = $1
		UNION
		SELECT ` + conversationColumns + ` FROM conversations WHERE member_two_id = $1`

	rows, err := s.pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("list member conversations: %w", err)
	}
	return collect(rows, scanConversation, "conversation")
}

func (s *ConversationStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return deleteByIDs(ctx, s.pool, "conversations", ids)
}
