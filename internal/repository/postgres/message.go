package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manideeprkummitha/team-collab/internal/models"
	"github.com/manideeprkummitha/team-collab/internal/repository"
)

type MessageStore struct {
	pool *pgxpool.Pool
}

func NewMessageStore(pool *pgxpool.Pool) *MessageStore {
	return &MessageStore{pool: pool}
}

const messageColumns = `id, workspace_id, member_id, body, image, channel_id, conversation_id, parent_message_id, created_at, updated_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var m models.Message
	err := row.Scan(
		&m.ID,
		&m.WorkspaceID,
		&m.MemberID,
		&m.Body,
		&m.Image,
		&m.ChannelID,
		&m.ConversationID,
		&m.ParentMessageID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create lets Postgres stamp created_at with clock_timestamp() so two
// messages inserted in one transaction still order deterministically.
func (s *MessageStore) Create(ctx context.Context, msg *models.Message) (*models.Message, error) {
	query := `
		INSERT INTO messages (workspace_id, member_id, body, image, channel_id, conversation_id, parent_message_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, clock_timestamp())
		RETURNING ` + messageColumns

	saved, err := scanMessage(s.pool.QueryRow(ctx, query,
		msg.WorkspaceID,
		msg.MemberID,
		msg.Body,
		msg.Image,
		msg.ChannelID,
		msg.ConversationID,
		msg.ParentMessageID,
	))
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return saved, nil
}

func (s *MessageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	m, err := scanMessage(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

// List pages one scope with a keyset on (created_at, id). Both columns
// are compared as a row value so ties on created_at never skip or repeat
// a message across pages.
func (s *MessageStore) List(ctx context.Context, scope repository.MessageScope, after *repository.Cursor, limit int) ([]models.Message, error) {
	var where string
	var args []any

	switch {
	case scope.ParentMessageID != nil:
		where = `parent_message_id = $1`
		args = append(args, *scope.ParentMessageID)
	case scope.ChannelID != nil:
		where = `channel_id = $1 AND parent_message_id IS NULL`
		args = append(args, *scope.ChannelID)
	case scope.ConversationID != nil:
		where = `conversation_id = $1 AND parent_message_id IS NULL`
		args = append(args, *scope.ConversationID)
	default:
		return nil, fmt.Errorf("list messages: empty scope")
	}

	if after != nil {
		where += ` AND (created_at, id) < ($2, $3)`
		args = append(args, after.CreatedAt, after.ID)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT %s
		FROM messages
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d`, messageColumns, where, len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return collect(rows, scanMessage, "message")
}

func (s *MessageStore) listWhere(ctx context.Context, where string, arg any) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+messageColumns+` FROM messages WHERE `+where, arg)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return collect(rows, scanMessage, "message")
}

func (s *MessageStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Message, error) {
	return s.listWhere(ctx, `workspace_id = $1`, workspaceID)
}

func (s *MessageStore) ListByMember(ctx context.Context, memberID uuid.UUID) ([]models.Message, error) {
	return s.listWhere(ctx, `member_id = $1`, memberID)
}

func (s *MessageStore) ListByChannel(ctx context.Context, channelID uuid.UUID) ([]models.Message, error) {
	return s.listWhere(ctx, `channel_id = $1`, channelID)
}

func (s *MessageStore) ListByConversations(ctx context.Context, conversationIDs []uuid.UUID) ([]models.Message, error) {
	if len(conversationIDs) == 0 {
		return make([]models.Message, 0), nil
	}
	return s.listWhere(ctx, `conversation_id = ANY($1)`, conversationIDs)
}

func (s *MessageStore) ListByParents(ctx context.Context, parentIDs []uuid.UUID) ([]models.Message, error) {
	if len(parentIDs) == 0 {
		return make([]models.Message, 0), nil
	}
	return s.listWhere(ctx, `parent_message_id = ANY($1)`, parentIDs)
}

// ThreadStats answers the reply count and the newest reply of every parent
// in one round trip: a grouped count joined to a DISTINCT ON pick of the
// latest row per parent.
func (s *MessageStore) ThreadStats(ctx context.Context, parentIDs []uuid.UUID) (map[uuid.UUID]repository.ThreadStat, error) {
	stats := make(map[uuid.UUID]repository.ThreadStat, len(parentIDs))
	if len(parentIDs) == 0 {
		return stats, nil
	}

	query := `
		SELECT DISTINCT ON (m.parent_message_id)
			m.id, m.workspace_id, m.member_id, m.body, m.image, m.channel_id,
			m.conversation_id, m.parent_message_id, m.created_at, m.updated_at,
			c.replies
		FROM messages m
		JOIN (
			SELECT parent_message_id, count(*) AS replies
			FROM messages
			WHERE parent_message_id = ANY($1)
			GROUP BY parent_message_id
		) c ON c.parent_message_id = m.parent_message_id
		ORDER BY m.parent_message_id, m.created_at DESC, m.id DESC`

	rows, err := s.pool.Query(ctx, query, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("thread stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Message
		var replies int64
		if err := rows.Scan(
			&m.ID,
			&m.WorkspaceID,
			&m.MemberID,
			&m.Body,
			&m.Image,
			&m.ChannelID,
			&m.ConversationID,
			&m.ParentMessageID,
			&m.CreatedAt,
			&m.UpdatedAt,
			&replies,
		); err != nil {
			return nil, fmt.Errorf("scan thread stat: %w", err)
		}
		stats[*m.ParentMessageID] = repository.ThreadStat{Count: int(replies), LastReply: m}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate thread stats: %w", err)
	}
	return stats, nil
}

func (s *MessageStore) UpdateBody(ctx context.Context, id uuid.UUID, body string, updatedAt time.Time) error {
	if _, err := s.pool.Exec(ctx, `UPDATE messages SET body = $2, updated_at = $3 WHERE id = $1`, id, body, updatedAt); err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

func (s *MessageStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return deleteByIDs(ctx, s.pool, "messages", ids)
}
