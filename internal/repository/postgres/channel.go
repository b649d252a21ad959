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

type ChannelStore struct {
	pool *pgxpool.Pool
}

func NewChannelStore(pool *pgxpool.Pool) *ChannelStore {
	return &ChannelStore{pool: pool}
}

const channelColumns = `id, workspace_id, name, created_at`

func scanChannel(row pgx.Row) (*models.Channel, error) {
	var ch models.Channel
	if err := row.Scan(&ch.ID, &ch.WorkspaceID, &ch.Name, &ch.CreatedAt); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *ChannelStore) Create(ctx context.Context, workspaceID uuid.UUID, name string) (*models.Channel, error) {
	query := `
		INSERT INTO channels (workspace_id, name, created_at)
		VALUES ($1, $2, clock_timestamp())
		RETURNING ` + channelColumns

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, workspaceID, name))
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM channels WHERE id = $1`

	ch, err := scanChannel(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return ch, nil
}

func (s *ChannelStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Channel, error) {
	query := `
		SELECT ` + channelColumns + `
		FROM channels
		WHERE workspace_id = $1
		ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return collect(rows, scanChannel, "channel")
}

func (s *ChannelStore) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	if _, err := s.pool.Exec(ctx, `UPDATE channels SET name = $2 WHERE id = $1`, id, name); err != nil {
		return fmt.Errorf("update channel name: %w", err)
	}
	return nil
}

func (s *ChannelStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return deleteByIDs(ctx, s.pool, "channels", ids)
}
