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

type WorkspaceStore struct {
	pool *pgxpool.Pool
}

func NewWorkspaceStore(pool *pgxpool.Pool) *WorkspaceStore {
	return &WorkspaceStore{pool: pool}
}

const workspaceColumns = `id, name, owner_id, join_code, created_at`

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var w models.Workspace
	if err := row.Scan(&w.ID, &w.Name, &w.OwnerID, &w.JoinCode, &w.CreatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *WorkspaceStore) Create(ctx context.Context, name string, ownerID uuid.UUID, joinCode string) (*models.Workspace, error) {
	query := `
		INSERT INTO workspaces (name, owner_id, join_code, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING ` + workspaceColumns

	w, err := scanWorkspace(s.pool.QueryRow(ctx, query, name, ownerID, joinCode))
	if err != nil {
		return nil, fmt.Errorf("insert workspace: %w", err)
	}
	return w, nil
}

func (s *WorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	query := `SELECT ` + workspaceColumns + ` FROM workspaces WHERE id = $1`

	w, err := scanWorkspace(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return w, nil
}

func (s *WorkspaceStore) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Workspace, error) {
	if len(ids) == 0 {
		return make([]models.Workspace, 0), nil
	}

	query := `
		SELECT ` + workspaceColumns + `
		FROM workspaces
		WHERE id = ANY($1)
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	return collect(rows, scanWorkspace, "workspace")
}

func (s *WorkspaceStore) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	if _, err := s.pool.Exec(ctx, `UPDATE workspaces SET name = $2 WHERE id = $1`, id, name); err != nil {
		return fmt.Errorf("update workspace name: %w", err)
	}
	return nil
}

func (s *WorkspaceStore) UpdateJoinCode(ctx context.Context, id uuid.UUID, joinCode string) error {
	if _, err := s.pool.Exec(ctx, `UPDATE workspaces SET join_code = $2 WHERE id = $1`, id, joinCode); err != nil {
		return fmt.Errorf("update join code: %w", err)
	}
	return nil
}

func (s *WorkspaceStore) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete workspace: %w", err)
	}
	return tag.RowsAffected(), nil
}
