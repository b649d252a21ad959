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

type MemberStore struct {
	pool *pgxpool.Pool
}

func NewMemberStore(pool *pgxpool.Pool) *MemberStore {
	return &MemberStore{pool: pool}
}

const memberColumns = `id, principal_id, workspace_id, role, created_at`

func scanMember(row pgx.Row) (*models.Member, error) {
	var m models.Member
	var role string
	if err := row.Scan(&m.ID, &m.PrincipalID, &m.WorkspaceID, &role, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	return &m, nil
}

func (s *MemberStore) Create(ctx context.Context, workspaceID, principalID uuid.UUID, role models.Role) (*models.Member, error) {
	query := `
		INSERT INTO members (principal_id, workspace_id, role, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING ` + memberColumns

	m, err := scanMember(s.pool.QueryRow(ctx, query, principalID, workspaceID, string(role)))
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	m, err := scanMember(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Member, error) {
	members := make(map[uuid.UUID]models.Member, len(ids))
	if len(ids) == 0 {
		return members, nil
	}

	rows, err := s.pool.Query(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("get members: %w", err)
	}
	list, err := collect(rows, scanMember, "member")
	if err != nil {
		return nil, err
	}
	for _, m := range list {
		members[m.ID] = m
	}
	return members, nil
}

func (s *MemberStore) GetByWorkspaceAndPrincipal(ctx context.Context, workspaceID, principalID uuid.UUID) (*models.Member, error) {
	// LIMIT 1: uniqueness is an application invariant, so a duplicate that
	// slipped in must not turn every lookup into an error.
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE workspace_id = $1 AND principal_id = $2
		ORDER BY created_at
		LIMIT 1`

	m, err := scanMember(s.pool.QueryRow(ctx, query, workspaceID, principalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE workspace_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return collect(rows, scanMember, "member")
}

func (s *MemberStore) ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]models.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE principal_id = $1
		ORDER BY created_at`

	rows, err := s.pool.Query(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	return collect(rows, scanMember, "member")
}

func (s *MemberStore) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	if _, err := s.pool.Exec(ctx, `UPDATE members SET role = $2 WHERE id = $1`, id, string(role)); err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	return nil
}

func (s *MemberStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	return deleteByIDs(ctx, s.pool, "members", ids)
}
