package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// deleteByIDs removes every row of table whose id is in ids. table is
// always a package constant, never caller input.
func deleteByIDs(ctx context.Context, pool *pgxpool.Pool, table string, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// collect drains rows through scan. The result is never nil so handlers
// serialize an empty list as [].
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error), what string) ([]T, error) {
	defer rows.Close()

	items := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", what, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", what, err)
	}
	return items, nil
}
