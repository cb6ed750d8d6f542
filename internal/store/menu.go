package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hope-foundation/apiserver/types"
)

// MenuRepository handles persistence for navigation entries.
type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

const menuColumns = `id, title, path, position, is_active`

func scanMenuItem(row interface{ Scan(...any) error }) (types.MenuItem, error) {
	var item types.MenuItem
	if err := row.Scan(&item.ID, &item.Title, &item.Path, &item.Order, &item.IsActive); err != nil {
		return types.MenuItem{}, err
	}
	return item, nil
}

func collectMenuItems(rows *sql.Rows) ([]types.MenuItem, error) {
	defer rows.Close()

	items := make([]types.MenuItem, 0)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// List returns every item ordered by position, then id.
func (r *MenuRepository) List(ctx context.Context) ([]types.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items ORDER BY position ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return collectMenuItems(rows)
}

func (r *MenuRepository) Get(ctx context.Context, id int) (types.MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`
	item, err := scanMenuItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MenuItem{}, ErrNotFound
		}
		return types.MenuItem{}, err
	}
	return item, nil
}

func (r *MenuRepository) Create(ctx context.Context, item types.MenuItem) (types.MenuItem, error) {
	const query = `
		INSERT INTO menu_items (title, path, position, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, item.Title, item.Path, item.Order, item.IsActive).Scan(&item.ID); err != nil {
		return types.MenuItem{}, err
	}
	return item, nil
}

func (r *MenuRepository) Update(ctx context.Context, item types.MenuItem) (types.MenuItem, error) {
	const query = `
		UPDATE menu_items
		SET title = $1,
			path = $2,
			position = $3,
			is_active = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, item.Title, item.Path, item.Order, item.IsActive, item.ID)
	if err != nil {
		return types.MenuItem{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.MenuItem{}, err
	}
	if affected == 0 {
		return types.MenuItem{}, ErrNotFound
	}
	return item, nil
}

func (r *MenuRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM menu_items WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyOrder locks every menu row, hands the current ordering to plan and
// writes back the positions plan returns (item id to new position). Rows
// missing from the result keep their position. The whole change commits
// or rolls back as one unit, and the reordered list is returned.
func (r *MenuRepository) ApplyOrder(
	ctx context.Context,
	plan func(items []types.MenuItem) (map[int]int, error),
) ([]types.MenuItem, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `SELECT `+menuColumns+` FROM menu_items ORDER BY position ASC, id ASC FOR UPDATE`)
	if err != nil {
		return nil, err
	}
	items, err := collectMenuItems(rows)
	if err != nil {
		return nil, err
	}

	positions, err := plan(items)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		position, ok := positions[item.ID]
		if !ok || position == item.Order {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE menu_items SET position = $1 WHERE id = $2`, position, item.ID); err != nil {
			return nil, fmt.Errorf("update position of menu item %d: %w", item.ID, err)
		}
	}

	rows, err = tx.QueryContext(ctx, `SELECT `+menuColumns+` FROM menu_items ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	reordered, err := collectMenuItems(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reordered, nil
}
