package store

import (
	"context"
	"database/sql"
	"fmt"
)

// AdminRepository handles the admins table, the primary source of admin status.
type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) IsAdmin(ctx context.Context, userID int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Grant records userID as an admin. Granting twice is not an error.
func (r *AdminRepository) Grant(ctx context.Context, userID int, grantedBy *int) error {
	const query = `
		INSERT INTO admins (user_id, granted_by)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`
	var by sql.NullInt64
	if grantedBy != nil {
		by = sql.NullInt64{Int64: int64(*grantedBy), Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, userID, by); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *AdminRepository) Revoke(ctx context.Context, userID int) error {
	const query = `DELETE FROM admins WHERE user_id = $1`
	result, err := r.db.ExecContext(ctx, query, userID)
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

// GrantIfNone makes userID the first admin. It returns false once setup has
// completed, or when an admin already exists through either the admins table
// or the legacy users.is_admin flag. Setup completion is recorded in
// setup_state, so revoking every admin later does not reopen it. The table
// lock serialises concurrent callers so at most one of them can win.
func (r *AdminRepository) GrantIfNone(ctx context.Context, userID int) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `LOCK TABLE admins IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return false, fmt.Errorf("lock admins: %w", err)
	}

	const closed = `
		SELECT EXISTS (SELECT 1 FROM setup_state)
			OR EXISTS (SELECT 1 FROM admins)
			OR EXISTS (SELECT 1 FROM users WHERE is_admin)`
	var exists bool
	if err := tx.QueryRowContext(ctx, closed).Scan(&exists); err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO admins (user_id) VALUES ($1)`, userID); err != nil {
		return false, mapError(err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO setup_state (id) VALUES (TRUE) ON CONFLICT (id) DO NOTHING`); err != nil {
		return false, fmt.Errorf("mark setup complete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
