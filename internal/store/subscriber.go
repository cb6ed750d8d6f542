package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hope-foundation/apiserver/types"
)

// SubscriberRepository handles newsletter signups.
type SubscriberRepository struct {
	db *sql.DB
}

func NewSubscriberRepository(db *sql.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

// Upsert inserts email unless it is already subscribed. It returns the stored
// row and whether it was newly created. email is expected to be normalised.
func (r *SubscriberRepository) Upsert(ctx context.Context, email string) (types.Subscriber, bool, error) {
	const insert = `
		INSERT INTO subscribers (email, subscribed_at)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING
		RETURNING id, email, subscribed_at`
	var sub types.Subscriber
	err := r.db.QueryRowContext(ctx, insert, email, time.Now()).Scan(&sub.ID, &sub.Email, &sub.SubscribedAt)
	if err == nil {
		return sub, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.Subscriber{}, false, err
	}

	const existing = `SELECT id, email, subscribed_at FROM subscribers WHERE email = $1`
	if err := r.db.QueryRowContext(ctx, existing, email).Scan(&sub.ID, &sub.Email, &sub.SubscribedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Subscriber{}, false, ErrNotFound
		}
		return types.Subscriber{}, false, err
	}
	return sub, false, nil
}

func (r *SubscriberRepository) List(ctx context.Context, limit, offset int) ([]types.Subscriber, error) {
	const query = `
		SELECT id, email, subscribed_at
		FROM subscribers
		ORDER BY subscribed_at DESC, id DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := make([]types.Subscriber, 0)
	for rows.Next() {
		var sub types.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.SubscribedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *SubscriberRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM subscribers`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
