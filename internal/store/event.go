package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hope-foundation/apiserver/types"
)

// EventRepository handles persistence for events.
type EventRepository struct {
	db *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `id, title, description, date, location, image_url, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (types.Event, error) {
	var event types.Event
	var imageURL sql.NullString
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.Date,
		&event.Location,
		&imageURL,
		&event.CreatedAt,
		&event.UpdatedAt,
	); err != nil {
		return types.Event{}, err
	}
	event.ImageURL = stringPtr(imageURL)
	return event, nil
}

func (r *EventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]types.Event, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]types.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// List returns every event, newest date first.
func (r *EventRepository) List(ctx context.Context) ([]types.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events ORDER BY date DESC, id DESC`
	return r.queryEvents(ctx, query)
}

// ListUpcoming returns events on or after from, soonest first.
func (r *EventRepository) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]types.Event, error) {
	if limit < 1 {
		limit = 20
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE date >= $1 ORDER BY date ASC, id ASC LIMIT $2`
	return r.queryEvents(ctx, query, from, limit)
}

func (r *EventRepository) Get(ctx context.Context, id int) (types.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	event, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Event{}, ErrNotFound
		}
		return types.Event{}, err
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, event types.Event) (types.Event, error) {
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	const query = `
		INSERT INTO events (title, description, date, location, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Date,
		event.Location,
		nullString(event.ImageURL),
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.ID); err != nil {
		return types.Event{}, err
	}

	return event, nil
}

func (r *EventRepository) Update(ctx context.Context, event types.Event) (types.Event, error) {
	event.UpdatedAt = time.Now()

	const query = `
		UPDATE events
		SET title = $1,
			description = $2,
			date = $3,
			location = $4,
			image_url = $5,
			updated_at = $6
		WHERE id = $7`
	result, err := r.db.ExecContext(
		ctx,
		query,
		event.Title,
		event.Description,
		event.Date,
		event.Location,
		nullString(event.ImageURL),
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return types.Event{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Event{}, err
	}
	if affected == 0 {
		return types.Event{}, ErrNotFound
	}

	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM events WHERE id = $1`
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

func (r *EventRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM events`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
