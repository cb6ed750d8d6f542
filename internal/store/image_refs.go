package store

import (
	"context"
	"database/sql"
)

// ImageRefRepository answers whether an uploaded image is still linked from
// site content.
type ImageRefRepository struct {
	db *sql.DB
}

func NewImageRefRepository(db *sql.DB) *ImageRefRepository {
	return &ImageRefRepository{db: db}
}

// InUse reports whether any event or news post (cover or author headshot)
// points at url.
func (r *ImageRefRepository) InUse(ctx context.Context, url string) (bool, error) {
	const query = `
		SELECT EXISTS (SELECT 1 FROM events WHERE image_url = $1)
			OR EXISTS (SELECT 1 FROM news_posts WHERE image_url = $1 OR author_image_url = $1)`
	var inUse bool
	if err := r.db.QueryRowContext(ctx, query, url).Scan(&inUse); err != nil {
		return false, err
	}
	return inUse, nil
}
