package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hope-foundation/apiserver/types"
)

// NewsRepository handles persistence for news posts.
type NewsRepository struct {
	db *sql.DB
}

func NewNewsRepository(db *sql.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

const newsColumns = `id, title, content, content_html, category, image_url, author_name, author_image_url, published_at, updated_at`

func scanNewsPost(row interface{ Scan(...any) error }) (types.NewsPost, error) {
	var post types.NewsPost
	var imageURL, authorImageURL sql.NullString
	if err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.ContentHTML,
		&post.Category,
		&imageURL,
		&post.AuthorName,
		&authorImageURL,
		&post.PublishedAt,
		&post.UpdatedAt,
	); err != nil {
		return types.NewsPost{}, err
	}
	post.ImageURL = stringPtr(imageURL)
	post.AuthorImageURL = stringPtr(authorImageURL)
	return post, nil
}

// List returns every post, most recently published first.
func (r *NewsRepository) List(ctx context.Context) ([]types.NewsPost, error) {
	query := `SELECT ` + newsColumns + ` FROM news_posts ORDER BY published_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]types.NewsPost, 0)
	for rows.Next() {
		post, err := scanNewsPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *NewsRepository) Get(ctx context.Context, id int) (types.NewsPost, error) {
	query := `SELECT ` + newsColumns + ` FROM news_posts WHERE id = $1`
	post, err := scanNewsPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.NewsPost{}, ErrNotFound
		}
		return types.NewsPost{}, err
	}
	return post, nil
}

func (r *NewsRepository) Create(ctx context.Context, post types.NewsPost) (types.NewsPost, error) {
	now := time.Now()
	if post.PublishedAt.IsZero() {
		post.PublishedAt = now
	}
	post.UpdatedAt = now

	const query = `
		INSERT INTO news_posts (title, content, content_html, category, image_url, author_name, author_image_url, published_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		post.Title,
		post.Content,
		post.ContentHTML,
		post.Category,
		nullString(post.ImageURL),
		post.AuthorName,
		nullString(post.AuthorImageURL),
		post.PublishedAt,
		post.UpdatedAt,
	).Scan(&post.ID); err != nil {
		return types.NewsPost{}, err
	}
	return post, nil
}

func (r *NewsRepository) Update(ctx context.Context, post types.NewsPost) (types.NewsPost, error) {
	post.UpdatedAt = time.Now()

	const query = `
		UPDATE news_posts
		SET title = $1,
			content = $2,
			content_html = $3,
			category = $4,
			image_url = $5,
			author_name = $6,
			author_image_url = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		post.Title,
		post.Content,
		post.ContentHTML,
		post.Category,
		nullString(post.ImageURL),
		post.AuthorName,
		nullString(post.AuthorImageURL),
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return types.NewsPost{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.NewsPost{}, err
	}
	if affected == 0 {
		return types.NewsPost{}, ErrNotFound
	}
	return post, nil
}

func (r *NewsRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM news_posts WHERE id = $1`
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

func (r *NewsRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM news_posts`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
