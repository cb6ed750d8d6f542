package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hope-foundation/apiserver/internal/content"
	"github.com/hope-foundation/apiserver/types"
)

// NewsRepository defines persistence operations for news posts.
type NewsRepository interface {
	List(ctx context.Context) ([]types.NewsPost, error)
	Get(ctx context.Context, id int) (types.NewsPost, error)
	Create(ctx context.Context, post types.NewsPost) (types.NewsPost, error)
	Update(ctx context.Context, post types.NewsPost) (types.NewsPost, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// NewsInput carries a news create or partial update.
type NewsInput struct {
	Title          *string `json:"title"`
	Content        *string `json:"content"`
	Category       *string `json:"category"`
	ImageURL       *string `json:"imageUrl"`
	AuthorName     *string `json:"authorName"`
	AuthorImageURL *string `json:"authorImageUrl"`
	// PublishedAt is only honoured on create; it defaults to now.
	PublishedAt *string `json:"publishedAt"`
}

// NewsService encapsulates news use-cases. Markdown content is rendered
// to sanitised HTML on every write.
type NewsService struct {
	repo   NewsRepository
	site   Invalidator
	images ImageReleaser
	log    *slog.Logger
}

func NewNewsService(repo NewsRepository, site Invalidator, images ImageReleaser, log *slog.Logger) *NewsService {
	if site == nil {
		site = noopInvalidator{}
	}
	if images == nil {
		images = noopReleaser{}
	}
	return &NewsService{repo: repo, site: site, images: images, log: log}
}

func (s *NewsService) List(ctx context.Context) ([]types.NewsPost, error) {
	return s.repo.List(ctx)
}

func (s *NewsService) Get(ctx context.Context, id int) (types.NewsPost, error) {
	return s.repo.Get(ctx, id)
}

func checkCategory(category string) error {
	if !types.IsNewsCategory(category) {
		return invalid("category", "must be one of "+strings.Join(types.NewsCategories, ", "))
	}
	return nil
}

func (s *NewsService) Create(ctx context.Context, in NewsInput) (types.NewsPost, error) {
	title, ok := trimmed(in.Title)
	if !ok {
		return types.NewsPost{}, invalid("title", "is required")
	}
	body, ok := trimmed(in.Content)
	if !ok {
		return types.NewsPost{}, invalid("content", "is required")
	}
	category, ok := trimmed(in.Category)
	if !ok {
		return types.NewsPost{}, invalid("category", "is required")
	}
	if err := checkCategory(category); err != nil {
		return types.NewsPost{}, err
	}
	author, ok := trimmed(in.AuthorName)
	if !ok {
		return types.NewsPost{}, invalid("authorName", "is required")
	}

	post := types.NewsPost{
		Title:      title,
		Content:    body,
		Category:   category,
		AuthorName: author,
	}
	if raw, ok := trimmed(in.PublishedAt); ok {
		publishedAt, err := parseDate("publishedAt", raw)
		if err != nil {
			return types.NewsPost{}, err
		}
		post.PublishedAt = publishedAt
	}
	if in.ImageURL != nil {
		post.ImageURL = optionalURL(*in.ImageURL)
	}
	if in.AuthorImageURL != nil {
		post.AuthorImageURL = optionalURL(*in.AuthorImageURL)
	}

	html, err := content.RenderMarkdown(post.Content)
	if err != nil {
		return types.NewsPost{}, fmt.Errorf("render news content: %w", err)
	}
	post.ContentHTML = html

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		return types.NewsPost{}, err
	}
	s.site.Invalidate(ctx, CollectionNews)
	return created, nil
}

func (s *NewsService) Update(ctx context.Context, id int, in NewsInput) (types.NewsPost, error) {
	category, hasCategory := trimmed(in.Category)
	if hasCategory {
		if err := checkCategory(category); err != nil {
			return types.NewsPost{}, err
		}
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.NewsPost{}, err
	}

	updated := current
	if v, ok := trimmed(in.Title); ok {
		updated.Title = v
	}
	if v, ok := trimmed(in.Content); ok {
		updated.Content = v
	}
	if hasCategory {
		updated.Category = category
	}
	if v, ok := trimmed(in.AuthorName); ok {
		updated.AuthorName = v
	}
	if in.ImageURL != nil {
		updated.ImageURL = optionalURL(*in.ImageURL)
	}
	if in.AuthorImageURL != nil {
		updated.AuthorImageURL = optionalURL(*in.AuthorImageURL)
	}

	html, err := content.RenderMarkdown(updated.Content)
	if err != nil {
		return types.NewsPost{}, fmt.Errorf("render news content: %w", err)
	}
	updated.ContentHTML = html

	saved, err := s.repo.Update(ctx, updated)
	if err != nil {
		return types.NewsPost{}, err
	}
	if current.ImageURL != nil && !sameURL(current.ImageURL, saved.ImageURL) {
		s.images.Release(ctx, *current.ImageURL)
	}
	if current.AuthorImageURL != nil && !sameURL(current.AuthorImageURL, saved.AuthorImageURL) {
		s.images.Release(ctx, *current.AuthorImageURL)
	}
	s.site.Invalidate(ctx, CollectionNews)
	return saved, nil
}

func (s *NewsService) Delete(ctx context.Context, id int) error {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if current.ImageURL != nil {
		s.images.Release(ctx, *current.ImageURL)
	}
	if current.AuthorImageURL != nil {
		s.images.Release(ctx, *current.AuthorImageURL)
	}
	s.site.Invalidate(ctx, CollectionNews)
	return nil
}
