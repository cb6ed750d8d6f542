package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
)

// MenuRepository defines persistence operations for navigation items.
type MenuRepository interface {
	List(ctx context.Context) ([]types.MenuItem, error)
	Get(ctx context.Context, id int) (types.MenuItem, error)
	Create(ctx context.Context, item types.MenuItem) (types.MenuItem, error)
	Update(ctx context.Context, item types.MenuItem) (types.MenuItem, error)
	Delete(ctx context.Context, id int) error
	ApplyOrder(ctx context.Context, plan func(items []types.MenuItem) (map[int]int, error)) ([]types.MenuItem, error)
}

// Move directions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// MenuInput carries a menu item create or partial update. Order may be 0
// but must be present on create.
type MenuInput struct {
	Title    *string `json:"title"`
	Path     *string `json:"path"`
	Order    *int    `json:"order"`
	IsActive *bool   `json:"isActive"`
}

// MenuService encapsulates navigation menu use-cases.
type MenuService struct {
	repo MenuRepository
	site Invalidator
	log  *slog.Logger
}

func NewMenuService(repo MenuRepository, site Invalidator, log *slog.Logger) *MenuService {
	if site == nil {
		site = noopInvalidator{}
	}
	return &MenuService{repo: repo, site: site, log: log}
}

// List returns every item ordered by position, then id.
func (s *MenuService) List(ctx context.Context) ([]types.MenuItem, error) {
	return s.repo.List(ctx)
}

func (s *MenuService) Get(ctx context.Context, id int) (types.MenuItem, error) {
	return s.repo.Get(ctx, id)
}

func (s *MenuService) Create(ctx context.Context, in MenuInput) (types.MenuItem, error) {
	title, ok := trimmed(in.Title)
	if !ok {
		return types.MenuItem{}, invalid("title", "is required")
	}
	path, ok := trimmed(in.Path)
	if !ok {
		return types.MenuItem{}, invalid("path", "is required")
	}
	if in.Order == nil {
		return types.MenuItem{}, invalid("order", "is required")
	}

	item := types.MenuItem{
		Title:    title,
		Path:     path,
		Order:    *in.Order,
		IsActive: true,
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}

	created, err := s.repo.Create(ctx, item)
	if err != nil {
		return types.MenuItem{}, err
	}
	s.site.Invalidate(ctx, CollectionMenu)
	return created, nil
}

func (s *MenuService) Update(ctx context.Context, id int, in MenuInput) (types.MenuItem, error) {
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.MenuItem{}, err
	}
	if v, ok := trimmed(in.Title); ok {
		item.Title = v
	}
	if v, ok := trimmed(in.Path); ok {
		item.Path = v
	}
	if in.Order != nil {
		item.Order = *in.Order
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}

	saved, err := s.repo.Update(ctx, item)
	if err != nil {
		return types.MenuItem{}, err
	}
	s.site.Invalidate(ctx, CollectionMenu)
	return saved, nil
}

func (s *MenuService) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.site.Invalidate(ctx, CollectionMenu)
	return nil
}

// Move swaps item id with its neighbour in direction. At either end of the
// list the order is left as it is.
func (s *MenuService) Move(ctx context.Context, id int, direction string) ([]types.MenuItem, error) {
	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction != DirectionUp && direction != DirectionDown {
		return nil, invalid("direction", `must be "up" or "down"`)
	}

	items, err := s.repo.ApplyOrder(ctx, func(items []types.MenuItem) (map[int]int, error) {
		return planMove(items, id, direction)
	})
	if err != nil {
		return nil, err
	}
	s.site.Invalidate(ctx, CollectionMenu)
	return items, nil
}

// SetOrder renumbers the items 1..n in the order of ids, which must name
// every existing item exactly once.
func (s *MenuService) SetOrder(ctx context.Context, ids []int) ([]types.MenuItem, error) {
	items, err := s.repo.ApplyOrder(ctx, func(items []types.MenuItem) (map[int]int, error) {
		return planRenumber(items, ids)
	})
	if err != nil {
		return nil, err
	}
	s.site.Invalidate(ctx, CollectionMenu)
	return items, nil
}

// planMove computes the new positions for moving id one step. items must be
// sorted by position, then id. When the neighbours share a position the
// whole list is renumbered 1..n first so the swap is observable.
func planMove(items []types.MenuItem, id int, direction string) (map[int]int, error) {
	index := -1
	for i, item := range items {
		if item.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, fmt.Errorf("menu item %d: %w", id, store.ErrNotFound)
	}

	neighbour := index - 1
	if direction == DirectionDown {
		neighbour = index + 1
	}
	if neighbour < 0 || neighbour >= len(items) {
		return map[int]int{}, nil
	}

	positions := make(map[int]int, len(items))
	for _, item := range items {
		positions[item.ID] = item.Order
	}
	if hasDuplicatePositions(items) {
		for i, item := range items {
			positions[item.ID] = i + 1
		}
	}

	a, b := items[index].ID, items[neighbour].ID
	positions[a], positions[b] = positions[b], positions[a]
	return positions, nil
}

func planRenumber(items []types.MenuItem, ids []int) (map[int]int, error) {
	if len(ids) != len(items) {
		return nil, invalid("ids", "must list every menu item exactly once")
	}
	known := make(map[int]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}

	positions := make(map[int]int, len(ids))
	for i, id := range ids {
		if !known[id] {
			return nil, invalid("ids", fmt.Sprintf("unknown menu item %d", id))
		}
		if _, dup := positions[id]; dup {
			return nil, invalid("ids", fmt.Sprintf("menu item %d listed twice", id))
		}
		positions[id] = i + 1
	}
	return positions, nil
}

func hasDuplicatePositions(items []types.MenuItem) bool {
	seen := make(map[int]bool, len(items))
	for _, item := range items {
		if seen[item.Order] {
			return true
		}
		seen[item.Order] = true
	}
	return false
}
