package services

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sortedMenu(items []types.MenuItem) []types.MenuItem {
	out := make([]types.MenuItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func menuIDs(items []types.MenuItem) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func defaultMenuItems() []types.MenuItem {
	return []types.MenuItem{
		{ID: 1, Title: "Home", Path: "/", Order: 1, IsActive: true},
		{ID: 2, Title: "About", Path: "/about", Order: 2, IsActive: true},
		{ID: 3, Title: "Events", Path: "/events", Order: 3, IsActive: true},
		{ID: 4, Title: "News", Path: "/news", Order: 4, IsActive: true},
		{ID: 5, Title: "Contact", Path: "/contact", Order: 5, IsActive: true},
	}
}

func newMemoryMenuService(items []types.MenuItem) (*MenuService, *memoryMenu) {
	repo := &memoryMenu{items: items}
	return NewMenuService(repo, nil, newNoopLogger()), repo
}

func TestMenuService_Move(t *testing.T) {
	tests := []struct {
		name      string
		items     []types.MenuItem
		id        int
		direction string
		wantIDs   []int
	}{
		{name: "up", items: defaultMenuItems(), id: 3, direction: DirectionUp, wantIDs: []int{1, 3, 2, 4, 5}},
		{name: "down", items: defaultMenuItems(), id: 3, direction: DirectionDown, wantIDs: []int{1, 2, 4, 3, 5}},
		{name: "first up is a no-op", items: defaultMenuItems(), id: 1, direction: DirectionUp, wantIDs: []int{1, 2, 3, 4, 5}},
		{name: "last down is a no-op", items: defaultMenuItems(), id: 5, direction: DirectionDown, wantIDs: []int{1, 2, 3, 4, 5}},
		{
			name: "tied positions are renumbered",
			items: []types.MenuItem{
				{ID: 1, Order: 0},
				{ID: 2, Order: 0},
				{ID: 3, Order: 0},
			},
			id:        2,
			direction: DirectionUp,
			wantIDs:   []int{2, 1, 3},
		},
		{
			name: "gaps are kept",
			items: []types.MenuItem{
				{ID: 1, Order: 10},
				{ID: 2, Order: 20},
				{ID: 3, Order: 30},
			},
			id:        3,
			direction: DirectionUp,
			wantIDs:   []int{1, 3, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newMemoryMenuService(tt.items)

			got, err := svc.Move(context.Background(), tt.id, tt.direction)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, menuIDs(got))
			assert.Equal(t, tt.wantIDs, menuIDs(sortedMenu(repo.items)))
		})
	}
}

func TestMenuService_MoveDistinctPositions(t *testing.T) {
	svc, _ := newMemoryMenuService([]types.MenuItem{{ID: 1, Order: 0}, {ID: 2, Order: 0}})

	got, err := svc.Move(context.Background(), 1, DirectionDown)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].Order, got[1].Order)
	assert.Equal(t, []int{2, 1}, menuIDs(got))
}

func TestMenuService_MoveErrors(t *testing.T) {
	svc, repo := newMemoryMenuService(defaultMenuItems())

	_, err := svc.Move(context.Background(), 3, "sideways")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.Move(context.Background(), 42, DirectionUp)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, menuIDs(sortedMenu(repo.items)))
}

func TestMenuService_SetOrder(t *testing.T) {
	t.Run("renumbers in sequence", func(t *testing.T) {
		svc, _ := newMemoryMenuService(defaultMenuItems())

		got, err := svc.SetOrder(context.Background(), []int{5, 4, 3, 2, 1})
		require.NoError(t, err)
		assert.Equal(t, []int{5, 4, 3, 2, 1}, menuIDs(got))
		for i, item := range got {
			assert.Equal(t, i+1, item.Order)
		}
	})

	for name, ids := range map[string][]int{
		"missing item":   {1, 2, 3, 4},
		"unknown item":   {1, 2, 3, 4, 9},
		"duplicate item": {1, 2, 3, 4, 4},
	} {
		t.Run(name, func(t *testing.T) {
			svc, repo := newMemoryMenuService(defaultMenuItems())

			_, err := svc.SetOrder(context.Background(), ids)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, []int{1, 2, 3, 4, 5}, menuIDs(sortedMenu(repo.items)))
		})
	}
}

func TestMenuService_ReorderInvalidatesCache(t *testing.T) {
	repo := new(MenuRepoMock)
	site := new(InvalidatorMock)
	svc := NewMenuService(repo, site, newNoopLogger())

	repo.On("ApplyOrder", mock.Anything, mock.Anything).Return(defaultMenuItems(), nil).Once()
	site.On("Invalidate", mock.Anything, CollectionMenu).Once()

	_, err := svc.Move(context.Background(), 2, DirectionUp)
	require.NoError(t, err)
	site.AssertExpectations(t)
}

func TestMenuService_ReorderFailureLeavesCache(t *testing.T) {
	repo := new(MenuRepoMock)
	site := new(InvalidatorMock)
	svc := NewMenuService(repo, site, newNoopLogger())

	repo.On("ApplyOrder", mock.Anything, mock.Anything).Return(nil, errors.New("tx aborted")).Once()

	_, err := svc.SetOrder(context.Background(), []int{1})
	require.Error(t, err)
	site.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestMenuService_Create(t *testing.T) {
	repo := new(MenuRepoMock)
	svc := NewMenuService(repo, nil, newNoopLogger())

	_, err := svc.Create(context.Background(), MenuInput{Title: strPtr("Donate"), Path: strPtr("/donate")})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "order", verr.Field)

	repo.On("Create", mock.Anything, types.MenuItem{Title: "Donate", Path: "/donate", Order: 0, IsActive: true}).
		Return(types.MenuItem{ID: 6, Title: "Donate", Path: "/donate", IsActive: true}, nil).Once()

	item, err := svc.Create(context.Background(), MenuInput{Title: strPtr("Donate"), Path: strPtr("/donate"), Order: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 6, item.ID)
	repo.AssertExpectations(t)
}
