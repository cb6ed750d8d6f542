package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hope-foundation/apiserver/internal/metrics"
	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var siteNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newSiteService(events *EventRepoMock, news *NewsRepoMock, menu *MenuRepoMock, c *memoryCache) (*SiteService, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	var svc *SiteService
	if c == nil {
		svc = NewSiteService(events, news, menu, nil, 0, m, newNoopLogger())
	} else {
		svc = NewSiteService(events, news, menu, c, time.Minute, m, newNoopLogger())
	}
	svc.now = func() time.Time { return siteNow }
	return svc, m
}

func TestSiteService_EventsPlaceholderWhenEmpty(t *testing.T) {
	events := new(EventRepoMock)
	events.On("ListUpcoming", mock.Anything, siteNow, DefaultUpcomingLimit).Return([]types.Event{}, nil).Once()
	svc, m := newSiteService(events, nil, nil, nil)

	got := svc.Events(context.Background(), 0)
	require.True(t, got.Placeholder)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "Community Garden Cleanup", got.Items[0].Title)
	assert.Equal(t, siteNow.Add(7*day), got.Items[0].Date)
	assert.Equal(t, siteNow.Add(14*day), got.Items[1].Date)
	assert.Equal(t, siteNow.Add(28*day), got.Items[2].Date)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlaceholderServed.WithLabelValues(CollectionEvents)))
}

func TestSiteService_EventsPlaceholderOnError(t *testing.T) {
	events := new(EventRepoMock)
	events.On("ListUpcoming", mock.Anything, siteNow, 2).Return(nil, errors.New("db down")).Once()
	svc, _ := newSiteService(events, nil, nil, nil)

	got := svc.Events(context.Background(), 2)
	assert.True(t, got.Placeholder)
	assert.Len(t, got.Items, 2)
}

func TestSiteService_EventsFromStoreAreCached(t *testing.T) {
	events := new(EventRepoMock)
	stored := []types.Event{{ID: 9, Title: "Fundraiser", Date: siteNow.Add(48 * time.Hour)}}
	events.On("ListUpcoming", mock.Anything, siteNow, 5).Return(stored, nil).Once()
	c := newMemoryCache()
	svc, _ := newSiteService(events, nil, nil, c)

	first := svc.Events(context.Background(), 5)
	second := svc.Events(context.Background(), 5)
	assert.False(t, first.Placeholder)
	assert.Equal(t, 9, second.Items[0].ID)
	events.AssertNumberOfCalls(t, "ListUpcoming", 1)

	svc.Invalidate(context.Background(), CollectionEvents)
	events.On("ListUpcoming", mock.Anything, siteNow, 5).Return(stored, nil).Once()
	svc.Events(context.Background(), 5)
	events.AssertNumberOfCalls(t, "ListUpcoming", 2)
}

func TestSiteService_AllEventsAscendingWithPast(t *testing.T) {
	events := new(EventRepoMock)
	events.On("List", mock.Anything).Return([]types.Event{
		{ID: 4, Title: "Gala", Date: siteNow.Add(30 * day)},
		{ID: 2, Title: "Bake sale", Date: siteNow.Add(-10 * day)},
		{ID: 7, Title: "Walkathon", Date: siteNow.Add(2 * day)},
	}, nil).Once()
	svc, _ := newSiteService(events, nil, nil, newMemoryCache())

	got := svc.AllEvents(context.Background())
	require.False(t, got.Placeholder)
	require.Len(t, got.Items, 3)
	assert.Equal(t, []int{2, 7, 4}, []int{got.Items[0].ID, got.Items[1].ID, got.Items[2].ID})

	svc.AllEvents(context.Background())
	events.AssertNumberOfCalls(t, "List", 1)
}

func TestSiteService_AllEventsPlaceholder(t *testing.T) {
	events := new(EventRepoMock)
	events.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()
	svc, m := newSiteService(events, nil, nil, nil)

	got := svc.AllEvents(context.Background())
	assert.True(t, got.Placeholder)
	assert.Len(t, got.Items, 3)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlaceholderServed.WithLabelValues(CollectionEvents)))
}

func TestSiteService_Event(t *testing.T) {
	t.Run("stored event", func(t *testing.T) {
		events := new(EventRepoMock)
		events.On("Get", mock.Anything, 9).Return(types.Event{ID: 9, Title: "Fundraiser"}, nil).Once()
		svc, _ := newSiteService(events, nil, nil, nil)

		got, placeholder, err := svc.Event(context.Background(), 9)
		require.NoError(t, err)
		assert.False(t, placeholder)
		assert.Equal(t, "Fundraiser", got.Title)
	})

	t.Run("placeholder by id while store is empty", func(t *testing.T) {
		events := new(EventRepoMock)
		events.On("Get", mock.Anything, 2).Return(types.Event{}, store.ErrNotFound).Once()
		events.On("List", mock.Anything).Return([]types.Event{}, nil).Once()
		svc, _ := newSiteService(events, nil, nil, nil)

		got, placeholder, err := svc.Event(context.Background(), 2)
		require.NoError(t, err)
		assert.True(t, placeholder)
		assert.Equal(t, "Summer Food Drive", got.Title)
		assert.Equal(t, siteNow.Add(14*day), got.Date)
	})

	t.Run("placeholder ids hidden once events exist", func(t *testing.T) {
		events := new(EventRepoMock)
		events.On("Get", mock.Anything, 2).Return(types.Event{}, store.ErrNotFound).Once()
		events.On("List", mock.Anything).Return([]types.Event{{ID: 40, Date: siteNow}}, nil).Once()
		svc, _ := newSiteService(events, nil, nil, nil)

		_, _, err := svc.Event(context.Background(), 2)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSiteService_NewsFilters(t *testing.T) {
	posts := []types.NewsPost{
		{ID: 3, Title: "Garden opens", Content: "Tomatoes everywhere", Category: "News"},
		{ID: 2, Title: "Scholarships", Content: "Thirty students", Category: "Success Story"},
		{ID: 1, Title: "New center", Content: "Opening soon in the garden district", Category: "Announcement"},
	}

	tests := []struct {
		name    string
		filter  NewsFilter
		wantIDs []int
	}{
		{name: "no filter", filter: NewsFilter{}, wantIDs: []int{3, 2, 1}},
		{name: "query matches title and content", filter: NewsFilter{Query: "GARDEN"}, wantIDs: []int{3, 1}},
		{name: "query matches category", filter: NewsFilter{Query: "success"}, wantIDs: []int{2}},
		{name: "category exact", filter: NewsFilter{Category: "Announcement"}, wantIDs: []int{1}},
		{name: "query and category", filter: NewsFilter{Query: "garden", Category: "News"}, wantIDs: []int{3}},
		{name: "category is case sensitive", filter: NewsFilter{Category: "news"}, wantIDs: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			news := new(NewsRepoMock)
			news.On("List", mock.Anything).Return(posts, nil).Once()
			svc, _ := newSiteService(nil, news, nil, nil)

			got := svc.News(context.Background(), tt.filter)
			ids := make([]int, 0, len(got.Items))
			for _, p := range got.Items {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, []string{"News", "Success Story", "Announcement"}, got.Categories)
			assert.False(t, got.Placeholder)
		})
	}
}

func TestSiteService_NewsPlaceholder(t *testing.T) {
	news := new(NewsRepoMock)
	news.On("List", mock.Anything).Return(nil, errors.New("db down"))
	svc, _ := newSiteService(nil, news, nil, nil)

	got := svc.News(context.Background(), NewsFilter{})
	require.True(t, got.Placeholder)
	require.Len(t, got.Items, 3)
	assert.Equal(t, "Urban Reforestation Project Completes First Phase", got.Items[0].Title)
	assert.Equal(t, siteNow.Add(-7*day), got.Items[0].PublishedAt)
	assert.NotEmpty(t, got.Items[0].ContentHTML)
	assert.NotEmpty(t, got.Items[0].Excerpt)
	assert.Equal(t, []string{"News", "Success Story", "Announcement"}, got.Categories)

	filtered := svc.News(context.Background(), NewsFilter{Category: "Success Story"})
	require.Len(t, filtered.Items, 1)
	assert.Equal(t, "Michael Chen", filtered.Items[0].AuthorName)
	assert.True(t, filtered.Placeholder)
}

func TestSiteService_NewsPost(t *testing.T) {
	t.Run("stored post", func(t *testing.T) {
		news := new(NewsRepoMock)
		news.On("Get", mock.Anything, 4).Return(types.NewsPost{ID: 4, Title: "Real"}, nil).Once()
		svc, _ := newSiteService(nil, news, nil, nil)

		post, placeholder, err := svc.NewsPost(context.Background(), 4)
		require.NoError(t, err)
		assert.False(t, placeholder)
		assert.Equal(t, "Real", post.Title)
	})

	t.Run("placeholder while store is empty", func(t *testing.T) {
		news := new(NewsRepoMock)
		news.On("Get", mock.Anything, 2).Return(types.NewsPost{}, store.ErrNotFound).Once()
		news.On("List", mock.Anything).Return([]types.NewsPost{}, nil).Once()
		svc, _ := newSiteService(nil, news, nil, nil)

		post, placeholder, err := svc.NewsPost(context.Background(), 2)
		require.NoError(t, err)
		assert.True(t, placeholder)
		assert.Equal(t, "Success Story", post.Category)
	})

	t.Run("missing when store has posts", func(t *testing.T) {
		news := new(NewsRepoMock)
		news.On("Get", mock.Anything, 2).Return(types.NewsPost{}, store.ErrNotFound).Once()
		news.On("List", mock.Anything).Return([]types.NewsPost{{ID: 10}}, nil).Once()
		svc, _ := newSiteService(nil, news, nil, nil)

		_, _, err := svc.NewsPost(context.Background(), 2)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestSiteService_Menu(t *testing.T) {
	t.Run("active items only", func(t *testing.T) {
		menu := new(MenuRepoMock)
		menu.On("List", mock.Anything).Return([]types.MenuItem{
			{ID: 1, Title: "Home", Order: 1, IsActive: true},
			{ID: 2, Title: "Hidden", Order: 2, IsActive: false},
			{ID: 3, Title: "Donate", Order: 3, IsActive: true},
		}, nil).Once()
		svc, _ := newSiteService(nil, nil, menu, nil)

		got := svc.Menu(context.Background())
		assert.False(t, got.Placeholder)
		assert.Equal(t, []int{1, 3}, menuIDs(got.Items))
	})

	t.Run("defaults on error", func(t *testing.T) {
		menu := new(MenuRepoMock)
		menu.On("List", mock.Anything).Return(nil, errors.New("db down")).Once()
		svc, _ := newSiteService(nil, nil, menu, nil)

		got := svc.Menu(context.Background())
		require.True(t, got.Placeholder)
		require.Len(t, got.Items, 5)
		for i, item := range got.Items {
			assert.Equal(t, i+1, item.Order)
			assert.True(t, item.IsActive)
		}
		assert.Equal(t, "/contact", got.Items[4].Path)
	})

	t.Run("defaults when empty", func(t *testing.T) {
		menu := new(MenuRepoMock)
		menu.On("List", mock.Anything).Return([]types.MenuItem{}, nil).Once()
		svc, _ := newSiteService(nil, nil, menu, nil)

		assert.True(t, svc.Menu(context.Background()).Placeholder)
	})
}
