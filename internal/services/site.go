package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/hope-foundation/apiserver/internal/cache"
	"github.com/hope-foundation/apiserver/internal/content"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/metrics"
	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
)

const (
	sitePrefix           = "site:"
	defaultSiteTTL       = 5 * time.Minute
	DefaultUpcomingLimit = 20
	MaxUpcomingLimit     = 100
	excerptLength        = 100
)

// EventReader is the event read used by the public site.
type EventReader interface {
	List(ctx context.Context) ([]types.Event, error)
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]types.Event, error)
	Get(ctx context.Context, id int) (types.Event, error)
}

// NewsReader is the news read used by the public site.
type NewsReader interface {
	List(ctx context.Context) ([]types.NewsPost, error)
	Get(ctx context.Context, id int) (types.NewsPost, error)
}

// MenuLister is the menu read used by the public site.
type MenuLister interface {
	List(ctx context.Context) ([]types.MenuItem, error)
}

// NewsFilter narrows the public news list. Query matches title, content or
// category case-insensitively; Category must match exactly.
type NewsFilter struct {
	Query    string
	Category string
}

// SiteService answers the public site reads. When a collection is empty or
// the store fails it serves a fixed placeholder set instead of an error.
type SiteService struct {
	events  EventReader
	news    NewsReader
	menu    MenuLister
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

func NewSiteService(
	events EventReader,
	news NewsReader,
	menu MenuLister,
	c cache.Cache,
	ttl time.Duration,
	m *metrics.Metrics,
	log *slog.Logger,
) *SiteService {
	if c == nil {
		c = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = defaultSiteTTL
	}
	return &SiteService{
		events:  events,
		news:    news,
		menu:    menu,
		cache:   c,
		ttl:     ttl,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Events returns up to limit upcoming events, soonest first.
func (s *SiteService) Events(ctx context.Context, limit int) types.SiteEvents {
	const op = "services.SiteService.Events"
	log := s.log.With(slog.String("op", op))

	if limit < 1 {
		limit = DefaultUpcomingLimit
	}
	if limit > MaxUpcomingLimit {
		limit = MaxUpcomingLimit
	}

	key := fmt.Sprintf("%s%s:%d", sitePrefix, CollectionEvents, limit)
	var out types.SiteEvents
	if s.getCached(ctx, key, &out) {
		return out
	}

	items, err := s.events.ListUpcoming(ctx, s.now(), limit)
	if err != nil {
		log.Warn("upcoming events unavailable, serving placeholders", logging.Err(err))
	}
	if err != nil || len(items) == 0 {
		items = placeholderEvents(s.now())
		if len(items) > limit {
			items = items[:limit]
		}
		out = types.SiteEvents{Items: items, Placeholder: true}
		s.placeholderServed(CollectionEvents)
	} else {
		out = types.SiteEvents{Items: items}
	}

	s.setCached(ctx, key, out)
	return out
}

func (s *SiteService) loadAllEvents(ctx context.Context) types.SiteEvents {
	const op = "services.SiteService.loadAllEvents"

	key := sitePrefix + CollectionEvents + ":all"
	var out types.SiteEvents
	if s.getCached(ctx, key, &out) {
		return out
	}

	items, err := s.events.List(ctx)
	if err != nil {
		s.log.Warn("events unavailable, serving placeholders", slog.String("op", op), logging.Err(err))
	}
	if err != nil || len(items) == 0 {
		out = types.SiteEvents{Items: placeholderEvents(s.now()), Placeholder: true}
	} else {
		slices.SortStableFunc(items, func(a, b types.Event) int {
			if c := a.Date.Compare(b.Date); c != 0 {
				return c
			}
			return a.ID - b.ID
		})
		out = types.SiteEvents{Items: items}
	}

	s.setCached(ctx, key, out)
	return out
}

// AllEvents returns every event, past ones included, earliest first.
func (s *SiteService) AllEvents(ctx context.Context) types.SiteEvents {
	out := s.loadAllEvents(ctx)
	if out.Placeholder {
		s.placeholderServed(CollectionEvents)
	}
	return out
}

// Event returns a single event. Placeholder events are only served while
// the store has no events of its own.
func (s *SiteService) Event(ctx context.Context, id int) (types.Event, bool, error) {
	event, err := s.events.Get(ctx, id)
	if err == nil {
		return event, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.log.Warn("event unavailable", slog.Int("id", id), logging.Err(err))
	}

	all := s.loadAllEvents(ctx)
	if all.Placeholder {
		for _, e := range all.Items {
			if e.ID == id {
				s.placeholderServed(CollectionEvents)
				return e, true, nil
			}
		}
	}
	return types.Event{}, false, store.ErrNotFound
}

type newsSnapshot struct {
	Items       []types.NewsPost `json:"items"`
	Placeholder bool             `json:"placeholder"`
}

func (s *SiteService) loadNews(ctx context.Context) newsSnapshot {
	const op = "services.SiteService.loadNews"

	key := sitePrefix + CollectionNews
	var snap newsSnapshot
	if s.getCached(ctx, key, &snap) {
		return snap
	}

	items, err := s.news.List(ctx)
	if err != nil {
		s.log.Warn("news unavailable, serving placeholders", slog.String("op", op), logging.Err(err))
	}
	if err != nil || len(items) == 0 {
		snap = newsSnapshot{Items: placeholderNews(s.now()), Placeholder: true}
	} else {
		snap = newsSnapshot{Items: items}
	}

	s.setCached(ctx, key, snap)
	return snap
}

// News returns posts newest first, filtered by f. Categories lists the
// categories present before filtering.
func (s *SiteService) News(ctx context.Context, f NewsFilter) types.SiteNews {
	snap := s.loadNews(ctx)
	if snap.Placeholder {
		s.placeholderServed(CollectionNews)
	}

	items := filterNews(snap.Items, f)
	for i := range items {
		items[i].Excerpt = content.Excerpt(items[i].Content, excerptLength)
	}

	return types.SiteNews{
		Items:       items,
		Categories:  newsCategories(snap.Items),
		Placeholder: snap.Placeholder,
	}
}

// NewsPost returns a single post. Placeholder posts are only served while
// the store has no posts of its own.
func (s *SiteService) NewsPost(ctx context.Context, id int) (types.NewsPost, bool, error) {
	post, err := s.news.Get(ctx, id)
	if err == nil {
		return post, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		s.log.Warn("news post unavailable", slog.Int("id", id), logging.Err(err))
	}

	snap := s.loadNews(ctx)
	if snap.Placeholder {
		for _, p := range snap.Items {
			if p.ID == id {
				s.placeholderServed(CollectionNews)
				return p, true, nil
			}
		}
	}
	return types.NewsPost{}, false, store.ErrNotFound
}

// Menu returns the active navigation items in display order.
func (s *SiteService) Menu(ctx context.Context) types.SiteMenu {
	const op = "services.SiteService.Menu"

	key := sitePrefix + CollectionMenu
	var out types.SiteMenu
	if s.getCached(ctx, key, &out) {
		return out
	}

	items, err := s.menu.List(ctx)
	if err != nil {
		s.log.Warn("menu unavailable, serving defaults", slog.String("op", op), logging.Err(err))
	}
	active := make([]types.MenuItem, 0, len(items))
	for _, item := range items {
		if item.IsActive {
			active = append(active, item)
		}
	}

	if err != nil || len(active) == 0 {
		out = types.SiteMenu{Items: placeholderMenu(), Placeholder: true}
		s.placeholderServed(CollectionMenu)
	} else {
		out = types.SiteMenu{Items: active}
	}

	s.setCached(ctx, key, out)
	return out
}

// Invalidate drops every cached read of collection.
func (s *SiteService) Invalidate(ctx context.Context, collection string) {
	if err := s.cache.DeletePrefix(ctx, sitePrefix+collection); err != nil {
		s.log.Warn("site cache invalidation failed", slog.String("collection", collection), logging.Err(err))
	}
}

func (s *SiteService) getCached(ctx context.Context, key string, v any) bool {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("site cache read failed", slog.String("key", key), logging.Err(err))
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("site cache entry corrupt", slog.String("key", key), logging.Err(err))
		return false
	}
	return true
}

func (s *SiteService) setCached(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warn("site cache write failed", slog.String("key", key), logging.Err(err))
	}
}

func (s *SiteService) placeholderServed(collection string) {
	if s.metrics != nil {
		s.metrics.PlaceholderServed.WithLabelValues(collection).Inc()
	}
}

func filterNews(posts []types.NewsPost, f NewsFilter) []types.NewsPost {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	category := strings.TrimSpace(f.Category)

	out := make([]types.NewsPost, 0, len(posts))
	for _, p := range posts {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Title), query) &&
			!strings.Contains(strings.ToLower(p.Content), query) &&
			!strings.Contains(strings.ToLower(p.Category), query) {
			continue
		}
		if category != "" && p.Category != category {
			continue
		}
		out = append(out, p)
	}
	return out
}

func newsCategories(posts []types.NewsPost) []string {
	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, p := range posts {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return categories
}
