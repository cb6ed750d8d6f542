package services

import (
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hope-foundation/apiserver/internal/content"
	"github.com/hope-foundation/apiserver/types"
)

//go:embed placeholders/*.json
var placeholderFS embed.FS

const day = 24 * time.Hour

type placeholderEvent struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	ImageURL    string `json:"imageUrl"`
	DaysFromNow int    `json:"daysFromNow"`
}

type placeholderPost struct {
	ID               int    `json:"id"`
	Title            string `json:"title"`
	Content          string `json:"content"`
	Category         string `json:"category"`
	ImageURL         string `json:"imageUrl"`
	AuthorName       string `json:"authorName"`
	AuthorImageURL   string `json:"authorImageUrl"`
	PublishedDaysAgo int    `json:"publishedDaysAgo"`
}

var (
	seedEvents []placeholderEvent
	seedPosts  []placeholderPost
	seedMenu   []types.MenuItem
)

func init() {
	mustLoad("placeholders/events.json", &seedEvents)
	mustLoad("placeholders/news.json", &seedPosts)
	mustLoad("placeholders/menu.json", &seedMenu)
}

func mustLoad(name string, v any) {
	data, err := placeholderFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read %s: %v", name, err))
	}
	if err := json.Unmarshal(data, v); err != nil {
		panic(fmt.Sprintf("decode %s: %v", name, err))
	}
}

// placeholderEvents returns the showcase events dated relative to now.
func placeholderEvents(now time.Time) []types.Event {
	events := make([]types.Event, 0, len(seedEvents))
	for _, seed := range seedEvents {
		date := now.Add(time.Duration(seed.DaysFromNow) * day)
		events = append(events, types.Event{
			ID:          seed.ID,
			Title:       seed.Title,
			Description: seed.Description,
			Date:        date,
			Location:    seed.Location,
			ImageURL:    optionalURL(seed.ImageURL),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return events
}

// placeholderNews returns the showcase posts, newest first.
func placeholderNews(now time.Time) []types.NewsPost {
	posts := make([]types.NewsPost, 0, len(seedPosts))
	for _, seed := range seedPosts {
		publishedAt := now.Add(-time.Duration(seed.PublishedDaysAgo) * day)
		html, err := content.RenderMarkdown(seed.Content)
		if err != nil {
			html = ""
		}
		posts = append(posts, types.NewsPost{
			ID:             seed.ID,
			Title:          seed.Title,
			Content:        seed.Content,
			ContentHTML:    html,
			Category:       seed.Category,
			ImageURL:       optionalURL(seed.ImageURL),
			AuthorName:     seed.AuthorName,
			AuthorImageURL: optionalURL(seed.AuthorImageURL),
			PublishedAt:    publishedAt,
			UpdatedAt:      publishedAt,
		})
	}
	return posts
}

func placeholderMenu() []types.MenuItem {
	items := make([]types.MenuItem, len(seedMenu))
	copy(items, seedMenu)
	return items
}
