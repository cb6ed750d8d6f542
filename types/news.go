package types

import "time"

// News categories accepted for a post.
const (
	CategoryNews               = "News"
	CategorySuccessStory       = "Success Story"
	CategoryAnnouncement       = "Announcement"
	CategoryEventRecap         = "Event Recap"
	CategoryCommunitySpotlight = "Community Spotlight"
)

// NewsCategories lists the categories in the order the admin form offers them.
var NewsCategories = []string{
	CategoryNews,
	CategorySuccessStory,
	CategoryAnnouncement,
	CategoryEventRecap,
	CategoryCommunitySpotlight,
}

// IsNewsCategory reports whether c is one of NewsCategories.
func IsNewsCategory(c string) bool {
	for _, known := range NewsCategories {
		if c == known {
			return true
		}
	}
	return false
}

// NewsPost is an article published in the news section.
type NewsPost struct {
	ID int `json:"id" db:"id"`

	Title string `json:"title" db:"title"`

	// Content is the markdown source written by the author.
	Content string `json:"content" db:"content"`

	// ContentHTML is Content rendered and sanitised for display.
	ContentHTML string `json:"contentHtml" db:"content_html"`

	// Excerpt is a plain-text preview, filled on public list reads only.
	Excerpt string `json:"excerpt,omitempty" db:"-"`

	// Category is one of NewsCategories.
	Category string `json:"category" db:"category"`

	ImageURL *string `json:"imageUrl" db:"image_url"`

	AuthorName string `json:"authorName" db:"author_name"`

	AuthorImageURL *string `json:"authorImageUrl" db:"author_image_url"`

	PublishedAt time.Time `json:"publishedAt" db:"published_at"`

	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
