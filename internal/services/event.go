package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/hope-foundation/apiserver/types"
)

// EventRepository defines persistence operations for events.
type EventRepository interface {
	List(ctx context.Context) ([]types.Event, error)
	ListUpcoming(ctx context.Context, from time.Time, limit int) ([]types.Event, error)
	Get(ctx context.Context, id int) (types.Event, error)
	Create(ctx context.Context, event types.Event) (types.Event, error)
	Update(ctx context.Context, event types.Event) (types.Event, error)
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// EventInput carries an event create or partial update. Nil fields are
// left unchanged on update; ImageURL set to "" clears the image.
type EventInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Location    *string `json:"location"`
	ImageURL    *string `json:"imageUrl"`
}

// EventService encapsulates event use-cases.
type EventService struct {
	repo   EventRepository
	site   Invalidator
	images ImageReleaser
	log    *slog.Logger
}

func NewEventService(repo EventRepository, site Invalidator, images ImageReleaser, log *slog.Logger) *EventService {
	if site == nil {
		site = noopInvalidator{}
	}
	if images == nil {
		images = noopReleaser{}
	}
	return &EventService{repo: repo, site: site, images: images, log: log}
}

func (s *EventService) List(ctx context.Context) ([]types.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventService) Get(ctx context.Context, id int) (types.Event, error) {
	return s.repo.Get(ctx, id)
}

// Create validates the required fields before touching the repository.
func (s *EventService) Create(ctx context.Context, in EventInput) (types.Event, error) {
	title, ok := trimmed(in.Title)
	if !ok {
		return types.Event{}, invalid("title", "is required")
	}
	description, ok := trimmed(in.Description)
	if !ok {
		return types.Event{}, invalid("description", "is required")
	}
	rawDate, ok := trimmed(in.Date)
	if !ok {
		return types.Event{}, invalid("date", "is required")
	}
	date, err := parseDate("date", rawDate)
	if err != nil {
		return types.Event{}, err
	}
	location, ok := trimmed(in.Location)
	if !ok {
		return types.Event{}, invalid("location", "is required")
	}

	event := types.Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
	}
	if in.ImageURL != nil {
		event.ImageURL = optionalURL(*in.ImageURL)
	}

	created, err := s.repo.Create(ctx, event)
	if err != nil {
		return types.Event{}, err
	}
	s.site.Invalidate(ctx, CollectionEvents)
	return created, nil
}

// Update applies the non-empty fields of in to event id.
func (s *EventService) Update(ctx context.Context, id int, in EventInput) (types.Event, error) {
	var date time.Time
	rawDate, hasDate := trimmed(in.Date)
	if hasDate {
		parsed, err := parseDate("date", rawDate)
		if err != nil {
			return types.Event{}, err
		}
		date = parsed
	}

	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Event{}, err
	}

	updated := current
	if v, ok := trimmed(in.Title); ok {
		updated.Title = v
	}
	if v, ok := trimmed(in.Description); ok {
		updated.Description = v
	}
	if hasDate {
		updated.Date = date
	}
	if v, ok := trimmed(in.Location); ok {
		updated.Location = v
	}
	if in.ImageURL != nil {
		updated.ImageURL = optionalURL(*in.ImageURL)
	}

	saved, err := s.repo.Update(ctx, updated)
	if err != nil {
		return types.Event{}, err
	}
	if current.ImageURL != nil && !sameURL(current.ImageURL, saved.ImageURL) {
		s.images.Release(ctx, *current.ImageURL)
	}
	s.site.Invalidate(ctx, CollectionEvents)
	return saved, nil
}

func (s *EventService) Delete(ctx context.Context, id int) error {
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
	s.site.Invalidate(ctx, CollectionEvents)
	return nil
}
