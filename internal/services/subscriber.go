package services

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hope-foundation/apiserver/internal/metrics"
	"github.com/hope-foundation/apiserver/internal/mq"
	"github.com/hope-foundation/apiserver/types"
)

// SubscriberRepository defines persistence operations for newsletter subscribers.
type SubscriberRepository interface {
	Upsert(ctx context.Context, email string) (types.Subscriber, bool, error)
	List(ctx context.Context, limit, offset int) ([]types.Subscriber, error)
	Count(ctx context.Context) (int, error)
}

// SubscriberService handles newsletter sign-ups.
type SubscriberService struct {
	repo      SubscriberRepository
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewSubscriberService(repo SubscriberRepository, publisher Publisher, m *metrics.Metrics, log *slog.Logger) *SubscriberService {
	return &SubscriberService{repo: repo, publisher: publisher, metrics: m, log: log}
}

// Subscribe stores email once. Repeated sign-ups return the existing
// subscriber with created set to false.
func (s *SubscriberService) Subscribe(ctx context.Context, email string) (types.Subscriber, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return types.Subscriber{}, false, invalid("email", "is required")
	}
	if !strings.Contains(email, "@") {
		return types.Subscriber{}, false, invalid("email", "must be a valid email address")
	}

	subscriber, created, err := s.repo.Upsert(ctx, email)
	if err != nil {
		return types.Subscriber{}, false, err
	}
	if created {
		_ = publish(ctx, s.publisher, s.metrics, s.log, mq.TopicSubscriberCreated, subscriber)
	}
	return subscriber, created, nil
}

func (s *SubscriberService) List(ctx context.Context, limit, offset int) ([]types.Subscriber, error) {
	return s.repo.List(ctx, limit, offset)
}
