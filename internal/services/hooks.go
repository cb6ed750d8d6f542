package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/metrics"
)

// Public collections served by SiteService.
const (
	CollectionEvents = "events"
	CollectionNews   = "news"
	CollectionMenu   = "menu"
)

// Invalidator drops cached public reads of a collection after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, collection string)
}

// ImageReleaser deletes an uploaded image that is no longer referenced.
type ImageReleaser interface {
	Release(ctx context.Context, url string)
}

// Publisher emits domain events.
type Publisher interface {
	PublishJSON(ctx context.Context, channel string, v any) (string, error)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, string) {}

type noopReleaser struct{}

func (noopReleaser) Release(context.Context, string) {}

// publish sends v on channel. Failures are logged and counted; callers that
// have a fallback check the returned error, the rest ignore it.
func publish(ctx context.Context, pub Publisher, m *metrics.Metrics, log *slog.Logger, channel string, v any) error {
	if pub == nil {
		return nil
	}
	if _, err := pub.PublishJSON(ctx, channel, v); err != nil {
		log.Warn("publish failed", slog.String("topic", channel), logging.Err(err))
		if m != nil {
			m.PublishFailures.WithLabelValues(channel).Inc()
		}
		return err
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate accepts RFC 3339 timestamps, HTML datetime-local values and plain dates.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid(field, "must be a date (YYYY-MM-DD or RFC 3339)")
}

// optionalURL maps "" to nil so an empty field clears the stored URL.
func optionalURL(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}

func sameURL(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// trimmed returns the trimmed value of p and whether it is non-empty.
func trimmed(p *string) (string, bool) {
	if p == nil {
		return "", false
	}
	v := strings.TrimSpace(*p)
	return v, v != ""
}
