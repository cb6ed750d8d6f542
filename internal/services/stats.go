package services

import (
	"context"
	"log/slog"

	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/types"
)

// Counter reports the size of a collection.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// DonationTotals reports the number and sum of donations.
type DonationTotals interface {
	Totals(ctx context.Context) (int, int64, error)
}

// StatsService builds the admin dashboard counters.
type StatsService struct {
	events      Counter
	news        Counter
	subscribers Counter
	donations   DonationTotals
	log         *slog.Logger
}

func NewStatsService(events, news, subscribers Counter, donations DonationTotals, log *slog.Logger) *StatsService {
	return &StatsService{
		events:      events,
		news:        news,
		subscribers: subscribers,
		donations:   donations,
		log:         log,
	}
}

// Dashboard never fails: a counter that errors is reported as zero.
func (s *StatsService) Dashboard(ctx context.Context) types.DashboardStats {
	const op = "services.StatsService.Dashboard"
	log := s.log.With(slog.String("op", op))

	count := func(name string, c Counter) int {
		n, err := c.Count(ctx)
		if err != nil {
			log.Error("count failed", slog.String("collection", name), logging.Err(err))
			return 0
		}
		return n
	}

	stats := types.DashboardStats{
		Events:      count("events", s.events),
		News:        count("news", s.news),
		Subscribers: count("subscribers", s.subscribers),
	}

	donations, total, err := s.donations.Totals(ctx)
	if err != nil {
		log.Error("donation totals failed", logging.Err(err))
	} else {
		stats.Donations = donations
		stats.DonationTotal = total
	}
	return stats
}
