// Package worker runs the background side of the site: it consumes domain
// events from the message queue and periodically reconciles open payment
// orders against the provider.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/mq"
	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/types"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultReconcileSchedule = "@every 5m"
	reconcileTimeout         = 2 * time.Minute
)

// Subscriber consumes a queue channel until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Reconciler settles stale payment orders.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// Worker wires queue consumers and scheduled jobs.
type Worker struct {
	queue     Subscriber
	mailer    services.ContactMailer
	reconcile Reconciler
	schedule  string
	log       *slog.Logger
}

func New(queue Subscriber, mailer services.ContactMailer, reconcile Reconciler, schedule string, log *slog.Logger) *Worker {
	if schedule == "" {
		schedule = DefaultReconcileSchedule
	}
	return &Worker{
		queue:     queue,
		mailer:    mailer,
		reconcile: reconcile,
		schedule:  schedule,
		log:       log,
	}
}

// Run blocks until ctx is cancelled or a consumer fails.
func (w *Worker) Run(ctx context.Context) error {
	const op = "worker.Run"
	log := w.log.With(slog.String("op", op))

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(w.schedule, func() { w.runReconcile(ctx) }); err != nil {
		return fmt.Errorf("schedule reconcile %q: %w", w.schedule, err)
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	g, gctx := errgroup.WithContext(ctx)
	consumers := map[string]mq.Handler{
		mq.TopicContactSubmitted:  w.HandleContact,
		mq.TopicSubscriberCreated: w.logEvent,
		mq.TopicDonationRecorded:  w.logEvent,
	}
	for channel, handler := range consumers {
		g.Go(func() error {
			if err := w.queue.Subscribe(gctx, channel, handler); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume %s: %w", channel, err)
			}
			return nil
		})
	}

	log.Info("worker started", slog.String("reconcile_schedule", w.schedule))
	err := g.Wait()
	log.Info("worker stopped")
	return err
}

// HandleContact delivers a queued contact form submission by mail. Messages
// that cannot be decoded, or arrive while mail is not configured, are
// acknowledged and dropped.
func (w *Worker) HandleContact(ctx context.Context, msg mq.Message) error {
	const op = "worker.HandleContact"
	log := w.log.With(slog.String("op", op), slog.String("message_id", msg.ID))

	var contact types.ContactMessage
	if err := json.Unmarshal(msg.Data, &contact); err != nil {
		log.Error("malformed contact message", logging.Err(err))
		return nil
	}
	if w.mailer == nil || !w.mailer.Enabled() {
		log.Warn("mail not configured, contact message dropped", slog.String("email", contact.Email))
		return nil
	}
	if err := w.mailer.SendContact(ctx, contact); err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}
	log.Info("contact message delivered", slog.String("email", contact.Email))
	return nil
}

func (w *Worker) logEvent(_ context.Context, msg mq.Message) error {
	w.log.Info("domain event", slog.String("message_id", msg.ID), slog.Int("bytes", len(msg.Data)))
	return nil
}

func (w *Worker) runReconcile(parent context.Context) {
	const op = "worker.runReconcile"

	ctx, cancel := context.WithTimeout(parent, reconcileTimeout)
	defer cancel()

	recorded, err := w.reconcile.Reconcile(ctx)
	switch {
	case errors.Is(err, services.ErrProviderDisabled):
		w.log.Debug("reconcile skipped, payments disabled", slog.String("op", op))
	case err != nil:
		w.log.Error("reconcile failed", slog.String("op", op), logging.Err(err))
	default:
		w.log.Debug("reconcile finished", slog.String("op", op), slog.Int("recorded", recorded))
	}
}
