// Package app opens the shared infrastructure and builds the service graph
// used by both the HTTP server and the background worker.
package app

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/hope-foundation/apiserver/config"
	"github.com/hope-foundation/apiserver/internal/cache"
	"github.com/hope-foundation/apiserver/internal/db"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/metrics"
	"github.com/hope-foundation/apiserver/internal/mq"
	"github.com/hope-foundation/apiserver/internal/notify"
	"github.com/hope-foundation/apiserver/internal/payment"
	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/internal/storage"
	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Services groups every domain service.
type Services struct {
	Users       *services.UserService
	Events      *services.EventService
	News        *services.NewsService
	Menu        *services.MenuService
	Site        *services.SiteService
	Subscribers *services.SubscriberService
	Contact     *services.ContactService
	Donations   *services.DonationService
	Uploads     *services.UploadService
	Stats       *services.StatsService
}

// App owns the long-lived connections.
type App struct {
	Config   config.Config
	Log      *slog.Logger
	DB       *sql.DB
	Cache    cache.Cache
	Queue    *mq.MQ
	Storage  *storage.Storage
	Mailer   *notify.Mailer
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Services Services
}

// Open connects to Postgres and the optional backends. Redis and object
// storage degrade with a warning; the database and a configured queue are
// required.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	const op = "app.Open"
	openLog := log.With(slog.String("op", op))

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		DB:       dbConn,
		Cache:    cache.Noop{},
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			openLog.Warn("redis unavailable, site cache disabled", logging.Err(err))
		} else {
			a.Cache = redisCache
		}
	}

	a.Queue, err = mq.Open(ctx, cfg.Queue)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		openLog.Warn("object storage unavailable, uploads disabled", logging.Err(err))
	} else {
		if err := objects.EnsureBucket(ctx); err != nil {
			openLog.Warn("ensure bucket failed", slog.String("bucket", objects.Bucket()), logging.Err(err))
		}
		a.Storage = objects
	}

	var provider services.PaymentProvider
	if cfg.Payment.Enabled() {
		client, err := payment.NewClient(cfg.Payment)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		provider = client
	} else {
		openLog.Warn("razorpay credentials missing, donations disabled")
	}

	a.Mailer = notify.NewMailer(cfg.SMTP, log)
	a.Services = a.build(provider)
	return a, nil
}

func (a *App) build(provider services.PaymentProvider) Services {
	var publisher services.Publisher
	if a.Config.Queue.Backend != "" {
		publisher = a.Queue
	}
	var images services.ImageStore
	if a.Storage != nil {
		images = a.Storage
	}

	userRepo := store.NewUserRepository(a.DB)
	adminRepo := store.NewAdminRepository(a.DB)
	eventRepo := store.NewEventRepository(a.DB)
	newsRepo := store.NewNewsRepository(a.DB)
	menuRepo := store.NewMenuRepository(a.DB)
	donationRepo := store.NewDonationRepository(a.DB)
	orderRepo := store.NewPaymentOrderRepository(a.DB)
	subscriberRepo := store.NewSubscriberRepository(a.DB)
	imageRefRepo := store.NewImageRefRepository(a.DB)

	site := services.NewSiteService(eventRepo, newsRepo, menuRepo, a.Cache, a.Config.Redis.TTL, a.Metrics, a.Log)
	uploads := services.NewUploadService(images, imageRefRepo, a.Log)

	return Services{
		Users:       services.NewUserService(userRepo, adminRepo, a.Log, a.Config.SetupToken),
		Events:      services.NewEventService(eventRepo, site, uploads, a.Log),
		News:        services.NewNewsService(newsRepo, site, uploads, a.Log),
		Menu:        services.NewMenuService(menuRepo, site, a.Log),
		Site:        site,
		Subscribers: services.NewSubscriberService(subscriberRepo, publisher, a.Metrics, a.Log),
		Contact:     services.NewContactService(publisher, a.Mailer, a.Metrics, a.Log),
		Donations: services.NewDonationService(
			provider, orderRepo, donationRepo, publisher, a.Metrics, a.Log, a.Config.Payment.Currency,
		),
		Uploads: uploads,
		Stats:   services.NewStatsService(eventRepo, newsRepo, subscriberRepo, donationRepo, a.Log),
	}
}

// Close releases every connection and joins their errors.
func (a *App) Close() error {
	var errs []error
	if a.Queue != nil {
		errs = append(errs, a.Queue.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
