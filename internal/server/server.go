package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hope-foundation/apiserver/config"
	"github.com/hope-foundation/apiserver/internal/app"
	"github.com/hope-foundation/apiserver/internal/handlers"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	formRate  = 1
	formBurst = 5
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	app        *app.App
	log        *slog.Logger
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	if _, err := handlers.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	a, err := app.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	router := NewRouter(a, jwtSecret)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		app:        a,
		log:        log,
	}, nil
}

// NewRouter mounts every route on a fresh chi router.
func NewRouter(a *app.App, jwtSecret string) *chi.Mux {
	svc := a.Services
	log := a.Log

	authMiddleware := handlers.RequireAuth(jwtSecret)
	adminOnly := chi.Middlewares{authMiddleware, handlers.RequireAdmin(svc.Users)}
	formLimit := handlers.NewRateLimiter(formRate, formBurst, log).Middleware
	proxies, err := handlers.ParseTrustedProxies(a.Config.TrustedProxies)
	if err != nil {
		log.Warn("ignoring trusted proxies", logging.Err(err))
		proxies = nil
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		handlers.TrustedRealIP(proxies),
		middleware.Recoverer,
		requestLogger(log),
		a.Metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	router.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, svc.Users, log, jwtSecret)
		})
		api.Route("/events", func(r chi.Router) {
			handlers.EventRouter(r, svc.Events, log, adminOnly)
		})
		api.Route("/news", func(r chi.Router) {
			handlers.NewsRouter(r, svc.News, log, adminOnly)
		})
		api.Route("/menu", func(r chi.Router) {
			handlers.MenuRouter(r, svc.Menu, log, adminOnly)
		})
		api.Route("/uploads", func(r chi.Router) {
			handlers.UploadRouter(r, svc.Uploads, log, adminOnly)
		})
		api.Route("/site", func(r chi.Router) {
			handlers.SiteRouter(r, svc.Site, log)
		})
		api.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, svc.Users, svc.Stats, svc.Subscribers, log, authMiddleware, adminOnly)
		})
		api.Group(func(r chi.Router) {
			handlers.FormRouter(r, svc.Subscribers, svc.Contact, log, formLimit)
			handlers.DonationRouter(r, svc.Donations, log, formLimit, adminOnly)
		})
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.log.Info("http server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and closes the backing connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.app.Close())
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
