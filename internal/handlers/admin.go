package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hope-foundation/apiserver/types"
)

// AdminHandler serves admin bootstrap, grants and dashboard data.
type AdminHandler struct {
	users       UserService
	stats       StatsService
	subscribers SubscriberService
	log         *slog.Logger
}

func NewAdminHandler(users UserService, stats StatsService, subscribers SubscriberService, log *slog.Logger) *AdminHandler {
	return &AdminHandler{users: users, stats: stats, subscribers: subscribers, log: log}
}

// AdminRouter registers admin routes. setup only needs a signed-in user;
// everything else is behind adminOnly.
func AdminRouter(
	r chi.Router,
	users UserService,
	stats StatsService,
	subscribers SubscriberService,
	log *slog.Logger,
	authMiddleware func(http.Handler) http.Handler,
	adminOnly chi.Middlewares,
) {
	handler := NewAdminHandler(users, stats, subscribers, log)

	r.With(authMiddleware).Post("/setup", handler.Setup)
	r.Group(func(r chi.Router) {
		r.Use(adminOnly...)
		r.Post("/grants", handler.Grant)
		r.Delete("/grants/{userID}", handler.Revoke)
		r.Get("/stats", handler.Stats)
		r.Get("/subscribers", handler.Subscribers)
	})
}

type SetupRequest struct {
	Token string `json:"token"`
}

type GrantRequest struct {
	UserID int `json:"userId"`
}

// Setup makes the caller the first admin when they hold the setup token.
func (h *AdminHandler) Setup(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.Setup"

	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SetupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Setup(r.Context(), userID, req.Token); err != nil {
		h.log.Warn("admin setup refused",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int("user_id", userID),
			slog.String("reason", err.Error()),
		)
		writeServiceError(w, r, h.log, err, "set up admin")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AdminHandler) Grant(w http.ResponseWriter, r *http.Request) {
	callerID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req GrantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserID < 1 {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	if err := h.users.Grant(r.Context(), req.UserID, &callerID); err != nil {
		writeServiceError(w, r, h.log, err, "grant admin")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AdminHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.users.Revoke(r.Context(), userID); err != nil {
		writeServiceError(w, r, h.log, err, "revoke admin")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats.Dashboard(r.Context()))
}

func (h *AdminHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.subscribers.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, h.log, err, "list subscribers")
		return
	}
	if items == nil {
		items = []types.Subscriber{}
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Subscriber]{Items: items, Page: page, Limit: limit})
}
