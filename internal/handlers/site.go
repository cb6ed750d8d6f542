package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
)

// SiteHandler serves the public website reads. They never fail: when the
// store is empty or unreachable the placeholder sets are returned.
type SiteHandler struct {
	site SiteService
	log  *slog.Logger
}

func NewSiteHandler(site SiteService, log *slog.Logger) *SiteHandler {
	return &SiteHandler{site: site, log: log}
}

// SiteRouter registers public site routes on the given router.
func SiteRouter(r chi.Router, site SiteService, log *slog.Logger) {
	handler := NewSiteHandler(site, log)

	r.Get("/events", handler.Events)
	r.Get("/events/all", handler.AllEvents)
	r.Get("/events/{id}", handler.Event)
	r.Get("/news", handler.News)
	r.Get("/news/{id}", handler.NewsPost)
	r.Get("/menu", handler.Menu)
}

func (h *SiteHandler) Events(w http.ResponseWriter, r *http.Request) {
	limit := services.DefaultUpcomingLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(parsed, services.MaxUpcomingLimit)
	}
	writeJSON(w, http.StatusOK, h.site.Events(r.Context(), limit))
}

func (h *SiteHandler) AllEvents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.site.AllEvents(r.Context()))
}

// EventResponse wraps a single event with the placeholder marker.
type EventResponse struct {
	types.Event
	Placeholder bool `json:"placeholder"`
}

func (h *SiteHandler) Event(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	event, placeholder, err := h.site.Event(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeServiceError(w, r, h.log, err, "fetch event")
		return
	}
	writeJSON(w, http.StatusOK, EventResponse{Event: event, Placeholder: placeholder})
}

func (h *SiteHandler) News(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	writeJSON(w, http.StatusOK, h.site.News(r.Context(), services.NewsFilter{
		Query:    query.Get("q"),
		Category: query.Get("category"),
	}))
}

// NewsPostResponse wraps a single post with the placeholder marker.
type NewsPostResponse struct {
	types.NewsPost
	Placeholder bool `json:"placeholder"`
}

func (h *SiteHandler) NewsPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, placeholder, err := h.site.NewsPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "news post not found")
			return
		}
		writeServiceError(w, r, h.log, err, "fetch news post")
		return
	}
	writeJSON(w, http.StatusOK, NewsPostResponse{NewsPost: post, Placeholder: placeholder})
}

func (h *SiteHandler) Menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.site.Menu(r.Context()))
}
