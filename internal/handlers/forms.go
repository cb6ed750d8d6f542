package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hope-foundation/apiserver/internal/services"
)

// FormHandler serves the newsletter and contact forms.
type FormHandler struct {
	subscribers SubscriberService
	contact     ContactService
	log         *slog.Logger
}

func NewFormHandler(subscribers SubscriberService, contact ContactService, log *slog.Logger) *FormHandler {
	return &FormHandler{subscribers: subscribers, contact: contact, log: log}
}

// FormRouter registers the public form routes. limit throttles them per client.
func FormRouter(r chi.Router, subscribers SubscriberService, contact ContactService, log *slog.Logger, limit func(http.Handler) http.Handler) {
	handler := NewFormHandler(subscribers, contact, log)

	r.With(limit).Post("/subscribe", handler.Subscribe)
	r.With(limit).Post("/contact", handler.Contact)
}

type SubscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe adds an email to the newsletter. Subscribing twice is not an
// error: the existing subscriber is returned.
func (h *FormHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.forms.Subscribe"

	var req SubscribeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, created, err := h.subscribers.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeServiceError(w, r, h.log, err, "subscribe")
		return
	}
	if created {
		h.log.Info("subscriber added",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Int("id", sub.ID),
		)
	}
	writeJSON(w, http.StatusOK, sub)
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func (h *FormHandler) Contact(w http.ResponseWriter, r *http.Request) {
	var req services.ContactInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.contact.Submit(r.Context(), req); err != nil {
		writeServiceError(w, r, h.log, err, "send message")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
