package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/types"
)

// EventRouter registers event routes on the given router.
func EventRouter(r chi.Router, svc ResourceService[types.Event, services.EventInput], log *slog.Logger, adminOnly chi.Middlewares) {
	NewResourceHandler(svc, log, "event").routes(r, adminOnly, nil)
}

// NewsRouter registers news routes on the given router.
func NewsRouter(r chi.Router, svc ResourceService[types.NewsPost, services.NewsInput], log *slog.Logger, adminOnly chi.Middlewares) {
	NewResourceHandler(svc, log, "news post").routes(r, adminOnly, nil)
}

// MenuHandler adds the reorder endpoints to the menu CRUD routes.
type MenuHandler struct {
	*ResourceHandler[types.MenuItem, services.MenuInput]
	menu MenuService
}

// MenuRouter registers menu routes on the given router.
func MenuRouter(r chi.Router, svc MenuService, log *slog.Logger, adminOnly chi.Middlewares) {
	handler := &MenuHandler{
		ResourceHandler: NewResourceHandler[types.MenuItem, services.MenuInput](svc, log, "menu item"),
		menu:            svc,
	}

	r.With(adminOnly...).Put("/order", handler.SetOrder)
	handler.routes(r, adminOnly, func(r chi.Router) {
		r.With(adminOnly...).Post("/move", handler.Move)
	})
}

type MoveRequest struct {
	Direction string `json:"direction"`
}

type OrderRequest struct {
	IDs []int `json:"ids"`
}

// Move swaps an item with its neighbour and returns the new order.
func (h *MenuHandler) Move(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.menu.Move(r.Context(), id, req.Direction)
	if err != nil {
		writeServiceError(w, r, h.log, err, "move menu item")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// SetOrder renumbers the whole menu in the submitted sequence.
func (h *MenuHandler) SetOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.menu.SetOrder(r.Context(), req.IDs)
	if err != nil {
		writeServiceError(w, r, h.log, err, "reorder menu")
		return
	}
	writeJSON(w, http.StatusOK, items)
}
