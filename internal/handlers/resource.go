package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ResourceHandler serves the list/get/create/update/delete routes of one
// content collection.
type ResourceHandler[T, In any] struct {
	service ResourceService[T, In]
	log     *slog.Logger
	name    string
}

// NewResourceHandler constructs a handler; name is used in error messages.
func NewResourceHandler[T, In any](service ResourceService[T, In], log *slog.Logger, name string) *ResourceHandler[T, In] {
	return &ResourceHandler[T, In]{service: service, log: log, name: name}
}

// routes registers reads for everyone and writes behind adminOnly. item,
// when set, adds routes below /{id}.
func (h *ResourceHandler[T, In]) routes(r chi.Router, adminOnly chi.Middlewares, item func(chi.Router)) {
	r.Get("/", h.List)
	r.With(adminOnly...).Post("/", h.Create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.With(adminOnly...).Put("/", h.Update)
		r.With(adminOnly...).Delete("/", h.Delete)
		if item != nil {
			item(r)
		}
	})
}

func (h *ResourceHandler[T, In]) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err, "list "+h.name)
		return
	}
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *ResourceHandler[T, In]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err, "fetch "+h.name)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ResourceHandler[T, In]) Create(w http.ResponseWriter, r *http.Request) {
	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, h.log, err, "create "+h.name)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *ResourceHandler[T, In]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var in In
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		writeServiceError(w, r, h.log, err, "update "+h.name)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ResourceHandler[T, In]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err, "delete "+h.name)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
