package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/types"
)

const (
	signatureHeader = "X-Razorpay-Signature"
	maxWebhookBytes = 1 << 20
)

// DonationHandler serves checkout, payment confirmation and the donation list.
type DonationHandler struct {
	donations DonationService
	log       *slog.Logger
}

func NewDonationHandler(donations DonationService, log *slog.Logger) *DonationHandler {
	return &DonationHandler{donations: donations, log: log}
}

// DonationRouter registers the payment routes. create-order is throttled
// by limit; the donation list is admin only.
func DonationRouter(
	r chi.Router,
	donations DonationService,
	log *slog.Logger,
	limit func(http.Handler) http.Handler,
	adminOnly chi.Middlewares,
) {
	handler := NewDonationHandler(donations, log)

	r.With(limit).Post("/create-order", handler.CreateOrder)
	r.Post("/donations/verify", handler.Verify)
	r.With(adminOnly...).Get("/donations", handler.List)
	r.Post("/webhooks/razorpay", handler.Webhook)
}

func (h *DonationHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req services.CreateOrderInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.donations.CreateOrder(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "create order")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *DonationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req services.VerifyInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	donation, err := h.donations.Verify(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err, "verify payment")
		return
	}
	writeJSON(w, http.StatusOK, donation)
}

// Webhook needs the raw body: the signature covers the exact bytes sent.
func (h *DonationHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.donations.Webhook"

	body, err := readFileLimited(r.Body, maxWebhookBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.donations.HandleWebhook(r.Context(), body, r.Header.Get(signatureHeader)); err != nil {
		h.log.Warn("webhook rejected",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			logging.Err(err),
		)
		writeServiceError(w, r, h.log, err, "process webhook")
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *DonationHandler) List(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.donations.List(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, r, h.log, err, "list donations")
		return
	}
	if items == nil {
		items = []types.Donation{}
	}
	writeJSON(w, http.StatusOK, ListResponse[types.Donation]{Items: items, Page: page, Limit: limit})
}
