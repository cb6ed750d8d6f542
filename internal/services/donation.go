package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/metrics"
	"github.com/hope-foundation/apiserver/internal/mq"
	"github.com/hope-foundation/apiserver/internal/payment"
	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
)

const (
	defaultCurrency = "INR"
	// Orders younger than reconcileMinAge may still be completing checkout.
	reconcileMinAge = 10 * time.Minute
	reconcileMaxAge = 24 * time.Hour
	reconcileBatch  = 100
)

// Sources that confirm a donation.
const (
	SourceVerify    = "verify"
	SourceWebhook   = "webhook"
	SourceReconcile = "reconcile"
)

// PaymentProvider is the subset of the Razorpay API used for donations.
type PaymentProvider interface {
	KeyID() string
	CreateOrder(ctx context.Context, params payment.CreateOrderRequest) (payment.Order, error)
	FetchPayment(ctx context.Context, paymentID string) (payment.Payment, error)
	FetchOrderPayments(ctx context.Context, orderID string) ([]payment.Payment, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
}

// PaymentOrderRepository defines persistence operations for provider orders.
type PaymentOrderRepository interface {
	Create(ctx context.Context, order types.PaymentOrder) (types.PaymentOrder, error)
	Get(ctx context.Context, orderID string) (types.PaymentOrder, error)
	MarkFailed(ctx context.Context, orderID string) error
	ListStale(ctx context.Context, notBefore, notAfter time.Time, limit int) ([]types.PaymentOrder, error)
}

// DonationRepository defines persistence operations for donations.
type DonationRepository interface {
	List(ctx context.Context, limit, offset int) ([]types.Donation, error)
	RecordForOrder(ctx context.Context, orderID, paymentID string) (types.Donation, bool, error)
	Totals(ctx context.Context) (int, int64, error)
}

// CreateOrderInput is the donate form payload. Amount is in major units.
type CreateOrderInput struct {
	Amount      float64 `json:"amount"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Message     string  `json:"message"`
	Purpose     string  `json:"purpose"`
	IsRecurring bool    `json:"isRecurring"`
}

// OrderResult is what the checkout widget needs to open.
type OrderResult struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// VerifyInput is the checkout callback payload.
type VerifyInput struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
}

// DonationService records donations only after the provider has confirmed
// the payment, through the checkout callback, the webhook or the reconciler.
type DonationService struct {
	provider  PaymentProvider
	orders    PaymentOrderRepository
	donations DonationRepository
	publisher Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
	currency  string
	now       func() time.Time
}

// NewDonationService builds the service. provider may be nil when no
// credentials are configured; payment operations then fail with
// ErrProviderDisabled.
func NewDonationService(
	provider PaymentProvider,
	orders PaymentOrderRepository,
	donations DonationRepository,
	publisher Publisher,
	m *metrics.Metrics,
	log *slog.Logger,
	currency string,
) *DonationService {
	if currency == "" {
		currency = defaultCurrency
	}
	return &DonationService{
		provider:  provider,
		orders:    orders,
		donations: donations,
		publisher: publisher,
		metrics:   m,
		log:       log,
		currency:  strings.ToUpper(currency),
		now:       time.Now,
	}
}

// CreateOrder opens a provider order for in.Amount and remembers the donor
// details until the payment is confirmed.
func (s *DonationService) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderResult, error) {
	const op = "services.DonationService.CreateOrder"

	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount < 1 {
		return OrderResult{}, invalid("amount", "must be at least 1")
	}
	purpose := strings.TrimSpace(in.Purpose)
	if purpose == "" {
		purpose = types.PurposeGeneralFund
	}
	if !types.IsDonationPurpose(purpose) {
		return OrderResult{}, invalid("purpose", "must be one of "+strings.Join(types.DonationPurposes, ", "))
	}
	if s.provider == nil {
		return OrderResult{}, ErrProviderDisabled
	}

	amount := int64(math.Round(in.Amount * 100))
	receipt := "donation_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]

	order, err := s.provider.CreateOrder(ctx, payment.CreateOrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"purpose": purpose,
			"name":    strings.TrimSpace(in.Name),
			"email":   strings.TrimSpace(in.Email),
		},
	})
	if err != nil {
		return OrderResult{}, fmt.Errorf("create provider order: %w", err)
	}
	if order.Amount == 0 {
		order.Amount = amount
	}
	if order.Currency == "" {
		order.Currency = s.currency
	}

	saved, err := s.orders.Create(ctx, types.PaymentOrder{
		ProviderOrderID: order.ID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Receipt:         receipt,
		Name:            strings.TrimSpace(in.Name),
		Email:           strings.TrimSpace(in.Email),
		Message:         strings.TrimSpace(in.Message),
		IsRecurring:     in.IsRecurring,
		Purpose:         purpose,
	})
	if err != nil {
		s.log.Error("provider order created but not stored",
			slog.String("op", op),
			slog.String("order_id", order.ID),
			logging.Err(err),
		)
		return OrderResult{}, err
	}
	if s.metrics != nil {
		s.metrics.PaymentOrders.Inc()
	}

	return OrderResult{
		OrderID:  saved.ProviderOrderID,
		Amount:   saved.Amount,
		Currency: saved.Currency,
		KeyID:    s.provider.KeyID(),
	}, nil
}

// Verify confirms a checkout callback and records the donation.
func (s *DonationService) Verify(ctx context.Context, in VerifyInput) (types.Donation, error) {
	in.OrderID = strings.TrimSpace(in.OrderID)
	in.PaymentID = strings.TrimSpace(in.PaymentID)
	in.Signature = strings.TrimSpace(in.Signature)
	switch {
	case in.OrderID == "":
		return types.Donation{}, invalid("orderId", "is required")
	case in.PaymentID == "":
		return types.Donation{}, invalid("paymentId", "is required")
	case in.Signature == "":
		return types.Donation{}, invalid("signature", "is required")
	}
	if s.provider == nil {
		return types.Donation{}, ErrProviderDisabled
	}
	if !s.provider.VerifyPaymentSignature(in.OrderID, in.PaymentID, in.Signature) {
		return types.Donation{}, ErrInvalidSignature
	}

	order, err := s.orders.Get(ctx, in.OrderID)
	if err != nil {
		return types.Donation{}, err
	}

	p, err := s.provider.FetchPayment(ctx, in.PaymentID)
	if err != nil {
		return types.Donation{}, fmt.Errorf("fetch payment: %w", err)
	}
	if err := checkPayment(order, p); err != nil {
		return types.Donation{}, err
	}

	return s.record(ctx, order.ProviderOrderID, p.ID, SourceVerify)
}

func checkPayment(order types.PaymentOrder, p payment.Payment) error {
	if !p.Succeeded() {
		return ErrPaymentNotCaptured
	}
	if p.OrderID != order.ProviderOrderID || p.Amount != order.Amount {
		return ErrPaymentMismatch
	}
	return nil
}

// HandleWebhook processes a signed provider notification. Events that do
// not concern a known order are acknowledged and ignored.
func (s *DonationService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	const op = "services.DonationService.HandleWebhook"
	log := s.log.With(slog.String("op", op))

	if s.provider == nil {
		return ErrProviderDisabled
	}
	if !s.provider.VerifyWebhookSignature(body, signature) {
		return ErrInvalidSignature
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return invalid("body", "malformed webhook payload")
	}
	log = log.With(slog.String("event", event.Event))

	p, ok := event.PaymentEntity()
	switch event.Event {
	case payment.EventPaymentCaptured, payment.EventOrderPaid:
		if !ok || p.OrderID == "" {
			log.Warn("webhook without payment entity")
			return nil
		}
		order, err := s.orders.Get(ctx, p.OrderID)
		if errors.Is(err, store.ErrNotFound) {
			log.Info("webhook for unknown order", slog.String("order_id", p.OrderID))
			return nil
		}
		if err != nil {
			return err
		}
		if err := checkPayment(order, p); err != nil {
			log.Warn("webhook payment rejected", slog.String("payment_id", p.ID), logging.Err(err))
			return nil
		}
		_, err = s.record(ctx, order.ProviderOrderID, p.ID, SourceWebhook)
		return err

	case payment.EventPaymentFailed:
		if !ok || p.OrderID == "" {
			return nil
		}
		err := s.orders.MarkFailed(ctx, p.OrderID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err

	default:
		log.Debug("webhook event ignored")
		return nil
	}
}

// Reconcile re-checks orders that stayed open past checkout and records
// the ones the provider reports as paid. It returns how many donations
// were written.
func (s *DonationService) Reconcile(ctx context.Context) (int, error) {
	const op = "services.DonationService.Reconcile"
	log := s.log.With(slog.String("op", op))

	if s.provider == nil {
		return 0, ErrProviderDisabled
	}

	now := s.now()
	orders, err := s.orders.ListStale(ctx, now.Add(-reconcileMaxAge), now.Add(-reconcileMinAge), reconcileBatch)
	if err != nil {
		s.reconciled("error")
		return 0, err
	}

	recorded := 0
	for _, order := range orders {
		if ctx.Err() != nil {
			break
		}
		payments, err := s.provider.FetchOrderPayments(ctx, order.ProviderOrderID)
		if err != nil {
			log.Warn("fetch order payments failed", slog.String("order_id", order.ProviderOrderID), logging.Err(err))
			continue
		}
		for _, p := range payments {
			if checkPayment(order, p) != nil {
				continue
			}
			if _, err := s.record(ctx, order.ProviderOrderID, p.ID, SourceReconcile); err != nil {
				log.Error("record reconciled donation failed", slog.String("order_id", order.ProviderOrderID), logging.Err(err))
				break
			}
			recorded++
			break
		}
	}

	s.reconciled("ok")
	if recorded > 0 {
		log.Info("reconciled donations", slog.Int("recorded", recorded), slog.Int("checked", len(orders)))
	}
	return recorded, nil
}

func (s *DonationService) List(ctx context.Context, limit, offset int) ([]types.Donation, error) {
	return s.donations.List(ctx, limit, offset)
}

func (s *DonationService) Totals(ctx context.Context) (int, int64, error) {
	return s.donations.Totals(ctx)
}

func (s *DonationService) record(ctx context.Context, orderID, paymentID, source string) (types.Donation, error) {
	donation, created, err := s.donations.RecordForOrder(ctx, orderID, paymentID)
	if err != nil {
		return types.Donation{}, err
	}
	if created {
		s.log.Info("donation recorded",
			slog.String("source", source),
			slog.String("order_id", orderID),
			slog.Int64("amount", donation.Amount),
		)
		if s.metrics != nil {
			s.metrics.DonationsRecorded.WithLabelValues(source).Inc()
		}
		_ = publish(ctx, s.publisher, s.metrics, s.log, mq.TopicDonationRecorded, donation)
	}
	return donation, nil
}

func (s *DonationService) reconciled(outcome string) {
	if s.metrics != nil {
		s.metrics.ReconcileRuns.WithLabelValues(outcome).Inc()
	}
}
