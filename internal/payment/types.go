package payment

// Order is a provider order created before checkout.
type Order struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Notes      map[string]string `json:"notes,omitempty"`
	CreatedAt  int64             `json:"created_at"`
}

// Payment is a single payment attempt against an order.
type Payment struct {
	ID               string `json:"id"`
	Entity           string `json:"entity"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	OrderID          string `json:"order_id"`
	Method           string `json:"method"`
	Captured         bool   `json:"captured"`
	Email            string `json:"email"`
	ErrorCode        string `json:"error_code,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	CreatedAt        int64  `json:"created_at"`
}

// Payment states reported by the provider.
const (
	StatusCreated    = "created"
	StatusAuthorized = "authorized"
	StatusCaptured   = "captured"
	StatusRefunded   = "refunded"
	StatusFailed     = "failed"
)

// Succeeded reports whether the payment moved money: captured, or
// authorized and awaiting auto-capture.
func (p Payment) Succeeded() bool {
	return p.Status == StatusCaptured || p.Status == StatusAuthorized
}

// CreateOrderRequest is the body of POST /orders.
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type paymentCollection struct {
	Entity string    `json:"entity"`
	Count  int       `json:"count"`
	Items  []Payment `json:"items"`
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Webhook event names handled by the API.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// WebhookEvent is the envelope the provider posts to the webhook URL.
type WebhookEvent struct {
	Entity    string   `json:"entity"`
	AccountID string   `json:"account_id"`
	Event     string   `json:"event"`
	Contains  []string `json:"contains"`
	Payload   struct {
		Payment *struct {
			Entity Payment `json:"entity"`
		} `json:"payment,omitempty"`
		Order *struct {
			Entity Order `json:"entity"`
		} `json:"order,omitempty"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

// PaymentEntity returns the embedded payment, if any.
func (e WebhookEvent) PaymentEntity() (Payment, bool) {
	if e.Payload.Payment == nil {
		return Payment{}, false
	}
	return e.Payload.Payment.Entity, true
}
