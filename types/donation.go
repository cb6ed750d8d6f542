package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Donation purposes offered on the donate page.
const (
	PurposeGeneralFund       = "General Fund"
	PurposeEducationPrograms = "Education Programs"
	PurposeFoodSecurity      = "Food Security"
	PurposeCommunityGardens  = "Community Gardens"
	PurposeYouthDevelopment  = "Youth Development"
)

// DonationPurposes lists the accepted purposes; the first one is the default.
var DonationPurposes = []string{
	PurposeGeneralFund,
	PurposeEducationPrograms,
	PurposeFoodSecurity,
	PurposeCommunityGardens,
	PurposeYouthDevelopment,
}

// IsDonationPurpose reports whether p is one of DonationPurposes.
func IsDonationPurpose(p string) bool {
	for _, known := range DonationPurposes {
		if p == known {
			return true
		}
	}
	return false
}

// Donation represents a completed, provider-confirmed payment.
// It is written once and never mutated.
type Donation struct {
	// ID is the unique identifier of the donation.
	ID int `json:"id" db:"id"`

	// Amount is the donated amount in minor currency units (paise, cents).
	Amount int64 `json:"amount" db:"amount"`

	// Currency is the ISO 4217 code the amount is expressed in.
	Currency string `json:"currency" db:"currency"`

	Name    string `json:"name" db:"name"`
	Email   string `json:"email" db:"email"`
	Message string `json:"message" db:"message"`

	// IsRecurring records the donor's wish to give regularly.
	IsRecurring bool `json:"isRecurring" db:"is_recurring"`

	// Purpose is one of DonationPurposes.
	Purpose string `json:"purpose" db:"purpose"`

	// ProviderPaymentID is the payment provider's payment reference.
	// It is unique, which makes recording a donation idempotent.
	ProviderPaymentID string `json:"providerPaymentId" db:"provider_payment_id"`

	// ProviderOrderID is the order the payment settled.
	ProviderOrderID string `json:"providerOrderId" db:"provider_order_id"`

	// CreatedAt is the timestamp when the donation was recorded.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PaymentOrder tracks a provider order between checkout and confirmation.
// Donor details ride along so the donation can be written server-side.
type PaymentOrder struct {
	ProviderOrderID string      `json:"orderId" db:"provider_order_id"`
	Amount          int64       `json:"amount" db:"amount"`
	Currency        string      `json:"currency" db:"currency"`
	Receipt         string      `json:"receipt" db:"receipt"`
	Name            string      `json:"name" db:"name"`
	Email           string      `json:"email" db:"email"`
	Message         string      `json:"message" db:"message"`
	IsRecurring     bool        `json:"isRecurring" db:"is_recurring"`
	Purpose         string      `json:"purpose" db:"purpose"`
	Status          OrderStatus `json:"status" db:"status"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time   `json:"updatedAt" db:"updated_at"`
}

// OrderStatus is the lifecycle state of a PaymentOrder.
type OrderStatus int

// Supported order states.
const (
	// OrderCreated means the provider order exists and no payment has
	// been confirmed yet.
	OrderCreated OrderStatus = iota

	// OrderPaid means a payment was verified and the donation recorded.
	OrderPaid

	// OrderFailed means the provider reported the payment as failed.
	OrderFailed
)

// String returns the representation stored in the database and used in
// API responses and logs.
func (s OrderStatus) String() string {
	switch s {
	case OrderCreated:
		return "created"
	case OrderPaid:
		return "paid"
	case OrderFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseOrderStatus is the inverse of OrderStatus.String.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "created":
		return OrderCreated, nil
	case "paid":
		return OrderPaid, nil
	case "failed":
		return OrderFailed, nil
	default:
		return 0, fmt.Errorf("unknown order status %q", s)
	}
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}
