package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// Payment tracks one top-up attempt against the external gateway. RequestID
// is globally unique and acts as the idempotency key towards the gateway;
// GatewayPaymentID, once the gateway responds, is the correlation key for
// webhook deliveries. TransactionID is set exactly once, when the gateway
// confirms, and never changes afterwards.
type Payment struct {
	ID               string
	UserID           string
	AccountID        string
	Gateway          string
	GatewayPaymentID *string
	RequestID        string
	Amount           decimal.Decimal
	Currency         string
	Status           PaymentStatus
	RedirectURL      *string
	TransactionID    *string
	GatewayResponse  *string
	WebhookReceived  bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// WebhookLog witnesses one inbound webhook delivery. It is created when the
// delivery arrives and updated once when processing finishes; it never
// replaces the payment's own state.
type WebhookLog struct {
	ID             string
	PaymentID      *string
	Payload        string
	Signature      string
	SignatureValid bool
	Processed      bool
	ErrorMessage   *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
