package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// InitiateRequest starts a hosted-checkout payment at the gateway. RequestID
// doubles as the idempotency key towards the gateway.
type InitiateRequest struct {
	RequestID     string
	Amount        decimal.Decimal
	Currency      string
	ReturnURL     string
	NotifyURL     string
	CustomerName  string
	CustomerPhone string
}

type InitiateResult struct {
	PaymentURL       string
	GatewayPaymentID string
	RawResponse      string
}

// StatusResult is the gateway's view of a payment, fetched on demand when a
// webhook may have been lost.
type StatusResult struct {
	Status      string
	Amount      *decimal.Decimal
	RawResponse string
}

// Client is the only contract the core holds with the payment gateway.
type Client interface {
	InitiatePayment(ctx context.Context, req InitiateRequest) (InitiateResult, error)
	VerifyPayment(ctx context.Context, gatewayPaymentID string) (StatusResult, error)
	CancelPayment(ctx context.Context, gatewayPaymentID string) error
}
