package repo_interfaces

import (
	"context"

	"github.com/vaultpay/wallet-core/internal/domain"
)

// CompleteTopUpParams finishes a confirmed gateway payment: the credit
// transaction to create, the account to credit and the raw gateway payload
// for the payment's audit column.
type CompleteTopUpParams struct {
	PaymentID       string
	Transaction     domain.Transaction
	GatewayResponse string
}

type PaymentRepository interface {
	// Create persists a new payment; the request id carries a storage-level
	// uniqueness constraint.
	Create(ctx context.Context, payment domain.Payment) (domain.Payment, error)

	GetByID(ctx context.Context, id string) (domain.Payment, error)
	GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (domain.Payment, error)

	// Update persists gateway correlation fields and status changes that do
	// not move money (failed, cancelled, redirect url).
	Update(ctx context.Context, payment domain.Payment) (domain.Payment, error)

	// RecordGatewayOutcome marks a terminal gateway outcome that moves no
	// money (failed, cancelled). The webhook-received flag is checked and
	// set in the same statement, so concurrent deliveries record the
	// outcome once; a payment already settled is returned unchanged.
	RecordGatewayOutcome(ctx context.Context, paymentID string, status domain.PaymentStatus, gatewayResponse string) (domain.Payment, error)

	// CompleteTopUp atomically creates the credit transaction, increases the
	// account balance, links payment and transaction, and marks the payment
	// completed with the webhook-received flag set. The received flag is
	// checked under the same lock that sets it, so a webhook replayed
	// concurrently results in exactly one balance mutation; the replay gets
	// the already-linked payment back unchanged.
	CompleteTopUp(ctx context.Context, params CompleteTopUpParams) (domain.Payment, error)
}

type WebhookLogRepository interface {
	Create(ctx context.Context, log domain.WebhookLog) (domain.WebhookLog, error)
	// Finish records the processing outcome exactly once.
	Finish(ctx context.Context, id string, processed bool, errorMessage string) error
}
