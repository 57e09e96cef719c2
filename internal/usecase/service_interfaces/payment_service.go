package service_interfaces

import (
	"context"

	"github.com/vaultpay/wallet-core/internal/adapter/http/models"
	"github.com/vaultpay/wallet-core/internal/commons"
)

type PaymentService interface {
	InitiateTopUp(ctx context.Context, req models.InitiateTopUpRequest) (commons.Response[models.PaymentResponse], error)
	GetPayment(ctx context.Context, id string) (commons.Response[models.PaymentResponse], error)
	CancelPayment(ctx context.Context, id string, requestingUserID string) (commons.Response[models.PaymentResponse], error)
	VerifyPayment(ctx context.Context, id string) (commons.Response[models.PaymentResponse], error)

	// ProcessWebhook never raises past its boundary: every failure mode is
	// reported through the returned flag and the webhook log.
	ProcessWebhook(ctx context.Context, payload []byte, signature string) bool
}
